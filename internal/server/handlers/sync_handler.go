package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cigamsync/internal/database/models"
	"cigamsync/internal/sync"
)

type SyncHandler struct {
	engine *sync.ProductEngine
	runner *sync.Runner
}

func NewSyncHandler(engine *sync.ProductEngine, runner *sync.Runner) *SyncHandler {
	return &SyncHandler{
		engine: engine,
		runner: runner,
	}
}

type initSyncRequest struct {
	SyncType   string `json:"sync_type" binding:"required"`
	Background bool   `json:"background"`
}

// InitSync starts a sync run. 409 carries the already-running log so
// the client polls it instead of retrying.
func (h *SyncHandler) InitSync(c *gin.Context) {
	var req initSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}

	logRow, err := h.engine.InitSync(c.Request.Context(), models.SyncType(req.SyncType), usernameFrom(c))
	if err != nil {
		var conflict *sync.ConflictError
		var validation *sync.ValidationError
		switch {
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   conflict.Error(),
				"data":    conflict.ExistingLog,
			})
		case errors.As(err, &validation):
			fail(c, http.StatusUnprocessableEntity, validation.Error())
		case errors.Is(err, sync.ErrSourceUnavailable):
			fail(c, http.StatusServiceUnavailable, "CIGAM is unavailable")
		default:
			fail(c, http.StatusInternalServerError, "Failed to init sync: "+err.Error())
		}
		return
	}

	if req.Background {
		h.runner.Start(logRow.ID)
	}

	success(c, logRow)
}

func (h *SyncHandler) SyncLookups(c *gin.Context) {
	counts, err := h.engine.SyncLookups(c.Request.Context())
	if err != nil {
		if errors.Is(err, sync.ErrSourceUnavailable) {
			fail(c, http.StatusServiceUnavailable, "CIGAM is unavailable")
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to sync lookups: "+err.Error())
		return
	}

	success(c, gin.H{"lookups": counts})
}

func (h *SyncHandler) GetStatus(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid log ID")
		return
	}

	logRow, err := h.engine.GetLog(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sync.ErrLogNotFound) {
			fail(c, http.StatusNotFound, "Sync log not found")
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to get sync log: "+err.Error())
		return
	}

	success(c, logRow)
}

type chunkRequest struct {
	LogID         int64  `json:"log_id" binding:"required"`
	LastReference string `json:"last_reference"`
	ChunkSize     int    `json:"chunk_size"`
}

func (h *SyncHandler) ProcessChunk(c *gin.Context) {
	var req chunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}
	if req.ChunkSize == 0 {
		req.ChunkSize = 500
	}

	result, err := h.engine.ProcessChunk(c.Request.Context(), req.LogID, req.LastReference, req.ChunkSize)
	if err != nil {
		var validation *sync.ValidationError
		switch {
		case errors.As(err, &validation):
			fail(c, http.StatusUnprocessableEntity, validation.Error())
		case errors.Is(err, sync.ErrLogNotFound), errors.Is(err, sync.ErrLogNotRunning):
			fail(c, http.StatusUnprocessableEntity, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to process chunk: "+err.Error())
		}
		return
	}

	success(c, result)
}

type logIDRequest struct {
	LogID int64 `json:"log_id" binding:"required"`
}

func (h *SyncHandler) SyncPrices(c *gin.Context) {
	var req logIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.engine.SyncPrices(c.Request.Context(), req.LogID)
	if err != nil {
		switch {
		case errors.Is(err, sync.ErrLogNotFound), errors.Is(err, sync.ErrLogNotRunning):
			fail(c, http.StatusUnprocessableEntity, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to sync prices: "+err.Error())
		}
		return
	}

	success(c, result)
}

func (h *SyncHandler) FinalizeSync(c *gin.Context) {
	var req logIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}

	logRow, err := h.engine.FinalizeSync(c.Request.Context(), req.LogID)
	if err != nil {
		if errors.Is(err, sync.ErrLogNotFound) {
			fail(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to finalize sync: "+err.Error())
		return
	}

	success(c, logRow)
}

func (h *SyncHandler) CancelSync(c *gin.Context) {
	var req logIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}

	logRow, err := h.engine.CancelSync(c.Request.Context(), req.LogID)
	if err != nil {
		switch {
		case errors.Is(err, sync.ErrLogNotFound), errors.Is(err, sync.ErrLogNotRunning):
			fail(c, http.StatusUnprocessableEntity, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to cancel sync: "+err.Error())
		}
		return
	}

	success(c, logRow)
}

func (h *SyncHandler) ListLogs(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 20)

	logs, total, err := h.engine.ListLogs(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to list sync logs: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}
