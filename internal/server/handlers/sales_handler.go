package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cigamsync/internal/database/models"
	"cigamsync/internal/report"
	"cigamsync/internal/sync"
)

const dateLayout = "2006-01-02"

type SalesHandler struct {
	db       *gorm.DB
	engine   *sync.SalesEngine
	reporter *report.Reporter
}

func NewSalesHandler(db *gorm.DB, engine *sync.SalesEngine, reporter *report.Reporter) *SalesHandler {
	return &SalesHandler{
		db:       db,
		engine:   engine,
		reporter: reporter,
	}
}

func (h *SalesHandler) writeSyncResult(c *gin.Context, result *sync.SalesSyncResult) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  result.Classify(),
		"message": result.Message(),
		"data":    result,
	})
}

func (h *SalesHandler) writeSyncError(c *gin.Context, err error) {
	var validation *sync.ValidationError
	switch {
	case errors.As(err, &validation):
		fail(c, http.StatusUnprocessableEntity, validation.Error())
	case errors.Is(err, sync.ErrSourceUnavailable):
		fail(c, http.StatusServiceUnavailable, "CIGAM is unavailable")
	default:
		fail(c, http.StatusInternalServerError, "Failed to sync sales: "+err.Error())
	}
}

// SyncAuto resumes from the day after the last synced CIGAM sale.
func (h *SalesHandler) SyncAuto(c *gin.Context) {
	result, start, end, err := h.engine.AutoSync(c.Request.Context())
	if err != nil {
		h.writeSyncError(c, err)
		return
	}

	if result.TotalCigamRecords == 0 && start.After(end) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  "info",
			"message": "Sales are already up to date",
			"data":    result,
		})
		return
	}

	h.writeSyncResult(c, result)
}

type syncByMonthRequest struct {
	Year  int    `json:"year" binding:"required"`
	Month int    `json:"month" binding:"required"`
	Store string `json:"store"`
}

func (h *SalesHandler) SyncByMonth(c *gin.Context) {
	var req syncByMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}
	if req.Month < 1 || req.Month > 12 {
		fail(c, http.StatusUnprocessableEntity, "month must be between 1 and 12")
		return
	}

	start := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	result, err := h.engine.SyncDateRange(c.Request.Context(), start, end, req.Store)
	if err != nil {
		h.writeSyncError(c, err)
		return
	}

	h.writeSyncResult(c, result)
}

type syncByRangeRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
	Store string `json:"store"`
}

func (h *SalesHandler) SyncByRange(c *gin.Context) {
	var req syncByRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid start date")
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid end date")
		return
	}

	result, err := h.engine.SyncDateRange(c.Request.Context(), start, end, req.Store)
	if err != nil {
		h.writeSyncError(c, err)
		return
	}

	h.writeSyncResult(c, result)
}

// Report groups one month of sales by effective store.
func (h *SalesHandler) Report(c *gin.Context) {
	now := time.Now()
	year := parseIntQuery(c, "year", now.Year())
	month := parseIntQuery(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		fail(c, http.StatusUnprocessableEntity, "month must be between 1 and 12")
		return
	}

	groups, err := h.reporter.GroupByStore(c.Request.Context(), year, time.Month(month), c.Query("store"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "Store not found")
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to build report: "+err.Error())
		return
	}

	success(c, groups)
}

type createSaleRequest struct {
	StoreCode   string `json:"store_code" binding:"required"`
	EmployeeCPF string `json:"employee_cpf" binding:"required"`
	DateSales   string `json:"date_sales" binding:"required"`
	TotalSales  string `json:"total_sales" binding:"required"`
	QtdeTotal   int32  `json:"qtde_total"`
}

// CreateSale is the manual entry path. The (store, employee, date)
// uniqueness check mirrors the sync path.
func (h *SalesHandler) CreateSale(c *gin.Context) {
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}

	day, err := time.Parse(dateLayout, req.DateSales)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid date_sales")
		return
	}
	total, err := decimal.NewFromString(req.TotalSales)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid total_sales")
		return
	}

	var store models.Store
	if err := h.db.Where("code = ?", req.StoreCode).First(&store).Error; err != nil {
		fail(c, http.StatusUnprocessableEntity, "Unknown store code")
		return
	}
	var employee models.Employee
	if err := h.db.Where("cpf = ?", req.EmployeeCPF).First(&employee).Error; err != nil {
		fail(c, http.StatusUnprocessableEntity, "Unknown employee CPF")
		return
	}

	var existing models.Sale
	err = h.db.Where("store_id = ? AND employee_id = ? AND date_sales = ?", store.ID, employee.ID, day).
		First(&existing).Error
	if err == nil {
		fail(c, http.StatusConflict, "A sale already exists for this store, employee and date")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusInternalServerError, "Failed to check existing sale: "+err.Error())
		return
	}

	sale := models.Sale{
		StoreID:    store.ID,
		EmployeeID: employee.ID,
		DateSales:  day,
		TotalSales: total.StringFixed(2),
		QtdeTotal:  req.QtdeTotal,
		Source:     models.SaleSourceManual,
	}
	if err := h.db.Create(&sale).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create sale: "+err.Error())
		return
	}

	success(c, sale)
}

func (h *SalesHandler) DeleteSale(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid sale ID")
		return
	}

	res := h.db.Delete(&models.Sale{}, id)
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete sale: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "Sale not found")
		return
	}

	success(c, gin.H{"deleted": id})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

func (h *SalesHandler) BulkDeleteSales(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		fail(c, http.StatusUnprocessableEntity, "ids must not be empty")
		return
	}

	res := h.db.Delete(&models.Sale{}, req.IDs)
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete sales: "+res.Error.Error())
		return
	}

	success(c, gin.H{"deleted": res.RowsAffected})
}
