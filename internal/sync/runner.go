package sync

import (
	"context"
	"errors"
	"log"
)

// Runner drives a full chunked product sync server-side: one background
// goroutine calling ProcessChunk until the source is exhausted, then
// finalizing. The HTTP chunk endpoint stays available for manual
// stepping; the runner stops as soon as the log leaves running, so a
// cancel issued between chunks takes effect at the next boundary.
type Runner struct {
	engine    *ProductEngine
	chunkSize int
}

func NewRunner(engine *ProductEngine, chunkSize int) *Runner {
	if chunkSize < MinChunkSize || chunkSize > MaxChunkSize {
		chunkSize = 500
	}
	return &Runner{engine: engine, chunkSize: chunkSize}
}

// Start launches the chunk loop for an already-initialized running log.
func (r *Runner) Start(logID int64) {
	go r.run(context.Background(), logID)
}

func (r *Runner) run(ctx context.Context, logID int64) {
	log.Printf("sync runner: starting chunk loop for log %d", logID)

	lastReference := ""
	for {
		result, err := r.engine.ProcessChunk(ctx, logID, lastReference, r.chunkSize)
		if err != nil {
			if errors.Is(err, ErrLogNotRunning) {
				log.Printf("sync runner: log %d left running state, stopping", logID)
				return
			}
			log.Printf("sync runner: log %d failed: %v", logID, err)
			return
		}

		lastReference = result.LastReference
		if result.Done {
			break
		}
	}

	if _, err := r.engine.FinalizeSync(ctx, logID); err != nil {
		log.Printf("sync runner: finalize log %d: %v", logID, err)
		return
	}
	log.Printf("sync runner: log %d completed", logID)
}
