// Package persist owns the asynchronous persistence pipeline: a FIFO batch
// queue drained by a single worker that deduplicates candidate items against
// the repository and commits the accepted ones, tracking per-task progress.
package persist

import (
	"time"

	"github.com/memoria-cultural/memoria/constants"
)

// Task tracks one submitted batch. Created by Submit; mutated exclusively by
// the worker; readers get snapshots.
type Task struct {
	ID             string               `json:"task_id"`
	Status         constants.TaskStatus `json:"status"`
	TotalItems     int                  `json:"total_items"`
	ProcessedItems int                  `json:"processed_items"`
	Results        []ItemResult         `json:"results"`
	Error          string               `json:"error,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// ItemResult is the outcome for one item, appended in processing order.
type ItemResult struct {
	ItemTitle string               `json:"item_title"`
	Status    constants.ItemStatus `json:"status"`
	Message   string               `json:"message"`
	URI       string               `json:"uri,omitempty"`
}
