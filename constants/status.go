package constants

// TaskStatus is the canonical status for a persistence task.
type TaskStatus string

// Stable values (these exact strings go over the wire and into the task store).
const (
	TaskStatusPending    TaskStatus = "pending"    // submitted, not yet picked up
	TaskStatusProcessing TaskStatus = "processing" // worker is draining the batch
	TaskStatusCompleted  TaskStatus = "completed"  // terminal success
	TaskStatusFailed     TaskStatus = "failed"     // terminal failure
)

// Terminal reports whether no further transition is allowed from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// ItemStatus is the per-item outcome recorded while draining a batch.
type ItemStatus string

const (
	ItemStatusCreated   ItemStatus = "created"
	ItemStatusDuplicate ItemStatus = "duplicate"
	ItemStatusError     ItemStatus = "error"
)
