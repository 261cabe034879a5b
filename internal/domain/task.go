package domain

// Task is a single to-do item, exclusively owned by one user.
type Task struct {
	ID          TaskID
	UserID      UserID
	Title       string
	Description string
	Completed   bool
	CreatedAt   Timestamp
	UpdatedAt   Timestamp
}

// TaskFilter selects tasks by completion state when listing.
type TaskFilter string

const (
	FilterAll       TaskFilter = "all"
	FilterPending   TaskFilter = "pending"
	FilterCompleted TaskFilter = "completed"
)

// ParseTaskFilter maps free text to a filter, defaulting to "all".
func ParseTaskFilter(s string) TaskFilter {
	switch TaskFilter(s) {
	case FilterPending:
		return FilterPending
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Matches reports whether the task passes the filter.
func (f TaskFilter) Matches(t *Task) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// TaskUpdate carries the fields of a partial update. Nil means
// "leave unchanged".
type TaskUpdate struct {
	Title       *string
	Description *string
}
