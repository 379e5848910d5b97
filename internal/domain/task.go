package domain

// Task is the single to-do item. Storage and transport map to and from
// it; it carries no knowledge of either.
type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Filter narrows a task listing by completion state. A nil Completed
// lists everything.
type Filter struct {
	Completed *bool
}

// Matches reports whether t passes the filter.
func (f Filter) Matches(t Task) bool {
	return f.Completed == nil || *f.Completed == t.Completed
}

// Key is a stable name for the filter, used for cache keys and logs.
func (f Filter) Key() string {
	switch {
	case f.Completed == nil:
		return "all"
	case *f.Completed:
		return "completed"
	default:
		return "active"
	}
}
