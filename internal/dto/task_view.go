package dto

import dom "todoweb/internal/domain"

// IndexView is the data passed to the index template.
type IndexView struct {
	Base   string
	Tasks  []dom.Task
	Filter string

	AddForm TaskForm

	// Editing is set on /updateTask/:id.
	Editing    *dom.Task
	EditForm   TaskForm
	EditErrors map[string]string
}
