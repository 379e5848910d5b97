package dto

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	dom "todoweb/internal/domain"

	"github.com/go-playground/validator/v10"
)

// MaxTaskLength is the single limit for task text, shared by the form
// and the tasks.task column.
const MaxTaskLength = 100

var validate = newValidator()

// newValidator adds the rules the task text needs on top of the builtins:
// utf8 rejects byte sequences that are not valid UTF-8 and tasklen caps
// the rune count at MaxTaskLength.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("tasklen", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= MaxTaskLength
	}); err != nil {
		panic(err)
	}
	return v
}

// TaskForm is the body of POST /addTask and POST /updateTask/:id.
// The form tag is used by gin for decoding only; rules run in Validate
// after normalization.
type TaskForm struct {
	Task string `form:"task" validate:"required,utf8,tasklen"`
}

// TaskFormFromTask pre-fills the edit form from a stored task.
func TaskFormFromTask(t dom.Task) TaskForm {
	return TaskForm{Task: t.Text}
}

// ValidationError maps a form field name to a human readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Validate trims the input and checks it. It returns the normalized form,
// or a *ValidationError.
func (f TaskForm) Validate() (TaskForm, error) {
	f.Task = strings.TrimSpace(f.Task)
	err := validate.Struct(f)
	if err == nil {
		return f, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return f, err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[strings.ToLower(fe.Field())] = message(fe)
	}
	return f, out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "utf8":
		return "Enter valid text."
	case "tasklen":
		return fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", MaxTaskLength, utf8.RuneCountInString(fmt.Sprint(fe.Value())))
	default:
		return "Enter a valid value."
	}
}
