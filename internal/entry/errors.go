package entry

import "fmt"

// ValidationError reports a rejected user input on a single field.
// It blocks saving the edit and nothing else.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
