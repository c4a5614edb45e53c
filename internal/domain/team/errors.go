package team

import "fmt"

// ValidationError reports a malformed domain value. It is surfaced before any
// side effect is attempted.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
