package domain

import "fmt"

// NotFoundError reports a referenced entity ID that is absent from its table.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ValidationError reports per-item input problems such as an unknown action
// or category. Batch operations collect these instead of aborting.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
