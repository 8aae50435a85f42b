package store

import (
	"errors"
	"fmt"
)

// StoreError wraps any failure talking to the database.
type StoreError struct {
	Op     string
	Schema string
	Name   string
	Err    error
}

func (e *StoreError) Error() string {
	switch {
	case e.Schema != "" && e.Name != "":
		return fmt.Sprintf("store %s (schema=%s, event=%s): %v", e.Op, e.Schema, e.Name, e.Err)
	case e.Schema != "":
		return fmt.Sprintf("store %s (schema=%s): %v", e.Op, e.Schema, e.Err)
	default:
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err is, or wraps, a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
