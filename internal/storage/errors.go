package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("storage: not found")
	ErrConflict = errors.New("storage: duplicate id")
)

// StoreIOError wraps a failure of the underlying database. Callers that keep
// running after one (the sync loop) match it with errors.As.
type StoreIOError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreIOError) Unwrap() error { return e.Err }

func IsStoreIO(err error) bool {
	var ioErr *StoreIOError
	return errors.As(err, &ioErr)
}

// Both sqlite drivers report primary key violations with this text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
