// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/repository"
)

var (
	// ErrNotFound is wrapped with the entity name, e.g. "product not found".
	ErrNotFound = errors.New("not found")
	// ErrPermission means the caller's role does not reach the requested scope.
	ErrPermission = errors.New("permission denied")
	// ErrConflict reports a uniqueness clash such as a second WFH record on
	// the same day.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials is returned by Login for any bad email/password
	// combination.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is a client error about a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StoreError wraps a persistence failure. It is surfaced as a server error
// and never retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// storeErr maps repository and gorm errors onto the service taxonomy.
func storeErr(op, entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(entity)
	case errors.Is(err, repository.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %w", entity, ErrConflict)
	default:
		return &StoreError{Op: op, Err: err}
	}
}
