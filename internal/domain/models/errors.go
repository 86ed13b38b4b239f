package models

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a referenced entity is missing from the store.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates an entity with the same id already exists.
var ErrConflict = errors.New("already exists")

// ErrValidation indicates an entity or payload failed validation.
var ErrValidation = errors.New("validation failed")

// Entity kinds used in NotFoundError.
const (
	KindLot           = "lot"
	KindWeighing      = "weighing record"
	KindDiet          = "diet record"
	KindInventoryItem = "inventory item"
	KindSession       = "weighing session"
)

// NotFoundError names the missing entity. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements error.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFound builds a NotFoundError.
func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// NewConflict reports a duplicate id.
func NewConflict(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrConflict)
}

func validationError(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, msg)
}
