package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("session not found")
	ErrTraitNotFound = errors.New("trait not found")
	ErrCollaborator  = errors.New("collaborator error")
	ErrPersistence   = errors.New("persistence error")
	ErrSessionClosed = errors.New("session closed")
	ErrSessionBusy   = errors.New("session busy")
)

// ValidationError describe un campo invalido de un descriptor.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CollaboratorError envuelve fallas de los colaboradores externos (timeout, payload invalido, status != 2xx).
// Nunca sale del motor: se degrada a valores neutros.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}
