// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrConfiguration means the AI credential is missing; AI features are disabled.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation means input or an AI response lacked a required field.
	ErrValidation = errors.New("validation error")
	// ErrUpstream wraps opaque failures of the AI service.
	ErrUpstream = errors.New("upstream service error")

	// ErrLocked is returned when the caller's access tier does not grant the capability.
	ErrLocked = errors.New("locked")
	// ErrBusy is returned when an operation of the same kind is already in flight.
	ErrBusy = errors.New("busy")
)
