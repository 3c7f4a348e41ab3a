package domain

import "errors"

var (
	// ErrValidation marks caller mistakes: missing fields, bad enums, past schedule times.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when a requested row does not exist or is soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration marks a missing or malformed active configuration for a channel.
	ErrConfiguration = errors.New("configuration error")

	// ErrTemplateRender marks a template that could not be resolved or rendered.
	ErrTemplateRender = errors.New("template render error")

	// ErrConflict is returned when a state transition is not allowed from the current state.
	ErrConflict = errors.New("conflict")
)
