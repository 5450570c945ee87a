package entity

import (
	"errors"

	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

var (
	// ErrNotFound is returned when no request exists for an ID
	ErrNotFound = errors.New("request not found")

	// ErrForbidden is returned when the actor's role may not perform the action
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when the action does not apply in the current status
	ErrInvalidTransition = workflow.ErrInvalidTransition

	// ErrValidation is returned for malformed or incomplete input
	ErrValidation = errors.New("validation failed")
)
