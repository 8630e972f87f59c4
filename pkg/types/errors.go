package types

import "errors"

// Lifecycle errors.
var (
	ErrAlreadyInitialized = errors.New("storage is already initialized")
	ErrNotInitialized     = errors.New("storage is not initialized")
	ErrInvalidEndpoint    = errors.New("endpoint must be an absolute http or https URL")
)

// Operation errors. Absence on get/delete/find is reported by value
// (nil, false, empty slice), never through these.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrUnknownType = errors.New("unknown entity type")
	ErrUnknownVerb = errors.New("unknown or disabled verb")
	ErrInvalidID   = errors.New("invalid entity ID")
)
