package db

import "errors"

var (
	// ErrEndpointNotFound indicates a status write targeted an endpoint the
	// directory no longer has; the row was removed mid-cycle.
	ErrEndpointNotFound = errors.New("endpoint not found")
)
