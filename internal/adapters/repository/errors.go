package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrPassNotFound   = errors.New("pass not found")
	ErrInvalidMiles   = errors.New("distance miles must be positive")
	ErrInvalidStatus  = errors.New("status clear must be DNS or DNF")
	ErrMissingPayload = errors.New("missing required field")
)
