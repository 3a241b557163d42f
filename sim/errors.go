package sim

import "errors"

var (
	// ErrDuplicateRegistration is returned when an id is registered twice.
	ErrDuplicateRegistration = errors.New("duplicate registration")
	// ErrUnknownLocation is returned when a person references an unregistered location.
	ErrUnknownLocation = errors.New("unknown location")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)
