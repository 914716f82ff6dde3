package models

import "errors"

var (
	// ErrInvalidInput marks malformed labels, attempts, results or answers; the state is left untouched
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownEntity marks an unrecognized game or condition; the update is a no-op
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrSensorUnavailable marks an emotion sensor that failed to initialize
	ErrSensorUnavailable = errors.New("emotion sensor unavailable")
	// ErrSessionNotFound marks a missing assessment session
	ErrSessionNotFound = errors.New("session not found")
	// ErrReportsUnavailable marks a report request when no email delivery is configured
	ErrReportsUnavailable = errors.New("report delivery unavailable")
)
