package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrSessionNotFound     = "Session not found"
	ErrUnknownEntity       = "Unknown game or condition"
	ErrSensorUnavailable   = "Emotion sensor unavailable"
	ErrReportsUnavailable  = "Report delivery unavailable"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"

	maxBodyBytes = 1 << 20
)
