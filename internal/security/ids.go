package security

import (
	"github.com/google/uuid"
)

// GenerateSessionID creates a new UUID for assessment session identification
func GenerateSessionID() string {
	return uuid.New().String()
}

// ValidSessionID reports whether id looks like an ID from GenerateSessionID
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
