package service

import "github.com/google/uuid"

// NewRequestID returns a short random id, safe for use in file names.
func NewRequestID() string {
	return uuid.NewString()[:8]
}
