package reqid

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh request ID for tracing one form-build request.
func New() string {
	return uuid.NewString()
}

// FromHeader returns the caller-supplied request ID when it is a valid UUID,
// or a fresh one otherwise.
func FromHeader(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return New()
	}
	if _, err := uuid.Parse(raw); err != nil {
		return New()
	}
	return strings.ToLower(raw)
}
