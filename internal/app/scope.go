package app

import (
	"fmt"
	"strings"
)

// Scope carries the caller identity of one request into every service call.
type Scope struct {
	SessionID string
	RequestID string
}

func (s Scope) validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return fmt.Errorf("%w: missing session", ErrValidation)
	}
	return nil
}
