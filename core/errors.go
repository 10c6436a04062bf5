package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyUtterance is returned when a turn is started without text.
	ErrEmptyUtterance = errors.New("utterance is empty")
	// ErrNoCapability is returned when no capability can answer an utterance.
	ErrNoCapability = errors.New("no capability available for utterance")
	// ErrReplyDiscarded is returned to producers once the consumer abandoned a reply.
	ErrReplyDiscarded = errors.New("reply discarded by consumer")
)

// CapabilityError reports a failure raised by a capability while starting,
// streaming or resolving its reply.
type CapabilityError struct {
	Capability string
	Err        error
}

// NewCapabilityError wraps err with the failing capability's name.
func NewCapabilityError(capability string, err error) *CapabilityError {
	return &CapabilityError{Capability: capability, Err: err}
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s failed: %v", e.Capability, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CapabilityError) Unwrap() error { return e.Err }
