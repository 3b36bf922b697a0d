package providers

import (
	"errors"
	"fmt"
)

// TerminalKind distinguishes non-retryable failure causes.
type TerminalKind string

const (
	KindAccessDenied     TerminalKind = "access_denied"
	KindPolicyRestricted TerminalKind = "policy_restricted"
	KindConflict         TerminalKind = "conflict"
)

// TransientError marks a failure worth retrying: rate limiting, a
// temporary conflict, a dependency that has not converged yet.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// TerminalError marks a failure that no retry can fix.
type TerminalError struct {
	Kind TerminalKind
	Err  error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal (%s): %v", e.Kind, e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// Terminal wraps err as non-retryable with a cause.
func Terminal(kind TerminalKind, err error) error {
	if err == nil {
		return nil
	}
	return &TerminalError{Kind: kind, Err: err}
}

// AsTerminal extracts a terminal error if present.
func AsTerminal(err error) (*TerminalError, bool) {
	var te *TerminalError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// ErrNotFound signals the resource is already gone. Delete primitives
// return it (wrapped or bare) so the destroyer records "already absent"
// instead of a failure.
var ErrNotFound = errors.New("resource not found")

// IsNotFound reports whether err means the resource no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
