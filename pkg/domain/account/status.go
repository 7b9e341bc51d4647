package account

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an account. The zero value is not a valid status.
type Status uint8

const (
	// StatusActive accounts accept every ledger operation.
	StatusActive Status = iota + 1
	// StatusBlocked accounts are frozen by an administrator and may be unblocked.
	StatusBlocked
	// StatusClosed is terminal.
	StatusClosed
)

// String returns the canonical upper case name of the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusBlocked:
		return "BLOCKED"
	case StatusClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// IsValid reports whether s is one of the declared statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusClosed:
		return true
	default:
		return false
	}
}

// ParseStatus converts a stored status name back into a Status.
func ParseStatus(v string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ACTIVE":
		return StatusActive, nil
	case "BLOCKED":
		return StatusBlocked, nil
	case "CLOSED":
		return StatusClosed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
}

// CanTransitionTo reports whether the status machine allows moving from s to next.
//
//	ACTIVE  -> BLOCKED | CLOSED
//	BLOCKED -> ACTIVE  | CLOSED
//	CLOSED  -> (none)
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusActive:
		switch next {
		case StatusBlocked, StatusClosed:
			return true
		case StatusActive:
			return false
		}
	case StatusBlocked:
		switch next {
		case StatusActive, StatusClosed:
			return true
		case StatusBlocked:
			return false
		}
	case StatusClosed:
		return false
	}
	return false
}

func (s Status) transitionTo(next Status) error {
	if !s.IsValid() || !next.IsValid() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, s, next)
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, next)
	}
	return nil
}
