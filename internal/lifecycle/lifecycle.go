// Package lifecycle owns the booking state machine. It is pure: every
// function here decides whether a transition is legal without touching
// storage, so the rules can be tested exhaustively. Repositories apply
// the decided transition inside a database transaction.
package lifecycle

import (
	"errors"
	"time"
)

// Booking statuses. Confirmed and seated are the two entry states
// (online reservation vs. walk-in opened at the terminal); completed,
// cancelled and no_show are terminal for settlement purposes.
const (
	StatusConfirmed = "confirmed"
	StatusSeated    = "seated"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Sentinel errors surfaced to handlers. ErrAlreadySettled is kept
// separate from ErrInvalidTransition so a double settlement attempt can
// be reported deterministically rather than as a generic violation.
var (
	ErrInvalidTransition         = errors.New("invalid booking transition")
	ErrAlreadySettled            = errors.New("booking already settled")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
)

// transitions is the complete edge set of the state machine. Anything
// not listed here is rejected.
var transitions = map[string]map[string]bool{
	StatusConfirmed: {
		StatusSeated:    true,
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
	StatusSeated: {
		StatusCompleted: true,
	},
	StatusNoShow: {
		StatusConfirmed: true, // forgiveness
	},
}

// Valid reports whether s is a known booking status.
func Valid(s string) bool {
	switch s {
	case StatusConfirmed, StatusSeated, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves the given status. A
// forgiven no_show is the single exception, handled by Forgive.
func Terminal(s string) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransition reports whether from -> to is an edge of the machine.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Seat validates opening a scheduled booking at the terminal.
func Seat(from string) error {
	if !CanTransition(from, StatusSeated) {
		return ErrInvalidTransition
	}
	return nil
}

// Complete validates moving a booking into the billable completed
// state. Only the settlement engine calls this; a booking that is
// already in a terminal state reports ErrAlreadySettled so the second
// settlement attempt fails deterministically.
func Complete(from string) error {
	if Terminal(from) {
		return ErrAlreadySettled
	}
	if !CanTransition(from, StatusCompleted) {
		return ErrInvalidTransition
	}
	return nil
}

// Cancel validates a customer- or staff-initiated cancellation. The
// buffer is the configured minimum lead time before start; a zero
// buffer disables the window guard explicitly. Cancellation inside the
// window fails with ErrCancellationWindowExpired.
func Cancel(from string, start, now time.Time, buffer time.Duration) error {
	if !CanTransition(from, StatusCancelled) {
		return ErrInvalidTransition
	}
	if buffer > 0 && now.Add(buffer).After(start) {
		return ErrCancellationWindowExpired
	}
	return nil
}

// MarkNoShow validates recording a no-show marker on a booking.
func MarkNoShow(from string) error {
	if !CanTransition(from, StatusNoShow) {
		return ErrInvalidTransition
	}
	return nil
}

// Forgive validates reversing a no-show marking. It never resurrects
// a cancelled or completed booking.
func Forgive(from string) error {
	if !CanTransition(from, StatusConfirmed) {
		return ErrInvalidTransition
	}
	return nil
}
