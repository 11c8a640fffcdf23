// Package delivery defines the contract between the notification core and
// the chat transport that actually sends messages.
package delivery

import "errors"

// Destination identifies where a message goes. ThreadID is the forum topic
// for supergroups that have them; 0 means the chat itself.
type Destination struct {
	ChatID   int64
	ThreadID int
}

// Sender delivers one rendered message to a destination. Implementations
// must wrap failures with Unreachable or Transient so callers can decide
// between deactivating the event and retrying later.
type Sender interface {
	Send(dest Destination, text string) error
}

type Reason int

const (
	// ReasonTransient covers everything that may succeed on a later
	// attempt: rate limits, network errors, Telegram 5xx.
	ReasonTransient Reason = iota
	// ReasonUnreachable means the destination is permanently gone: the bot
	// was blocked or kicked, or the chat no longer exists.
	ReasonUnreachable
)

type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Reason == ReasonUnreachable {
		return "destination unreachable: " + e.Err.Error()
	}
	return "delivery failed: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Unreachable marks err as a permanent destination failure.
func Unreachable(err error) error {
	return &Error{Reason: ReasonUnreachable, Err: err}
}

// Transient marks err as retryable.
func Transient(err error) error {
	return &Error{Reason: ReasonTransient, Err: err}
}

// IsUnreachable reports whether err carries the permanent classification.
func IsUnreachable(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Reason == ReasonUnreachable
}
