// Package apperr defines the error kinds shared by the stores and the action
// dispatcher. Callers match with errors.Is; Code maps an error to the short
// kind reported on the wire.
package apperr

import "errors"

var (
	ErrInvalid       = errors.New("invalid request")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrLockTimeout   = errors.New("lock wait timed out")
	ErrProtocol      = errors.New("protocol error")
	ErrUnavailable   = errors.New("unavailable")
)

// Wire codes.
const (
	CodeInvalid       = "invalid"
	CodeNotFound      = "not_found"
	CodeAlreadyExists = "already_exists"
	CodeLockTimeout   = "lock_timeout"
	CodeProtocol      = "protocol"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal"
)

// Code returns the wire code for err. Errors that match no known kind are
// reported as internal.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalid):
		return CodeInvalid
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrLockTimeout):
		return CodeLockTimeout
	case errors.Is(err, ErrProtocol):
		return CodeProtocol
	case errors.Is(err, ErrUnavailable):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// Message is an error whose text is shown to the caller as is. It still
// matches its kind through errors.Is.
type Message struct {
	Kind error
	Text string
}

func (m *Message) Error() string { return m.Text }

func (m *Message) Unwrap() error { return m.Kind }

// Invalid returns an ErrInvalid error carrying text verbatim.
func Invalid(text string) error {
	return &Message{Kind: ErrInvalid, Text: text}
}
