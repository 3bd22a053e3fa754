package auth

import (
	"errors"
	"strings"

	"github.com/Rishi-0007/tm-assignment/internal/bus"
)

// Error kinds returned by the auth service. Callers classify with errors.Is;
// the wrapped text carries the client-facing detail.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

var errorKinds = []error{ErrInvalidInput, ErrConflict, ErrUnauthorized, ErrForbidden, ErrUserNotFound}

// remoteError is an error that crossed the service bus as text and had its
// kind restored.
type remoteError struct {
	kind error
	msg  string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }

// classifyError converts service errors back to sentinel errors by matching the
// error text. Errors lose their type information on the bus.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	msg := bus.Message(err)
	for _, kind := range errorKinds {
		if msg == kind.Error() || strings.HasPrefix(msg, kind.Error()+": ") {
			return &remoteError{kind: kind, msg: msg}
		}
	}
	for _, kind := range errorKinds {
		if i := strings.Index(msg, kind.Error()+":"); i >= 0 {
			return &remoteError{kind: kind, msg: msg[i:]}
		}
		if strings.HasSuffix(msg, kind.Error()) {
			return &remoteError{kind: kind, msg: kind.Error()}
		}
	}
	return err
}

// Detail strips the kind prefix from an auth error, leaving the message that
// is safe to show to a client.
func Detail(err error) string {
	msg := err.Error()
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return strings.TrimPrefix(msg, kind.Error()+": ")
		}
	}
	return msg
}
