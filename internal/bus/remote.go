// Package bus recovers service errors that crossed the mono request/reply bus.
package bus

import "regexp"

// remoteEnvelope matches the text mono gives a handler error on the caller
// side: remote service '<service>' (<module>): <message> (<type>).
var remoteEnvelope = regexp.MustCompile(`(?s)remote service '[^']*' \([^()]*\): (.*) \([A-Za-z0-9_.*\[\]]+\)$`)

// Message returns the handler's own error text, with mono's envelope removed
// when present.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if m := remoteEnvelope.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return msg
}
