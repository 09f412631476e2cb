package relay

import "encoding/json"

// Kind classifies a failed relay attempt. It decides the HTTP status the
// caller sees and nothing else; no recovery is attempted anywhere.
type Kind string

const (
	KindBadRequest     Kind = "bad_request"
	KindSymbolNotFound Kind = "symbol_not_found"
	KindAuthFailed     Kind = "auth_failed"
	KindOrderRejected  Kind = "order_rejected"
	KindTransport      Kind = "transport"
)

type Error struct {
	Kind    Kind
	Message string
	// Detail is the broker's own error payload, surfaced verbatim.
	Detail json.RawMessage
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}
