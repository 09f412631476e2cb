package capital

import (
	"encoding/json"
	"fmt"
)

// AuthError covers every login failure shape: credential rejection, a 2xx
// response missing the token headers, and non-2xx statuses. Callers treat
// them uniformly; the Reason is for logs.
type AuthError struct {
	Status int
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Reason)
}

// RejectedError is a non-2xx answer from the order endpoint. Body holds the
// broker's JSON error verbatim when it parsed; Text holds a bounded snippet
// otherwise. The relay surfaces it without interpreting broker error codes.
type RejectedError struct {
	Status int
	Body   json.RawMessage
	Text   string
}

func (e *RejectedError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("order rejected (status %d): %s", e.Status, string(e.Body))
	}
	return fmt.Sprintf("order rejected (status %d): %s", e.Status, e.Text)
}

// Detail is the payload to embed in the relay's error response.
func (e *RejectedError) Detail() json.RawMessage {
	if len(e.Body) > 0 {
		return e.Body
	}
	b, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("API error %d", e.Status), "details": e.Text})
	return b
}
