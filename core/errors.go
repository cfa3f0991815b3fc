package translation

import (
	"fmt"

	"github.com/koscakluka/ema-translate/core/protocol"
)

// Error codes. Any other code received from the backend is a non-fatal
// server error.
const (
	CodePremiumRequired = protocol.CodePremiumRequired
	CodeAuthRequired    = protocol.CodeAuthRequired
	CodeConnectionError = protocol.CodeConnectionError
	CodeNotConnected    = protocol.CodeNotConnected
)

// Error is a coded session error. Two errors match with errors.Is when their
// codes are equal.
type Error struct {
	Code    string
	Message string
	Speaker Speaker

	cause error
}

var (
	ErrPremiumRequired = &Error{Code: CodePremiumRequired, Message: "premium subscription required"}
	ErrAuthRequired    = &Error{Code: CodeAuthRequired, Message: "authentication required"}
	ErrConnection      = &Error{Code: CodeConnectionError, Message: "connection error"}
	ErrNotConnected    = &Error{Code: CodeNotConnected, Message: "not connected"}
)

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.Speaker != "" {
		return fmt.Sprintf("%s (speaker %s): %s", e.Code, e.Speaker, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Unwrap() error { return e.cause }

// IsFatal reports whether the error tears the session down.
func (e *Error) IsFatal() bool {
	return e.Code == CodePremiumRequired || e.Code == CodeAuthRequired
}
