package split

import "fmt"

// Code identifies the kind of split failure. Every split failure is
// recoverable: the caller should ask for corrected input instead of falling
// back to a default split.
type Code string

const (
	CodePercentageOverflow  Code = "PERCENTAGE_OVERFLOW"
	CodeFixedAmountOverflow Code = "FIXED_AMOUNT_OVERFLOW"
	CodeInvalidToken        Code = "INVALID_TOKEN"
	CodeNoParticipants      Code = "NO_PARTICIPANTS"
)

var descriptions = map[Code]string{
	CodePercentageOverflow:  "percentages exceed the total amount",
	CodeFixedAmountOverflow: "fixed amounts exceed the total amount",
	CodeInvalidToken:        "invalid split token",
	CodeNoParticipants:      "no participants to split between",
}

// Error is returned by ParseSplits. Use errors.Is against the Err* values to
// test the code, or errors.As to read the offending token.
type Error struct {
	Code   Code
	Token  string
	Reason string
}

var (
	ErrPercentageOverflow  = &Error{Code: CodePercentageOverflow}
	ErrFixedAmountOverflow = &Error{Code: CodeFixedAmountOverflow}
	ErrInvalidToken        = &Error{Code: CodeInvalidToken}
	ErrNoParticipants      = &Error{Code: CodeNoParticipants}
)

func (e *Error) Error() string {
	msg := descriptions[e.Code]
	if e.Token != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Token)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is matches any split error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func invalidToken(token, reason string) *Error {
	return &Error{Code: CodeInvalidToken, Token: token, Reason: reason}
}
