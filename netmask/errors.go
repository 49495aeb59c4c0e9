package netmask

import "errors"

// ErrInvalidMask is the category error for every parse/validation failure in
// this package. Branch with errors.Is(err, ErrInvalidMask); use errors.As to
// extract *Error for the specific rule.
var ErrInvalidMask = errors.New("netmask: invalid mask")

// Error is the package's structured error type.
//
// RuleID is a stable identifier (e.g., LS-MASK-003) that names the violated
// rule. Message is intended for humans; do not match on it.
type Error struct {
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is makes every *Error match ErrInvalidMask under errors.Is.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidMask
}

func newError(ruleID, msg string) error {
	return &Error{RuleID: ruleID, Message: msg}
}

func wrapError(ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(ruleID, msg)
	}
	return &Error{RuleID: ruleID, Message: msg, Cause: cause}
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
