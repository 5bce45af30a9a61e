package container

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/RuleID rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindFormat covers malformed or unrecognized carrier structure.
	// Never retried; surfaced with the offending byte offset.
	KindFormat Kind = "Format"
	// KindOverlay covers payloads that do not fit the reserved region,
	// or block pairs that violate the alignment contract. Reported with
	// required vs. available sizes so the caller can reconfigure.
	KindOverlay Kind = "Overlay"
	// KindRepair covers structural tables that could not be reconciled
	// after mutation. Fatal; indicates a template-construction bug.
	KindRepair Kind = "Repair"
	// KindVerification covers hash properties not observed on final
	// artifacts. Fatal; never downgraded to a warning.
	KindVerification Kind = "Verification"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., CARR-FMT-011, CARR-OVL-001,
// CARR-REP-002) naming the violated invariant.
//
// Offset, when >= 0, is the byte position in the carrier the error refers
// to. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Offset  int
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("%s (at byte %d, 0x%x)", e.Message, e.Offset, e.Offset)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError returns a structured error with no positional context.
func NewError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Offset: -1}
}

// OffsetError returns a structured error anchored at a byte offset.
func OffsetError(kind Kind, ruleID string, offset int, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Offset: offset}
}

// WrapError returns a structured error wrapping an underlying cause.
func WrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Offset: -1, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// ErrOffset returns the byte offset carried by a structured error, or -1.
func ErrOffset(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return -1
	}
	return e.Offset
}
