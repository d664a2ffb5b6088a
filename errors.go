package embeddb

import (
	"errors"
	"fmt"

	"github.com/embeddb/embeddb-go/ring"
)

// ErrorCode classifies an Error by the condition that produced it.
type ErrorCode int

// Error kinds. None are retried internally; all propagate to the caller
// with ring and buffer state left consistent (see DESIGN.md).
const (
	// Config indicates invalid parameters at Open: key size over 8
	// bytes, a page count not aligned to the erase size, too few
	// buffer slots, too few spline points, or a missing PageIO.
	Config ErrorCode = iota + 1

	// Io indicates a page read/write/erase/open/close/flush failure
	// reported by the host-supplied PageIO backend.
	Io

	// OutOfOrder indicates Put was called with a key not strictly
	// greater than the last inserted key.
	OutOfOrder

	// NotFound indicates the requested key is absent.
	NotFound

	// VarDataDeleted indicates GetVar was called for a key whose
	// variable-length bytes have since been overwritten by ring wrap.
	// The fixed-size record is still returned to the caller.
	VarDataDeleted

	// Corrupt indicates the recovery scan observed structurally
	// impossible content, such as two valid pages sharing a logical id.
	Corrupt

	// FeatureDisabled indicates PutVar/GetVar was called on an engine
	// opened without UseVarData.
	FeatureDisabled
)

func (c ErrorCode) String() string {
	switch c {
	case Config:
		return "config"
	case Io:
		return "io"
	case OutOfOrder:
		return "out of order"
	case NotFound:
		return "not found"
	case VarDataDeleted:
		return "var data deleted"
	case Corrupt:
		return "corrupt"
	case FeatureDisabled:
		return "feature disabled"
	default:
		return fmt.Sprintf("unknown error code %d", int(c))
	}
}

// Error is the error type for the Config, Io and Corrupt conditions.
// NotFound, OutOfOrder, VarDataDeleted and FeatureDisabled are returned
// as the sentinel errors below rather than as *Error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embeddb: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("embeddb: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an Error with the code's default message.
func newError(code ErrorCode, message string) *Error {
	if message == "" {
		message = code.String()
	}
	return &Error{Code: code, Message: message}
}

// wrapError builds an Error wrapping a lower-level cause, typically a
// PageIO failure.
func wrapError(code ErrorCode, message string, err error) *Error {
	e := newError(code, message)
	e.Err = err
	return e
}

// wrapRingError tags an error from a ring-file operation with which of
// the three ring files (data, index, var) produced it, so a caller
// inspecting Error.Message can tell them apart without parsing the
// PageIO backend's own path-based message.
func wrapRingError(kind fileKind, op string, err error) error {
	if err == nil {
		return nil
	}
	code := Io
	var re *ring.Error
	if errors.As(err, &re) && re.Kind == "corrupt" {
		code = Corrupt
	}
	return wrapError(code, fmt.Sprintf("%s ring %s", kind, op), err)
}

// Sentinel errors for callers that prefer errors.Is over inspecting Code.
var (
	ErrOutOfOrder      = errors.New("embeddb: key not strictly greater than last inserted key")
	ErrNotFound        = errors.New("embeddb: key not found")
	ErrVarDataDeleted  = errors.New("embeddb: variable data overwritten")
	ErrCorrupt         = errors.New("embeddb: recovery scan found corrupt ring state")
	ErrFeatureDisabled = errors.New("embeddb: variable-length data is not enabled for this engine")
)

// Code returns the ErrorCode carried by err, or 0 if err is nil or
// unrecognized.
func Code(err error) ErrorCode {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrVarDataDeleted):
		return VarDataDeleted
	case errors.Is(err, ErrOutOfOrder):
		return OutOfOrder
	case errors.Is(err, ErrCorrupt):
		return Corrupt
	case errors.Is(err, ErrFeatureDisabled):
		return FeatureDisabled
	}
	return 0
}

// IsNotFound reports whether err is the NotFound condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsVarDataDeleted reports whether err is the VarDataDeleted condition.
func IsVarDataDeleted(err error) bool {
	return errors.Is(err, ErrVarDataDeleted)
}

// IsCorrupt reports whether err indicates recovery-time corruption.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt) || Code(err) == Corrupt
}
