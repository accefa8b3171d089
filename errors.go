package modbus

import "errors"

// ErrorKind is the engine's error taxonomy. Unlike Exception, these are never put on
// the wire: they report a failure of the engine or its caller, not of the remote peer.
type ErrorKind uint8

const (
	// ErrOOB marks an address or index outside the bounds of its owning space.
	ErrOOB ErrorKind = iota + 1
	// ErrOOBContext marks a sink or context access that ran out of room.
	ErrOOBContext
	// ErrFrameBroken marks an envelope that failed validation before classification
	// (bad MBAP protocol id, truncated frame, undecodable ASCII hex).
	ErrFrameBroken
	// ErrFrameCRCError is a FrameBroken specialization: the RTU CRC did not match.
	ErrFrameCRCError
	// ErrFrameLRCError is a FrameBroken specialization: the ASCII LRC did not match.
	ErrFrameLRCError
	// ErrCommunication marks a client-side response that does not match the last
	// request (unit id, function code, or transaction id mismatch).
	ErrCommunication
)

func (k ErrorKind) String() string {
	switch k {
	case ErrOOB:
		return "out of bounds"
	case ErrOOBContext:
		return "out of bounds in context or sink"
	case ErrFrameBroken:
		return "frame broken"
	case ErrFrameCRCError:
		return "frame CRC error"
	case ErrFrameLRCError:
		return "frame LRC error"
	case ErrCommunication:
		return "communication error"
	default:
		return "unknown error"
	}
}

// Error is an ErrorKind wrapped as a Go error, optionally carrying an underlying cause.
type Error struct {
	Kind  ErrorKind
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Kind.String() + ": " + e.cause.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is the same ErrorKind, so callers can write
// errors.Is(err, modbus.ErrBrokenFrame) directly against the package-level sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newErr(kind ErrorKind) *Error { return &Error{Kind: kind} }

func wrapErr(kind ErrorKind, cause error) *Error { return &Error{Kind: kind, cause: cause} }

// Sentinel errors for use with errors.Is. Each wraps an ErrorKind with no cause.
var (
	ErrOutOfBounds        = newErr(ErrOOB)
	ErrOutOfBoundsContext = newErr(ErrOOBContext)
	ErrBrokenFrame        = newErr(ErrFrameBroken)
	ErrBadCRC             = newErr(ErrFrameCRCError)
	ErrBadLRC             = newErr(ErrFrameLRCError)
	ErrCommError          = newErr(ErrCommunication)
)

// errShortBuffer is returned by client response parsing when the buffer is too short
// to contain even a minimal frame for the active protocol.
var errShortBuffer = errors.New("modbus: response buffer too short")
