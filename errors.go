package spp

import "fmt"

// Kind classifies the distinct error conditions the protocol stack can
// surface, mirroring the labels used throughout the wire-protocol design:
// initialization conflicts, malformed text/binary, unknown identifiers,
// bad or out-of-range parameters, transport timeouts, frame corruption,
// and protocol misuse (e.g. an oversize body).
type Kind int

const (
	// KindInitialization signals a registry construction conflict, such as
	// two different labels claiming the same identifier code.
	KindInitialization Kind = iota
	// KindParse signals malformed text or binary structure.
	KindParse
	// KindIdentifierUnknown signals an unregistered code or label.
	KindIdentifierUnknown
	// KindParameterInvalid signals a parameter that parsed but cannot be
	// accepted, e.g. an integer literal outside the range of its width (a
	// non-numeric literal is KindParse).
	KindParameterInvalid
	// KindParameterOutOfRange signals a parameter of the correct format
	// but a disallowed value.
	KindParameterOutOfRange
	// KindTransportTimeout signals that no valid reply arrived before the
	// exchange deadline expired.
	KindTransportTimeout
	// KindFrameInvalid signals a sync/address/length/CRC mismatch.
	KindFrameInvalid
	// KindProtocolMisuse signals a structurally valid request that
	// violates a protocol constraint, such as an oversize message body.
	KindProtocolMisuse
)

func (k Kind) String() string {
	switch k {
	case KindInitialization:
		return "initialization"
	case KindParse:
		return "parse-error"
	case KindIdentifierUnknown:
		return "identifier-unknown"
	case KindParameterInvalid:
		return "parameter-invalid"
	case KindParameterOutOfRange:
		return "parameter-out-of-range"
	case KindTransportTimeout:
		return "transport-timeout"
	case KindFrameInvalid:
		return "frame-invalid"
	case KindProtocolMisuse:
		return "protocol-misuse"
	}
	return fmt.Sprintf("kind %d", int(k))
}

// Error is the error type raised by every parser, the frame codec, and the
// transport. It carries a Kind so callers (in particular the script façade)
// can distinguish a malformed command line from a timed-out exchange
// without string-matching.
type Error struct {
	Kind Kind
	Msg  string
}

// Error implements the builtin error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("spp: %s: %s", e.Kind, e.Msg)
}

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, &Error{Kind: KindX}) matches any error of kind KindX.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error produced by this package, or
// returns ok=false for any other error (including nil).
func KindOf(err error) (Kind, bool) {
	var e *Error
	if err == nil {
		return 0, false
	}
	if se, ok := err.(*Error); ok {
		e = se
	}
	if e == nil {
		return 0, false
	}
	return e.Kind, true
}
