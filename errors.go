package bmp388

import "errors"

// Kind is a stable error identifier. It is a string newtype, comparable and
// allocation-free, so callers can dispatch on it without unwrapping.
type Kind string

const (
	KindNone               Kind = ""
	KindBusUnavailable     Kind = "bus_unavailable"
	KindAddressingFailure  Kind = "addressing_failure"
	KindTransferFailure    Kind = "transfer_failure"
	KindUnexpectedDevice   Kind = "unexpected_device"
	KindConfigurationError Kind = "configuration_error"
	KindInvalidSampleCount Kind = "invalid_sample_count"
	KindNilParameter       Kind = "nil_parameter"
	KindTimeout            Kind = "timeout"
)

// Message returns the human-readable description of the kind.
func (k Kind) Message() string {
	switch k {
	case KindBusUnavailable:
		return "bus device could not be opened"
	case KindAddressingFailure:
		return "bus could not be configured for the device address"
	case KindTransferFailure:
		return "register transfer failed"
	case KindUnexpectedDevice:
		return "device did not identify as a BMP388"
	case KindConfigurationError:
		return "sensor settings could not be applied"
	case KindInvalidSampleCount:
		return "sample count must be at least 1"
	case KindNilParameter:
		return "required parameter is nil"
	case KindTimeout:
		return "sensor did not report data ready in time"
	default:
		return "sensor error"
	}
}

// Error tags a failure with the operation and register it occurred on, and
// keeps the cause for unwrapping.
type Error struct {
	Kind Kind
	Op   string
	Reg  byte
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Message()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from an error chain, defaulting to KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

func opErr(kind Kind, op string, reg byte, err error) *Error {
	return &Error{Kind: kind, Op: op, Reg: reg, Err: err}
}
