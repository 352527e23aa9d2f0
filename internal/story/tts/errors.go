package tts

import (
	"errors"
	"fmt"
)

// ErrorKind classifies narration failures.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorRemoteCall
	ErrorDecode
	ErrorDeviceSynthesis
	ErrorUnsupportedPlatform
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrRemoteCall          = errors.New("remote speech call failed")
	ErrDecode              = errors.New("malformed audio payload")
	ErrDeviceSynthesis     = errors.New("device speech synthesis failed")
	ErrUnsupportedPlatform = errors.New("speech synthesis is not available on this platform")
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorRemoteCall:
		return "remote_call"
	case ErrorDecode:
		return "decode"
	case ErrorDeviceSynthesis:
		return "device_synthesis"
	case ErrorUnsupportedPlatform:
		return "unsupported_platform"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case ErrorRemoteCall:
		return ErrRemoteCall
	case ErrorDecode:
		return ErrDecode
	case ErrorDeviceSynthesis:
		return ErrDeviceSynthesis
	case ErrorUnsupportedPlatform:
		return ErrUnsupportedPlatform
	}
	return nil
}

// Error is a classified narration failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind carried by err, or fallback when err is not
// classified.
func KindOf(err error, fallback ErrorKind) ErrorKind {
	if err == nil {
		return ErrorNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return fallback
}
