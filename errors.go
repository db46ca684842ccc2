package libwebrtc

import (
	"errors"
	"fmt"
)

var (
	// ErrLibraryNotLoaded is returned by constructors until Load succeeds.
	ErrLibraryNotLoaded = errors.New("libwebrtc: native library not loaded")
	// ErrSymbolNotFound is returned by Load when a required symbol is missing.
	ErrSymbolNotFound = errors.New("libwebrtc: symbol not found")
	// ErrConstantMismatch is returned by Load when the library was built
	// against enum values this package does not know.
	ErrConstantMismatch = errors.New("libwebrtc: native constant mismatch")
	// ErrInvalidSDP is returned when a session description does not parse.
	ErrInvalidSDP = errors.New("libwebrtc: invalid SDP")
	// ErrInvalidIceCandidate is returned when a candidate is rejected.
	ErrInvalidIceCandidate = errors.New("libwebrtc: invalid ICE candidate")
	// ErrSendFailed is returned when a data channel refuses a message.
	ErrSendFailed = errors.New("libwebrtc: send failed")
)

// ContractViolation is the panic value raised when the native ABI contract
// is broken: an unexpected null, a double release or a use after release.
// It is never returned as an error.
type ContractViolation struct {
	Op     string
	Detail string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("libwebrtc: contract violation in %s: %s", e.Op, e.Detail)
}

func contractViolation(op, format string, args ...any) {
	panic(&ContractViolation{Op: op, Detail: fmt.Sprintf(format, args...)})
}

// RTCError is a failure reported by the native library through
// webrtc::RTCError.
type RTCError struct {
	Message string
}

func (e *RTCError) Error() string {
	if e.Message == "" {
		return "libwebrtc: rtc error"
	}
	return "libwebrtc: " + e.Message
}
