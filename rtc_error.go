package libwebrtc

type rtcError struct{}

var rtcErrorDesc = unique[rtcError]("webrtc_RTCError")

var (
	webrtcRTCErrorOK      func(self uintptr) int32
	webrtcRTCErrorMessage func(self uintptr, outMessage, outLen *uintptr)
)

func init() {
	bind(
		symbol{"webrtc_RTCError_ok", &webrtcRTCErrorOK},
		symbol{"webrtc_RTCError_message", &webrtcRTCErrorMessage},
	)
}

// takeRTCError consumes an RTCError_unique. It returns nil when raw is null
// or reports success.
func takeRTCError(raw uintptr) error {
	if raw == 0 {
		return nil
	}
	u := FromUnique(rtcErrorDesc, UniquePtr[rtcError](raw))
	defer u.Close()
	if webrtcRTCErrorOK(uintptr(u.AsPtr())) != 0 {
		return nil
	}
	return rtcErrorMessage(u.AsPtr())
}

// takeRTCFailure consumes an RTCError_unique delivered on a failure path,
// where an error is expected even if the native object reports ok.
func takeRTCFailure(raw uintptr) *RTCError {
	if raw == 0 {
		return &RTCError{}
	}
	u := FromUnique(rtcErrorDesc, UniquePtr[rtcError](raw))
	defer u.Close()
	return rtcErrorMessage(u.AsPtr())
}

func rtcErrorMessage(p Ptr[rtcError]) *RTCError {
	var msg, n uintptr
	webrtcRTCErrorMessage(uintptr(p), &msg, &n)
	return &RTCError{Message: string(goBytes(msg, int(n)))}
}
