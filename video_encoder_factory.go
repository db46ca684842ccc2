package libwebrtc

type videoEncoderFactory struct{}

var videoEncoderFactoryDesc = unique[videoEncoderFactory]("webrtc_VideoEncoderFactory")

var webrtcCreateBuiltinVideoEncoderFactory func() uintptr

func init() {
	bind(symbol{"webrtc_CreateBuiltinVideoEncoderFactory", &webrtcCreateBuiltinVideoEncoderFactory})
}

// VideoEncoderFactory is an owned webrtc::VideoEncoderFactory, consumed by
// NewPeerConnectionFactory.
type VideoEncoderFactory struct {
	u *Unique[videoEncoderFactory]
}

// NewBuiltinVideoEncoderFactory returns the library's software encoders.
func NewBuiltinVideoEncoderFactory() (*VideoEncoderFactory, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	raw := webrtcCreateBuiltinVideoEncoderFactory()
	if raw == 0 {
		contractViolation("webrtc_CreateBuiltinVideoEncoderFactory", "returned null")
	}
	return &VideoEncoderFactory{u: FromUnique(videoEncoderFactoryDesc, UniquePtr[videoEncoderFactory](raw))}, nil
}

func (f *VideoEncoderFactory) intoRaw() UniquePtr[videoEncoderFactory] { return f.u.IntoRaw() }

// Close deletes the factory unless it was handed to a peer connection
// factory.
func (f *VideoEncoderFactory) Close() { f.u.Close() }
