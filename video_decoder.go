package libwebrtc

import "sync"

type (
	videoDecoder         struct{}
	decoderInfo          struct{}
	decoderSettings      struct{}
	decodedImageCallback struct{}
	videoDecoderFactory  struct{}
)

var (
	videoDecoderDesc        = unique[videoDecoder]("webrtc_VideoDecoder")
	decoderInfoDesc         = unique[decoderInfo]("webrtc_VideoDecoder_DecoderInfo")
	videoDecoderFactoryDesc = unique[videoDecoderFactory]("webrtc_VideoDecoderFactory")
)

var (
	webrtcVideoDecoderNew            func(cbs, userData uintptr) uintptr
	webrtcVideoDecoderConfigure      func(self, settings uintptr) int32
	webrtcVideoDecoderDecode         func(self, image uintptr, renderTimeMs int64) int32
	webrtcVideoDecoderGetDecoderInfo func(self uintptr) uintptr

	webrtcDecoderInfoNew                      func() uintptr
	webrtcDecoderInfoGetImplementationName    func(self uintptr) uintptr
	webrtcDecoderInfoSetImplementationName    func(self, name uintptr)
	webrtcDecoderInfoGetIsHardwareAccelerated func(self uintptr) int32
	webrtcDecoderInfoSetIsHardwareAccelerated func(self uintptr, value int32)

	webrtcDecoderSettingsNumberOfCores             func(self uintptr) int32
	webrtcDecoderSettingsCodecType                 func(self uintptr) int32
	webrtcDecoderSettingsHasBufferPoolSize         func(self uintptr) int32
	webrtcDecoderSettingsBufferPoolSize            func(self uintptr) int32
	webrtcDecoderSettingsMaxRenderResolutionWidth  func(self uintptr) int32
	webrtcDecoderSettingsMaxRenderResolutionHeight func(self uintptr) int32

	webrtcCreateBuiltinVideoDecoderFactory func() uintptr
)

func init() {
	const dec = "webrtc_VideoDecoder_"
	bind(
		symbol{dec + "new", &webrtcVideoDecoderNew},
		symbol{dec + "Configure", &webrtcVideoDecoderConfigure},
		symbol{dec + "Decode", &webrtcVideoDecoderDecode},
		symbol{dec + "GetDecoderInfo", &webrtcVideoDecoderGetDecoderInfo},

		symbol{dec + "DecoderInfo_new", &webrtcDecoderInfoNew},
		symbol{dec + "DecoderInfo_get_implementation_name", &webrtcDecoderInfoGetImplementationName},
		symbol{dec + "DecoderInfo_set_implementation_name", &webrtcDecoderInfoSetImplementationName},
		symbol{dec + "DecoderInfo_get_is_hardware_accelerated", &webrtcDecoderInfoGetIsHardwareAccelerated},
		symbol{dec + "DecoderInfo_set_is_hardware_accelerated", &webrtcDecoderInfoSetIsHardwareAccelerated},

		symbol{dec + "Settings_number_of_cores", &webrtcDecoderSettingsNumberOfCores},
		symbol{dec + "Settings_codec_type", &webrtcDecoderSettingsCodecType},
		symbol{dec + "Settings_has_buffer_pool_size", &webrtcDecoderSettingsHasBufferPoolSize},
		symbol{dec + "Settings_buffer_pool_size", &webrtcDecoderSettingsBufferPoolSize},
		symbol{dec + "Settings_max_render_resolution_width", &webrtcDecoderSettingsMaxRenderResolutionWidth},
		symbol{dec + "Settings_max_render_resolution_height", &webrtcDecoderSettingsMaxRenderResolutionHeight},

		symbol{"webrtc_CreateBuiltinVideoDecoderFactory", &webrtcCreateBuiltinVideoDecoderFactory},
	)
}

// DecoderInfo is the subset of webrtc::VideoDecoder::DecoderInfo exposed
// here.
type DecoderInfo struct {
	ImplementationName    string
	IsHardwareAccelerated bool
}

func (info DecoderInfo) intoNative() uintptr {
	u := FromUnique(decoderInfoDesc, UniquePtr[decoderInfo](webrtcDecoderInfoNew()))
	self := uintptr(u.AsPtr())
	if info.ImplementationName != "" {
		name := newStdString(info.ImplementationName)
		webrtcDecoderInfoSetImplementationName(self, uintptr(name.IntoRaw()))
	}
	webrtcDecoderInfoSetIsHardwareAccelerated(self, boolToInt(info.IsHardwareAccelerated))
	return uintptr(u.IntoRaw())
}

func takeDecoderInfo(raw uintptr) DecoderInfo {
	u := FromUnique(decoderInfoDesc, UniquePtr[decoderInfo](raw))
	defer u.Close()
	self := uintptr(u.AsPtr())
	return DecoderInfo{
		ImplementationName:    takeStdString(webrtcDecoderInfoGetImplementationName(self)),
		IsHardwareAccelerated: webrtcDecoderInfoGetIsHardwareAccelerated(self) != 0,
	}
}

// VideoDecoderSettingsRef is a borrowed webrtc::VideoDecoder::Settings.
type VideoDecoderSettingsRef struct {
	b Borrowed[decoderSettings]
}

func (s VideoDecoderSettingsRef) self() uintptr { return uintptr(s.b.Ptr()) }

func (s VideoDecoderSettingsRef) NumberOfCores() int {
	return int(webrtcDecoderSettingsNumberOfCores(s.self()))
}

func (s VideoDecoderSettingsRef) CodecType() VideoCodecType {
	return VideoCodecType(webrtcDecoderSettingsCodecType(s.self()))
}

// BufferPoolSize reports the configured pool size, if any.
func (s VideoDecoderSettingsRef) BufferPoolSize() (int, bool) {
	self := s.self()
	if webrtcDecoderSettingsHasBufferPoolSize(self) == 0 {
		return 0, false
	}
	return int(webrtcDecoderSettingsBufferPoolSize(self)), true
}

// MaxRenderResolution returns the largest picture the decoder will be asked
// to produce.
func (s VideoDecoderSettingsRef) MaxRenderResolution() (width, height int) {
	self := s.self()
	return int(webrtcDecoderSettingsMaxRenderResolutionWidth(self)),
		int(webrtcDecoderSettingsMaxRenderResolutionHeight(self))
}

// DecodedImageCallbackRef is the borrowed sink handed to
// RegisterDecodeCompleteCallback. A nil view unregisters the sink.
type DecodedImageCallbackRef struct {
	b Borrowed[decodedImageCallback]
}

func (r DecodedImageCallbackRef) IsNil() bool { return r.b.IsNil() }

// VideoDecoderCallbacks implements webrtc::VideoDecoder with closures. Nil
// fields get neutral defaults: Configure accepts, status slots report OK and
// GetDecoderInfo returns a zero DecoderInfo.
type VideoDecoderCallbacks struct {
	Configure                      func(settings VideoDecoderSettingsRef) bool
	Decode                         func(image EncodedImageRef, renderTimeMs int64) VideoCodecStatus
	RegisterDecodeCompleteCallback func(callback DecodedImageCallbackRef) VideoCodecStatus
	Release                        func() VideoCodecStatus
	GetDecoderInfo                 func() DecoderInfo
}

func (c VideoDecoderCallbacks) withDefaults() VideoDecoderCallbacks {
	if c.Configure == nil {
		c.Configure = func(VideoDecoderSettingsRef) bool { return true }
	}
	if c.Decode == nil {
		c.Decode = func(EncodedImageRef, int64) VideoCodecStatus { return VideoCodecStatusOK }
	}
	if c.RegisterDecodeCompleteCallback == nil {
		c.RegisterDecodeCompleteCallback = func(DecodedImageCallbackRef) VideoCodecStatus { return VideoCodecStatusOK }
	}
	if c.Release == nil {
		c.Release = func() VideoCodecStatus { return VideoCodecStatusOK }
	}
	if c.GetDecoderInfo == nil {
		c.GetDecoderInfo = func() DecoderInfo { return DecoderInfo{} }
	}
	return c
}

// videoDecoderCbs mirrors webrtc_VideoDecoder_cbs.
type videoDecoderCbs struct {
	Configure                      uintptr
	Decode                         uintptr
	RegisterDecodeCompleteCallback uintptr
	Release                        uintptr
	GetDecoderInfo                 uintptr
	OnDestroy                      uintptr
}

const videoDecoderIface = "webrtc_VideoDecoder"

var videoDecoderTrampolines = sync.OnceValue(func() videoDecoderCbs {
	return videoDecoderCbs{
		Configure:                      newCallback(videoDecoderConfigure),
		Decode:                         newCallback(videoDecoderDecode),
		RegisterDecodeCompleteCallback: newCallback(videoDecoderRegisterDecodeCompleteCallback),
		Release:                        newCallback(videoDecoderRelease),
		GetDecoderInfo:                 newCallback(videoDecoderGetDecoderInfo),
		OnDestroy:                      onDestroyCallback(),
	}
})

func videoDecoderConfigure(settings, userData uintptr) int32 {
	return dispatch(videoDecoderIface, "Configure", userData,
		func() int32 { return 0 },
		func(c *VideoDecoderCallbacks, s *Scope) int32 {
			return boolToInt(c.Configure(VideoDecoderSettingsRef{b: Borrow(s, Ptr[decoderSettings](settings))}))
		})
}

func videoDecoderDecode(image uintptr, renderTimeMs int64, userData uintptr) int32 {
	return dispatch(videoDecoderIface, "Decode", userData, codecFailure,
		func(c *VideoDecoderCallbacks, s *Scope) int32 {
			if image == 0 {
				contractViolation(videoDecoderIface, "Decode with null image")
			}
			return int32(c.Decode(EncodedImageRef{b: Borrow(s, Ptr[encodedImage](image))}, renderTimeMs))
		})
}

func videoDecoderRegisterDecodeCompleteCallback(callback, userData uintptr) int32 {
	return dispatch(videoDecoderIface, "RegisterDecodeCompleteCallback", userData, codecFailure,
		func(c *VideoDecoderCallbacks, s *Scope) int32 {
			return int32(c.RegisterDecodeCompleteCallback(
				DecodedImageCallbackRef{b: Borrow(s, Ptr[decodedImageCallback](callback))},
			))
		})
}

func videoDecoderRelease(userData uintptr) int32 {
	return dispatch(videoDecoderIface, "Release", userData, codecFailure,
		func(c *VideoDecoderCallbacks, _ *Scope) int32 {
			return int32(c.Release())
		})
}

func videoDecoderGetDecoderInfo(userData uintptr) uintptr {
	return dispatch(videoDecoderIface, "GetDecoderInfo", userData,
		func() uintptr { return DecoderInfo{}.intoNative() },
		func(c *VideoDecoderCallbacks, _ *Scope) uintptr {
			return c.GetDecoderInfo().intoNative()
		})
}

// VideoDecoder is a native webrtc::VideoDecoder implemented by Go closures.
// The closures are released through OnDestroy when the native decoder is
// deleted, by Close or by the owner IntoRaw handed it to.
type VideoDecoder struct {
	u *Unique[videoDecoder]
}

// NewVideoDecoder registers callbacks as a native decoder.
func NewVideoDecoder(callbacks VideoDecoderCallbacks) (*VideoDecoder, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	table := new(videoDecoderCbs)
	*table = videoDecoderTrampolines()
	b := register(videoDecoderIface, callbacks.withDefaults(), table)

	raw := webrtcVideoDecoderNew(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_VideoDecoder_new", "returned null")
	}
	return &VideoDecoder{u: FromUnique(videoDecoderDesc, UniquePtr[videoDecoder](raw))}, nil
}

func (d *VideoDecoder) self() uintptr { return uintptr(d.u.AsPtr()) }

// Configure configures the decoder with the native default settings.
func (d *VideoDecoder) Configure() bool {
	return webrtcVideoDecoderConfigure(d.self(), 0) != 0
}

// Decode decodes img, which stays owned by the caller.
func (d *VideoDecoder) Decode(img *EncodedImage, renderTimeMs int64) VideoCodecStatus {
	return VideoCodecStatus(webrtcVideoDecoderDecode(d.self(), uintptr(img.u.AsPtr()), renderTimeMs))
}

// GetDecoderInfo returns the decoder's self description.
func (d *VideoDecoder) GetDecoderInfo() DecoderInfo {
	raw := webrtcVideoDecoderGetDecoderInfo(d.self())
	if raw == 0 {
		contractViolation("webrtc_VideoDecoder_GetDecoderInfo", "returned null")
	}
	return takeDecoderInfo(raw)
}

// IntoRaw hands the decoder to a native owner.
func (d *VideoDecoder) IntoRaw() UniquePtr[videoDecoder] { return d.u.IntoRaw() }

// Close destroys the decoder.
func (d *VideoDecoder) Close() { d.u.Close() }

// VideoDecoderFactory is an owned webrtc::VideoDecoderFactory, consumed by
// NewPeerConnectionFactory.
type VideoDecoderFactory struct {
	u *Unique[videoDecoderFactory]
}

// NewBuiltinVideoDecoderFactory returns the library's software decoders.
func NewBuiltinVideoDecoderFactory() (*VideoDecoderFactory, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	raw := webrtcCreateBuiltinVideoDecoderFactory()
	if raw == 0 {
		contractViolation("webrtc_CreateBuiltinVideoDecoderFactory", "returned null")
	}
	return &VideoDecoderFactory{u: FromUnique(videoDecoderFactoryDesc, UniquePtr[videoDecoderFactory](raw))}, nil
}

func (f *VideoDecoderFactory) intoRaw() UniquePtr[videoDecoderFactory] { return f.u.IntoRaw() }

// Close deletes the factory unless it was handed to a peer connection
// factory.
func (f *VideoDecoderFactory) Close() { f.u.Close() }
