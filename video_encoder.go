package libwebrtc

import (
	"sync"
)

type (
	videoEncoder         struct{}
	encoderInfo          struct{}
	encodedImageCallback struct{}
	encodedImageResult   struct{}
)

var (
	videoEncoderDesc         = unique[videoEncoder]("webrtc_VideoEncoder")
	encoderInfoDesc          = unique[encoderInfo]("webrtc_VideoEncoder_EncoderInfo")
	encodedImageResultDesc   = unique[encodedImageResult]("webrtc_VideoEncoder_EncodedImageCallback_Result")
	encodedImageCallbackDesc = owned[encodedImageCallback]("webrtc_VideoEncoder_EncodedImageCallback", "webrtc_VideoEncoder_EncodedImageCallback_delete")
)

var (
	webrtcVideoEncoderNew                            func(cbs, userData uintptr) uintptr
	webrtcVideoEncoderInitEncode                     func(self, codec, settings uintptr) int32
	webrtcVideoEncoderEncode                         func(self, frame, frameTypes uintptr) int32
	webrtcVideoEncoderRegisterEncodeCompleteCallback func(self, callback uintptr) int32
	webrtcVideoEncoderSetRates                       func(self, params uintptr)
	webrtcVideoEncoderGetEncoderInfo                 func(self uintptr) uintptr

	webrtcEncoderInfoNew                      func() uintptr
	webrtcEncoderInfoGetImplementationName    func(self uintptr) uintptr
	webrtcEncoderInfoSetImplementationName    func(self, name uintptr)
	webrtcEncoderInfoGetIsHardwareAccelerated func(self uintptr) int32
	webrtcEncoderInfoSetIsHardwareAccelerated func(self uintptr, value int32)

	webrtcEncodedImageResultNew              func(err int32) uintptr
	webrtcEncodedImageResultNewWithFrameID   func(err int32, frameID uint32) uintptr
	webrtcEncodedImageResultError            func(self uintptr) int32
	webrtcEncodedImageResultFrameID          func(self uintptr) uint32
	webrtcEncodedImageResultDropNextFrame    func(self uintptr) int32
	webrtcEncodedImageResultSetDropNextFrame func(self uintptr, drop int32)

	webrtcEncodedImageCallbackNew            func(cbs, userData uintptr) uintptr
	webrtcEncodedImageCallbackOnEncodedImage func(self, image, info uintptr) uintptr
)

func init() {
	bind(
		symbol{"webrtc_VideoEncoder_new", &webrtcVideoEncoderNew},
		symbol{"webrtc_VideoEncoder_InitEncode", &webrtcVideoEncoderInitEncode},
		symbol{"webrtc_VideoEncoder_Encode", &webrtcVideoEncoderEncode},
		symbol{"webrtc_VideoEncoder_RegisterEncodeCompleteCallback", &webrtcVideoEncoderRegisterEncodeCompleteCallback},
		symbol{"webrtc_VideoEncoder_SetRates", &webrtcVideoEncoderSetRates},
		symbol{"webrtc_VideoEncoder_GetEncoderInfo", &webrtcVideoEncoderGetEncoderInfo},

		symbol{"webrtc_VideoEncoder_EncoderInfo_new", &webrtcEncoderInfoNew},
		symbol{"webrtc_VideoEncoder_EncoderInfo_get_implementation_name", &webrtcEncoderInfoGetImplementationName},
		symbol{"webrtc_VideoEncoder_EncoderInfo_set_implementation_name", &webrtcEncoderInfoSetImplementationName},
		symbol{"webrtc_VideoEncoder_EncoderInfo_get_is_hardware_accelerated", &webrtcEncoderInfoGetIsHardwareAccelerated},
		symbol{"webrtc_VideoEncoder_EncoderInfo_set_is_hardware_accelerated", &webrtcEncoderInfoSetIsHardwareAccelerated},

		symbol{"webrtc_VideoEncoder_EncodedImageCallback_Result_new", &webrtcEncodedImageResultNew},
		symbol{"webrtc_VideoEncoder_EncodedImageCallback_Result_new_with_frame_id", &webrtcEncodedImageResultNewWithFrameID},
		symbol{"webrtc_VideoEncoder_EncodedImageCallback_Result_error", &webrtcEncodedImageResultError},
		symbol{"webrtc_VideoEncoder_EncodedImageCallback_Result_frame_id", &webrtcEncodedImageResultFrameID},
		symbol{"webrtc_VideoEncoder_EncodedImageCallback_Result_drop_next_frame", &webrtcEncodedImageResultDropNextFrame},
		symbol{"webrtc_VideoEncoder_EncodedImageCallback_Result_set_drop_next_frame", &webrtcEncodedImageResultSetDropNextFrame},

		symbol{"webrtc_VideoEncoder_EncodedImageCallback_new", &webrtcEncodedImageCallbackNew},
		symbol{"webrtc_VideoEncoder_EncodedImageCallback_OnEncodedImage", &webrtcEncodedImageCallbackOnEncodedImage},
	)
}

// EncodedImageCallbackError is the outcome an image sink reports.
type EncodedImageCallbackError int32

const (
	EncodedImageCallbackOK         EncodedImageCallbackError = 0
	EncodedImageCallbackSendFailed EncodedImageCallbackError = 1
)

func (e EncodedImageCallbackError) String() string {
	switch e {
	case EncodedImageCallbackOK:
		return "OK"
	case EncodedImageCallbackSendFailed:
		return "ERROR_SEND_FAILED"
	default:
		return "Unknown"
	}
}

// EncodedImageCallbackResult is webrtc::EncodedImageCallback::Result.
type EncodedImageCallbackResult struct {
	Error         EncodedImageCallbackError
	FrameID       uint32
	DropNextFrame bool
}

// intoNative allocates the native result and forfeits it to the caller.
func (r EncodedImageCallbackResult) intoNative() uintptr {
	var raw uintptr
	if r.FrameID != 0 {
		raw = webrtcEncodedImageResultNewWithFrameID(int32(r.Error), r.FrameID)
	} else {
		raw = webrtcEncodedImageResultNew(int32(r.Error))
	}
	u := FromUnique(encodedImageResultDesc, UniquePtr[encodedImageResult](raw))
	if r.DropNextFrame {
		webrtcEncodedImageResultSetDropNextFrame(uintptr(u.AsPtr()), 1)
	}
	return uintptr(u.IntoRaw())
}

// takeEncodedImageCallbackResult copies and deletes a native result.
func takeEncodedImageCallbackResult(raw uintptr) EncodedImageCallbackResult {
	u := FromUnique(encodedImageResultDesc, UniquePtr[encodedImageResult](raw))
	defer u.Close()
	self := uintptr(u.AsPtr())
	return EncodedImageCallbackResult{
		Error:         EncodedImageCallbackError(webrtcEncodedImageResultError(self)),
		FrameID:       webrtcEncodedImageResultFrameID(self),
		DropNextFrame: webrtcEncodedImageResultDropNextFrame(self) != 0,
	}
}

// EncoderInfo is the subset of webrtc::VideoEncoder::EncoderInfo exposed
// here.
type EncoderInfo struct {
	ImplementationName    string
	IsHardwareAccelerated bool
}

func (info EncoderInfo) intoNative() uintptr {
	u := FromUnique(encoderInfoDesc, UniquePtr[encoderInfo](webrtcEncoderInfoNew()))
	self := uintptr(u.AsPtr())
	if info.ImplementationName != "" {
		name := newStdString(info.ImplementationName)
		webrtcEncoderInfoSetImplementationName(self, uintptr(name.IntoRaw()))
	}
	webrtcEncoderInfoSetIsHardwareAccelerated(self, boolToInt(info.IsHardwareAccelerated))
	return uintptr(u.IntoRaw())
}

func takeEncoderInfo(raw uintptr) EncoderInfo {
	u := FromUnique(encoderInfoDesc, UniquePtr[encoderInfo](raw))
	defer u.Close()
	self := uintptr(u.AsPtr())
	return EncoderInfo{
		ImplementationName:    takeStdString(webrtcEncoderInfoGetImplementationName(self)),
		IsHardwareAccelerated: webrtcEncoderInfoGetIsHardwareAccelerated(self) != 0,
	}
}

// EncodedImageCallbackCallbacks implements webrtc::EncodedImageCallback.
// A nil OnEncodedImage accepts every image.
type EncodedImageCallbackCallbacks struct {
	OnEncodedImage func(image EncodedImageRef, info CodecSpecificInfoRef) EncodedImageCallbackResult
}

func (c EncodedImageCallbackCallbacks) withDefaults() EncodedImageCallbackCallbacks {
	if c.OnEncodedImage == nil {
		c.OnEncodedImage = func(EncodedImageRef, CodecSpecificInfoRef) EncodedImageCallbackResult {
			return EncodedImageCallbackResult{Error: EncodedImageCallbackOK}
		}
	}
	return c
}

// encodedImageCallbackCbs mirrors webrtc_VideoEncoder_EncodedImageCallback_cbs.
type encodedImageCallbackCbs struct {
	OnEncodedImage uintptr
	OnDestroy      uintptr
}

const encodedImageCallbackIface = "webrtc_VideoEncoder_EncodedImageCallback"

var encodedImageCallbackTrampolines = sync.OnceValue(func() encodedImageCallbackCbs {
	return encodedImageCallbackCbs{
		OnEncodedImage: newCallback(encodedImageCallbackOnEncodedImage),
		OnDestroy:      onDestroyCallback(),
	}
})

func encodedImageCallbackOnEncodedImage(image, info, userData uintptr) uintptr {
	return dispatch(encodedImageCallbackIface, "OnEncodedImage", userData,
		func() uintptr {
			return EncodedImageCallbackResult{Error: EncodedImageCallbackSendFailed}.intoNative()
		},
		func(c *EncodedImageCallbackCallbacks, s *Scope) uintptr {
			if image == 0 {
				contractViolation(encodedImageCallbackIface, "OnEncodedImage with null image")
			}
			res := c.OnEncodedImage(
				EncodedImageRef{b: Borrow(s, Ptr[encodedImage](image))},
				CodecSpecificInfoRef{b: Borrow(s, Ptr[codecSpecificInfo](info))},
			)
			return res.intoNative()
		})
}

// EncodedImageCallback is a native image sink implemented by Go closures.
// Closing it deletes the native object, which releases the closures through
// OnDestroy.
type EncodedImageCallback struct {
	u *Unique[encodedImageCallback]
}

// NewEncodedImageCallback registers callbacks as a native image sink.
func NewEncodedImageCallback(callbacks EncodedImageCallbackCallbacks) (*EncodedImageCallback, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	table := new(encodedImageCallbackCbs)
	*table = encodedImageCallbackTrampolines()
	b := register(encodedImageCallbackIface, callbacks.withDefaults(), table)

	raw := webrtcEncodedImageCallbackNew(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_VideoEncoder_EncodedImageCallback_new", "returned null")
	}
	return &EncodedImageCallback{u: FromUnique(encodedImageCallbackDesc, UniquePtr[encodedImageCallback](raw))}, nil
}

// Ptr returns a capability for the sink. It must not be used after Close.
func (c *EncodedImageCallback) Ptr() EncodedImageCallbackPtr {
	return newEncodedImageCallbackPtr(c.u.AsPtr())
}

// OnEncodedImage delivers image through the native sink.
func (c *EncodedImageCallback) OnEncodedImage(image EncodedImageRef, info CodecSpecificInfoRef) EncodedImageCallbackResult {
	return c.Ptr().OnEncodedImage(image, info)
}

// Close deletes the native sink.
func (c *EncodedImageCallback) Close() { c.u.Close() }

// EncodedImageCallbackRef is a borrowed sink handed to
// RegisterEncodeCompleteCallback. A nil view unregisters the sink.
type EncodedImageCallbackRef struct {
	b Borrowed[encodedImageCallback]
}

// IsNil reports whether the encoder was asked to drop its sink.
func (r EncodedImageCallbackRef) IsNil() bool { return r.b.IsNil() }

// Capability returns a handle that outlives the registering call. The holder
// must stop using it once the sink is replaced or the encoder is released.
func (r EncodedImageCallbackRef) Capability() EncodedImageCallbackPtr {
	return newEncodedImageCallbackPtr(r.b.Ptr())
}

type encodedImageArgs struct {
	image uintptr
	info  uintptr
}

// EncodedImageCallbackPtr is a capability to deliver encoded images to a
// native sink, typically from inside an Encode callback.
type EncodedImageCallbackPtr struct {
	c Capability[encodedImageCallback, encodedImageArgs, EncodedImageCallbackResult]
}

func newEncodedImageCallbackPtr(p Ptr[encodedImageCallback]) EncodedImageCallbackPtr {
	return EncodedImageCallbackPtr{c: WrapCapability(p, invokeOnEncodedImage)}
}

func invokeOnEncodedImage(p Ptr[encodedImageCallback], a encodedImageArgs) EncodedImageCallbackResult {
	raw := webrtcEncodedImageCallbackOnEncodedImage(uintptr(p), a.image, a.info)
	if raw == 0 {
		contractViolation("webrtc_VideoEncoder_EncodedImageCallback_OnEncodedImage", "returned null")
	}
	return takeEncodedImageCallbackResult(raw)
}

// Valid reports whether p refers to a sink.
func (p EncodedImageCallbackPtr) Valid() bool { return p.c.Valid() }

// OnEncodedImage delivers image, with optional codec info, to the sink.
func (p EncodedImageCallbackPtr) OnEncodedImage(image EncodedImageRef, info CodecSpecificInfoRef) EncodedImageCallbackResult {
	return p.c.Invoke(encodedImageArgs{image: image.self(), info: info.ptr()})
}

// VideoEncoderCallbacks implements webrtc::VideoEncoder with closures. Every
// nil field gets a neutral default: status slots report OK, SetRates does
// nothing and GetEncoderInfo returns a zero EncoderInfo.
type VideoEncoderCallbacks struct {
	InitEncode                     func(codec VideoCodecRef, settings VideoEncoderSettingsRef) VideoCodecStatus
	Encode                         func(frame VideoFrameRef, frameTypes VideoFrameTypesRef) VideoCodecStatus
	RegisterEncodeCompleteCallback func(callback EncodedImageCallbackRef) VideoCodecStatus
	Release                        func() VideoCodecStatus
	SetRates                       func(params RateControlParametersRef)
	GetEncoderInfo                 func() EncoderInfo
}

func (c VideoEncoderCallbacks) withDefaults() VideoEncoderCallbacks {
	if c.InitEncode == nil {
		c.InitEncode = func(VideoCodecRef, VideoEncoderSettingsRef) VideoCodecStatus { return VideoCodecStatusOK }
	}
	if c.Encode == nil {
		c.Encode = func(VideoFrameRef, VideoFrameTypesRef) VideoCodecStatus { return VideoCodecStatusOK }
	}
	if c.RegisterEncodeCompleteCallback == nil {
		c.RegisterEncodeCompleteCallback = func(EncodedImageCallbackRef) VideoCodecStatus { return VideoCodecStatusOK }
	}
	if c.Release == nil {
		c.Release = func() VideoCodecStatus { return VideoCodecStatusOK }
	}
	if c.SetRates == nil {
		c.SetRates = func(RateControlParametersRef) {}
	}
	if c.GetEncoderInfo == nil {
		c.GetEncoderInfo = func() EncoderInfo { return EncoderInfo{} }
	}
	return c
}

// videoEncoderCbs mirrors webrtc_VideoEncoder_cbs.
type videoEncoderCbs struct {
	InitEncode                     uintptr
	Encode                         uintptr
	RegisterEncodeCompleteCallback uintptr
	Release                        uintptr
	SetRates                       uintptr
	GetEncoderInfo                 uintptr
	OnDestroy                      uintptr
}

const videoEncoderIface = "webrtc_VideoEncoder"

var videoEncoderTrampolines = sync.OnceValue(func() videoEncoderCbs {
	return videoEncoderCbs{
		InitEncode:                     newCallback(videoEncoderInitEncode),
		Encode:                         newCallback(videoEncoderEncode),
		RegisterEncodeCompleteCallback: newCallback(videoEncoderRegisterEncodeCompleteCallback),
		Release:                        newCallback(videoEncoderRelease),
		SetRates:                       newCallback(videoEncoderSetRates),
		GetEncoderInfo:                 newCallback(videoEncoderGetEncoderInfo),
		OnDestroy:                      onDestroyCallback(),
	}
})

func codecFailure() int32 { return int32(VideoCodecStatusError) }

func videoEncoderInitEncode(codec, settings, userData uintptr) int32 {
	return dispatch(videoEncoderIface, "InitEncode", userData, codecFailure,
		func(c *VideoEncoderCallbacks, s *Scope) int32 {
			return int32(c.InitEncode(
				VideoCodecRef{b: Borrow(s, Ptr[videoCodec](codec))},
				VideoEncoderSettingsRef{b: Borrow(s, Ptr[encoderSettings](settings))},
			))
		})
}

func videoEncoderEncode(frame, frameTypes, userData uintptr) int32 {
	return dispatch(videoEncoderIface, "Encode", userData, codecFailure,
		func(c *VideoEncoderCallbacks, s *Scope) int32 {
			if frame == 0 {
				contractViolation(videoEncoderIface, "Encode with null frame")
			}
			return int32(c.Encode(
				VideoFrameRef{b: Borrow(s, Ptr[videoFrame](frame))},
				VideoFrameTypesRef{b: Borrow(s, Ptr[videoFrameTypeVector](frameTypes))},
			))
		})
}

func videoEncoderRegisterEncodeCompleteCallback(callback, userData uintptr) int32 {
	return dispatch(videoEncoderIface, "RegisterEncodeCompleteCallback", userData, codecFailure,
		func(c *VideoEncoderCallbacks, s *Scope) int32 {
			return int32(c.RegisterEncodeCompleteCallback(
				EncodedImageCallbackRef{b: Borrow(s, Ptr[encodedImageCallback](callback))},
			))
		})
}

func videoEncoderRelease(userData uintptr) int32 {
	return dispatch(videoEncoderIface, "Release", userData, codecFailure,
		func(c *VideoEncoderCallbacks, _ *Scope) int32 {
			return int32(c.Release())
		})
}

func videoEncoderSetRates(params, userData uintptr) {
	dispatchVoid(videoEncoderIface, "SetRates", userData, func(c *VideoEncoderCallbacks, s *Scope) {
		if params == 0 {
			contractViolation(videoEncoderIface, "SetRates with null parameters")
		}
		c.SetRates(RateControlParametersRef{b: Borrow(s, Ptr[rateControlParameters](params))})
	})
}

func videoEncoderGetEncoderInfo(userData uintptr) uintptr {
	return dispatch(videoEncoderIface, "GetEncoderInfo", userData,
		func() uintptr { return EncoderInfo{}.intoNative() },
		func(c *VideoEncoderCallbacks, _ *Scope) uintptr {
			return c.GetEncoderInfo().intoNative()
		})
}

// VideoEncoder is a native webrtc::VideoEncoder implemented by Go closures.
type VideoEncoder struct {
	u *Unique[videoEncoder]
}

// NewVideoEncoder registers callbacks as a native encoder. The closures are
// released when the native encoder is destroyed, either by Close or by
// whichever native owner IntoRaw handed it to.
func NewVideoEncoder(callbacks VideoEncoderCallbacks) (*VideoEncoder, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	table := new(videoEncoderCbs)
	*table = videoEncoderTrampolines()
	b := register(videoEncoderIface, callbacks.withDefaults(), table)

	raw := webrtcVideoEncoderNew(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_VideoEncoder_new", "returned null")
	}
	return &VideoEncoder{u: FromUnique(videoEncoderDesc, UniquePtr[videoEncoder](raw))}, nil
}

func (e *VideoEncoder) self() uintptr { return uintptr(e.u.AsPtr()) }

// InitEncode initializes the encoder with the native default settings.
func (e *VideoEncoder) InitEncode() VideoCodecStatus {
	return VideoCodecStatus(webrtcVideoEncoderInitEncode(e.self(), 0, 0))
}

// Encode encodes frame. frameTypes may be nil.
func (e *VideoEncoder) Encode(frame *VideoFrame, frameTypes *VideoFrameTypes) VideoCodecStatus {
	var types uintptr
	if frameTypes != nil {
		types = uintptr(frameTypes.u.AsPtr())
	}
	return VideoCodecStatus(webrtcVideoEncoderEncode(e.self(), uintptr(frame.u.AsPtr()), types))
}

// RegisterEncodeCompleteCallback sets the sink for encoded images. A nil
// callback unregisters the current sink.
func (e *VideoEncoder) RegisterEncodeCompleteCallback(callback *EncodedImageCallback) VideoCodecStatus {
	var cb uintptr
	if callback != nil {
		cb = uintptr(callback.u.AsPtr())
	}
	return VideoCodecStatus(webrtcVideoEncoderRegisterEncodeCompleteCallback(e.self(), cb))
}

// GetEncoderInfo returns the encoder's self description.
func (e *VideoEncoder) GetEncoderInfo() EncoderInfo {
	raw := webrtcVideoEncoderGetEncoderInfo(e.self())
	if raw == 0 {
		contractViolation("webrtc_VideoEncoder_GetEncoderInfo", "returned null")
	}
	return takeEncoderInfo(raw)
}

// IntoRaw hands the encoder to a native owner, such as an encoder factory.
func (e *VideoEncoder) IntoRaw() UniquePtr[videoEncoder] { return e.u.IntoRaw() }

// Close destroys the encoder.
func (e *VideoEncoder) Close() { e.u.Close() }
