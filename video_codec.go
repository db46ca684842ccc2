package libwebrtc

type (
	videoCodec            struct{}
	encoderSettings       struct{}
	rateControlParameters struct{}
	videoFrameTypeVector  struct{}
	codecSpecificInfo     struct{}
)

var (
	videoFrameTypeVectorDesc = owned[videoFrameTypeVector]("webrtc_VideoFrameType_vector", "webrtc_VideoFrameType_vector_delete")
	codecSpecificInfoDesc    = unique[codecSpecificInfo]("webrtc_CodecSpecificInfo")
)

var (
	webrtcVideoCodecCodecType        func(self uintptr) int32
	webrtcVideoCodecWidth            func(self uintptr) int32
	webrtcVideoCodecHeight           func(self uintptr) int32
	webrtcVideoCodecStartBitrateKbps func(self uintptr) uint32
	webrtcVideoCodecMaxBitrateKbps   func(self uintptr) uint32
	webrtcVideoCodecMinBitrateKbps   func(self uintptr) uint32
	webrtcVideoCodecMaxFramerate     func(self uintptr) uint32

	webrtcEncoderSettingsNumberOfCores    func(self uintptr) int32
	webrtcEncoderSettingsMaxPayloadSize   func(self uintptr) uintptr
	webrtcEncoderSettingsLossNotification func(self uintptr) int32

	webrtcRateControlFramerateFps         func(self uintptr) float64
	webrtcRateControlTargetBitrateSumBps  func(self uintptr) uint32
	webrtcRateControlBitrateSumBps        func(self uintptr) uint32
	webrtcRateControlBandwidthAllocBps    func(self uintptr) int64
	webrtcVideoFrameTypeVectorNew         func(size int32) uintptr
	webrtcVideoFrameTypeVectorSize        func(self uintptr) int32
	webrtcVideoFrameTypeVectorGet         func(self uintptr, index int32) uintptr
	webrtcVideoFrameTypeVectorPushBackVal func(self uintptr, value int32)
	webrtcVideoFrameTypeValue             func(self uintptr) int32

	webrtcCodecSpecificInfoNew          func() uintptr
	webrtcCodecSpecificInfoCodecType    func(self uintptr) int32
	webrtcCodecSpecificInfoSetCodecType func(self uintptr, codecType int32)
)

func init() {
	bind(
		symbol{"webrtc_VideoCodec_codec_type", &webrtcVideoCodecCodecType},
		symbol{"webrtc_VideoCodec_width", &webrtcVideoCodecWidth},
		symbol{"webrtc_VideoCodec_height", &webrtcVideoCodecHeight},
		symbol{"webrtc_VideoCodec_start_bitrate_kbps", &webrtcVideoCodecStartBitrateKbps},
		symbol{"webrtc_VideoCodec_max_bitrate_kbps", &webrtcVideoCodecMaxBitrateKbps},
		symbol{"webrtc_VideoCodec_min_bitrate_kbps", &webrtcVideoCodecMinBitrateKbps},
		symbol{"webrtc_VideoCodec_max_framerate", &webrtcVideoCodecMaxFramerate},

		symbol{"webrtc_VideoEncoder_Settings_number_of_cores", &webrtcEncoderSettingsNumberOfCores},
		symbol{"webrtc_VideoEncoder_Settings_max_payload_size", &webrtcEncoderSettingsMaxPayloadSize},
		symbol{"webrtc_VideoEncoder_Settings_loss_notification", &webrtcEncoderSettingsLossNotification},

		symbol{"webrtc_VideoEncoder_RateControlParameters_framerate_fps", &webrtcRateControlFramerateFps},
		symbol{"webrtc_VideoEncoder_RateControlParameters_target_bitrate_sum_bps", &webrtcRateControlTargetBitrateSumBps},
		symbol{"webrtc_VideoEncoder_RateControlParameters_bitrate_sum_bps", &webrtcRateControlBitrateSumBps},
		symbol{"webrtc_VideoEncoder_RateControlParameters_bandwidth_allocation_bps", &webrtcRateControlBandwidthAllocBps},

		symbol{"webrtc_VideoFrameType_vector_new", &webrtcVideoFrameTypeVectorNew},
		symbol{"webrtc_VideoFrameType_vector_size", &webrtcVideoFrameTypeVectorSize},
		symbol{"webrtc_VideoFrameType_vector_get", &webrtcVideoFrameTypeVectorGet},
		symbol{"webrtc_VideoFrameType_vector_push_back_value", &webrtcVideoFrameTypeVectorPushBackVal},
		symbol{"webrtc_VideoFrameType_value", &webrtcVideoFrameTypeValue},

		symbol{"webrtc_CodecSpecificInfo_new", &webrtcCodecSpecificInfoNew},
		symbol{"webrtc_CodecSpecificInfo_codec_type", &webrtcCodecSpecificInfoCodecType},
		symbol{"webrtc_CodecSpecificInfo_set_codec_type", &webrtcCodecSpecificInfoSetCodecType},
	)
}

// VideoCodecRef is a borrowed view of webrtc::VideoCodec.
type VideoCodecRef struct {
	b Borrowed[videoCodec]
}

func (c VideoCodecRef) self() uintptr { return uintptr(c.b.Ptr()) }

// IsNil reports whether the native side passed no codec settings.
func (c VideoCodecRef) IsNil() bool { return c.b.IsNil() }

func (c VideoCodecRef) CodecType() VideoCodecType {
	return VideoCodecType(webrtcVideoCodecCodecType(c.self()))
}
func (c VideoCodecRef) Width() int               { return int(webrtcVideoCodecWidth(c.self())) }
func (c VideoCodecRef) Height() int              { return int(webrtcVideoCodecHeight(c.self())) }
func (c VideoCodecRef) StartBitrateKbps() uint32 { return webrtcVideoCodecStartBitrateKbps(c.self()) }
func (c VideoCodecRef) MaxBitrateKbps() uint32   { return webrtcVideoCodecMaxBitrateKbps(c.self()) }
func (c VideoCodecRef) MinBitrateKbps() uint32   { return webrtcVideoCodecMinBitrateKbps(c.self()) }
func (c VideoCodecRef) MaxFramerate() uint32     { return webrtcVideoCodecMaxFramerate(c.self()) }

// VideoEncoderSettingsRef is a borrowed view of webrtc::VideoEncoder::Settings.
type VideoEncoderSettingsRef struct {
	b Borrowed[encoderSettings]
}

func (s VideoEncoderSettingsRef) self() uintptr { return uintptr(s.b.Ptr()) }

// IsNil reports whether the native side passed no settings.
func (s VideoEncoderSettingsRef) IsNil() bool { return s.b.IsNil() }

func (s VideoEncoderSettingsRef) NumberOfCores() int {
	return int(webrtcEncoderSettingsNumberOfCores(s.self()))
}
func (s VideoEncoderSettingsRef) MaxPayloadSize() int {
	return int(webrtcEncoderSettingsMaxPayloadSize(s.self()))
}
func (s VideoEncoderSettingsRef) LossNotification() bool {
	return webrtcEncoderSettingsLossNotification(s.self()) != 0
}

// RateControlParametersRef is a borrowed view of
// webrtc::VideoEncoder::RateControlParameters.
type RateControlParametersRef struct {
	b Borrowed[rateControlParameters]
}

func (p RateControlParametersRef) self() uintptr { return uintptr(p.b.Ptr()) }

func (p RateControlParametersRef) FramerateFps() float64 {
	return webrtcRateControlFramerateFps(p.self())
}
func (p RateControlParametersRef) TargetBitrateSumBps() uint32 {
	return webrtcRateControlTargetBitrateSumBps(p.self())
}
func (p RateControlParametersRef) BitrateSumBps() uint32 {
	return webrtcRateControlBitrateSumBps(p.self())
}
func (p RateControlParametersRef) BandwidthAllocationBps() int64 {
	return webrtcRateControlBandwidthAllocBps(p.self())
}

// VideoFrameTypes is an owned std::vector<webrtc::VideoFrameType>.
type VideoFrameTypes struct {
	u *Unique[videoFrameTypeVector]
}

// NewVideoFrameTypes returns a native vector holding types.
func NewVideoFrameTypes(types ...VideoFrameType) (*VideoFrameTypes, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	raw := webrtcVideoFrameTypeVectorNew(0)
	v := &VideoFrameTypes{u: FromUnique(videoFrameTypeVectorDesc, UniquePtr[videoFrameTypeVector](raw))}
	for _, t := range types {
		webrtcVideoFrameTypeVectorPushBackVal(uintptr(v.u.AsPtr()), int32(t))
	}
	return v, nil
}

// Ref returns a view valid while v is open.
func (v *VideoFrameTypes) Ref() VideoFrameTypesRef {
	return VideoFrameTypesRef{b: unscoped(v.u.AsPtr())}
}

// Close deletes the vector.
func (v *VideoFrameTypes) Close() { v.u.Close() }

// VideoFrameTypesRef is a borrowed view of a frame type vector. A nil view
// means the native side requested no particular frame types.
type VideoFrameTypesRef struct {
	b Borrowed[videoFrameTypeVector]
}

// IsNil reports whether no vector was passed.
func (v VideoFrameTypesRef) IsNil() bool { return v.b.IsNil() }

// Values copies the frame types out of the vector. A nil view yields nil.
func (v VideoFrameTypesRef) Values() []VideoFrameType {
	if v.b.IsNil() {
		return nil
	}
	self := uintptr(v.b.Ptr())
	n := int(webrtcVideoFrameTypeVectorSize(self))
	out := make([]VideoFrameType, n)
	for i := range out {
		out[i] = VideoFrameType(webrtcVideoFrameTypeValue(webrtcVideoFrameTypeVectorGet(self, int32(i))))
	}
	return out
}

// CodecSpecificInfo is an owned webrtc::CodecSpecificInfo.
type CodecSpecificInfo struct {
	u *Unique[codecSpecificInfo]
}

// NewCodecSpecificInfo returns codec info tagged with codec.
func NewCodecSpecificInfo(codec VideoCodecType) (*CodecSpecificInfo, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	u := FromUnique(codecSpecificInfoDesc, UniquePtr[codecSpecificInfo](webrtcCodecSpecificInfoNew()))
	webrtcCodecSpecificInfoSetCodecType(uintptr(u.AsPtr()), int32(codec))
	return &CodecSpecificInfo{u: u}, nil
}

// Ref returns a view valid while c is open.
func (c *CodecSpecificInfo) Ref() CodecSpecificInfoRef {
	return CodecSpecificInfoRef{b: unscoped(c.u.AsPtr())}
}

// Close deletes the info.
func (c *CodecSpecificInfo) Close() { c.u.Close() }

// CodecSpecificInfoRef is a borrowed, possibly nil, view of codec info.
type CodecSpecificInfoRef struct {
	b Borrowed[codecSpecificInfo]
}

// IsNil reports whether no codec info was passed.
func (c CodecSpecificInfoRef) IsNil() bool { return c.b.IsNil() }

// CodecType returns the codec the info describes.
func (c CodecSpecificInfoRef) CodecType() VideoCodecType {
	return VideoCodecType(webrtcCodecSpecificInfoCodecType(uintptr(c.b.Ptr())))
}

func (c CodecSpecificInfoRef) ptr() uintptr {
	if c.b.IsNil() {
		return 0
	}
	return uintptr(c.b.Ptr())
}
