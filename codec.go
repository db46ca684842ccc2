package libwebrtc

import "github.com/pion/webrtc/v4"

// VideoCodecType identifies a video codec using the native enum values.
type VideoCodecType int32

const (
	VideoCodecGeneric VideoCodecType = 0
	VideoCodecVP8     VideoCodecType = 1
	VideoCodecVP9     VideoCodecType = 2
	VideoCodecAV1     VideoCodecType = 3
	VideoCodecH264    VideoCodecType = 4
	VideoCodecH265    VideoCodecType = 5
)

func init() {
	expect(
		constant{"webrtc_VideoCodecType_Generic", int32(VideoCodecGeneric)},
		constant{"webrtc_VideoCodecType_VP8", int32(VideoCodecVP8)},
		constant{"webrtc_VideoCodecType_VP9", int32(VideoCodecVP9)},
		constant{"webrtc_VideoCodecType_AV1", int32(VideoCodecAV1)},
		constant{"webrtc_VideoCodecType_H264", int32(VideoCodecH264)},
		constant{"webrtc_VideoCodecType_H265", int32(VideoCodecH265)},
	)
}

func (c VideoCodecType) String() string {
	switch c {
	case VideoCodecGeneric:
		return "Generic"
	case VideoCodecVP8:
		return "VP8"
	case VideoCodecVP9:
		return "VP9"
	case VideoCodecAV1:
		return "AV1"
	case VideoCodecH264:
		return "H264"
	case VideoCodecH265:
		return "H265"
	default:
		return "Unknown"
	}
}

// MimeType returns the MIME type for this codec, as pion names it.
func (c VideoCodecType) MimeType() string {
	switch c {
	case VideoCodecVP8:
		return webrtc.MimeTypeVP8
	case VideoCodecVP9:
		return webrtc.MimeTypeVP9
	case VideoCodecAV1:
		return webrtc.MimeTypeAV1
	case VideoCodecH264:
		return webrtc.MimeTypeH264
	case VideoCodecH265:
		return webrtc.MimeTypeH265
	default:
		return ""
	}
}

// videoClockRate is the RTP clock of every video payload format.
const videoClockRate = 90000

// ClockRate returns the RTP clock rate for this codec.
func (c VideoCodecType) ClockRate() uint32 {
	// All video codecs use 90kHz clock
	return videoClockRate
}

// DefaultPayloadType returns a typical payload type for this codec.
// Note: Actual payload type is negotiated via SDP.
func (c VideoCodecType) DefaultPayloadType() uint8 {
	switch c {
	case VideoCodecVP8:
		return 96
	case VideoCodecVP9:
		return 98
	case VideoCodecH264:
		return 102
	case VideoCodecH265:
		return 104
	case VideoCodecAV1:
		return 35
	default:
		return 96
	}
}

// Capability returns the pion codec capability for this codec.
func (c VideoCodecType) Capability() webrtc.RTPCodecCapability {
	return webrtc.RTPCodecCapability{MimeType: c.MimeType(), ClockRate: c.ClockRate()}
}

// VideoCodecStatus is the status code returned by encoder operations.
type VideoCodecStatus int32

const (
	VideoCodecStatusOK                     VideoCodecStatus = 0
	VideoCodecStatusNoOutput               VideoCodecStatus = 1
	VideoCodecStatusOKRequestKeyframe      VideoCodecStatus = 4
	VideoCodecStatusTargetBitrateOvershoot VideoCodecStatus = 5
	VideoCodecStatusError                  VideoCodecStatus = -1
	VideoCodecStatusMemory                 VideoCodecStatus = -3
	VideoCodecStatusErrParameter           VideoCodecStatus = -4
	VideoCodecStatusErrSimulcast           VideoCodecStatus = -5
	VideoCodecStatusTimeout                VideoCodecStatus = -6
	VideoCodecStatusUninitialized          VideoCodecStatus = -7
	VideoCodecStatusFallbackSoftware       VideoCodecStatus = -13
	VideoCodecStatusEncoderFailure         VideoCodecStatus = -16
)

func init() {
	expect(
		constant{"webrtc_VideoCodecStatus_Ok", int32(VideoCodecStatusOK)},
		constant{"webrtc_VideoCodecStatus_NoOutput", int32(VideoCodecStatusNoOutput)},
		constant{"webrtc_VideoCodecStatus_OkRequestKeyframe", int32(VideoCodecStatusOKRequestKeyframe)},
		constant{"webrtc_VideoCodecStatus_TargetBitrateOvershoot", int32(VideoCodecStatusTargetBitrateOvershoot)},
		constant{"webrtc_VideoCodecStatus_Error", int32(VideoCodecStatusError)},
		constant{"webrtc_VideoCodecStatus_Memory", int32(VideoCodecStatusMemory)},
		constant{"webrtc_VideoCodecStatus_ErrParameter", int32(VideoCodecStatusErrParameter)},
		constant{"webrtc_VideoCodecStatus_ErrSimulcastParametersNotSupported", int32(VideoCodecStatusErrSimulcast)},
		constant{"webrtc_VideoCodecStatus_Timeout", int32(VideoCodecStatusTimeout)},
		constant{"webrtc_VideoCodecStatus_Uninitialized", int32(VideoCodecStatusUninitialized)},
		constant{"webrtc_VideoCodecStatus_FallbackSoftware", int32(VideoCodecStatusFallbackSoftware)},
		constant{"webrtc_VideoCodecStatus_EncoderFailure", int32(VideoCodecStatusEncoderFailure)},
	)
}

// IsError reports whether the status is a failure.
func (s VideoCodecStatus) IsError() bool { return s < 0 }

func (s VideoCodecStatus) String() string {
	switch s {
	case VideoCodecStatusOK:
		return "OK"
	case VideoCodecStatusNoOutput:
		return "NO_OUTPUT"
	case VideoCodecStatusOKRequestKeyframe:
		return "OK_REQUEST_KEYFRAME"
	case VideoCodecStatusTargetBitrateOvershoot:
		return "TARGET_BITRATE_OVERSHOOT"
	case VideoCodecStatusError:
		return "ERROR"
	case VideoCodecStatusMemory:
		return "MEMORY"
	case VideoCodecStatusErrParameter:
		return "ERR_PARAMETER"
	case VideoCodecStatusErrSimulcast:
		return "ERR_SIMULCAST_PARAMETERS_NOT_SUPPORTED"
	case VideoCodecStatusTimeout:
		return "TIMEOUT"
	case VideoCodecStatusUninitialized:
		return "UNINITIALIZED"
	case VideoCodecStatusFallbackSoftware:
		return "FALLBACK_SOFTWARE"
	case VideoCodecStatusEncoderFailure:
		return "ENCODER_FAILURE"
	default:
		return "Unknown"
	}
}
