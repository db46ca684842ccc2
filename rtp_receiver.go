package libwebrtc

import "github.com/pion/webrtc/v4"

type (
	rtpTransceiver   struct{}
	rtpReceiver      struct{}
	rtpSender        struct{}
	mediaStreamTrack struct{}
)

var (
	rtpTransceiverDesc   = refcounted[rtpTransceiver]("webrtc_RtpTransceiverInterface")
	rtpReceiverDesc      = refcounted[rtpReceiver]("webrtc_RtpReceiverInterface")
	rtpSenderDesc        = refcounted[rtpSender]("webrtc_RtpSenderInterface")
	mediaStreamTrackDesc = refcounted[mediaStreamTrack]("webrtc_MediaStreamTrackInterface")
)

var (
	webrtcRtpTransceiverReceiver func(self uintptr) uintptr
	webrtcRtpReceiverTrack       func(self uintptr) uintptr
	webrtcMediaStreamTrackKind   func(self uintptr) uintptr
	webrtcMediaStreamTrackID     func(self uintptr) uintptr
)

func init() {
	bind(
		symbol{"webrtc_RtpTransceiverInterface_receiver", &webrtcRtpTransceiverReceiver},
		symbol{"webrtc_RtpReceiverInterface_track", &webrtcRtpReceiverTrack},
		symbol{"webrtc_MediaStreamTrackInterface_kind", &webrtcMediaStreamTrackKind},
		symbol{"webrtc_MediaStreamTrackInterface_id", &webrtcMediaStreamTrackID},
	)
}

// RtpTransceiver owns a reference to a webrtc::RtpTransceiverInterface.
type RtpTransceiver struct {
	ref *ScopedRef[rtpTransceiver]
}

func adoptRtpTransceiver(raw uintptr) *RtpTransceiver {
	return &RtpTransceiver{ref: FromRaw(rtpTransceiverDesc, RefPtr[rtpTransceiver](raw))}
}

// Receiver returns a new owner of the transceiver's receiver.
func (t *RtpTransceiver) Receiver() *RtpReceiver {
	raw := webrtcRtpTransceiverReceiver(uintptr(t.ref.AsPtr()))
	if raw == 0 {
		contractViolation("webrtc_RtpTransceiverInterface_receiver", "returned null")
	}
	return adoptRtpReceiver(raw)
}

// Release drops this owner's reference.
func (t *RtpTransceiver) Release() { t.ref.Release() }

// RtpReceiver owns a reference to a webrtc::RtpReceiverInterface.
type RtpReceiver struct {
	ref *ScopedRef[rtpReceiver]
}

func adoptRtpReceiver(raw uintptr) *RtpReceiver {
	return &RtpReceiver{ref: FromRaw(rtpReceiverDesc, RefPtr[rtpReceiver](raw))}
}

// Track returns a new owner of the received track.
func (r *RtpReceiver) Track() *MediaStreamTrack {
	raw := webrtcRtpReceiverTrack(uintptr(r.ref.AsPtr()))
	if raw == 0 {
		contractViolation("webrtc_RtpReceiverInterface_track", "returned null")
	}
	return adoptMediaStreamTrack(raw)
}

// Release drops this owner's reference.
func (r *RtpReceiver) Release() { r.ref.Release() }

// RtpSender owns a reference to a webrtc::RtpSenderInterface.
type RtpSender struct {
	ref *ScopedRef[rtpSender]
}

func adoptRtpSender(raw uintptr) *RtpSender {
	return &RtpSender{ref: FromRaw(rtpSenderDesc, RefPtr[rtpSender](raw))}
}

// Release drops this owner's reference.
func (s *RtpSender) Release() { s.ref.Release() }

// MediaStreamTrack owns a reference to a webrtc::MediaStreamTrackInterface.
type MediaStreamTrack struct {
	ref *ScopedRef[mediaStreamTrack]
}

func adoptMediaStreamTrack(raw uintptr) *MediaStreamTrack {
	return &MediaStreamTrack{ref: FromRaw(mediaStreamTrackDesc, RefPtr[mediaStreamTrack](raw))}
}

// Kind returns "audio" or "video".
func (t *MediaStreamTrack) Kind() string {
	return takeStdString(webrtcMediaStreamTrackKind(uintptr(t.ref.AsPtr())))
}

// ID returns the track id.
func (t *MediaStreamTrack) ID() string {
	return takeStdString(webrtcMediaStreamTrackID(uintptr(t.ref.AsPtr())))
}

// CodecType maps Kind onto pion's codec type.
func (t *MediaStreamTrack) CodecType() webrtc.RTPCodecType {
	return webrtc.NewRTPCodecType(t.Kind())
}

// VideoTrack returns a new owner of the track as a video track. It reports
// false for audio tracks.
func (t *MediaStreamTrack) VideoTrack() (*VideoTrack, bool) {
	if t.Kind() != webrtc.RTPCodecTypeVideo.String() {
		return nil, false
	}
	raw := webrtcMediaStreamTrackToVideo(uintptr(t.ref.AsRefcountedPtr()))
	if raw == 0 {
		contractViolation("webrtc_MediaStreamTrackInterface_refcounted_cast_to_webrtc_VideoTrackInterface", "returned null")
	}
	return adoptVideoTrack(raw), true
}

// Clone returns a second owner of the same track.
func (t *MediaStreamTrack) Clone() *MediaStreamTrack { return &MediaStreamTrack{ref: t.ref.Clone()} }

// Release drops this owner's reference.
func (t *MediaStreamTrack) Release() { t.ref.Release() }
