package libwebrtc

import "sync"

type (
	videoSink               struct{}
	videoSinkWants          struct{}
	videoTrack              struct{}
	videoTrackSource        struct{}
	adaptedVideoTrackSource struct{}
)

var (
	videoSinkDesc               = owned[videoSink]("webrtc_VideoSinkInterface", "webrtc_VideoSinkInterface_delete")
	videoSinkWantsDesc          = owned[videoSinkWants]("webrtc_VideoSinkWants", "webrtc_VideoSinkWants_delete")
	videoTrackDesc              = refcounted[videoTrack]("webrtc_VideoTrackInterface")
	videoTrackSourceDesc        = refcounted[videoTrackSource]("webrtc_VideoTrackSourceInterface")
	adaptedVideoTrackSourceDesc = refcounted[adaptedVideoTrackSource]("webrtc_AdaptedVideoTrackSource")
)

var (
	webrtcVideoSinkNew              func(cbs, userData uintptr) uintptr
	webrtcVideoSinkWantsNew         func() uintptr
	webrtcVideoTrackAddOrUpdateSink func(self, sink, wants uintptr)
	webrtcVideoTrackRemoveSink      func(self, sink uintptr)
	webrtcMediaStreamTrackToVideo   func(ref uintptr) uintptr
	webrtcVideoTrackToMediaStream   func(ref uintptr) uintptr

	webrtcAdaptedVideoTrackSourceCreate     func() uintptr
	webrtcAdaptedVideoTrackSourceAdaptFrame func(self uintptr, width, height int32, timestampUs int64,
		adaptedWidth, adaptedHeight, cropWidth, cropHeight, cropX, cropY *int32) int32
	webrtcAdaptedVideoTrackSourceOnFrame  func(self, frame uintptr)
	webrtcAdaptedVideoTrackSourceToSource func(ref uintptr) uintptr
)

func init() {
	bind(
		symbol{"webrtc_VideoSinkInterface_new", &webrtcVideoSinkNew},
		symbol{"webrtc_VideoSinkWants_new", &webrtcVideoSinkWantsNew},
		symbol{"webrtc_VideoTrackInterface_AddOrUpdateSink", &webrtcVideoTrackAddOrUpdateSink},
		symbol{"webrtc_VideoTrackInterface_RemoveSink", &webrtcVideoTrackRemoveSink},
		symbol{"webrtc_MediaStreamTrackInterface_refcounted_cast_to_webrtc_VideoTrackInterface", &webrtcMediaStreamTrackToVideo},
		symbol{"webrtc_VideoTrackInterface_refcounted_cast_to_webrtc_MediaStreamTrackInterface", &webrtcVideoTrackToMediaStream},

		symbol{"webrtc_AdaptedVideoTrackSource_Create", &webrtcAdaptedVideoTrackSourceCreate},
		symbol{"webrtc_AdaptedVideoTrackSource_AdaptFrame", &webrtcAdaptedVideoTrackSourceAdaptFrame},
		symbol{"webrtc_AdaptedVideoTrackSource_OnFrame", &webrtcAdaptedVideoTrackSourceOnFrame},
		symbol{"webrtc_AdaptedVideoTrackSource_refcounted_cast_to_webrtc_VideoTrackSourceInterface", &webrtcAdaptedVideoTrackSourceToSource},
	)
}

// VideoSinkCallbacks receives decoded or captured frames. The frame is
// borrowed for the duration of OnFrame.
type VideoSinkCallbacks struct {
	OnFrame          func(frame VideoFrameRef)
	OnDiscardedFrame func()
}

func (c VideoSinkCallbacks) withDefaults() VideoSinkCallbacks {
	if c.OnFrame == nil {
		c.OnFrame = func(VideoFrameRef) {}
	}
	if c.OnDiscardedFrame == nil {
		c.OnDiscardedFrame = func() {}
	}
	return c
}

// videoSinkCbs mirrors webrtc_VideoSinkInterface_cbs.
type videoSinkCbs struct {
	OnFrame          uintptr
	OnDiscardedFrame uintptr
}

const videoSinkIface = "webrtc_VideoSinkInterface"

var videoSinkTrampolines = sync.OnceValue(func() videoSinkCbs {
	return videoSinkCbs{
		OnFrame:          newCallback(videoSinkOnFrame),
		OnDiscardedFrame: newCallback(videoSinkOnDiscardedFrame),
	}
})

func videoSinkOnFrame(frame, userData uintptr) {
	dispatchVoid(videoSinkIface, "OnFrame", userData, func(c *VideoSinkCallbacks, s *Scope) {
		if frame == 0 {
			contractViolation(videoSinkIface, "OnFrame with null frame")
		}
		c.OnFrame(VideoFrameRef{b: Borrow(s, Ptr[videoFrame](frame))})
	})
}

func videoSinkOnDiscardedFrame(userData uintptr) {
	dispatchVoid(videoSinkIface, "OnDiscardedFrame", userData, func(c *VideoSinkCallbacks, _ *Scope) {
		c.OnDiscardedFrame()
	})
}

// VideoSink is a native frame sink backed by Go callbacks. The native
// interface has no destroy notification, so Close frees the callbacks after
// deleting the sink. A sink must be removed from every track before Close.
type VideoSink struct {
	u *Unique[videoSink]
	b teardown
}

// NewVideoSink registers callbacks as a native sink.
func NewVideoSink(callbacks VideoSinkCallbacks) (*VideoSink, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	table := new(videoSinkCbs)
	*table = videoSinkTrampolines()
	b := register(videoSinkIface, callbacks.withDefaults(), table)

	raw := webrtcVideoSinkNew(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_VideoSinkInterface_new", "returned null")
	}
	return &VideoSink{u: FromUnique(videoSinkDesc, UniquePtr[videoSink](raw)), b: b}, nil
}

func (s *VideoSink) self() uintptr { return uintptr(s.u.AsPtr()) }

// Close deletes the sink and frees its callbacks. It is idempotent.
func (s *VideoSink) Close() {
	if !s.u.Live() {
		return
	}
	s.u.Close()
	s.b.free()
}

// VideoTrack owns a reference to a webrtc::VideoTrackInterface.
type VideoTrack struct {
	ref *ScopedRef[videoTrack]
}

func adoptVideoTrack(raw uintptr) *VideoTrack {
	return &VideoTrack{ref: FromRaw(videoTrackDesc, RefPtr[videoTrack](raw))}
}

// AddOrUpdateSink starts delivering the track's frames to sink with default
// wants.
func (t *VideoTrack) AddOrUpdateSink(sink *VideoSink) {
	wants := FromUnique(videoSinkWantsDesc, UniquePtr[videoSinkWants](webrtcVideoSinkWantsNew()))
	defer wants.Close()
	webrtcVideoTrackAddOrUpdateSink(uintptr(t.ref.AsPtr()), sink.self(), uintptr(wants.AsPtr()))
}

// RemoveSink stops delivery to sink. No OnFrame runs for it after return.
func (t *VideoTrack) RemoveSink(sink *VideoSink) {
	webrtcVideoTrackRemoveSink(uintptr(t.ref.AsPtr()), sink.self())
}

// MediaStreamTrack returns a new owner of the track as its base interface.
func (t *VideoTrack) MediaStreamTrack() *MediaStreamTrack {
	raw := webrtcVideoTrackToMediaStream(uintptr(t.ref.AsRefcountedPtr()))
	if raw == 0 {
		contractViolation("webrtc_VideoTrackInterface_refcounted_cast_to_webrtc_MediaStreamTrackInterface", "returned null")
	}
	return adoptMediaStreamTrack(raw)
}

// Clone returns a second owner of the same track.
func (t *VideoTrack) Clone() *VideoTrack { return &VideoTrack{ref: t.ref.Clone()} }

// Release drops this owner's reference.
func (t *VideoTrack) Release() { t.ref.Release() }

// VideoTrackSource owns a reference to a webrtc::VideoTrackSourceInterface.
type VideoTrackSource struct {
	ref *ScopedRef[videoTrackSource]
}

// Release drops this owner's reference.
func (s *VideoTrackSource) Release() { s.ref.Release() }

// AdaptedSize is the output of AdaptFrame.
type AdaptedSize struct {
	AdaptedWidth, AdaptedHeight int
	CropWidth, CropHeight       int
	CropX, CropY                int
}

// AdaptedVideoTrackSource is a video source fed from Go. Frames pushed with
// OnFrame reach every sink of the tracks created from it.
type AdaptedVideoTrackSource struct {
	ref *ScopedRef[adaptedVideoTrackSource]
}

// NewAdaptedVideoTrackSource creates a live, non-screencast source.
func NewAdaptedVideoTrackSource() (*AdaptedVideoTrackSource, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	raw := webrtcAdaptedVideoTrackSourceCreate()
	if raw == 0 {
		contractViolation("webrtc_AdaptedVideoTrackSource_Create", "returned null")
	}
	return &AdaptedVideoTrackSource{ref: FromRaw(adaptedVideoTrackSourceDesc, RefPtr[adaptedVideoTrackSource](raw))}, nil
}

func (s *AdaptedVideoTrackSource) self() uintptr { return uintptr(s.ref.AsPtr()) }

// AdaptFrame asks the source's adapter how a width x height frame captured
// at timestampUs should be cropped and scaled. It reports false when the
// frame should be dropped.
func (s *AdaptedVideoTrackSource) AdaptFrame(width, height int, timestampUs int64) (AdaptedSize, bool) {
	var aw, ah, cw, ch, cx, cy int32
	ok := webrtcAdaptedVideoTrackSourceAdaptFrame(s.self(), int32(width), int32(height), timestampUs,
		&aw, &ah, &cw, &ch, &cx, &cy) != 0
	return AdaptedSize{
		AdaptedWidth: int(aw), AdaptedHeight: int(ah),
		CropWidth: int(cw), CropHeight: int(ch),
		CropX: int(cx), CropY: int(cy),
	}, ok
}

// OnFrame pushes frame to the source's sinks. The caller keeps frame.
func (s *AdaptedVideoTrackSource) OnFrame(frame *VideoFrame) {
	webrtcAdaptedVideoTrackSourceOnFrame(s.self(), uintptr(frame.u.AsPtr()))
}

// VideoTrackSource returns a new owner of the source as the interface
// CreateVideoTrack takes.
func (s *AdaptedVideoTrackSource) VideoTrackSource() *VideoTrackSource {
	raw := webrtcAdaptedVideoTrackSourceToSource(uintptr(s.ref.AsRefcountedPtr()))
	if raw == 0 {
		contractViolation("webrtc_AdaptedVideoTrackSource_refcounted_cast_to_webrtc_VideoTrackSourceInterface", "returned null")
	}
	return &VideoTrackSource{ref: FromRaw(videoTrackSourceDesc, RefPtr[videoTrackSource](raw))}
}

// Clone returns a second owner of the same source.
func (s *AdaptedVideoTrackSource) Clone() *AdaptedVideoTrackSource {
	return &AdaptedVideoTrackSource{ref: s.ref.Clone()}
}

// Release drops this owner's reference.
func (s *AdaptedVideoTrackSource) Release() { s.ref.Release() }
