package libwebrtc

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/pion/webrtc/v4"
)

type (
	peerConnection         struct{}
	peerConnectionObserver struct{}
	peerConnectionDeps     struct{}
	offerAnswerOptions     struct{}
)

var (
	peerConnectionDesc         = refcounted[peerConnection]("webrtc_PeerConnectionInterface")
	peerConnectionObserverDesc = owned[peerConnectionObserver]("webrtc_PeerConnectionObserver", "webrtc_PeerConnectionObserver_delete")
	peerConnectionDepsDesc     = owned[peerConnectionDeps]("webrtc_PeerConnectionDependencies", "webrtc_PeerConnectionDependencies_delete")
	offerAnswerOptionsDesc     = owned[offerAnswerOptions]("webrtc_PeerConnectionInterface_RTCOfferAnswerOptions", "webrtc_PeerConnectionInterface_RTCOfferAnswerOptions_delete")
)

var (
	webrtcPeerConnectionObserverNew     func(cbs, userData uintptr) uintptr
	webrtcPeerConnectionDependenciesNew func(observer uintptr) uintptr

	webrtcPeerConnectionCreateOffer              func(self, observer, options uintptr)
	webrtcPeerConnectionCreateAnswer             func(self, observer, options uintptr)
	webrtcPeerConnectionSetLocalDescription      func(self, desc, observer uintptr)
	webrtcPeerConnectionSetRemoteDescription     func(self, desc, observer uintptr)
	webrtcPeerConnectionAddIceCandidate          func(self, candidate uintptr) int32
	webrtcPeerConnectionSetConfiguration         func(self, config uintptr, outErr *uintptr)
	webrtcPeerConnectionCreateDataChannelOrError func(self uintptr, label unsafe.Pointer, n uintptr, init uintptr, outDC, outErr *uintptr)
	webrtcPeerConnectionGetStats                 func(self, cbs, userData uintptr)
	webrtcPeerConnectionAddTrack                 func(self, track, streamIDs uintptr, outSender, outErr *uintptr)

	webrtcOfferAnswerOptionsNew                         func() uintptr
	webrtcOfferAnswerOptionsSetOfferToReceiveVideo      func(self uintptr, v int32)
	webrtcOfferAnswerOptionsSetOfferToReceiveAudio      func(self uintptr, v int32)
	webrtcOfferAnswerOptionsSetVoiceActivityDetection   func(self uintptr, v int32)
	webrtcOfferAnswerOptionsSetIceRestart               func(self uintptr, v int32)
	webrtcOfferAnswerOptionsSetUseRtpMux                func(self uintptr, v int32)
	webrtcOfferAnswerOptionsSetRawPacketizationForVideo func(self uintptr, v int32)
	webrtcOfferAnswerOptionsSetNumSimulcastLayers       func(self uintptr, v int32)
)

const (
	pcStateNew          int32 = 0
	pcStateConnecting   int32 = 1
	pcStateConnected    int32 = 2
	pcStateDisconnected int32 = 3
	pcStateFailed       int32 = 4
	pcStateClosed       int32 = 5
)

func init() {
	const pc = "webrtc_PeerConnectionInterface_"
	const opts = pc + "RTCOfferAnswerOptions_"
	bind(
		symbol{"webrtc_PeerConnectionObserver_new", &webrtcPeerConnectionObserverNew},
		symbol{"webrtc_PeerConnectionDependencies_new", &webrtcPeerConnectionDependenciesNew},

		symbol{pc + "CreateOffer", &webrtcPeerConnectionCreateOffer},
		symbol{pc + "CreateAnswer", &webrtcPeerConnectionCreateAnswer},
		symbol{pc + "SetLocalDescription", &webrtcPeerConnectionSetLocalDescription},
		symbol{pc + "SetRemoteDescription", &webrtcPeerConnectionSetRemoteDescription},
		symbol{pc + "AddIceCandidate", &webrtcPeerConnectionAddIceCandidate},
		symbol{pc + "SetConfiguration", &webrtcPeerConnectionSetConfiguration},
		symbol{pc + "CreateDataChannelOrError", &webrtcPeerConnectionCreateDataChannelOrError},
		symbol{pc + "GetStats", &webrtcPeerConnectionGetStats},
		symbol{pc + "AddTrack", &webrtcPeerConnectionAddTrack},

		symbol{opts + "new", &webrtcOfferAnswerOptionsNew},
		symbol{opts + "set_offer_to_receive_video", &webrtcOfferAnswerOptionsSetOfferToReceiveVideo},
		symbol{opts + "set_offer_to_receive_audio", &webrtcOfferAnswerOptionsSetOfferToReceiveAudio},
		symbol{opts + "set_voice_activity_detection", &webrtcOfferAnswerOptionsSetVoiceActivityDetection},
		symbol{opts + "set_ice_restart", &webrtcOfferAnswerOptionsSetIceRestart},
		symbol{opts + "set_use_rtp_mux", &webrtcOfferAnswerOptionsSetUseRtpMux},
		symbol{opts + "set_raw_packetization_for_video", &webrtcOfferAnswerOptionsSetRawPacketizationForVideo},
		symbol{opts + "set_num_simulcast_layers", &webrtcOfferAnswerOptionsSetNumSimulcastLayers},
	)
	expect(
		constant{pc + "PeerConnectionState_kNew", pcStateNew},
		constant{pc + "PeerConnectionState_kConnecting", pcStateConnecting},
		constant{pc + "PeerConnectionState_kConnected", pcStateConnected},
		constant{pc + "PeerConnectionState_kDisconnected", pcStateDisconnected},
		constant{pc + "PeerConnectionState_kFailed", pcStateFailed},
		constant{pc + "PeerConnectionState_kClosed", pcStateClosed},
	)
}

func peerConnectionStateToPion(s int32) webrtc.PeerConnectionState {
	switch s {
	case pcStateNew:
		return webrtc.PeerConnectionStateNew
	case pcStateConnecting:
		return webrtc.PeerConnectionStateConnecting
	case pcStateConnected:
		return webrtc.PeerConnectionStateConnected
	case pcStateDisconnected:
		return webrtc.PeerConnectionStateDisconnected
	case pcStateFailed:
		return webrtc.PeerConnectionStateFailed
	case pcStateClosed:
		return webrtc.PeerConnectionStateClosed
	default:
		return webrtc.PeerConnectionStateUnknown
	}
}

// OfferAnswerOptions tunes CreateOffer and CreateAnswer. The zero value
// keeps the native defaults.
type OfferAnswerOptions struct {
	OfferToReceiveAudio           *bool
	OfferToReceiveVideo           *bool
	IceRestart                    bool
	DisableVoiceActivityDetection bool
	DisableRTPMux                 bool
	RawPacketizationForVideo      bool
	// NumSimulcastLayers is applied when positive.
	NumSimulcastLayers int
}

func (o *OfferAnswerOptions) native() *Unique[offerAnswerOptions] {
	u := FromUnique(offerAnswerOptionsDesc, UniquePtr[offerAnswerOptions](webrtcOfferAnswerOptionsNew()))
	if o == nil {
		return u
	}
	self := uintptr(u.AsPtr())
	if o.OfferToReceiveAudio != nil {
		webrtcOfferAnswerOptionsSetOfferToReceiveAudio(self, boolToInt(*o.OfferToReceiveAudio))
	}
	if o.OfferToReceiveVideo != nil {
		webrtcOfferAnswerOptionsSetOfferToReceiveVideo(self, boolToInt(*o.OfferToReceiveVideo))
	}
	webrtcOfferAnswerOptionsSetIceRestart(self, boolToInt(o.IceRestart))
	webrtcOfferAnswerOptionsSetVoiceActivityDetection(self, boolToInt(!o.DisableVoiceActivityDetection))
	webrtcOfferAnswerOptionsSetUseRtpMux(self, boolToInt(!o.DisableRTPMux))
	webrtcOfferAnswerOptionsSetRawPacketizationForVideo(self, boolToInt(o.RawPacketizationForVideo))
	if o.NumSimulcastLayers > 0 {
		webrtcOfferAnswerOptionsSetNumSimulcastLayers(self, int32(o.NumSimulcastLayers))
	}
	return u
}

// PeerConnectionObserverCallbacks receives peer connection events. Callbacks
// that are handed an owned object must release it; the defaults do.
type PeerConnectionObserverCallbacks struct {
	OnConnectionChange func(state webrtc.PeerConnectionState)
	// OnIceCandidate gets a view valid only during the call.
	OnIceCandidate func(candidate IceCandidateRef)
	OnTrack        func(transceiver *RtpTransceiver)
	OnRemoveTrack  func(receiver *RtpReceiver)
	OnDataChannel  func(dc *DataChannel)
}

func (c PeerConnectionObserverCallbacks) withDefaults() PeerConnectionObserverCallbacks {
	if c.OnConnectionChange == nil {
		c.OnConnectionChange = func(webrtc.PeerConnectionState) {}
	}
	if c.OnIceCandidate == nil {
		c.OnIceCandidate = func(IceCandidateRef) {}
	}
	if c.OnTrack == nil {
		c.OnTrack = func(t *RtpTransceiver) { t.Release() }
	}
	if c.OnRemoveTrack == nil {
		c.OnRemoveTrack = func(r *RtpReceiver) { r.Release() }
	}
	if c.OnDataChannel == nil {
		c.OnDataChannel = func(dc *DataChannel) { dc.Release() }
	}
	return c
}

type peerConnectionObserverCbs struct {
	OnConnectionChange uintptr
	OnIceCandidate     uintptr
	OnTrack            uintptr
	OnRemoveTrack      uintptr
	OnDataChannel      uintptr
	OnDestroy          uintptr // left nil, never called by the native delete
}

const peerConnectionObserverIface = "webrtc_PeerConnectionObserver"

var peerConnectionObserverTrampolines = sync.OnceValue(func() peerConnectionObserverCbs {
	return peerConnectionObserverCbs{
		OnConnectionChange: newCallback(peerConnectionOnConnectionChange),
		OnIceCandidate:     newCallback(peerConnectionOnIceCandidate),
		OnTrack:            newCallback(peerConnectionOnTrack),
		OnRemoveTrack:      newCallback(peerConnectionOnRemoveTrack),
		OnDataChannel:      newCallback(peerConnectionOnDataChannel),
	}
})

func peerConnectionOnConnectionChange(state int32, userData uintptr) {
	dispatchVoid(peerConnectionObserverIface, "OnConnectionChange", userData,
		func(c *PeerConnectionObserverCallbacks, _ *Scope) {
			c.OnConnectionChange(peerConnectionStateToPion(state))
		})
}

func peerConnectionOnIceCandidate(candidate, userData uintptr) {
	dispatchVoid(peerConnectionObserverIface, "OnIceCandidate", userData,
		func(c *PeerConnectionObserverCallbacks, s *Scope) {
			if candidate == 0 {
				contractViolation(peerConnectionObserverIface, "OnIceCandidate with null candidate")
			}
			c.OnIceCandidate(IceCandidateRef{b: Borrow(s, Ptr[iceCandidate](candidate))})
		})
}

func peerConnectionOnTrack(transceiver, userData uintptr) {
	dispatchVoid(peerConnectionObserverIface, "OnTrack", userData,
		func(c *PeerConnectionObserverCallbacks, _ *Scope) {
			c.OnTrack(adoptRtpTransceiver(transceiver))
		})
}

func peerConnectionOnRemoveTrack(receiver, userData uintptr) {
	dispatchVoid(peerConnectionObserverIface, "OnRemoveTrack", userData,
		func(c *PeerConnectionObserverCallbacks, _ *Scope) {
			c.OnRemoveTrack(adoptRtpReceiver(receiver))
		})
}

func peerConnectionOnDataChannel(dc, userData uintptr) {
	dispatchVoid(peerConnectionObserverIface, "OnDataChannel", userData,
		func(c *PeerConnectionObserverCallbacks, _ *Scope) {
			c.OnDataChannel(adoptDataChannel(dc))
		})
}

// PeerConnectionObserver is a native observer backed by Go callbacks. The
// native delete never reaches OnDestroy, so the registration ends in Close.
type PeerConnectionObserver struct {
	u *Unique[peerConnectionObserver]
	b teardown
}

// NewPeerConnectionObserver registers callbacks as a native observer. The
// callbacks are released when Close deletes the observer.
func NewPeerConnectionObserver(callbacks PeerConnectionObserverCallbacks) (*PeerConnectionObserver, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	table := new(peerConnectionObserverCbs)
	*table = peerConnectionObserverTrampolines()
	b := register(peerConnectionObserverIface, callbacks.withDefaults(), table)

	raw := webrtcPeerConnectionObserverNew(b.tablePtr(), b.userData())
	if raw == 0 {
		abandon(b)
		contractViolation("webrtc_PeerConnectionObserver_new", "returned null")
	}
	return &PeerConnectionObserver{u: FromUnique(peerConnectionObserverDesc, UniquePtr[peerConnectionObserver](raw)), b: b}, nil
}

// Close deletes the observer and then frees its callbacks. It must outlive
// every peer connection it was passed to.
func (o *PeerConnectionObserver) Close() {
	if !o.u.Live() {
		return
	}
	o.u.Close()
	o.b.free()
}

// PeerConnection owns a reference to a webrtc::PeerConnectionInterface and
// the observer it reports to.
type PeerConnection struct {
	ref      *ScopedRef[peerConnection]
	observer *PeerConnectionObserver
}

func (pc *PeerConnection) self() uintptr { return uintptr(pc.ref.AsPtr()) }

// CreateOffer starts creating an offer. callbacks run later on the signaling
// thread.
func (pc *PeerConnection) CreateOffer(opts *OfferAnswerOptions, callbacks CreateSessionDescriptionCallbacks) {
	pc.createDescription(webrtcPeerConnectionCreateOffer, opts, callbacks)
}

// CreateAnswer starts creating an answer to the remote offer.
func (pc *PeerConnection) CreateAnswer(opts *OfferAnswerOptions, callbacks CreateSessionDescriptionCallbacks) {
	pc.createDescription(webrtcPeerConnectionCreateAnswer, opts, callbacks)
}

func (pc *PeerConnection) createDescription(create func(self, observer, options uintptr), opts *OfferAnswerOptions, callbacks CreateSessionDescriptionCallbacks) {
	self := pc.self()
	options := opts.native()
	defer options.Close()
	observer := newCreateSessionDescriptionObserver(callbacks)
	defer observer.Release()
	create(self, uintptr(observer.AsPtr()), uintptr(options.AsPtr()))
}

// SetLocalDescription applies desc, which is consumed whether or not it
// succeeds.
func (pc *PeerConnection) SetLocalDescription(desc *SessionDescription, callbacks SetDescriptionCallbacks) {
	self := pc.self()
	observer := newSetLocalDescriptionObserver(callbacks)
	defer observer.Release()
	webrtcPeerConnectionSetLocalDescription(self, desc.intoRaw(), uintptr(observer.AsRefcountedPtr()))
}

// SetRemoteDescription applies desc, which is consumed whether or not it
// succeeds.
func (pc *PeerConnection) SetRemoteDescription(desc *SessionDescription, callbacks SetDescriptionCallbacks) {
	self := pc.self()
	observer := newSetRemoteDescriptionObserver(callbacks)
	defer observer.Release()
	webrtcPeerConnectionSetRemoteDescription(self, desc.intoRaw(), uintptr(observer.AsRefcountedPtr()))
}

// AddIceCandidate adds a remote candidate.
func (pc *PeerConnection) AddIceCandidate(init webrtc.ICECandidateInit) error {
	c, err := NewIceCandidate(init)
	if err != nil {
		return err
	}
	defer c.Close()
	if webrtcPeerConnectionAddIceCandidate(pc.self(), uintptr(c.u.AsPtr())) == 0 {
		return fmt.Errorf("%w: rejected by peer connection", ErrInvalidIceCandidate)
	}
	return nil
}

// SetConfiguration updates the ICE servers and transport policy.
func (pc *PeerConnection) SetConfiguration(cfg webrtc.Configuration) error {
	conf, err := newRTCConfiguration(cfg)
	if err != nil {
		return err
	}
	defer conf.Close()
	var errRaw uintptr
	webrtcPeerConnectionSetConfiguration(pc.self(), uintptr(conf.AsPtr()), &errRaw)
	if err := takeRTCError(errRaw); err != nil {
		return fmt.Errorf("set configuration: %w", err)
	}
	return nil
}

// CreateDataChannel opens a data channel. init may be nil.
func (pc *PeerConnection) CreateDataChannel(label string, init *webrtc.DataChannelInit) (*DataChannel, error) {
	self := pc.self()
	nativeInit := newDataChannelInit(init)
	defer nativeInit.Close()

	var dcRaw, errRaw uintptr
	webrtcPeerConnectionCreateDataChannelOrError(self, stringPtr(label), uintptr(len(label)),
		uintptr(nativeInit.AsPtr()), &dcRaw, &errRaw)
	if dcRaw == 0 {
		return nil, fmt.Errorf("create data channel %q: %w", label, takeRTCFailure(errRaw))
	}
	dc := adoptDataChannel(dcRaw)
	if err := takeRTCError(errRaw); err != nil {
		dc.Release()
		return nil, fmt.Errorf("create data channel %q: %w", label, err)
	}
	return dc, nil
}

// AddTrack attaches track to the connection under streamIDs. The caller
// keeps its track reference.
func (pc *PeerConnection) AddTrack(track *MediaStreamTrack, streamIDs []string) (*RtpSender, error) {
	self := pc.self()
	ids := newStdStringVector(streamIDs)
	defer ids.Close()

	var senderRaw, errRaw uintptr
	webrtcPeerConnectionAddTrack(self, uintptr(track.ref.AsRefcountedPtr()), uintptr(ids.AsPtr()), &senderRaw, &errRaw)
	if senderRaw == 0 {
		return nil, fmt.Errorf("add track: %w", takeRTCFailure(errRaw))
	}
	sender := adoptRtpSender(senderRaw)
	if err := takeRTCError(errRaw); err != nil {
		sender.Release()
		return nil, fmt.Errorf("add track: %w", err)
	}
	return sender, nil
}

// GetStats requests a stats report. fn runs once, later, on a native thread.
func (pc *PeerConnection) GetStats(fn func(report *StatsReport, err error)) {
	if fn == nil {
		fn = func(*StatsReport, error) {}
	}
	self := pc.self()
	table := new(statsCollectorCbs)
	*table = statsCollectorTrampolines()
	b := register(statsCollectorIface, statsCollectorCallbacks{OnStatsDelivered: fn}, table)
	webrtcPeerConnectionGetStats(self, b.tablePtr(), b.userData())
}

// Release drops the connection reference and then deletes the observer.
func (pc *PeerConnection) Release() {
	if pc.ref.Released() {
		return
	}
	pc.ref.Release()
	pc.observer.Close()
}
