package libwebrtc

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"
)

type (
	peerConnectionFactory struct{}
	factoryDeps           struct{}
	factoryOptions        struct{}
)

var (
	peerConnectionFactoryDesc = refcounted[peerConnectionFactory]("webrtc_PeerConnectionFactoryInterface")
	factoryDepsDesc           = owned[factoryDeps]("webrtc_PeerConnectionFactoryDependencies", "webrtc_PeerConnectionFactoryDependencies_delete")
	factoryOptionsDesc        = owned[factoryOptions]("webrtc_PeerConnectionFactoryInterface_Options", "webrtc_PeerConnectionFactoryInterface_Options_delete")
)

var (
	webrtcFactoryDependenciesNew                    func() uintptr
	webrtcFactoryDependenciesSetNetworkThread       func(self, thread uintptr)
	webrtcFactoryDependenciesSetWorkerThread        func(self, thread uintptr)
	webrtcFactoryDependenciesSetSignalingThread     func(self, thread uintptr)
	webrtcFactoryDependenciesSetVideoEncoderFactory func(self, factory uintptr)
	webrtcFactoryDependenciesSetVideoDecoderFactory func(self, factory uintptr)
	webrtcEnableMedia                               func(deps uintptr)
	webrtcCreateModularPeerConnectionFactory        func(deps uintptr) uintptr
	webrtcFactoryCreatePeerConnectionOrError        func(self, config, deps uintptr, outPC, outErr *uintptr)
	webrtcFactoryOptionsNew                         func() uintptr
	webrtcFactoryOptionsSetDisableEncryption        func(self uintptr, v int32)
	webrtcFactoryOptionsSetSSLMaxVersion            func(self uintptr, v int32)
	webrtcFactorySetOptions                         func(self, options uintptr)
	webrtcFactoryCreateVideoTrack                   func(self, source uintptr, id unsafe.Pointer, n uintptr, outTrack *uintptr)
)

// sslProtocolDTLS12 is rtc::SSL_PROTOCOL_DTLS_12.
const sslProtocolDTLS12 int32 = 2

func init() {
	const deps = "webrtc_PeerConnectionFactoryDependencies_"
	const factory = "webrtc_PeerConnectionFactoryInterface_"
	bind(
		symbol{deps + "new", &webrtcFactoryDependenciesNew},
		symbol{deps + "set_network_thread", &webrtcFactoryDependenciesSetNetworkThread},
		symbol{deps + "set_worker_thread", &webrtcFactoryDependenciesSetWorkerThread},
		symbol{deps + "set_signaling_thread", &webrtcFactoryDependenciesSetSignalingThread},
		symbol{deps + "set_video_encoder_factory", &webrtcFactoryDependenciesSetVideoEncoderFactory},
		symbol{deps + "set_video_decoder_factory", &webrtcFactoryDependenciesSetVideoDecoderFactory},
		symbol{"webrtc_EnableMedia", &webrtcEnableMedia},
		symbol{"webrtc_CreateModularPeerConnectionFactory", &webrtcCreateModularPeerConnectionFactory},
		symbol{factory + "CreatePeerConnectionOrError", &webrtcFactoryCreatePeerConnectionOrError},
		symbol{factory + "Options_new", &webrtcFactoryOptionsNew},
		symbol{factory + "Options_set_disable_encryption", &webrtcFactoryOptionsSetDisableEncryption},
		symbol{factory + "Options_set_ssl_max_version", &webrtcFactoryOptionsSetSSLMaxVersion},
		symbol{factory + "SetOptions", &webrtcFactorySetOptions},
		symbol{factory + "CreateVideoTrack", &webrtcFactoryCreateVideoTrack},
	)
	expect(constant{"webrtc_SSL_PROTOCOL_DTLS_12", sslProtocolDTLS12})
}

// ErrFactoryCreate is returned when the native factory cannot be built.
var ErrFactoryCreate = errors.New("libwebrtc: peer connection factory creation failed")

// ErrTrackCreate is returned when the factory refuses to create a track.
var ErrTrackCreate = errors.New("libwebrtc: track creation failed")

// FactoryOptions are applied with SetOptions.
type FactoryOptions struct {
	DisableEncryption bool
	// LimitToDTLS12 caps the DTLS version at 1.2.
	LimitToDTLS12 bool
}

// PeerConnectionFactoryConfig selects optional factory dependencies.
type PeerConnectionFactoryConfig struct {
	// VideoEncoderFactory, when set, is handed to the factory and must not
	// be used afterwards.
	VideoEncoderFactory *VideoEncoderFactory
	// VideoDecoderFactory follows the same rule.
	VideoDecoderFactory *VideoDecoderFactory
}

// PeerConnectionFactory owns a webrtc::PeerConnectionFactoryInterface and
// the three threads it runs on.
type PeerConnectionFactory struct {
	network   *Thread
	worker    *Thread
	signaling *Thread
	ref       *ScopedRef[peerConnectionFactory]
}

// NewPeerConnectionFactory starts the network, worker and signaling threads
// and creates a factory with media enabled.
func NewPeerConnectionFactory(cfg PeerConnectionFactoryConfig) (*PeerConnectionFactory, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	f := &PeerConnectionFactory{}
	var err error
	if f.network, err = NewNetworkThread(); err != nil {
		return nil, err
	}
	if f.worker, err = NewThread(); err != nil {
		f.stopThreads()
		return nil, err
	}
	if f.signaling, err = NewThread(); err != nil {
		f.stopThreads()
		return nil, err
	}
	f.network.Start()
	f.worker.Start()
	f.signaling.Start()

	d := FromUnique(factoryDepsDesc, UniquePtr[factoryDeps](webrtcFactoryDependenciesNew()))
	defer d.Close()
	self := uintptr(d.AsPtr())
	webrtcFactoryDependenciesSetNetworkThread(self, f.network.self())
	webrtcFactoryDependenciesSetWorkerThread(self, f.worker.self())
	webrtcFactoryDependenciesSetSignalingThread(self, f.signaling.self())
	if cfg.VideoEncoderFactory != nil {
		webrtcFactoryDependenciesSetVideoEncoderFactory(self, uintptr(cfg.VideoEncoderFactory.intoRaw()))
	}
	if cfg.VideoDecoderFactory != nil {
		webrtcFactoryDependenciesSetVideoDecoderFactory(self, uintptr(cfg.VideoDecoderFactory.intoRaw()))
	}
	webrtcEnableMedia(self)

	raw := webrtcCreateModularPeerConnectionFactory(self)
	if raw == 0 {
		f.stopThreads()
		return nil, ErrFactoryCreate
	}
	f.ref = FromRaw(peerConnectionFactoryDesc, RefPtr[peerConnectionFactory](raw))
	Logger().Debug("peer connection factory created")
	return f, nil
}

// SetOptions applies opts to connections created afterwards.
func (f *PeerConnectionFactory) SetOptions(opts FactoryOptions) {
	self := uintptr(f.ref.AsPtr())
	o := FromUnique(factoryOptionsDesc, UniquePtr[factoryOptions](webrtcFactoryOptionsNew()))
	defer o.Close()
	p := uintptr(o.AsPtr())
	webrtcFactoryOptionsSetDisableEncryption(p, boolToInt(opts.DisableEncryption))
	if opts.LimitToDTLS12 {
		webrtcFactoryOptionsSetSSLMaxVersion(p, sslProtocolDTLS12)
	}
	webrtcFactorySetOptions(self, p)
}

// CreatePeerConnection creates a connection configured from a pion
// configuration. The connection owns an observer built from callbacks.
func (f *PeerConnectionFactory) CreatePeerConnection(cfg webrtc.Configuration, callbacks PeerConnectionObserverCallbacks) (*PeerConnection, error) {
	self := uintptr(f.ref.AsPtr())
	conf, err := newRTCConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	defer conf.Close()

	observer, err := NewPeerConnectionObserver(callbacks)
	if err != nil {
		return nil, err
	}
	deps := FromUnique(peerConnectionDepsDesc, UniquePtr[peerConnectionDeps](webrtcPeerConnectionDependenciesNew(uintptr(observer.u.AsPtr()))))
	defer deps.Close()

	var pcRaw, errRaw uintptr
	webrtcFactoryCreatePeerConnectionOrError(self, uintptr(conf.AsPtr()), uintptr(deps.AsPtr()), &pcRaw, &errRaw)
	if pcRaw == 0 {
		observer.Close()
		return nil, fmt.Errorf("create peer connection: %w", takeRTCFailure(errRaw))
	}
	pc := &PeerConnection{
		ref:      FromRaw(peerConnectionDesc, RefPtr[peerConnection](pcRaw)),
		observer: observer,
	}
	if err := takeRTCError(errRaw); err != nil {
		pc.Release()
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	Logger().Debug("peer connection created", zap.Int("ice_servers", len(cfg.ICEServers)))
	return pc, nil
}

// CreateVideoTrack creates a video track fed by source. The caller keeps its
// source reference.
func (f *PeerConnectionFactory) CreateVideoTrack(source *VideoTrackSource, id string) (*VideoTrack, error) {
	var raw uintptr
	webrtcFactoryCreateVideoTrack(uintptr(f.ref.AsPtr()), uintptr(source.ref.AsRefcountedPtr()),
		stringPtr(id), uintptr(len(id)), &raw)
	if raw == 0 {
		return nil, fmt.Errorf("%w: video track %q", ErrTrackCreate, id)
	}
	return adoptVideoTrack(raw), nil
}

func (f *PeerConnectionFactory) stopThreads() {
	for _, t := range []*Thread{f.signaling, f.worker, f.network} {
		if t != nil {
			t.Close()
		}
	}
}

// Close releases the factory and stops its threads. Connections created by
// the factory must be released first.
func (f *PeerConnectionFactory) Close() {
	if f.ref == nil || f.ref.Released() {
		return
	}
	f.ref.Release()
	f.stopThreads()
}
