package libwebrtc

import (
	"fmt"
	"unsafe"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
)

type (
	rtcConfiguration struct{}
	iceServer        struct{}
)

var (
	rtcConfigurationDesc = owned[rtcConfiguration]("webrtc_PeerConnectionInterface_RTCConfiguration", "webrtc_PeerConnectionInterface_RTCConfiguration_delete")
	iceServerDesc        = owned[iceServer]("webrtc_PeerConnectionInterface_IceServer", "webrtc_PeerConnectionInterface_IceServer_delete")
)

var (
	webrtcRTCConfigurationNew        func() uintptr
	webrtcRTCConfigurationGetServers func(self uintptr) uintptr
	webrtcRTCConfigurationSetType    func(self uintptr, t int32)
	webrtcIceServerNew               func() uintptr
	webrtcIceServerGetURLs           func(self uintptr) uintptr
	webrtcIceServerSetUsername       func(self uintptr, s unsafe.Pointer, n uintptr)
	webrtcIceServerSetPassword       func(self uintptr, s unsafe.Pointer, n uintptr)
	webrtcIceServerVectorPushBack    func(self, value uintptr)
)

// iceTransportsTypeRelay is PeerConnectionInterface::IceTransportsType::kRelay.
const iceTransportsTypeRelay int32 = 1

func init() {
	bind(
		symbol{"webrtc_PeerConnectionInterface_RTCConfiguration_new", &webrtcRTCConfigurationNew},
		symbol{"webrtc_PeerConnectionInterface_RTCConfiguration_get_servers", &webrtcRTCConfigurationGetServers},
		symbol{"webrtc_PeerConnectionInterface_RTCConfiguration_set_type", &webrtcRTCConfigurationSetType},
		symbol{"webrtc_PeerConnectionInterface_IceServer_new", &webrtcIceServerNew},
		symbol{"webrtc_PeerConnectionInterface_IceServer_get_urls", &webrtcIceServerGetURLs},
		symbol{"webrtc_PeerConnectionInterface_IceServer_set_username", &webrtcIceServerSetUsername},
		symbol{"webrtc_PeerConnectionInterface_IceServer_set_password", &webrtcIceServerSetPassword},
		symbol{"webrtc_PeerConnectionInterface_IceServer_vector_push_back", &webrtcIceServerVectorPushBack},
	)
	expect(constant{"webrtc_PeerConnectionInterface_IceTransportsType_kRelay", iceTransportsTypeRelay})
}

// validateICEServers checks every server URL the way pion does before any
// native object is built.
func validateICEServers(servers []webrtc.ICEServer) error {
	for i, s := range servers {
		if len(s.URLs) == 0 {
			return fmt.Errorf("ice server %d: no urls", i)
		}
		for _, raw := range s.URLs {
			if _, err := stun.ParseURI(raw); err != nil {
				return fmt.Errorf("ice server %d: %q: %w", i, raw, err)
			}
		}
	}
	return nil
}

func credentialString(c any) string {
	if s, ok := c.(string); ok {
		return s
	}
	return ""
}

// newRTCConfiguration translates a pion configuration into a native one.
// Only the ICE servers and the relay transport policy are carried over.
func newRTCConfiguration(cfg webrtc.Configuration) (*Unique[rtcConfiguration], error) {
	if err := validateICEServers(cfg.ICEServers); err != nil {
		return nil, fmt.Errorf("rtc configuration: %w", err)
	}
	conf := FromUnique(rtcConfigurationDesc, UniquePtr[rtcConfiguration](webrtcRTCConfigurationNew()))
	self := uintptr(conf.AsPtr())

	servers := webrtcRTCConfigurationGetServers(self)
	for _, s := range cfg.ICEServers {
		srv := FromUnique(iceServerDesc, UniquePtr[iceServer](webrtcIceServerNew()))
		p := uintptr(srv.AsPtr())
		appendStdStrings(Ptr[stdStringVector](webrtcIceServerGetURLs(p)), s.URLs)
		if s.Username != "" {
			webrtcIceServerSetUsername(p, stringPtr(s.Username), uintptr(len(s.Username)))
		}
		if pw := credentialString(s.Credential); pw != "" {
			webrtcIceServerSetPassword(p, stringPtr(pw), uintptr(len(pw)))
		}
		webrtcIceServerVectorPushBack(servers, p)
		srv.Close()
	}
	if cfg.ICETransportPolicy == webrtc.ICETransportPolicyRelay {
		webrtcRTCConfigurationSetType(self, iceTransportsTypeRelay)
	}
	return conf, nil
}
