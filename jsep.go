package libwebrtc

import (
	"fmt"
	"unsafe"

	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

type (
	sessionDescription struct{}
	iceCandidate       struct{}
	sdpParseError      struct{}
)

var (
	sessionDescriptionDesc = unique[sessionDescription]("webrtc_SessionDescriptionInterface")
	sdpParseErrorDesc      = unique[sdpParseError]("webrtc_SdpParseError")
	iceCandidateDesc       = owned[iceCandidate]("webrtc_IceCandidate", "webrtc_IceCandidate_delete")
)

var (
	webrtcCreateSessionDescription   func(sdpType int32, sdp unsafe.Pointer, n uintptr) uintptr
	webrtcSessionDescriptionGetType  func(self uintptr) int32
	webrtcSessionDescriptionToString func(self uintptr, out *uintptr) int32
	webrtcSdpParseErrorLine          func(self uintptr, out, n *uintptr)
	webrtcSdpParseErrorDescription   func(self uintptr, out, n *uintptr)
	webrtcCreateIceCandidate         func(mid unsafe.Pointer, midLen uintptr, mlineIndex int32, sdp unsafe.Pointer, sdpLen uintptr, outErr *uintptr) uintptr
	webrtcIceCandidateSdpMid         func(self uintptr, out *uintptr)
	webrtcIceCandidateSdpMLineIndex  func(self uintptr) int32
	webrtcIceCandidateToString       func(self uintptr, out *uintptr) int32
)

func init() {
	bind(
		symbol{"webrtc_CreateSessionDescription", &webrtcCreateSessionDescription},
		symbol{"webrtc_SessionDescriptionInterface_GetType", &webrtcSessionDescriptionGetType},
		symbol{"webrtc_SessionDescriptionInterface_ToString", &webrtcSessionDescriptionToString},
		symbol{"webrtc_SdpParseError_line", &webrtcSdpParseErrorLine},
		symbol{"webrtc_SdpParseError_description", &webrtcSdpParseErrorDescription},
		symbol{"webrtc_CreateIceCandidate", &webrtcCreateIceCandidate},
		symbol{"webrtc_IceCandidate_sdp_mid", &webrtcIceCandidateSdpMid},
		symbol{"webrtc_IceCandidate_sdp_mline_index", &webrtcIceCandidateSdpMLineIndex},
		symbol{"webrtc_IceCandidate_ToString", &webrtcIceCandidateToString},
	)
	expect(
		constant{"webrtc_SdpType_kOffer", int32(SDPTypeOffer)},
		constant{"webrtc_SdpType_kPrAnswer", int32(SDPTypePrAnswer)},
		constant{"webrtc_SdpType_kAnswer", int32(SDPTypeAnswer)},
		constant{"webrtc_SdpType_kRollback", int32(SDPTypeRollback)},
	)
}

// SDPType is webrtc::SdpType.
type SDPType int32

const (
	SDPTypeOffer    SDPType = 0
	SDPTypePrAnswer SDPType = 1
	SDPTypeAnswer   SDPType = 2
	SDPTypeRollback SDPType = 3
)

// Pion returns the equivalent pion SDP type.
func (t SDPType) Pion() webrtc.SDPType {
	switch t {
	case SDPTypeOffer:
		return webrtc.SDPTypeOffer
	case SDPTypePrAnswer:
		return webrtc.SDPTypePranswer
	case SDPTypeAnswer:
		return webrtc.SDPTypeAnswer
	case SDPTypeRollback:
		return webrtc.SDPTypeRollback
	default:
		return webrtc.SDPTypeUnknown
	}
}

func (t SDPType) String() string { return t.Pion().String() }

// SDPTypeFromPion converts a pion SDP type.
func SDPTypeFromPion(t webrtc.SDPType) (SDPType, error) {
	switch t {
	case webrtc.SDPTypeOffer:
		return SDPTypeOffer, nil
	case webrtc.SDPTypePranswer:
		return SDPTypePrAnswer, nil
	case webrtc.SDPTypeAnswer:
		return SDPTypeAnswer, nil
	case webrtc.SDPTypeRollback:
		return SDPTypeRollback, nil
	default:
		return 0, fmt.Errorf("%w: unknown sdp type %q", ErrInvalidSDP, t.String())
	}
}

// SessionDescription is an owned webrtc::SessionDescriptionInterface.
// Handing it to SetLocalDescription or SetRemoteDescription consumes it.
type SessionDescription struct {
	u *Unique[sessionDescription]
}

// NewSessionDescription parses sdp into a native description. Text that pion
// cannot parse is rejected before it reaches the native parser.
func NewSessionDescription(t webrtc.SDPType, text string) (*SessionDescription, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	nt, err := SDPTypeFromPion(t)
	if err != nil {
		return nil, err
	}
	if nt != SDPTypeRollback {
		var parsed sdp.SessionDescription
		if err := parsed.Unmarshal([]byte(text)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSDP, err)
		}
	}
	raw := webrtcCreateSessionDescription(int32(nt), stringPtr(text), uintptr(len(text)))
	if raw == 0 {
		return nil, fmt.Errorf("%w: rejected by native parser", ErrInvalidSDP)
	}
	return &SessionDescription{u: FromUnique(sessionDescriptionDesc, UniquePtr[sessionDescription](raw))}, nil
}

// takeSessionDescription adopts a description delivered by the native side.
func takeSessionDescription(raw uintptr) *SessionDescription {
	return &SessionDescription{u: FromUnique(sessionDescriptionDesc, UniquePtr[sessionDescription](raw))}
}

// Type returns the description's type.
func (d *SessionDescription) Type() SDPType {
	return SDPType(webrtcSessionDescriptionGetType(uintptr(d.u.AsPtr())))
}

// SDP serializes the description.
func (d *SessionDescription) SDP() (string, error) {
	var out uintptr
	if webrtcSessionDescriptionToString(uintptr(d.u.AsPtr()), &out) == 0 {
		return "", fmt.Errorf("%w: description could not be serialized", ErrInvalidSDP)
	}
	return takeStdString(out), nil
}

// Pion returns the description in pion's representation.
func (d *SessionDescription) Pion() (webrtc.SessionDescription, error) {
	text, err := d.SDP()
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	return webrtc.SessionDescription{Type: d.Type().Pion(), SDP: text}, nil
}

// Parsed returns the description parsed by pion/sdp.
func (d *SessionDescription) Parsed() (*sdp.SessionDescription, error) {
	text, err := d.SDP()
	if err != nil {
		return nil, err
	}
	parsed := &sdp.SessionDescription{}
	if err := parsed.Unmarshal([]byte(text)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSDP, err)
	}
	return parsed, nil
}

func (d *SessionDescription) intoRaw() uintptr { return uintptr(d.u.IntoRaw()) }

// Close deletes the description if it was not consumed.
func (d *SessionDescription) Close() { d.u.Close() }

// SdpParseError describes why a candidate failed to parse.
type SdpParseError struct {
	Line        string
	Description string
}

func (e *SdpParseError) Error() string {
	return fmt.Sprintf("sdp parse error: %s (line %q)", e.Description, e.Line)
}

// Unwrap lets errors.Is match ErrInvalidIceCandidate.
func (e *SdpParseError) Unwrap() error { return ErrInvalidIceCandidate }

func takeSdpParseError(raw uintptr) *SdpParseError {
	u := FromUnique(sdpParseErrorDesc, UniquePtr[sdpParseError](raw))
	defer u.Close()
	self := uintptr(u.AsPtr())
	var line, lineLen, desc, descLen uintptr
	webrtcSdpParseErrorLine(self, &line, &lineLen)
	webrtcSdpParseErrorDescription(self, &desc, &descLen)
	return &SdpParseError{
		Line:        string(goBytes(line, int(lineLen))),
		Description: string(goBytes(desc, int(descLen))),
	}
}

// IceCandidate is an owned webrtc::IceCandidate.
type IceCandidate struct {
	u *Unique[iceCandidate]
}

// NewIceCandidate parses init into a native candidate.
func NewIceCandidate(init webrtc.ICECandidateInit) (*IceCandidate, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	var mid string
	if init.SDPMid != nil {
		mid = *init.SDPMid
	}
	var index int32
	if init.SDPMLineIndex != nil {
		index = int32(*init.SDPMLineIndex)
	}
	var errRaw uintptr
	raw := webrtcCreateIceCandidate(stringPtr(mid), uintptr(len(mid)), index,
		stringPtr(init.Candidate), uintptr(len(init.Candidate)), &errRaw)
	if raw == 0 {
		if errRaw != 0 {
			return nil, takeSdpParseError(errRaw)
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalidIceCandidate, init.Candidate)
	}
	if errRaw != 0 {
		takeSdpParseError(errRaw)
	}
	return &IceCandidate{u: FromUnique(iceCandidateDesc, UniquePtr[iceCandidate](raw))}, nil
}

// Ref returns a view valid while c is open.
func (c *IceCandidate) Ref() IceCandidateRef {
	return IceCandidateRef{b: unscoped(c.u.AsPtr())}
}

// Close deletes the candidate.
func (c *IceCandidate) Close() { c.u.Close() }

// IceCandidateRef is a borrowed candidate, such as the one passed to
// OnIceCandidate.
type IceCandidateRef struct {
	b Borrowed[iceCandidate]
}

func (c IceCandidateRef) self() uintptr { return uintptr(c.b.Ptr()) }

// SDPMid returns the media stream identification tag.
func (c IceCandidateRef) SDPMid() string {
	var out uintptr
	webrtcIceCandidateSdpMid(c.self(), &out)
	return takeStdString(out)
}

// SDPMLineIndex returns the index of the m-line the candidate belongs to.
func (c IceCandidateRef) SDPMLineIndex() int {
	return int(webrtcIceCandidateSdpMLineIndex(c.self()))
}

// Candidate returns the candidate attribute line.
func (c IceCandidateRef) Candidate() (string, error) {
	var out uintptr
	if webrtcIceCandidateToString(c.self(), &out) == 0 {
		return "", fmt.Errorf("%w: candidate could not be serialized", ErrInvalidIceCandidate)
	}
	return takeStdString(out), nil
}

// Init returns the candidate as a pion ICECandidateInit, ready to be sent
// to the remote peer.
func (c IceCandidateRef) Init() (webrtc.ICECandidateInit, error) {
	candidate, err := c.Candidate()
	if err != nil {
		return webrtc.ICECandidateInit{}, err
	}
	mid := c.SDPMid()
	index := uint16(c.SDPMLineIndex())
	return webrtc.ICECandidateInit{
		Candidate:     candidate,
		SDPMid:        &mid,
		SDPMLineIndex: &index,
	}, nil
}
