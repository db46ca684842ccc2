//go:build darwin || linux

package libwebrtc

import (
	"errors"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCandidate = "candidate:842163049 1 udp 1677729535 203.0.113.7 46154 typ srflx raddr 10.0.0.2 rport 46154 generation 0"

func TestSessionDescriptionRoundTrip(t *testing.T) {
	fake.requireNoLeaks(t, func() {
		desc, err := NewSessionDescription(webrtc.SDPTypeOffer, fakeOfferSDP)
		require.NoError(t, err)
		defer desc.Close()

		assert.Equal(t, SDPTypeOffer, desc.Type())

		text, err := desc.SDP()
		require.NoError(t, err)
		assert.Equal(t, fakeOfferSDP, text)

		p, err := desc.Pion()
		require.NoError(t, err)
		assert.Equal(t, webrtc.SDPTypeOffer, p.Type)

		parsed, err := desc.Parsed()
		require.NoError(t, err)
		require.Len(t, parsed.MediaDescriptions, 1)
		assert.Equal(t, "application", parsed.MediaDescriptions[0].MediaName.Media)
		mid, ok := parsed.MediaDescriptions[0].Attribute("mid")
		assert.True(t, ok)
		assert.Equal(t, "0", mid)
	}, "webrtc_SessionDescriptionInterface", "std_string")
}

func TestSessionDescriptionRejectsGarbage(t *testing.T) {
	fake.requireNoLeaks(t, func() {
		_, err := NewSessionDescription(webrtc.SDPTypeAnswer, "this is not sdp")
		assert.ErrorIs(t, err, ErrInvalidSDP)

		_, err = NewSessionDescription(webrtc.SDPType(42), fakeOfferSDP)
		assert.Error(t, err)
	}, "webrtc_SessionDescriptionInterface")
}

func TestSessionDescriptionRollbackSkipsParse(t *testing.T) {
	desc, err := NewSessionDescription(webrtc.SDPTypeRollback, "")
	require.NoError(t, err)
	defer desc.Close()
	assert.Equal(t, SDPTypeRollback, desc.Type())
}

func TestSDPTypeMapping(t *testing.T) {
	for _, tt := range []struct {
		native SDPType
		pion   webrtc.SDPType
	}{
		{SDPTypeOffer, webrtc.SDPTypeOffer},
		{SDPTypePrAnswer, webrtc.SDPTypePranswer},
		{SDPTypeAnswer, webrtc.SDPTypeAnswer},
		{SDPTypeRollback, webrtc.SDPTypeRollback},
	} {
		assert.Equal(t, tt.pion, tt.native.Pion())
		got, err := SDPTypeFromPion(tt.pion)
		require.NoError(t, err)
		assert.Equal(t, tt.native, got)
	}
}

func TestIceCandidate(t *testing.T) {
	fake.requireNoLeaks(t, func() {
		mid := "0"
		index := uint16(0)
		c, err := NewIceCandidate(webrtc.ICECandidateInit{Candidate: testCandidate, SDPMid: &mid, SDPMLineIndex: &index})
		require.NoError(t, err)
		defer c.Close()

		init, err := c.Ref().Init()
		require.NoError(t, err)
		assert.Equal(t, testCandidate, init.Candidate)
		require.NotNil(t, init.SDPMid)
		assert.Equal(t, "0", *init.SDPMid)
		require.NotNil(t, init.SDPMLineIndex)
		assert.Equal(t, uint16(0), *init.SDPMLineIndex)
	}, "webrtc_IceCandidate", "std_string")
}

func TestIceCandidateParseError(t *testing.T) {
	fake.requireNoLeaks(t, func() {
		_, err := NewIceCandidate(webrtc.ICECandidateInit{Candidate: "bogus"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidIceCandidate)

		var perr *SdpParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "a=bogus", perr.Line)
		assert.Contains(t, perr.Description, "candidate:")
	}, "webrtc_IceCandidate", "webrtc_SdpParseError")
}
