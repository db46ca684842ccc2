package libwebrtc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// DefaultMTU is the RTP packet size budget used when none is given.
const DefaultMTU = 1200

const rtpHeaderSize = 12

// ErrNoPayloader is returned for codecs without an RTP payload format.
var ErrNoPayloader = errors.New("libwebrtc: codec has no RTP payload format")

const (
	h264NALTypeIDR = 5
	h264NALTypeSPS = 7
)

// RTPPacketizer segments encoded frames into RTP packets for one stream.
type RTPPacketizer struct {
	codec       VideoCodecType
	ssrc        uint32
	payloadType uint8
	mtu         int
	payloader   rtp.Payloader
	sequencer   rtp.Sequencer
	mu          sync.Mutex
}

func newPayloader(codec VideoCodecType) (rtp.Payloader, error) {
	switch codec {
	case VideoCodecVP8:
		return &codecs.VP8Payloader{EnablePictureID: true}, nil
	case VideoCodecVP9:
		return &codecs.VP9Payloader{}, nil
	case VideoCodecH264:
		return &codecs.H264Payloader{}, nil
	case VideoCodecAV1:
		return &codecs.AV1Payloader{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoPayloader, codec)
	}
}

// NewRTPPacketizer returns a packetizer for codec. A non-positive mtu selects
// DefaultMTU.
func NewRTPPacketizer(codec VideoCodecType, ssrc uint32, pt uint8, mtu int) (*RTPPacketizer, error) {
	payloader, err := newPayloader(codec)
	if err != nil {
		return nil, err
	}
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	if mtu <= rtpHeaderSize {
		return nil, fmt.Errorf("libwebrtc: mtu %d leaves no room for payload", mtu)
	}
	return &RTPPacketizer{
		codec:       codec,
		ssrc:        ssrc,
		payloadType: pt,
		mtu:         mtu,
		payloader:   payloader,
		sequencer:   rtp.NewRandomSequencer(),
	}, nil
}

// Packetize converts one encoded frame to RTP packets. All packets carry the
// frame timestamp and the last one has the marker bit set.
func (p *RTPPacketizer) Packetize(frame *EncodedFrame) []*rtp.Packet {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(frame.Data) == 0 {
		return nil
	}
	payloads := p.payloader.Payload(uint16(p.mtu-rtpHeaderSize), frame.Data)
	packets := make([]*rtp.Packet, len(payloads))
	for i, payload := range payloads {
		packets[i] = &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == len(payloads)-1,
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequencer.NextSequenceNumber(),
				Timestamp:      frame.Timestamp,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		}
	}
	return packets
}

func (p *RTPPacketizer) Codec() VideoCodecType { return p.codec }
func (p *RTPPacketizer) SSRC() uint32          { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }
func (p *RTPPacketizer) SetSSRC(ssrc uint32)   { p.mu.Lock(); p.ssrc = ssrc; p.mu.Unlock() }
func (p *RTPPacketizer) PayloadType() uint8    { p.mu.Lock(); defer p.mu.Unlock(); return p.payloadType }
func (p *RTPPacketizer) MTU() int              { p.mu.Lock(); defer p.mu.Unlock(); return p.mtu }

// RTPDepacketizer reassembles frames from the RTP packets of one stream.
// Packets must arrive in order; a timestamp change drops any partial frame.
type RTPDepacketizer struct {
	codec     VideoCodecType
	unwrap    func(d *RTPDepacketizer, payload []byte) ([]byte, error)
	buffer    []byte
	timestamp uint32
	started   bool
	frameType VideoFrameType

	lastCompleted uint32
	completed     bool

	vp8  codecs.VP8Packet
	vp9  codecs.VP9Packet
	h264 codecs.H264Packet

	mu sync.Mutex
}

// NewRTPDepacketizer returns a depacketizer for codec.
func NewRTPDepacketizer(codec VideoCodecType) (*RTPDepacketizer, error) {
	d := &RTPDepacketizer{codec: codec}
	switch codec {
	case VideoCodecVP8:
		d.unwrap = (*RTPDepacketizer).unwrapVP8
	case VideoCodecVP9:
		d.unwrap = (*RTPDepacketizer).unwrapVP9
	case VideoCodecH264:
		d.unwrap = (*RTPDepacketizer).unwrapH264
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoPayloader, codec)
	}
	return d, nil
}

// Depacketize consumes one packet and returns a frame once its last packet
// arrives. Packets older than the last completed frame are ignored.
func (d *RTPDepacketizer) Depacketize(pkt *rtp.Packet) (*EncodedFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(pkt.Payload) == 0 {
		return nil, nil
	}
	if d.completed && IsRTPTimestampOlder(pkt.Timestamp, d.lastCompleted) {
		return nil, nil
	}
	if d.started && d.timestamp != pkt.Timestamp {
		d.reset()
	}
	d.timestamp = pkt.Timestamp
	d.started = true

	data, err := d.unwrap(d, pkt.Payload)
	if err != nil {
		d.reset()
		return nil, fmt.Errorf("libwebrtc: %s depacketize: %w", d.codec, err)
	}
	d.buffer = append(d.buffer, data...)

	if !pkt.Marker {
		return nil, nil
	}
	frame := &EncodedFrame{
		Data:      append([]byte(nil), d.buffer...),
		FrameType: d.frameType,
		Timestamp: d.timestamp,
	}
	if d.codec == VideoCodecH264 {
		frame.FrameType = h264FrameType(frame.Data)
	}
	d.lastCompleted = d.timestamp
	d.completed = true
	d.reset()
	return frame, nil
}

// DepacketizeBytes parses a marshaled packet and passes it to Depacketize.
func (d *RTPDepacketizer) DepacketizeBytes(data []byte) (*EncodedFrame, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return nil, err
	}
	return d.Depacketize(&pkt)
}

// Reset drops any partial frame and forgets the last completed timestamp.
func (d *RTPDepacketizer) Reset() {
	d.mu.Lock()
	d.reset()
	d.completed = false
	d.lastCompleted = 0
	d.mu.Unlock()
}

func (d *RTPDepacketizer) reset() {
	d.buffer = d.buffer[:0]
	d.started = false
	d.frameType = VideoFrameTypeEmpty
}

func (d *RTPDepacketizer) unwrapVP8(payload []byte) ([]byte, error) {
	data, err := d.vp8.Unmarshal(payload)
	if err != nil {
		return nil, err
	}
	if d.vp8.S == 1 && d.vp8.PID == 0 && len(data) > 0 {
		// Bit 0 of the VP8 frame tag is clear on key frames.
		if data[0]&0x01 == 0 {
			d.frameType = VideoFrameTypeKey
		} else {
			d.frameType = VideoFrameTypeDelta
		}
	}
	return data, nil
}

func (d *RTPDepacketizer) unwrapVP9(payload []byte) ([]byte, error) {
	data, err := d.vp9.Unmarshal(payload)
	if err != nil {
		return nil, err
	}
	if d.vp9.B {
		if d.vp9.P {
			d.frameType = VideoFrameTypeDelta
		} else {
			d.frameType = VideoFrameTypeKey
		}
	}
	return data, nil
}

func (d *RTPDepacketizer) unwrapH264(payload []byte) ([]byte, error) {
	return d.h264.Unmarshal(payload)
}

func h264FrameType(annexB []byte) VideoFrameType {
	for _, nalu := range parseAnnexBNALUnits(annexB) {
		switch nalu[0] & 0x1f {
		case h264NALTypeIDR, h264NALTypeSPS:
			return VideoFrameTypeKey
		}
	}
	return VideoFrameTypeDelta
}

// parseAnnexBNALUnits splits a byte stream on 3 and 4 byte start codes.
func parseAnnexBNALUnits(data []byte) [][]byte {
	var nalus [][]byte
	start := -1
	for i := 0; i+2 < len(data); i++ {
		if data[i] != 0 || data[i+1] != 0 {
			continue
		}
		codeLen := 0
		switch {
		case data[i+2] == 1:
			codeLen = 3
		case i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1:
			codeLen = 4
		default:
			continue
		}
		if start >= 0 && i > start {
			nalus = append(nalus, data[start:i])
		}
		start = i + codeLen
		i += codeLen - 1
	}
	if start >= 0 && start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

// IsRTPTimestampOlder reports whether ts1 is at or before ts2, accounting for
// 32-bit wraparound.
func IsRTPTimestampOlder(ts1, ts2 uint32) bool {
	return ts2-ts1 < 0x80000000
}
