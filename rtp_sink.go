package libwebrtc

import (
	"sync/atomic"

	"github.com/pion/rtp"
	"go.uber.org/zap"
)

// RTPWriter accepts outgoing RTP packets. *webrtc.TrackLocalStaticRTP
// satisfies it.
type RTPWriter interface {
	WriteRTP(pkt *rtp.Packet) error
}

// RTPSinkStats counts what a sink has written.
type RTPSinkStats struct {
	FramesSent    uint64
	KeyframesSent uint64
	PacketsSent   uint64
	BytesSent     uint64
	WriteErrors   uint64
}

// RTPSink packetizes encoded images and hands the packets to a writer. Use
// Callbacks to register it as an encoder's completion sink.
type RTPSink struct {
	packetizer *RTPPacketizer
	w          RTPWriter

	frames    atomic.Uint64
	keyframes atomic.Uint64
	packets   atomic.Uint64
	bytes     atomic.Uint64
	errors    atomic.Uint64
}

// NewRTPSink returns a sink writing codec packets for one SSRC to w.
func NewRTPSink(codec VideoCodecType, ssrc uint32, pt uint8, mtu int, w RTPWriter) (*RTPSink, error) {
	p, err := NewRTPPacketizer(codec, ssrc, pt, mtu)
	if err != nil {
		return nil, err
	}
	return &RTPSink{packetizer: p, w: w}, nil
}

// Callbacks returns encoded image callbacks that feed the sink.
func (s *RTPSink) Callbacks() EncodedImageCallbackCallbacks {
	return EncodedImageCallbackCallbacks{
		OnEncodedImage: func(image EncodedImageRef, _ CodecSpecificInfoRef) EncodedImageCallbackResult {
			return s.WriteFrame(image.Frame())
		},
	}
}

// WriteFrame packetizes f and writes every packet. The first write error
// stops the frame and is reported as EncodedImageCallbackSendFailed.
func (s *RTPSink) WriteFrame(f *EncodedFrame) EncodedImageCallbackResult {
	for _, pkt := range s.packetizer.Packetize(f) {
		if err := s.w.WriteRTP(pkt); err != nil {
			s.errors.Add(1)
			Logger().Debug("rtp write failed",
				zap.Stringer("codec", s.packetizer.Codec()),
				zap.Uint32("ssrc", pkt.SSRC),
				zap.Uint16("seq", pkt.SequenceNumber),
				zap.Error(err))
			return EncodedImageCallbackResult{Error: EncodedImageCallbackSendFailed}
		}
		s.packets.Add(1)
		s.bytes.Add(uint64(len(pkt.Payload)))
	}
	s.frames.Add(1)
	if f.IsKeyframe() {
		s.keyframes.Add(1)
	}
	return EncodedImageCallbackResult{Error: EncodedImageCallbackOK, FrameID: f.Timestamp}
}

// Stats returns a snapshot of the sink counters.
func (s *RTPSink) Stats() RTPSinkStats {
	return RTPSinkStats{
		FramesSent:    s.frames.Load(),
		KeyframesSent: s.keyframes.Load(),
		PacketsSent:   s.packets.Load(),
		BytesSent:     s.bytes.Load(),
		WriteErrors:   s.errors.Load(),
	}
}
