// Go-side frame types exchanged with native video objects.
package libwebrtc

// VideoFrameType is the native webrtc::VideoFrameType.
type VideoFrameType int32

const (
	VideoFrameTypeEmpty VideoFrameType = 0
	VideoFrameTypeKey   VideoFrameType = 3
	VideoFrameTypeDelta VideoFrameType = 4
)

func init() {
	expect(
		constant{"webrtc_VideoFrameType_Empty", int32(VideoFrameTypeEmpty)},
		constant{"webrtc_VideoFrameType_Key", int32(VideoFrameTypeKey)},
		constant{"webrtc_VideoFrameType_Delta", int32(VideoFrameTypeDelta)},
	)
}

func (f VideoFrameType) String() string {
	switch f {
	case VideoFrameTypeEmpty:
		return "Empty"
	case VideoFrameTypeKey:
		return "Key"
	case VideoFrameTypeDelta:
		return "Delta"
	default:
		return "Unknown"
	}
}

// I420Planes holds a raw I420 picture in Go memory.
type I420Planes struct {
	Y, U, V                   []byte
	StrideY, StrideU, StrideV int
	Width, Height             int
}

// I420Size returns the total buffer size needed for an I420 frame.
func I420Size(width, height int) int {
	// Y plane: width * height
	// U plane: ceil(width/2) * ceil(height/2)
	// V plane: same as U
	ySize := width * height
	uvSize := ((width + 1) / 2) * ((height + 1) / 2)
	return ySize + uvSize*2
}

// NewI420Planes allocates tightly packed planes for a width x height picture.
func NewI420Planes(width, height int) *I420Planes {
	cw, ch := (width+1)/2, (height+1)/2
	return &I420Planes{
		Y:       make([]byte, width*height),
		U:       make([]byte, cw*ch),
		V:       make([]byte, cw*ch),
		StrideY: width,
		StrideU: cw,
		StrideV: cw,
		Width:   width,
		Height:  height,
	}
}

// EncodedFrame is a Go copy of one encoded image.
type EncodedFrame struct {
	Data      []byte
	FrameType VideoFrameType
	Timestamp uint32 // RTP timestamp (90kHz clock for video)
	Width     uint32
	Height    uint32
	QP        int
}

// IsKeyframe returns true if this is a keyframe.
func (f *EncodedFrame) IsKeyframe() bool {
	return f.FrameType == VideoFrameTypeKey
}

// Clone creates a deep copy of the encoded frame.
func (f *EncodedFrame) Clone() *EncodedFrame {
	clone := *f
	if f.Data != nil {
		clone.Data = make([]byte, len(f.Data))
		copy(clone.Data, f.Data)
	}
	return &clone
}
