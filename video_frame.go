package libwebrtc

import (
	"fmt"
	"unsafe"
)

type (
	i420Buffer struct{}
	videoFrame struct{}
)

var (
	i420BufferDesc = refcounted[i420Buffer]("webrtc_I420Buffer")
	videoFrameDesc = unique[videoFrame]("webrtc_VideoFrame")
)

var (
	webrtcI420BufferCreate       func(width, height int32) uintptr
	webrtcI420BufferWidth        func(self uintptr) int32
	webrtcI420BufferHeight       func(self uintptr) int32
	webrtcI420BufferMutableDataY func(self uintptr) uintptr
	webrtcI420BufferMutableDataU func(self uintptr) uintptr
	webrtcI420BufferMutableDataV func(self uintptr) uintptr
	webrtcI420BufferStrideY      func(self uintptr) int32
	webrtcI420BufferStrideU      func(self uintptr) int32
	webrtcI420BufferStrideV      func(self uintptr) int32

	webrtcVideoFrameCreate       func(buffer uintptr, rotation int32, timestampUs int64, timestampRTP uint32) uintptr
	webrtcVideoFrameWidth        func(self uintptr) int32
	webrtcVideoFrameHeight       func(self uintptr) int32
	webrtcVideoFrameTimestampUs  func(self uintptr) int64
	webrtcVideoFrameTimestampRTP func(self uintptr) uint32
	webrtcVideoFrameBuffer       func(self uintptr) uintptr
)

// VideoRotation0 is the only rotation frames are created with.
const VideoRotation0 = 0

func init() {
	bind(
		symbol{"webrtc_I420Buffer_Create", &webrtcI420BufferCreate},
		symbol{"webrtc_I420Buffer_width", &webrtcI420BufferWidth},
		symbol{"webrtc_I420Buffer_height", &webrtcI420BufferHeight},
		symbol{"webrtc_I420Buffer_MutableDataY", &webrtcI420BufferMutableDataY},
		symbol{"webrtc_I420Buffer_MutableDataU", &webrtcI420BufferMutableDataU},
		symbol{"webrtc_I420Buffer_MutableDataV", &webrtcI420BufferMutableDataV},
		symbol{"webrtc_I420Buffer_StrideY", &webrtcI420BufferStrideY},
		symbol{"webrtc_I420Buffer_StrideU", &webrtcI420BufferStrideU},
		symbol{"webrtc_I420Buffer_StrideV", &webrtcI420BufferStrideV},

		symbol{"webrtc_VideoFrame_Create_with_timestamp_rtp", &webrtcVideoFrameCreate},
		symbol{"webrtc_VideoFrame_width", &webrtcVideoFrameWidth},
		symbol{"webrtc_VideoFrame_height", &webrtcVideoFrameHeight},
		symbol{"webrtc_VideoFrame_timestamp_us", &webrtcVideoFrameTimestampUs},
		symbol{"webrtc_VideoFrame_timestamp_rtp", &webrtcVideoFrameTimestampRTP},
		symbol{"webrtc_VideoFrame_video_frame_buffer", &webrtcVideoFrameBuffer},
	)
	expect(constant{"webrtc_VideoRotation_0", VideoRotation0})
}

// I420Buffer is a refcounted native I420 picture.
type I420Buffer struct {
	ref *ScopedRef[i420Buffer]
}

// NewI420Buffer allocates a native width x height picture.
func NewI420Buffer(width, height int) (*I420Buffer, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid I420 buffer size %dx%d", width, height)
	}
	raw := webrtcI420BufferCreate(int32(width), int32(height))
	return &I420Buffer{ref: FromRaw(i420BufferDesc, RefPtr[i420Buffer](raw))}, nil
}

// Width returns the picture width.
func (b *I420Buffer) Width() int { return int(webrtcI420BufferWidth(uintptr(b.ref.AsPtr()))) }

// Height returns the picture height.
func (b *I420Buffer) Height() int { return int(webrtcI420BufferHeight(uintptr(b.ref.AsPtr()))) }

// CopyFrom copies planes into the native buffer row by row.
func (b *I420Buffer) CopyFrom(p *I420Planes) error {
	w, h := b.Width(), b.Height()
	if p.Width != w || p.Height != h {
		return fmt.Errorf("plane size %dx%d does not match buffer %dx%d", p.Width, p.Height, w, h)
	}
	cw, ch := (w+1)/2, (h+1)/2
	for _, pl := range []struct {
		name          string
		data          []byte
		stride, width int
		rows          int
	}{
		{"Y", p.Y, p.StrideY, w, h},
		{"U", p.U, p.StrideU, cw, ch},
		{"V", p.V, p.StrideV, cw, ch},
	} {
		if pl.stride < pl.width {
			return fmt.Errorf("%s stride %d is narrower than %d", pl.name, pl.stride, pl.width)
		}
		if need := pl.stride*(pl.rows-1) + pl.width; len(pl.data) < need {
			return fmt.Errorf("%s plane has %d bytes, need %d", pl.name, len(pl.data), need)
		}
	}
	self := uintptr(b.ref.AsPtr())
	copyPlane(webrtcI420BufferMutableDataY(self), int(webrtcI420BufferStrideY(self)), p.Y, p.StrideY, w, h)
	copyPlane(webrtcI420BufferMutableDataU(self), int(webrtcI420BufferStrideU(self)), p.U, p.StrideU, cw, ch)
	copyPlane(webrtcI420BufferMutableDataV(self), int(webrtcI420BufferStrideV(self)), p.V, p.StrideV, cw, ch)
	return nil
}

func copyPlane(dst uintptr, dstStride int, src []byte, srcStride, width, rows int) {
	if dst == 0 || rows == 0 {
		return
	}
	out := unsafe.Slice((*byte)(unsafe.Pointer(dst)), dstStride*(rows-1)+width)
	for y := 0; y < rows; y++ {
		copy(out[y*dstStride:y*dstStride+width], src[y*srcStride:y*srcStride+width])
	}
}

// Clone returns a second owner of the same buffer.
func (b *I420Buffer) Clone() *I420Buffer { return &I420Buffer{ref: b.ref.Clone()} }

// Release drops this owner's reference.
func (b *I420Buffer) Release() { b.ref.Release() }

// VideoFrame is an owned native video frame.
type VideoFrame struct {
	u *Unique[videoFrame]
}

// NewVideoFrame wraps buffer in a frame. The frame takes its own reference,
// so the caller keeps ownership of buffer.
func NewVideoFrame(buffer *I420Buffer, timestampUs int64, timestampRTP uint32) (*VideoFrame, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	raw := webrtcVideoFrameCreate(uintptr(buffer.ref.AsRefcountedPtr()), VideoRotation0, timestampUs, timestampRTP)
	return &VideoFrame{u: FromUnique(videoFrameDesc, UniquePtr[videoFrame](raw))}, nil
}

// Ref returns a view valid while f is open.
func (f *VideoFrame) Ref() VideoFrameRef {
	return VideoFrameRef{b: unscoped(f.u.AsPtr())}
}

// Close deletes the frame.
func (f *VideoFrame) Close() { f.u.Close() }

// VideoFrameRef is a borrowed view of a native video frame.
type VideoFrameRef struct {
	b Borrowed[videoFrame]
}

func (f VideoFrameRef) self() uintptr { return uintptr(f.b.Ptr()) }

// Width returns the frame width.
func (f VideoFrameRef) Width() int { return int(webrtcVideoFrameWidth(f.self())) }

// Height returns the frame height.
func (f VideoFrameRef) Height() int { return int(webrtcVideoFrameHeight(f.self())) }

// TimestampUs returns the capture time in microseconds.
func (f VideoFrameRef) TimestampUs() int64 { return webrtcVideoFrameTimestampUs(f.self()) }

// TimestampRTP returns the RTP timestamp.
func (f VideoFrameRef) TimestampRTP() uint32 { return webrtcVideoFrameTimestampRTP(f.self()) }

// Buffer returns a new owner of the frame's picture.
func (f VideoFrameRef) Buffer() *I420Buffer {
	raw := webrtcVideoFrameBuffer(f.self())
	return &I420Buffer{ref: FromRaw(i420BufferDesc, RefPtr[i420Buffer](raw))}
}
