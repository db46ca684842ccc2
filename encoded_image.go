package libwebrtc

import "unsafe"

type (
	encodedImageBuffer struct{}
	encodedImage       struct{}
)

var (
	encodedImageBufferDesc = refcounted[encodedImageBuffer]("webrtc_EncodedImageBuffer")
	encodedImageDesc       = unique[encodedImage]("webrtc_EncodedImage")
)

var (
	webrtcEncodedImageBufferCreateFromData func(data unsafe.Pointer, size uintptr) uintptr
	webrtcEncodedImageBufferSize           func(self uintptr) uintptr
	webrtcEncodedImageBufferData           func(self uintptr) uintptr

	webrtcEncodedImageNew              func() uintptr
	webrtcEncodedImageSetEncodedData   func(self, buffer uintptr)
	webrtcEncodedImageSetRTPTimestamp  func(self uintptr, ts uint32)
	webrtcEncodedImageSetEncodedWidth  func(self uintptr, width uint32)
	webrtcEncodedImageSetEncodedHeight func(self uintptr, height uint32)
	webrtcEncodedImageSetFrameType     func(self uintptr, frameType int32)
	webrtcEncodedImageSetQP            func(self uintptr, qp int32)
	webrtcEncodedImageEncodedData      func(self uintptr) uintptr
	webrtcEncodedImageRTPTimestamp     func(self uintptr) uint32
	webrtcEncodedImageEncodedWidth     func(self uintptr) uint32
	webrtcEncodedImageEncodedHeight    func(self uintptr) uint32
	webrtcEncodedImageFrameType        func(self uintptr) int32
	webrtcEncodedImageQP               func(self uintptr) int32
)

func init() {
	bind(
		symbol{"webrtc_EncodedImageBuffer_Create_from_data", &webrtcEncodedImageBufferCreateFromData},
		symbol{"webrtc_EncodedImageBuffer_size", &webrtcEncodedImageBufferSize},
		symbol{"webrtc_EncodedImageBuffer_data", &webrtcEncodedImageBufferData},

		symbol{"webrtc_EncodedImage_new", &webrtcEncodedImageNew},
		symbol{"webrtc_EncodedImage_set_encoded_data", &webrtcEncodedImageSetEncodedData},
		symbol{"webrtc_EncodedImage_set_rtp_timestamp", &webrtcEncodedImageSetRTPTimestamp},
		symbol{"webrtc_EncodedImage_set_encoded_width", &webrtcEncodedImageSetEncodedWidth},
		symbol{"webrtc_EncodedImage_set_encoded_height", &webrtcEncodedImageSetEncodedHeight},
		symbol{"webrtc_EncodedImage_set_frame_type", &webrtcEncodedImageSetFrameType},
		symbol{"webrtc_EncodedImage_set_qp", &webrtcEncodedImageSetQP},
		symbol{"webrtc_EncodedImage_encoded_data", &webrtcEncodedImageEncodedData},
		symbol{"webrtc_EncodedImage_rtp_timestamp", &webrtcEncodedImageRTPTimestamp},
		symbol{"webrtc_EncodedImage_encoded_width", &webrtcEncodedImageEncodedWidth},
		symbol{"webrtc_EncodedImage_encoded_height", &webrtcEncodedImageEncodedHeight},
		symbol{"webrtc_EncodedImage_frame_type", &webrtcEncodedImageFrameType},
		symbol{"webrtc_EncodedImage_qp", &webrtcEncodedImageQP},
	)
}

// EncodedImageBuffer is a refcounted native byte buffer holding one encoded
// picture.
type EncodedImageBuffer struct {
	ref *ScopedRef[encodedImageBuffer]
}

// NewEncodedImageBuffer copies data into a new native buffer.
func NewEncodedImageBuffer(data []byte) (*EncodedImageBuffer, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	raw := webrtcEncodedImageBufferCreateFromData(bytesPtr(data), uintptr(len(data)))
	return &EncodedImageBuffer{ref: FromRaw(encodedImageBufferDesc, RefPtr[encodedImageBuffer](raw))}, nil
}

// Data returns a Go copy of the buffer contents.
func (b *EncodedImageBuffer) Data() []byte {
	self := uintptr(b.ref.AsPtr())
	return goBytes(webrtcEncodedImageBufferData(self), int(webrtcEncodedImageBufferSize(self)))
}

// Len returns the buffer size in bytes.
func (b *EncodedImageBuffer) Len() int {
	return int(webrtcEncodedImageBufferSize(uintptr(b.ref.AsPtr())))
}

// Clone returns a second owner of the same buffer.
func (b *EncodedImageBuffer) Clone() *EncodedImageBuffer {
	return &EncodedImageBuffer{ref: b.ref.Clone()}
}

// Release drops this owner's reference.
func (b *EncodedImageBuffer) Release() { b.ref.Release() }

// EncodedImage is an owned webrtc::EncodedImage.
type EncodedImage struct {
	u *Unique[encodedImage]
}

// NewEncodedImage returns an empty image.
func NewEncodedImage() (*EncodedImage, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	return &EncodedImage{u: FromUnique(encodedImageDesc, UniquePtr[encodedImage](webrtcEncodedImageNew()))}, nil
}

// NewEncodedImageFromFrame builds an image carrying a copy of f.
func NewEncodedImageFromFrame(f *EncodedFrame) (*EncodedImage, error) {
	img, err := NewEncodedImage()
	if err != nil {
		return nil, err
	}
	buf, err := NewEncodedImageBuffer(f.Data)
	if err != nil {
		img.Close()
		return nil, err
	}
	defer buf.Release()

	self := uintptr(img.u.AsPtr())
	webrtcEncodedImageSetEncodedData(self, uintptr(buf.ref.AsPtr()))
	webrtcEncodedImageSetRTPTimestamp(self, f.Timestamp)
	webrtcEncodedImageSetEncodedWidth(self, f.Width)
	webrtcEncodedImageSetEncodedHeight(self, f.Height)
	webrtcEncodedImageSetFrameType(self, int32(f.FrameType))
	webrtcEncodedImageSetQP(self, int32(f.QP))
	return img, nil
}

// Ref returns a view valid while img is open.
func (img *EncodedImage) Ref() EncodedImageRef {
	return EncodedImageRef{b: unscoped(img.u.AsPtr())}
}

// Close deletes the image.
func (img *EncodedImage) Close() { img.u.Close() }

// EncodedImageRef is a borrowed view of an encoded image.
type EncodedImageRef struct {
	b Borrowed[encodedImage]
}

func (r EncodedImageRef) self() uintptr { return uintptr(r.b.Ptr()) }

// EncodedData returns a new owner of the image payload, or nil when the image
// carries none.
func (r EncodedImageRef) EncodedData() *EncodedImageBuffer {
	raw := webrtcEncodedImageEncodedData(r.self())
	if raw == 0 {
		return nil
	}
	return &EncodedImageBuffer{ref: FromRaw(encodedImageBufferDesc, RefPtr[encodedImageBuffer](raw))}
}

func (r EncodedImageRef) RTPTimestamp() uint32  { return webrtcEncodedImageRTPTimestamp(r.self()) }
func (r EncodedImageRef) EncodedWidth() uint32  { return webrtcEncodedImageEncodedWidth(r.self()) }
func (r EncodedImageRef) EncodedHeight() uint32 { return webrtcEncodedImageEncodedHeight(r.self()) }
func (r EncodedImageRef) QP() int               { return int(webrtcEncodedImageQP(r.self())) }

func (r EncodedImageRef) FrameType() VideoFrameType {
	return VideoFrameType(webrtcEncodedImageFrameType(r.self()))
}

// Frame copies the image into Go memory.
func (r EncodedImageRef) Frame() *EncodedFrame {
	f := &EncodedFrame{
		FrameType: r.FrameType(),
		Timestamp: r.RTPTimestamp(),
		Width:     r.EncodedWidth(),
		Height:    r.EncodedHeight(),
		QP:        r.QP(),
	}
	if buf := r.EncodedData(); buf != nil {
		f.Data = buf.Data()
		buf.Release()
	}
	return f
}
