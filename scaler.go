package libwebrtc

// ScaleMode defines how scaling handles aspect ratio mismatches.
type ScaleMode int

const (
	// ScaleModeFit keeps the aspect ratio and letterboxes.
	ScaleModeFit ScaleMode = iota
	// ScaleModeFill keeps the aspect ratio and crops.
	ScaleModeFill
	// ScaleModeStretch ignores the aspect ratio.
	ScaleModeStretch
)

// Scaler resizes I420 pictures with bilinear filtering. The output planes
// are reused between calls.
type Scaler struct {
	dstWidth, dstHeight int
	mode                ScaleMode
	out                 *I420Planes
}

// NewScaler returns a scaler producing dstWidth x dstHeight pictures.
func NewScaler(dstWidth, dstHeight int, mode ScaleMode) *Scaler {
	return &Scaler{
		dstWidth:  dstWidth,
		dstHeight: dstHeight,
		mode:      mode,
		out:       NewI420Planes(dstWidth, dstHeight),
	}
}

// Scale returns src resized to the scaler's size. src itself is returned
// when no scaling is needed.
func (s *Scaler) Scale(src *I420Planes) *I420Planes {
	if src.Width == s.dstWidth && src.Height == s.dstHeight {
		return src
	}
	out := s.out
	dx, dy, dw, dh := 0, 0, s.dstWidth, s.dstHeight
	if s.mode == ScaleModeFit {
		dw, dh = ScaledSize(src.Width, src.Height, s.dstWidth, s.dstHeight, ScaleModeFit)
		dx, dy = ((s.dstWidth-dw)/2)&^1, ((s.dstHeight-dh)/2)&^1
		clearPlanes(out)
	}
	sx, sy, sw, sh := s.sourceRegion(src.Width, src.Height)

	scalePlane(src.Y, src.StrideY, sx, sy, sw, sh, out.Y[dy*out.StrideY+dx:], out.StrideY, dw, dh)
	cdx, cdy := dx/2, dy/2
	cdw, cdh := (dw+1)/2, (dh+1)/2
	csw, csh := max((sw+1)/2, 1), max((sh+1)/2, 1)
	scalePlane(src.U, src.StrideU, sx/2, sy/2, csw, csh, out.U[cdy*out.StrideU+cdx:], out.StrideU, cdw, cdh)
	scalePlane(src.V, src.StrideV, sx/2, sy/2, csw, csh, out.V[cdy*out.StrideV+cdx:], out.StrideV, cdw, cdh)
	return out
}

// ScaleInto scales src and copies the result into a native buffer of the
// scaler's size.
func (s *Scaler) ScaleInto(dst *I420Buffer, src *I420Planes) error {
	return dst.CopyFrom(s.Scale(src))
}

func (s *Scaler) sourceRegion(srcW, srcH int) (x, y, w, h int) {
	if s.mode != ScaleModeFill {
		return 0, 0, srcW, srcH
	}
	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(s.dstWidth) / float64(s.dstHeight)
	switch {
	case srcAspect > dstAspect:
		nw := int(float64(srcH) * dstAspect)
		return ((srcW - nw) / 2) &^ 1, 0, nw, srcH
	case srcAspect < dstAspect:
		nh := int(float64(srcW) / dstAspect)
		return 0, ((srcH - nh) / 2) &^ 1, srcW, nh
	}
	return 0, 0, srcW, srcH
}

func clearPlanes(p *I420Planes) {
	for i := range p.Y {
		p.Y[i] = 16
	}
	for i := range p.U {
		p.U[i] = 128
		p.V[i] = 128
	}
}

// scalePlane resamples a srcW x srcH region at (srcX, srcY) into dst using
// 16.16 fixed point bilinear interpolation.
func scalePlane(src []byte, srcStride, srcX, srcY, srcW, srcH int, dst []byte, dstStride, dstW, dstH int) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return
	}
	xRatio := (srcW << 16) / dstW
	yRatio := (srcH << 16) / dstH

	for y := 0; y < dstH; y++ {
		fy := y * yRatio
		y0 := fy>>16 + srcY
		y1 := y0 + 1
		if y1 >= srcY+srcH {
			y1 = y0
		}
		wy := fy & 0xFFFF

		for x := 0; x < dstW; x++ {
			fx := x * xRatio
			x0 := fx>>16 + srcX
			x1 := x0 + 1
			if x1 >= srcX+srcW {
				x1 = x0
			}
			wx := fx & 0xFFFF

			p00 := int(src[y0*srcStride+x0])
			p10 := int(src[y0*srcStride+x1])
			p01 := int(src[y1*srcStride+x0])
			p11 := int(src[y1*srcStride+x1])

			top := (p00*(0x10000-wx) + p10*wx) >> 16
			bottom := (p01*(0x10000-wx) + p11*wx) >> 16
			dst[y*dstStride+x] = byte((top*(0x10000-wy) + bottom*wy) >> 16)
		}
	}
}

// ScaleI420 resizes src without keeping a Scaler around.
func ScaleI420(src *I420Planes, dstWidth, dstHeight int, mode ScaleMode) *I420Planes {
	return NewScaler(dstWidth, dstHeight, mode).Scale(src)
}

// ScaledSize returns the picture size produced inside a maxW x maxH frame.
// Only ScaleModeFit shrinks; its result is rounded up to even dimensions.
func ScaledSize(srcW, srcH, maxW, maxH int, mode ScaleMode) (w, h int) {
	if mode != ScaleModeFit || srcW <= 0 || srcH <= 0 {
		return maxW, maxH
	}
	srcAspect := float64(srcW) / float64(srcH)
	if srcAspect > float64(maxW)/float64(maxH) {
		w, h = maxW, int(float64(maxW)/srcAspect)
	} else {
		w, h = int(float64(maxH)*srcAspect), maxH
	}
	return min((w+1)&^1, maxW), min((h+1)&^1, maxH)
}
