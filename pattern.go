package libwebrtc

import (
	"context"
	"math"
	"sync"
	"time"
)

// PatternType selects the picture a PatternSource renders.
type PatternType int

const (
	PatternColorBars    PatternType = iota // 75% SMPTE bars
	PatternGradient                        // horizontal luma ramp
	PatternCheckerboard                    // black and white squares
	PatternSolidColor                      // SolidR/G/B fill
	PatternNoise                           // luma noise
	PatternMovingBox                       // white box on a circular path
)

func (p PatternType) String() string {
	switch p {
	case PatternColorBars:
		return "ColorBars"
	case PatternGradient:
		return "Gradient"
	case PatternCheckerboard:
		return "Checkerboard"
	case PatternSolidColor:
		return "SolidColor"
	case PatternNoise:
		return "Noise"
	case PatternMovingBox:
		return "MovingBox"
	default:
		return "Unknown"
	}
}

// PatternConfig configures a PatternSource.
type PatternConfig struct {
	Width   int // default 640
	Height  int // default 480
	FPS     int // default 30
	Pattern PatternType

	SolidR, SolidG, SolidB uint8

	// CheckerSize is the side of one checker square. Default 32.
	CheckerSize int
	// Seed fixes the noise sequence. Zero picks a time based seed.
	Seed uint64
}

func (c PatternConfig) withDefaults() PatternConfig {
	if c.Width <= 0 {
		c.Width = 640
	}
	if c.Height <= 0 {
		c.Height = 480
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.CheckerSize <= 0 {
		c.CheckerSize = 32
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano()) | 1
	}
	return c
}

// PatternSource renders synthetic I420 pictures and wraps them in native
// video frames stamped on the 90 kHz RTP clock.
type PatternSource struct {
	cfg    PatternConfig
	planes *I420Planes
	rng    uint64

	mu    sync.Mutex
	count uint64
}

// NewPatternSource returns a source positioned at frame zero.
func NewPatternSource(cfg PatternConfig) *PatternSource {
	cfg = cfg.withDefaults()
	return &PatternSource{
		cfg:    cfg,
		planes: NewI420Planes(cfg.Width, cfg.Height),
		rng:    cfg.Seed,
	}
}

// Config returns the effective configuration.
func (s *PatternSource) Config() PatternConfig { return s.cfg }

// FrameInterval is the time between two frames.
func (s *PatternSource) FrameInterval() time.Duration {
	return time.Second / time.Duration(s.cfg.FPS)
}

// Render draws frame n into the source's planes and returns them. The planes
// are reused by the next call.
func (s *PatternSource) Render(n uint64) *I420Planes {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render(n)
	return s.planes
}

func (s *PatternSource) render(n uint64) {
	switch s.cfg.Pattern {
	case PatternGradient:
		s.gradient()
	case PatternCheckerboard:
		s.checkerboard()
	case PatternSolidColor:
		s.fill(rgbToYUV(s.cfg.SolidR, s.cfg.SolidG, s.cfg.SolidB))
	case PatternNoise:
		s.noise()
	case PatternMovingBox:
		s.movingBox(n)
	default:
		s.colorBars()
	}
}

// NextFrame renders the next picture into a fresh native buffer and returns
// the frame that owns it. The caller closes the frame.
func (s *PatternSource) NextFrame() (*VideoFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.count
	s.render(n)

	buf, err := NewI420Buffer(s.cfg.Width, s.cfg.Height)
	if err != nil {
		return nil, err
	}
	defer buf.Release()
	if err := buf.CopyFrom(s.planes); err != nil {
		return nil, err
	}
	elapsed := time.Duration(n) * s.FrameInterval()
	frame, err := NewVideoFrame(buf, elapsed.Microseconds(), uint32(n*uint64(videoClockRate)/uint64(s.cfg.FPS)))
	if err != nil {
		return nil, err
	}
	s.count++
	return frame, nil
}

// Run delivers one frame per interval to fn until ctx ends. fn owns the
// frame it receives.
func (s *PatternSource) Run(ctx context.Context, fn func(*VideoFrame)) error {
	ticker := time.NewTicker(s.FrameInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			frame, err := s.NextFrame()
			if err != nil {
				return err
			}
			fn(frame)
		}
	}
}

// Feed pushes one frame per interval into src until ctx ends.
func (s *PatternSource) Feed(ctx context.Context, src *AdaptedVideoTrackSource) error {
	return s.Run(ctx, func(frame *VideoFrame) {
		defer frame.Close()
		src.OnFrame(frame)
	})
}

var colorBarsRGB = [8][3]uint8{
	{192, 192, 192},
	{192, 192, 0},
	{0, 192, 192},
	{0, 192, 0},
	{192, 0, 192},
	{192, 0, 0},
	{0, 0, 192},
	{16, 16, 16},
}

// paint sets luma at (x, y) and, on even coordinates, the chroma sample
// covering it.
func (s *PatternSource) paint(x, y int, yv, u, v uint8) {
	p := s.planes
	p.Y[y*p.StrideY+x] = yv
	if x%2 == 0 && y%2 == 0 {
		p.U[(y/2)*p.StrideU+x/2] = u
		p.V[(y/2)*p.StrideV+x/2] = v
	}
}

func (s *PatternSource) colorBars() {
	w, h := s.cfg.Width, s.cfg.Height
	bar := max(w/8, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgb := colorBarsRGB[min(x/bar, 7)]
			yv, u, v := rgbToYUV(rgb[0], rgb[1], rgb[2])
			s.paint(x, y, yv, u, v)
		}
	}
}

func (s *PatternSource) gradient() {
	w, h := s.cfg.Width, s.cfg.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s.paint(x, y, uint8(x*255/w), 128, 128)
		}
	}
}

func (s *PatternSource) checkerboard() {
	w, h, size := s.cfg.Width, s.cfg.Height, s.cfg.CheckerSize
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			yv := uint8(16)
			if ((x/size)+(y/size))%2 == 0 {
				yv = 235
			}
			s.paint(x, y, yv, 128, 128)
		}
	}
}

func (s *PatternSource) fill(yv, u, v uint8) {
	for i := range s.planes.Y {
		s.planes.Y[i] = yv
	}
	for i := range s.planes.U {
		s.planes.U[i] = u
		s.planes.V[i] = v
	}
}

// noise uses xorshift64.
func (s *PatternSource) noise() {
	for i := range s.planes.Y {
		s.rng ^= s.rng << 13
		s.rng ^= s.rng >> 7
		s.rng ^= s.rng << 17
		s.planes.Y[i] = uint8(s.rng)
	}
	for i := range s.planes.U {
		s.planes.U[i] = 128
		s.planes.V[i] = 128
	}
}

const movingBoxSize = 100

func (s *PatternSource) movingBox(n uint64) {
	w, h := s.cfg.Width, s.cfg.Height
	s.fill(16, 128, 128)

	radius := float64(min(w, h)) / 4
	angle := float64(n) * 0.05
	bx := w/2 + int(radius*math.Cos(angle)) - movingBoxSize/2
	by := h/2 + int(radius*math.Sin(angle)) - movingBoxSize/2

	for y := max(by, 0); y < by+movingBoxSize && y < h; y++ {
		for x := max(bx, 0); x < bx+movingBoxSize && x < w; x++ {
			s.planes.Y[y*s.planes.StrideY+x] = 235
		}
	}
}

// rgbToYUV converts with BT.601 studio swing.
func rgbToYUV(r, g, b uint8) (y, u, v uint8) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	yf := 16 + 65.481*rf + 128.553*gf + 24.966*bf
	uf := 128 - 37.797*rf - 74.203*gf + 112.0*bf
	vf := 128 + 112.0*rf - 93.786*gf - 18.214*bf
	return uint8(clampf(yf, 16, 235)), uint8(clampf(uf, 16, 240)), uint8(clampf(vf, 16, 240))
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
