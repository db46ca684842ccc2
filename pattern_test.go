//go:build darwin || linux

package libwebrtc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternSourceDefaults(t *testing.T) {
	s := NewPatternSource(PatternConfig{})
	cfg := s.Config()
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 32, cfg.CheckerSize)
	assert.NotZero(t, cfg.Seed)
	assert.Equal(t, time.Second/30, s.FrameInterval())
	assert.Equal(t, "ColorBars", cfg.Pattern.String())
	assert.Equal(t, "Unknown", PatternType(99).String())
}

func TestPatternRender(t *testing.T) {
	t.Run("ColorBars", func(t *testing.T) {
		p := NewPatternSource(PatternConfig{Width: 80, Height: 16}).Render(0)
		white, _, _ := rgbToYUV(192, 192, 192)
		black, _, _ := rgbToYUV(16, 16, 16)
		assert.Equal(t, white, p.Y[0])
		assert.Equal(t, black, p.Y[79])
		_, u, v := rgbToYUV(0, 0, 192)
		assert.Equal(t, u, p.U[30])
		assert.Equal(t, v, p.V[30])
	})

	t.Run("Checkerboard", func(t *testing.T) {
		p := NewPatternSource(PatternConfig{Width: 64, Height: 64, Pattern: PatternCheckerboard, CheckerSize: 8}).Render(0)
		assert.Equal(t, uint8(235), p.Y[0])
		assert.Equal(t, uint8(16), p.Y[8])
		assert.Equal(t, uint8(16), p.Y[8*64])
		assert.Equal(t, uint8(235), p.Y[8*64+8])
	})

	t.Run("SolidColor", func(t *testing.T) {
		p := NewPatternSource(PatternConfig{Width: 4, Height: 4, Pattern: PatternSolidColor, SolidR: 255}).Render(0)
		y, u, v := rgbToYUV(255, 0, 0)
		assert.Equal(t, []byte{y, y, y, y}, p.Y[:4])
		assert.Equal(t, []byte{u, u, u, u}, p.U)
		assert.Equal(t, []byte{v, v, v, v}, p.V)
	})

	t.Run("Gradient", func(t *testing.T) {
		p := NewPatternSource(PatternConfig{Width: 256, Height: 2, Pattern: PatternGradient}).Render(0)
		assert.Equal(t, uint8(0), p.Y[0])
		assert.Equal(t, uint8(254), p.Y[255])
		assert.Less(t, p.Y[10], p.Y[200])
	})

	t.Run("NoiseIsSeeded", func(t *testing.T) {
		cfg := PatternConfig{Width: 16, Height: 16, Pattern: PatternNoise, Seed: 42}
		a := append([]byte(nil), NewPatternSource(cfg).Render(0).Y...)
		b := NewPatternSource(cfg).Render(0).Y
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, NewPatternSource(PatternConfig{Width: 16, Height: 16, Pattern: PatternNoise, Seed: 7}).Render(0).Y)
	})

	t.Run("MovingBox", func(t *testing.T) {
		s := NewPatternSource(PatternConfig{Width: 320, Height: 240, Pattern: PatternMovingBox})
		p := s.Render(0)
		// At frame zero the box is centered at (w/2 + r, h/2) with r = 60.
		assert.Equal(t, uint8(235), p.Y[120*320+220])
		assert.Equal(t, uint8(16), p.Y[0])
		assert.Equal(t, uint8(16), p.Y[120*320+160-60])

		p = s.Render(31)
		assert.Equal(t, uint8(16), p.Y[120*320+220], "box moved off its starting point")
	})
}

func TestPatternSourceNextFrame(t *testing.T) {
	fake.requireNoLeaks(t, func() {
		s := NewPatternSource(PatternConfig{Width: 32, Height: 16, FPS: 30, Pattern: PatternSolidColor, SolidB: 255})
		want, _, _ := rgbToYUV(0, 0, 255)

		for n := 0; n < 3; n++ {
			frame, err := s.NextFrame()
			require.NoError(t, err)
			ref := frame.Ref()
			assert.Equal(t, 32, ref.Width())
			assert.Equal(t, 16, ref.Height())
			assert.Equal(t, uint32(n*3000), ref.TimestampRTP())
			assert.Equal(t, (time.Duration(n) * time.Second / 30).Microseconds(), ref.TimestampUs())

			buf := ref.Buffer()
			mem := fake.get(uintptr(buf.ref.AsPtr())).mem
			assert.Equal(t, want, mem[0])
			assert.Equal(t, want, mem[32*16-1])
			buf.Release()
			frame.Close()
		}
	}, "webrtc_I420Buffer", "webrtc_VideoFrame")
}

func TestPatternSourceRun(t *testing.T) {
	fake.requireNoLeaks(t, func() {
		s := NewPatternSource(PatternConfig{Width: 16, Height: 16, FPS: 200})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var stamps []uint32
		err := s.Run(ctx, func(frame *VideoFrame) {
			defer frame.Close()
			stamps = append(stamps, frame.Ref().TimestampRTP())
			if len(stamps) == 3 {
				cancel()
			}
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []uint32{0, 450, 900}, stamps)
	}, "webrtc_I420Buffer", "webrtc_VideoFrame")
}

func TestPatternFeedsScaler(t *testing.T) {
	fake.requireNoLeaks(t, func() {
		src := NewPatternSource(PatternConfig{Width: 64, Height: 32, Pattern: PatternSolidColor, SolidG: 255}).Render(0)
		dst, err := NewI420Buffer(32, 16)
		require.NoError(t, err)
		defer dst.Release()

		require.NoError(t, NewScaler(32, 16, ScaleModeStretch).ScaleInto(dst, src))
		y, _, _ := rgbToYUV(0, 255, 0)
		mem := fake.get(uintptr(dst.ref.AsPtr())).mem
		assert.Equal(t, y, mem[0])
		assert.Equal(t, y, mem[32*16-1])

		assert.Error(t, NewScaler(16, 16, ScaleModeStretch).ScaleInto(dst, src))
	}, "webrtc_I420Buffer")
}
