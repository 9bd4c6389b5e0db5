package application

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"webcam-photobooth/internal/domain"
	"webcam-photobooth/internal/infrastructure/canvas"
)

func TestCapturePipeline_MirrorsOnceAndDecoratesOnce(t *testing.T) {
	frame := gradientFrame(80, 40)
	source := frameSource{frame: frame, displayW: 40, displayH: 40}

	pipeline := NewCapturePipeline(canvas.New(canvas.WithInterpolator(draw.NearestNeighbor)), nopLogger{})
	pipeline.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	photo, err := pipeline.Capture(source, "session-1")
	require.NoError(t, err)

	assert.Equal(t, 40, photo.Width)
	assert.Equal(t, 40, photo.Height)
	assert.Equal(t, "image/png", photo.ContentType)
	assert.Equal(t, "session-1", photo.SessionID)
	assert.NotEmpty(t, photo.ID)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), photo.CapturedAt)
	assert.True(t, strings.HasPrefix(photo.DataURL(), "data:image/png;base64,"))

	decoded, err := png.Decode(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	require.Equal(t, image.Pt(40, 40), decoded.Bounds().Size())

	// Ожидаемый снимок: центральная часть кадра, отраженная по горизонтали,
	// и поверх нее узор без отражения
	mirrored := imaging.FlipH(imaging.Crop(frame, image.Rect(20, 0, 60, 40)))
	expected := canvas.New(canvas.WithInterpolator(draw.NearestNeighbor))
	expected.Resize(40, 40)
	expected.DrawVideo(mirrored, domain.CropRect{Width: 40, Height: 40}, 0, 0, 40, 40)
	domain.DrawDecoration(expected, 40, 40)

	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			want := color.NRGBAModel.Convert(expected.Image().At(x, y))
			got := color.NRGBAModel.Convert(decoded.At(x, y))
			require.Equal(t, want, got, "pixel (%d,%d)", x, y)
		}
	}
}

func TestCapturePipeline_DimensionsFollowDisplay(t *testing.T) {
	tests := []struct {
		name               string
		nativeW, nativeH   int
		displayW, displayH float64
		width, height      int
	}{
		{"wider video", 192, 108, 40, 40, 108, 108},
		{"taller display", 64, 48, 30, 40, 36, 48},
		{"same ratio", 80, 60, 40, 30, 80, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := NewCapturePipeline(canvas.New(), nopLogger{})
			source := frameSource{frame: gradientFrame(tt.nativeW, tt.nativeH), displayW: tt.displayW, displayH: tt.displayH}

			photo, err := pipeline.Capture(source, "s")
			require.NoError(t, err)
			assert.Equal(t, tt.width, photo.Width)
			assert.Equal(t, tt.height, photo.Height)

			cfg, err := png.DecodeConfig(bytes.NewReader(photo.Data))
			require.NoError(t, err)
			assert.Equal(t, tt.width, cfg.Width)
			assert.Equal(t, tt.height, cfg.Height)
		})
	}
}

func TestCapturePipeline_Errors(t *testing.T) {
	t.Run("frame not ready", func(t *testing.T) {
		pipeline := NewCapturePipeline(canvas.New(), nopLogger{})
		_, err := pipeline.Capture(frameSource{displayW: 40, displayH: 40}, "s")
		assert.ErrorIs(t, err, domain.ErrFrameNotReady)
	})

	t.Run("display not laid out", func(t *testing.T) {
		pipeline := NewCapturePipeline(canvas.New(), nopLogger{})
		_, err := pipeline.Capture(frameSource{frame: gradientFrame(8, 8)}, "s")
		assert.ErrorIs(t, err, domain.ErrFrameNotReady)
	})

	t.Run("surface unavailable", func(t *testing.T) {
		pipeline := NewCapturePipeline(nil, nopLogger{})
		_, err := pipeline.Capture(frameSource{frame: gradientFrame(8, 8), displayW: 1, displayH: 1}, "s")
		assert.ErrorIs(t, err, domain.ErrSurfaceUnavailable)
	})

	t.Run("degenerate crop", func(t *testing.T) {
		pipeline := NewCapturePipeline(canvas.New(), nopLogger{})
		_, err := pipeline.Capture(frameSource{frame: gradientFrame(4, 4), displayW: 1000, displayH: 1}, "s")
		assert.ErrorIs(t, err, domain.ErrSurfaceUnavailable)
	})
}
