package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webcam-photobooth/internal/domain"
	"webcam-photobooth/internal/infrastructure/canvas"
)

func TestOverlayLoop_TickSizesOverlayToCrop(t *testing.T) {
	surface := canvas.New()
	presenter := &recordingPresenter{}
	loop := NewOverlayLoop(surface, presenter, 30, nopLogger{})

	frame := gradientFrame(64, 48)
	ok := loop.Tick(frameSource{frame: frame, displayW: 30, displayH: 40})
	require.True(t, ok)

	width, height := surface.Size()
	assert.Equal(t, 36, width)
	assert.Equal(t, 48, height)

	require.Equal(t, 1, presenter.count())
	got := presenter.last()
	assert.Equal(t, domain.CropRect{X: 14, Y: 0, Width: 36, Height: 48}, got.Crop)
	assert.Equal(t, 36, got.Overlay.Bounds().Dx())
	assert.Same(t, frame, got.Video)

	// Центр слоя закрашен узором, угол прозрачный
	_, _, _, a := got.Overlay.At(18, 24).RGBA()
	assert.NotZero(t, a)
	_, _, _, a = got.Overlay.At(0, 47).RGBA()
	assert.Zero(t, a)
}

func TestOverlayLoop_TickWithoutFrame(t *testing.T) {
	presenter := &recordingPresenter{}
	loop := NewOverlayLoop(canvas.New(), presenter, 30, nopLogger{})

	assert.False(t, loop.Tick(frameSource{displayW: 30, displayH: 40}))
	assert.Zero(t, presenter.count())
	assert.Zero(t, loop.Ticks())
}

func TestOverlayLoop_FollowsDisplayResize(t *testing.T) {
	surface := canvas.New()
	loop := NewOverlayLoop(surface, nil, 30, nopLogger{})
	frame := gradientFrame(64, 48)

	loop.Tick(frameSource{frame: frame, displayW: 40, displayH: 40})
	width, height := surface.Size()
	assert.Equal(t, [2]int{48, 48}, [2]int{width, height})

	loop.Tick(frameSource{frame: frame, displayW: 64, displayH: 24})
	width, height = surface.Size()
	assert.Equal(t, [2]int{64, 24}, [2]int{width, height})
}

func TestOverlayLoop_StartStop(t *testing.T) {
	presenter := &recordingPresenter{}
	loop := NewOverlayLoop(canvas.New(), presenter, 200, nopLogger{})
	source := frameSource{frame: gradientFrame(16, 12), displayW: 4, displayH: 3}

	assert.False(t, loop.Running())
	loop.Start(source)
	assert.True(t, loop.Running())

	assert.Eventually(t, func() bool { return presenter.count() >= 3 }, time.Second, 5*time.Millisecond)

	loop.Stop()
	assert.False(t, loop.Running())
	stopped := presenter.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, presenter.count(), "no tick after Stop returns")

	// повторная остановка безопасна
	loop.Stop()
}

func TestOverlayLoop_RestartReplacesTask(t *testing.T) {
	presenter := &recordingPresenter{}
	loop := NewOverlayLoop(canvas.New(), presenter, 200, nopLogger{})

	loop.Start(frameSource{frame: gradientFrame(16, 12), displayW: 4, displayH: 3})
	loop.Start(frameSource{frame: gradientFrame(20, 10), displayW: 2, displayH: 1})
	defer loop.Stop()

	assert.Eventually(t, func() bool {
		return presenter.count() > 0 && presenter.last().Crop.Width == 20
	}, time.Second, 5*time.Millisecond)
}
