package application

import (
	"context"
	"image"
	"image/color"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"webcam-photobooth/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}

// MockCamera мок CameraManager
type MockCamera struct {
	mock.Mock
}

func (m *MockCamera) ListDevices() ([]domain.VideoDevice, error) {
	args := m.Called()
	devices, _ := args.Get(0).([]domain.VideoDevice)
	return devices, args.Error(1)
}

func (m *MockCamera) OpenCamera(ctx context.Context, config domain.VideoConfig) (domain.VideoTrack, error) {
	args := m.Called(ctx, config)
	track, _ := args.Get(0).(domain.VideoTrack)
	return track, args.Error(1)
}

// fakeTrack трек, отдающий один и тот же кадр, пока не закрыт
type fakeTrack struct {
	id     string
	frame  image.Image
	closed atomic.Bool
	stop   chan struct{}
	once   sync.Once
}

func newFakeTrack(id string, frame image.Image) *fakeTrack {
	return &fakeTrack{id: id, frame: frame, stop: make(chan struct{})}
}

func (t *fakeTrack) ID() string { return t.id }

func (t *fakeTrack) Close() error {
	t.once.Do(func() {
		t.closed.Store(true)
		close(t.stop)
	})
	return nil
}

func (t *fakeTrack) NewFrameReader() (domain.FrameReader, error) {
	return &fakeReader{track: t, done: make(chan struct{})}, nil
}

type fakeReader struct {
	track *fakeTrack
	done  chan struct{}
	once  sync.Once
}

// Read отдает кадр раз в 2мс. Кадр nil означает камеру, которая еще не прислала изображение.
func (r *fakeReader) Read() (image.Image, func(), error) {
	for {
		select {
		case <-r.track.stop:
			return nil, nil, io.EOF
		case <-r.done:
			return nil, nil, io.EOF
		case <-time.After(2 * time.Millisecond):
		}
		if r.track.frame != nil {
			return r.track.frame, func() {}, nil
		}
	}
}

func (r *fakeReader) Close() error {
	r.once.Do(func() { close(r.done) })
	return nil
}

// gateViewport область показа, которая готова только после open()
type gateViewport struct {
	width, height float64
	ready         chan struct{}
	once          sync.Once
}

func newGateViewport(width, height float64) *gateViewport {
	return &gateViewport{width: width, height: height, ready: make(chan struct{})}
}

func (v *gateViewport) open() { v.once.Do(func() { close(v.ready) }) }

func (v *gateViewport) DisplaySize() (float64, float64) { return v.width, v.height }

func (v *gateViewport) WaitReady(ctx context.Context) error {
	select {
	case <-v.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// frameSource неподвижный источник для тестов конвейера и превью
type frameSource struct {
	frame              image.Image
	displayW, displayH float64
}

func (s frameSource) NativeSize() (int, int) {
	if s.frame == nil {
		return 0, 0
	}
	return s.frame.Bounds().Dx(), s.frame.Bounds().Dy()
}

func (s frameSource) DisplaySize() (float64, float64) { return s.displayW, s.displayH }
func (s frameSource) CurrentFrame() image.Image       { return s.frame }

// gradientFrame непрозрачный кадр с уникальными пикселями
func gradientFrame(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 5), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

// recordingPresenter запоминает кадры превью
type recordingPresenter struct {
	mutex  sync.Mutex
	frames []OverlayFrame
}

func (p *recordingPresenter) PresentOverlay(frame OverlayFrame) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.frames = append(p.frames, frame)
}

func (p *recordingPresenter) count() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.frames)
}

func (p *recordingPresenter) last() OverlayFrame {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.frames[len(p.frames)-1]
}
