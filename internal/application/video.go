package application

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"

	"webcam-photobooth/internal/domain"
)

// LiveVideo аналог элемента video: к нему подключается трек камеры,
// он хранит последний декодированный кадр и знает размер области показа.
type LiveVideo struct {
	viewport Viewport
	logger   Logger

	mutex  sync.RWMutex
	frame  image.Image
	reader domain.FrameReader
	cancel context.CancelFunc
	frames uint64

	// onFirstFrame вызывается вне мьютекса после первого кадра подключенного трека
	onFirstFrame func()
}

// NewLiveVideo создает пустой видеоэлемент
func NewLiveVideo(viewport Viewport, logger Logger) *LiveVideo {
	return &LiveVideo{
		viewport: viewport,
		logger:   logger,
	}
}

// Attach подключает трек и запускает воспроизведение.
// Ранее подключенный трек отключается.
func (v *LiveVideo) Attach(track domain.VideoTrack) error {
	v.Detach()

	reader, err := track.NewFrameReader()
	if err != nil {
		return fmt.Errorf("ошибка создания ридера кадров: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	v.mutex.Lock()
	v.reader = reader
	v.cancel = cancel
	v.frames = 0
	v.mutex.Unlock()

	go v.play(ctx, reader)
	return nil
}

// Detach отключает трек. Кадр сбрасывается, NativeSize снова 0x0.
// Не ждет выхода из Read: чтение завершится при закрытии трека.
func (v *LiveVideo) Detach() {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if v.reader != nil {
		if err := v.reader.Close(); err != nil {
			v.logger.Error("Ошибка закрытия ридера: %v", err)
		}
		v.reader = nil
	}
	v.frame = nil
}

// play перекачивает кадры из ридера в слот последнего кадра
func (v *LiveVideo) play(ctx context.Context, reader domain.FrameReader) {
	for {
		img, release, err := reader.Read()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				v.logger.Error("Ошибка чтения кадра: %v", err)
			}
			return
		}
		if img == nil {
			if release != nil {
				release()
			}
			continue
		}

		// Буфер драйвера переиспользуется после release, поэтому кадр копируется
		frame := imaging.Clone(img)
		if release != nil {
			release()
		}

		v.mutex.Lock()
		if ctx.Err() != nil {
			v.mutex.Unlock()
			return
		}
		v.frame = frame
		v.frames++
		first := v.frames == 1
		v.mutex.Unlock()

		if first {
			v.logger.Debug("Первый кадр: %dx%d", frame.Bounds().Dx(), frame.Bounds().Dy())
			if v.onFirstFrame != nil {
				v.onFirstFrame()
			}
		}
	}
}

// NativeSize возвращает размер последнего декодированного кадра
func (v *LiveVideo) NativeSize() (int, int) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	if v.frame == nil {
		return 0, 0
	}
	b := v.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (v *LiveVideo) DisplaySize() (float64, float64) {
	return v.viewport.DisplaySize()
}

func (v *LiveVideo) CurrentFrame() image.Image {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.frame
}

// Attached сообщает, подключен ли трек
func (v *LiveVideo) Attached() bool {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.reader != nil
}

var _ domain.VideoSource = (*LiveVideo)(nil)

// StaticViewport область показа фиксированного размера, готовая сразу.
// Используется без страницы (консольный режим).
type StaticViewport struct {
	Width  float64
	Height float64
}

func (v StaticViewport) DisplaySize() (float64, float64) {
	return v.Width, v.Height
}

func (v StaticViewport) WaitReady(ctx context.Context) error {
	return ctx.Err()
}
