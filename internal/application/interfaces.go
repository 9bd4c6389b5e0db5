package application

import (
	"context"
	"image"

	"webcam-photobooth/internal/domain"
)

// CameraManager интерфейс для управления камерой
type CameraManager interface {
	// ListDevices возвращает список доступных устройств захвата
	ListDevices() ([]domain.VideoDevice, error)

	// OpenCamera открывает камеру с заданными параметрами.
	// Ошибки доступа возвращаются как *domain.AcquisitionError.
	OpenCamera(ctx context.Context, config domain.VideoConfig) (domain.VideoTrack, error)
}

// Viewport область страницы, в которой показывается видео
type Viewport interface {
	// DisplaySize возвращает текущий размер области показа
	DisplaySize() (width, height float64)

	// WaitReady блокируется, пока область показа не смонтирована
	WaitReady(ctx context.Context) error
}

// OverlayFrame результат одного такта превью
type OverlayFrame struct {
	Crop    domain.CropRect
	Overlay image.Image // прозрачный слой с узором размером Crop.Bounds()
	Video   image.Image // кадр, по которому считался Crop
}

// OverlayPresenter получает слой превью на каждом такте
type OverlayPresenter interface {
	PresentOverlay(frame OverlayFrame)
}

// PhotoSink получает снимок в виде data URL. Возвращаемого значения нет, повторов нет.
type PhotoSink func(dataURL string)

// StateListener уведомляется о каждом переходе состояния
type StateListener func(status Status)

// Logger интерфейс для логирования
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}
