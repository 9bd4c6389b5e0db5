package application

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"

	"webcam-photobooth/internal/domain"
)

// PhotoContentType формат снимка: PNG без потерь
const PhotoContentType = "image/png"

// CapturePipeline делает снимок с живого видео на отдельной поверхности
type CapturePipeline struct {
	surface domain.Surface
	logger  Logger
	now     func() time.Time
}

// NewCapturePipeline создает конвейер съемки. surface == nil означает,
// что поверхность недоступна: Capture вернет domain.ErrSurfaceUnavailable.
func NewCapturePipeline(surface domain.Surface, logger Logger) *CapturePipeline {
	return &CapturePipeline{
		surface: surface,
		logger:  logger,
		now:     time.Now,
	}
}

// Capture снимает текущий кадр: обрезка под пропорции области показа,
// зеркальное отражение, узор поверх без отражения, PNG.
func (p *CapturePipeline) Capture(source domain.VideoSource, sessionID string) (*domain.Photo, error) {
	if p.surface == nil {
		return nil, domain.ErrSurfaceUnavailable
	}

	frame, crop, ok := domain.FrameCrop(source)
	if !ok {
		return nil, domain.ErrFrameNotReady
	}

	bounds := crop.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: пустая область обрезки %+v", domain.ErrSurfaceUnavailable, crop)
	}
	width, height := float64(bounds.Dx()), float64(bounds.Dy())

	p.surface.Resize(bounds.Dx(), bounds.Dy())

	// Кадр с камеры не отражен, пользователь же видит себя в зеркале
	domain.WithMirror(p.surface, width, func() {
		p.surface.DrawVideo(frame, crop, 0, 0, width, height)
	})

	// Трансформация уже единичная: узор рисуется один раз и без отражения
	domain.DrawDecoration(p.surface, width, height)

	var buf bytes.Buffer
	if err := p.surface.Encode(&buf); err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}

	photo := &domain.Photo{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ContentType: PhotoContentType,
		Data:        buf.Bytes(),
		CapturedAt:  p.now(),
	}
	p.logger.Info("Снимок %s: %dx%d из кадра %dx%d, %d байт",
		photo.ID, photo.Width, photo.Height, frame.Bounds().Dx(), frame.Bounds().Dy(), len(photo.Data))
	return photo, nil
}
