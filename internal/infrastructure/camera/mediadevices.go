package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"

	"webcam-photobooth/internal/application"
	"webcam-photobooth/internal/domain"
)

// ErrNoVideoTrack поток получен, но видеотрека в нем нет
var ErrNoVideoTrack = errors.New("видеотрек не обнаружен")

// MediaDevicesManager реализация CameraManager с использованием библиотеки mediadevices.
// Драйвер камеры регистрируется в main импортом pkg/driver/camera.
type MediaDevicesManager struct {
	logger       application.Logger
	getUserMedia func(mediadevices.MediaStreamConstraints) (mediadevices.MediaStream, error)
}

// NewMediaDevicesManager создает новый менеджер медиаустройств
func NewMediaDevicesManager(logger application.Logger) *MediaDevicesManager {
	return &MediaDevicesManager{
		logger:       logger,
		getUserMedia: mediadevices.GetUserMedia,
	}
}

// ListDevices возвращает список доступных устройств захвата видео
func (m *MediaDevicesManager) ListDevices() ([]domain.VideoDevice, error) {
	devices := mediadevices.EnumerateDevices()
	result := make([]domain.VideoDevice, 0, len(devices))

	for _, device := range devices {
		if device.Kind != mediadevices.VideoInput {
			continue
		}
		result = append(result, domain.VideoDevice{
			ID:    device.DeviceID,
			Label: device.Label,
			Kind:  "videoinput",
		})
	}

	return result, nil
}

// OpenCamera открывает камеру с заданными параметрами.
// Параметры предпочтительные: при отказе повторяем с минимальными ограничениями.
func (m *MediaDevicesManager) OpenCamera(ctx context.Context, config domain.VideoConfig) (domain.VideoTrack, error) {
	constraints := mediadevices.MediaStreamConstraints{
		Video: func(c *mediadevices.MediaTrackConstraints) {
			if config.Width > 0 {
				c.Width = prop.Int(config.Width)
			}
			if config.Height > 0 {
				c.Height = prop.Int(config.Height)
			}
			if config.FrameRate > 0 {
				c.FrameRate = prop.Float(config.FrameRate)
			}
			if config.DeviceID != "" {
				c.DeviceID = prop.String(config.DeviceID)
			}
		},
	}

	mediaStream, err := m.getUserMedia(constraints)
	if err != nil {
		m.logger.Error("Ошибка с исходными ограничениями: %v", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		m.logger.Info("Пробуем с минимальными ограничениями...")
		constraints = mediadevices.MediaStreamConstraints{
			Video: func(c *mediadevices.MediaTrackConstraints) {
				if config.DeviceID != "" {
					c.DeviceID = prop.String(config.DeviceID)
				}
			},
		}

		mediaStream, err = m.getUserMedia(constraints)
		if err != nil {
			m.logger.Error("Не удалось получить доступ к медиа-устройству: %v", err)
			return nil, classifyError(err)
		}
	}

	videoTracks := mediaStream.GetVideoTracks()
	if len(videoTracks) == 0 {
		m.logger.Error("Видеотрек не обнаружен")
		return nil, &domain.AcquisitionError{Reason: domain.ReasonUnavailable, Err: ErrNoVideoTrack}
	}
	// Берем только первый трек, остальные сразу освобождаем
	for _, extra := range videoTracks[1:] {
		extra.Close()
	}

	// Отмена могла произойти, пока драйвер открывал устройство
	if ctx.Err() != nil {
		videoTracks[0].Close()
		return nil, ctx.Err()
	}

	return &MediaDevicesTrack{
		track:  videoTracks[0],
		logger: m.logger,
	}, nil
}

// classifyError различает отказ в доступе и отсутствие устройства
func classifyError(err error) *domain.AcquisitionError {
	reason := domain.ReasonUnavailable
	if errors.Is(err, os.ErrPermission) {
		reason = domain.ReasonDenied
	}
	return &domain.AcquisitionError{Reason: reason, Err: err}
}

// MediaDevicesTrack обертка для MediaDevices Track
type MediaDevicesTrack struct {
	track  mediadevices.Track
	logger application.Logger

	closeOnce sync.Once
	closeErr  error
}

// ID возвращает идентификатор трека
func (t *MediaDevicesTrack) ID() string {
	return t.track.ID()
}

// Close останавливает трек. Повторный вызов возвращает результат первого.
func (t *MediaDevicesTrack) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.track.Close()
	})
	return t.closeErr
}

// NewFrameReader создает ридер декодированных кадров
func (t *MediaDevicesTrack) NewFrameReader() (domain.FrameReader, error) {
	videoTrack, ok := t.track.(*mediadevices.VideoTrack)
	if !ok {
		return nil, fmt.Errorf("трек %s не является видеотреком", t.track.ID())
	}

	// Без копирования: кадр копируется потребителем до release
	return NewFrameReader(videoTrack.NewReader(false), t.logger), nil
}

// MediaDevicesReader обертка для video.Reader
type MediaDevicesReader struct {
	reader      video.Reader
	logger      application.Logger
	frameNumber int

	mutex  sync.Mutex
	closed bool
}

// NewFrameReader оборачивает ридер кадров mediadevices
func NewFrameReader(reader video.Reader, logger application.Logger) *MediaDevicesReader {
	return &MediaDevicesReader{
		reader: reader,
		logger: logger,
	}
}

// Read читает следующий кадр. После Close возвращает io.EOF.
func (r *MediaDevicesReader) Read() (image.Image, func(), error) {
	if r.isClosed() {
		return nil, nil, io.EOF
	}

	img, release, err := r.reader.Read()
	if err != nil {
		if r.isClosed() {
			return nil, nil, io.EOF
		}
		if !errors.Is(err, io.EOF) {
			r.logger.Error("Ошибка чтения кадра: %v", err)
		}
		return nil, nil, err
	}

	r.frameNumber++
	if r.frameNumber == 1 {
		b := img.Bounds()
		r.logger.Debug("Драйвер прислал первый кадр: %dx%d", b.Dx(), b.Dy())
	}
	return img, release, nil
}

// Close помечает ридер закрытым. Блокирующий Read завершится при остановке трека.
func (r *MediaDevicesReader) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.closed = true
	return nil
}

func (r *MediaDevicesReader) isClosed() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.closed
}

var (
	_ application.CameraManager = (*MediaDevicesManager)(nil)
	_ domain.VideoTrack         = (*MediaDevicesTrack)(nil)
	_ domain.FrameReader        = (*MediaDevicesReader)(nil)
)
