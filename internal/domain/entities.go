package domain

import (
	"encoding/base64"
	"fmt"
	"image"
	"time"
)

// VideoDevice представляет устройство захвата видео
type VideoDevice struct {
	ID    string // Уникальный идентификатор устройства
	Label string // Человекочитаемое имя устройства
	Kind  string // Тип устройства
}

// VideoConfig содержит предпочтительные параметры камеры
type VideoConfig struct {
	Width     int    // Ширина видео в пикселях
	Height    int    // Высота видео в пикселях
	FrameRate int    // Частота кадров
	DeviceID  string // ID устройства для захвата
}

// VideoTrack представляет видеотрек, полученный от камеры
type VideoTrack interface {
	ID() string
	// Close останавливает трек и освобождает устройство
	Close() error
	// NewFrameReader создает ридер декодированных кадров
	NewFrameReader() (FrameReader, error)
}

// FrameReader интерфейс для чтения декодированных кадров.
// release возвращает буфер кадра драйверу, после него img использовать нельзя.
type FrameReader interface {
	Read() (img image.Image, release func(), err error)
	Close() error
}

// VideoSource источник живого видео, аналог элемента video на странице
type VideoSource interface {
	// NativeSize возвращает размер декодированного кадра, 0x0 до первого кадра
	NativeSize() (width, height int)
	// DisplaySize возвращает размер области, в которой видео показано пользователю
	DisplaySize() (width, height float64)
	// CurrentFrame возвращает последний декодированный кадр или nil
	CurrentFrame() image.Image
}

// CaptureState состояние сессии съемки
type CaptureState int

const (
	StateIdle CaptureState = iota
	StateAwaitingStart
	StateLive
	StateFailed
	StateCaptured
)

func (s CaptureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingStart:
		return "awaiting-start"
	case StateLive:
		return "live"
	case StateFailed:
		return "failed"
	case StateCaptured:
		return "captured"
	default:
		return "unknown"
	}
}

// MarshalText позволяет отдавать состояние в JSON строкой
func (s CaptureState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText разбирает состояние из строки, как его отдает MarshalText
func (s *CaptureState) UnmarshalText(text []byte) error {
	for candidate := StateIdle; candidate <= StateCaptured; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("неизвестное состояние: %q", text)
}

// Photo готовый снимок. Значение неизменяемое, Data не модифицируется после создания.
type Photo struct {
	ID          string
	SessionID   string
	Width       int
	Height      int
	ContentType string
	Data        []byte
	CapturedAt  time.Time
}

// DataURL возвращает снимок в виде строки data:<type>;base64,...
func (p *Photo) DataURL() string {
	return "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}
