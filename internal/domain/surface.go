package domain

import (
	"image"
	"image/color"
	"io"
)

// Surface поверхность рисования с размером, стеком трансформаций и штрихами.
// Координаты всех операций проходят через текущую трансформацию.
type Surface interface {
	// Resize меняет размер, очищает содержимое и сбрасывает трансформацию
	Resize(width, height int)
	Size() (width, height int)
	// Clear делает все пиксели прозрачными
	Clear()

	Save()
	Restore()
	Translate(x, y float64)
	Scale(x, y float64)
	ResetTransform()

	// DrawVideo рисует область src кадра в прямоугольник (dx, dy, dw, dh)
	DrawVideo(frame image.Image, src CropRect, dx, dy, dw, dh float64)

	SetStrokeStyle(c color.Color, lineWidth float64)
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke()

	// Snapshot возвращает копию текущего содержимого
	Snapshot() image.Image
	// Encode сериализует содержимое в PNG
	Encode(w io.Writer) error
}

// WithMirror выполняет draw с горизонтальным отражением поверхности шириной width.
// Трансформация восстанавливается на любом выходе из draw, включая панику.
func WithMirror(s Surface, width float64, draw func()) {
	s.Save()
	defer s.Restore()

	s.Translate(width, 0)
	s.Scale(-1, 1)
	draw()
}
