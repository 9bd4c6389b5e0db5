package canvas

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"webcam-photobooth/internal/domain"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

type point struct {
	x, y float64
}

// Surface растровая поверхность рисования в памяти.
// Не потокобезопасна: каждой поверхностью владеет одна горутина.
type Surface struct {
	img    *image.RGBA
	matrix f64.Aff3
	stack  []f64.Aff3
	interp draw.Interpolator

	strokeColor color.Color
	lineWidth   float64
	path        [][2]point
	cursor      point
	hasCursor   bool

	raster *vector.Rasterizer
}

// Option настройка поверхности
type Option func(*Surface)

// WithInterpolator задает интерполятор для масштабирования кадров
func WithInterpolator(interp draw.Interpolator) Option {
	return func(s *Surface) {
		s.interp = interp
	}
}

// New создает пустую прозрачную поверхность 0x0
func New(opts ...Option) *Surface {
	s := &Surface{
		img:         image.NewRGBA(image.Rect(0, 0, 0, 0)),
		matrix:      identity,
		interp:      draw.ApproxBiLinear,
		strokeColor: color.Black,
		lineWidth:   1,
		raster:      vector.NewRasterizer(0, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseInterpolator возвращает интерполятор по имени из конфигурации
func ParseInterpolator(name string) (draw.Interpolator, error) {
	switch name {
	case "nearest":
		return draw.NearestNeighbor, nil
	case "", "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmull-rom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("неизвестный интерполятор: %q", name)
	}
}

// Resize меняет размер поверхности. Как и у canvas, содержимое и состояние сбрасываются.
func (s *Surface) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if s.img.Rect.Dx() != width || s.img.Rect.Dy() != height {
		s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	} else {
		s.Clear()
	}
	s.matrix = identity
	s.stack = s.stack[:0]
	s.path = nil
	s.hasCursor = false
}

func (s *Surface) Size() (int, int) {
	return s.img.Rect.Dx(), s.img.Rect.Dy()
}

func (s *Surface) Clear() {
	clear(s.img.Pix)
}

func (s *Surface) Save() {
	s.stack = append(s.stack, s.matrix)
}

func (s *Surface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.matrix = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Surface) Translate(x, y float64) {
	s.matrix = multiply(s.matrix, f64.Aff3{1, 0, x, 0, 1, y})
}

func (s *Surface) Scale(x, y float64) {
	s.matrix = multiply(s.matrix, f64.Aff3{x, 0, 0, 0, y, 0})
}

func (s *Surface) ResetTransform() {
	s.matrix = identity
}

// Transform возвращает текущую матрицу (для диагностики и тестов)
func (s *Surface) Transform() f64.Aff3 {
	return s.matrix
}

// DrawVideo копирует область src кадра в прямоугольник (dx, dy, dw, dh)
// через текущую трансформацию.
func (s *Surface) DrawVideo(frame image.Image, src domain.CropRect, dx, dy, dw, dh float64) {
	if frame == nil || src.Width <= 0 || src.Height <= 0 || s.img.Rect.Empty() {
		return
	}
	fb := frame.Bounds()

	// Координаты src отсчитываются от левого верхнего угла кадра
	originX := float64(fb.Min.X) + src.X
	originY := float64(fb.Min.Y) + src.Y

	s2d := multiply(s.matrix, f64.Aff3{1, 0, dx, 0, 1, dy})
	s2d = multiply(s2d, f64.Aff3{dw / src.Width, 0, 0, 0, dh / src.Height, 0})
	s2d = multiply(s2d, f64.Aff3{1, 0, -originX, 0, 1, -originY})

	sr := image.Rect(
		int(math.Floor(originX)),
		int(math.Floor(originY)),
		int(math.Ceil(originX+src.Width)),
		int(math.Ceil(originY+src.Height)),
	).Intersect(fb)
	if sr.Empty() {
		return
	}

	s.interp.Transform(s.img, s2d, frame, sr, draw.Over, nil)
}

func (s *Surface) SetStrokeStyle(c color.Color, lineWidth float64) {
	s.strokeColor = c
	s.lineWidth = lineWidth
}

func (s *Surface) BeginPath() {
	s.path = nil
	s.hasCursor = false
}

func (s *Surface) MoveTo(x, y float64) {
	s.cursor = s.apply(x, y)
	s.hasCursor = true
}

func (s *Surface) LineTo(x, y float64) {
	p := s.apply(x, y)
	if s.hasCursor {
		s.path = append(s.path, [2]point{s.cursor, p})
	}
	s.cursor = p
	s.hasCursor = true
}

// Stroke обводит текущий путь. Каждый отрезок становится прямоугольником
// ширины lineWidth с плоскими концами; весь путь растеризуется за один проход.
func (s *Surface) Stroke() {
	width, height := s.Size()
	if len(s.path) == 0 || width == 0 || height == 0 {
		return
	}

	half := s.lineWidth * math.Sqrt(math.Abs(s.matrix[0]*s.matrix[4]-s.matrix[1]*s.matrix[3])) / 2
	if half <= 0 {
		return
	}

	s.raster.Reset(width, height)
	s.raster.DrawOp = draw.Over
	drawn := false
	for _, seg := range s.path {
		dx := seg[1].x - seg[0].x
		dy := seg[1].y - seg[0].y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		nx := -dy / length * half
		ny := dx / length * half

		s.raster.MoveTo(float32(seg[0].x+nx), float32(seg[0].y+ny))
		s.raster.LineTo(float32(seg[1].x+nx), float32(seg[1].y+ny))
		s.raster.LineTo(float32(seg[1].x-nx), float32(seg[1].y-ny))
		s.raster.LineTo(float32(seg[0].x-nx), float32(seg[0].y-ny))
		s.raster.ClosePath()
		drawn = true
	}
	if drawn {
		s.raster.Draw(s.img, s.img.Bounds(), image.NewUniform(s.strokeColor), image.Point{})
	}
}

// Snapshot возвращает независимую копию содержимого
func (s *Surface) Snapshot() image.Image {
	return imaging.Clone(s.img)
}

// Encode сериализует поверхность в PNG
func (s *Surface) Encode(w io.Writer) error {
	if s.img.Rect.Empty() {
		return fmt.Errorf("%w: пустая поверхность", domain.ErrSurfaceUnavailable)
	}
	if err := imaging.Encode(w, s.img, imaging.PNG); err != nil {
		return fmt.Errorf("ошибка кодирования PNG: %w", err)
	}
	return nil
}

// Image возвращает буфер поверхности без копирования
func (s *Surface) Image() *image.RGBA {
	return s.img
}

func (s *Surface) apply(x, y float64) point {
	m := s.matrix
	return point{
		x: m[0]*x + m[1]*y + m[2],
		y: m[3]*x + m[4]*y + m[5],
	}
}

// multiply возвращает a*b: сначала применяется b, затем a
func multiply(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

var _ domain.Surface = (*Surface)(nil)
