package domain

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

const cropEpsilon = 1e-9

func TestComputeCrop_Scenarios(t *testing.T) {
	tests := []struct {
		name               string
		nativeW, nativeH   float64
		displayW, displayH float64
		expected           CropRect
	}{
		{"native wider than display", 1920, 1080, 400, 400, CropRect{X: 420, Y: 0, Width: 1080, Height: 1080}},
		{"native taller than display", 640, 480, 300, 400, CropRect{X: 140, Y: 0, Width: 360, Height: 480}},
		{"exact match", 800, 600, 400, 300, CropRect{X: 0, Y: 0, Width: 800, Height: 600}},
		{"wide display over 4:3 camera", 640, 480, 672, 378, CropRect{X: 0, Y: 60, Width: 640, Height: 360}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crop := ComputeCrop(tt.nativeW, tt.nativeH, tt.displayW, tt.displayH)
			assert.InDelta(t, tt.expected.X, crop.X, cropEpsilon)
			assert.InDelta(t, tt.expected.Y, crop.Y, cropEpsilon)
			assert.InDelta(t, tt.expected.Width, crop.Width, cropEpsilon)
			assert.InDelta(t, tt.expected.Height, crop.Height, cropEpsilon)
		})
	}
}

func TestComputeCrop_Properties(t *testing.T) {
	natives := [][2]float64{{1920, 1080}, {640, 480}, {480, 640}, {1, 1}, {3, 1000}, {1280, 720}, {333, 777}}
	displays := [][2]float64{{400, 400}, {300, 400}, {672, 378}, {1, 3}, {1000, 1}, {123.5, 77.25}}

	for _, n := range natives {
		for _, d := range displays {
			crop := ComputeCrop(n[0], n[1], d[0], d[1])

			// Пропорции совпадают с областью показа
			assert.InEpsilon(t, d[0]/d[1], crop.AspectRatio(), 1e-9, "native %v display %v", n, d)

			// Прямоугольник целиком внутри кадра
			assert.GreaterOrEqual(t, crop.X, -cropEpsilon)
			assert.GreaterOrEqual(t, crop.Y, -cropEpsilon)
			assert.LessOrEqual(t, crop.X+crop.Width, n[0]+1e-6)
			assert.LessOrEqual(t, crop.Y+crop.Height, n[1]+1e-6)

			// Одна из сторон используется полностью
			fullWidth := assert.ObjectsAreEqual(n[0], crop.Width)
			fullHeight := assert.ObjectsAreEqual(n[1], crop.Height)
			assert.True(t, fullWidth || fullHeight, "native %v display %v crop %+v", n, d, crop)

			// Поля слева/справа и сверху/снизу равны
			assert.InDelta(t, crop.X, n[0]-crop.Width-crop.X, 1e-6)
			assert.InDelta(t, crop.Y, n[1]-crop.Height-crop.Y, 1e-6)

			// Чистая функция
			assert.Equal(t, crop, ComputeCrop(n[0], n[1], d[0], d[1]))
		}
	}
}

func TestCropRect_Bounds(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 360, 480), CropRect{X: 140, Width: 360, Height: 480}.Bounds())
	assert.Equal(t, image.Rect(0, 0, 640, 274), ComputeCrop(640, 480, 7, 3).Bounds())
}

type fakeSource struct {
	frame              image.Image
	displayW, displayH float64
}

func (f fakeSource) NativeSize() (int, int) {
	if f.frame == nil {
		return 0, 0
	}
	return f.frame.Bounds().Dx(), f.frame.Bounds().Dy()
}
func (f fakeSource) DisplaySize() (float64, float64) { return f.displayW, f.displayH }
func (f fakeSource) CurrentFrame() image.Image       { return f.frame }

func TestFrameCrop(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 1920, 1080))
	got, crop, ok := FrameCrop(fakeSource{frame: frame, displayW: 400, displayH: 400})
	assert.True(t, ok)
	assert.Same(t, frame, got)
	assert.Equal(t, CropRect{X: 420, Y: 0, Width: 1080, Height: 1080}, crop)

	_, _, ok = FrameCrop(fakeSource{displayW: 400, displayH: 400})
	assert.False(t, ok, "no decoded frame yet")

	_, _, ok = FrameCrop(fakeSource{frame: image.NewGray(image.Rect(0, 0, 640, 480))})
	assert.False(t, ok, "display not laid out yet")
}
