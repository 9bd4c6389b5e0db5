package domain

import (
	"image"
	"math"
)

// CropRect прямоугольник в координатах исходного кадра
type CropRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Bounds возвращает целочисленный размер поверхности под этот прямоугольник
func (r CropRect) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(math.Round(r.Width)), int(math.Round(r.Height)))
}

// AspectRatio возвращает отношение ширины к высоте
func (r CropRect) AspectRatio() float64 {
	return r.Width / r.Height
}

// ComputeCrop вычисляет наибольший центрированный прямоугольник кадра
// nativeWidth x nativeHeight с пропорциями области показа displayWidth x displayHeight.
// Вызывать только после первого декодированного кадра: нулевой размер кадра не определен.
func ComputeCrop(nativeWidth, nativeHeight, displayWidth, displayHeight float64) CropRect {
	videoAR := nativeWidth / nativeHeight
	containerAR := displayWidth / displayHeight

	if videoAR > containerAR {
		// Видео шире контейнера: режем по бокам
		width := nativeHeight * containerAR
		return CropRect{
			X:      (nativeWidth - width) / 2,
			Y:      0,
			Width:  width,
			Height: nativeHeight,
		}
	}

	// Видео уже контейнера (или совпадает): режем сверху и снизу
	height := nativeWidth / containerAR
	return CropRect{
		X:      0,
		Y:      (nativeHeight - height) / 2,
		Width:  nativeWidth,
		Height: height,
	}
}

// FrameCrop берет текущий кадр источника и вычисляет для него прямоугольник.
// Размер кадра берется из самого кадра, поэтому crop всегда согласован с frame.
// ok == false, если кадр еще не декодирован или область показа пустая.
func FrameCrop(source VideoSource) (frame image.Image, crop CropRect, ok bool) {
	frame = source.CurrentFrame()
	if frame == nil {
		return nil, CropRect{}, false
	}
	nativeWidth, nativeHeight := frame.Bounds().Dx(), frame.Bounds().Dy()
	displayWidth, displayHeight := source.DisplaySize()
	if nativeWidth <= 0 || nativeHeight <= 0 || displayWidth <= 0 || displayHeight <= 0 {
		return nil, CropRect{}, false
	}
	return frame, ComputeCrop(float64(nativeWidth), float64(nativeHeight), displayWidth, displayHeight), true
}
