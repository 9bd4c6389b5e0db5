package domain

import (
	"image/color"
	"math"
)

// Sunburst узор из лучей, расходящихся из центра поверхности
type Sunburst struct {
	Rays      int
	Color     color.Color
	LineWidth float64
}

// DefaultSunburst единственный узор приложения: 12 полупрозрачных красных лучей
var DefaultSunburst = Sunburst{
	Rays:      12,
	Color:     color.NRGBA{R: 255, A: 128},
	LineWidth: 2,
}

// Draw рисует лучи на поверхности размером width x height.
// Текущая трансформация поверхности не меняется: для неотраженного узора
// вызывающий код должен вернуть поверхность к единичной трансформации.
func (d Sunburst) Draw(s Surface, width, height float64) {
	centerX := width / 2
	centerY := height / 2

	s.SetStrokeStyle(d.Color, d.LineWidth)
	for i := 0; i < d.Rays; i++ {
		angle := float64(i) * 2 * math.Pi / float64(d.Rays)
		s.BeginPath()
		s.MoveTo(centerX, centerY)
		s.LineTo(centerX+math.Cos(angle)*width, centerY+math.Sin(angle)*height)
		s.Stroke()
	}
}

// DrawDecoration рисует узор по умолчанию. Общая точка для превью и снимка.
func DrawDecoration(s Surface, width, height float64) {
	DefaultSunburst.Draw(s, width, height)
}
