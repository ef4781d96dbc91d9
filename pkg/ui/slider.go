package ui

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider edits a float value in [Min, Max] by dragging.
type Slider struct {
	Value    float64
	Min, Max float64
	// Step rounds the value to a multiple of Step when > 0 (1 for counts).
	Step float64

	bounds   rect
	dragging bool
	changed  bool
}

// NewSlider creates a slider; value is clamped into [min, max].
func NewSlider(x, y, width float64, min, max, value float64) *Slider {
	s := &Slider{
		Min:    min,
		Max:    max,
		bounds: rect{X: x, Y: y, W: width, H: 10},
	}
	s.Value = s.clamp(value)
	return s
}

func (s *Slider) Height() float64 { return s.bounds.H }

func (s *Slider) Move(x, y float64) {
	s.bounds.X, s.bounds.Y = x, y
}

func (s *Slider) Changed() bool {
	c := s.changed
	s.changed = false
	return c
}

// Update drags the value while the left button is held. A drag starts
// only when the press happens inside the slider.
func (s *Slider) Update() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && cursorIn(s.bounds) {
		s.dragging = true
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		s.dragging = false
		return
	}
	if !s.dragging {
		return
	}
	mx, _ := ebiten.CursorPosition()
	if v := s.valueAt(float64(mx)); v != s.Value {
		s.Value = v
		s.changed = true
	}
}

// valueAt maps a horizontal screen coordinate to a slider value.
func (s *Slider) valueAt(x float64) float64 {
	ratio := (x - s.bounds.X) / s.bounds.W
	return s.clamp(s.Min + ratio*(s.Max-s.Min))
}

func (s *Slider) clamp(v float64) float64 {
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	return math.Max(s.Min, math.Min(s.Max, v))
}

func (s *Slider) Draw(screen *ebiten.Image) {
	b := s.bounds
	vector.FillRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H),
		color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)

	ratio := 0.0
	if s.Max > s.Min {
		ratio = (s.Value - s.Min) / (s.Max - s.Min)
	}
	fill := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	if s.dragging {
		fill = color.RGBA{R: 120, G: 200, B: 255, A: 255}
	}
	vector.FillRect(screen, float32(b.X), float32(b.Y), float32(b.W*ratio), float32(b.H), fill, true)

	ebitenutil.DebugPrintAt(screen, s.format(), int(b.X+b.W)-48, int(b.Y)-15)
}

func (s *Slider) format() string {
	if s.Step >= 1 {
		return fmt.Sprintf("%6.0f", s.Value)
	}
	return fmt.Sprintf("%6.3f", s.Value)
}
