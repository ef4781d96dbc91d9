package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox toggles a boolean on click.
type Checkbox struct {
	Value bool

	bounds  rect
	changed bool
}

func NewCheckbox(x, y float64, value bool) *Checkbox {
	return &Checkbox{
		Value:  value,
		bounds: rect{X: x, Y: y, W: 16, H: 16},
	}
}

func (c *Checkbox) Height() float64 { return c.bounds.H }

func (c *Checkbox) Move(x, y float64) {
	c.bounds.X, c.bounds.Y = x, y
}

func (c *Checkbox) Changed() bool {
	ch := c.changed
	c.changed = false
	return ch
}

func (c *Checkbox) Update() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && cursorIn(c.bounds) {
		c.Value = !c.Value
		c.changed = true
	}
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	b := c.bounds
	vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)

	if c.Value {
		vector.FillRect(screen, float32(b.X+3), float32(b.Y+3), float32(b.W-6), float32(b.H-6),
			color.RGBA{R: 100, G: 200, B: 100, A: 255}, true)
	}
}
