package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button runs OnClick once per press.
type Button struct {
	Label   string
	OnClick func()

	// Styling
	BGColor    color.RGBA
	HoverColor color.RGBA

	bounds  rect
	clicked bool
}

func NewButton(x, y, width float64, label string, onClick func()) *Button {
	return &Button{
		Label:      label,
		OnClick:    onClick,
		BGColor:    color.RGBA{R: 80, G: 120, B: 180, A: 255},
		HoverColor: color.RGBA{R: 100, G: 150, B: 220, A: 255},
		bounds:     rect{X: x, Y: y, W: width, H: 20},
	}
}

func (b *Button) Height() float64 { return b.bounds.H }

func (b *Button) Move(x, y float64) {
	b.bounds.X, b.bounds.Y = x, y
}

// Changed reports a click since the last call.
func (b *Button) Changed() bool {
	c := b.clicked
	b.clicked = false
	return c
}

func (b *Button) Update() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && cursorIn(b.bounds) {
		b.clicked = true
		if b.OnClick != nil {
			b.OnClick()
		}
	}
}

func (b *Button) Draw(screen *ebiten.Image) {
	r := b.bounds
	bg := b.BGColor
	if cursorIn(r) {
		bg = b.HoverColor
	}
	vector.FillRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), bg, true)
	vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(r.X)+8, int(r.Y)+3)
}
