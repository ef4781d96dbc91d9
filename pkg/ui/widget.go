package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Widget is implemented by everything a Panel can lay out.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	// Height is the vertical space the widget needs, label excluded.
	Height() float64
	// Move places the widget's top-left corner.
	Move(x, y float64)
	// Changed reports whether the user modified the value since the last
	// call, and resets the flag.
	Changed() bool
}

// rect is an axis-aligned screen rectangle.
type rect struct {
	X, Y, W, H float64
}

func (r rect) contains(x, y int) bool {
	fx, fy := float64(x), float64(y)
	return fx >= r.X && fx <= r.X+r.W && fy >= r.Y && fy <= r.Y+r.H
}

func cursorIn(r rect) bool {
	return r.contains(ebiten.CursorPosition())
}
