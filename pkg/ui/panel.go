package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	labelHeight   = 18.0
	widgetGap     = 8.0
	margin        = 10.0
)

type panelEntry struct {
	label  string
	widget Widget
}

type panelSection struct {
	title   string
	entries []panelEntry
}

// Panel lays out labelled widgets in titled sections and scrolls with the
// mouse wheel.
type Panel struct {
	X, Y          float64
	Width, Height float64
	Title         string
	Hidden        bool

	// Styling
	BGColor     color.RGBA
	BorderColor color.RGBA

	sections     []*panelSection
	scrollOffset float64
}

func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Title:       title,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection starts a new section; following widgets are added to it.
func (p *Panel) AddSection(title string) {
	p.sections = append(p.sections, &panelSection{title: title})
}

func (p *Panel) add(label string, w Widget) {
	if len(p.sections) == 0 {
		p.AddSection("")
	}
	s := p.sections[len(p.sections)-1]
	s.entries = append(s.entries, panelEntry{label: label, widget: w})
}

func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+margin, 0, p.Width-2*margin, min, max, value)
	p.add(label, s)
	return s
}

// AddIntSlider adds a slider whose value snaps to integers.
func (p *Panel) AddIntSlider(label string, min, max, value int) *Slider {
	s := NewSlider(p.X+margin, 0, p.Width-2*margin, float64(min), float64(max), float64(value))
	s.Step = 1
	p.add(label, s)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+margin, 0, value)
	p.add(label, c)
	return c
}

func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+margin, 0, p.Width-2*margin, label, onClick)
	p.add("", b)
	return b
}

// Contains reports whether the cursor is over the visible panel.
func (p *Panel) Contains(x, y int) bool {
	return !p.Hidden && rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}.contains(x, y)
}

func (p *Panel) Update() {
	if p.Hidden {
		return
	}
	if _, dy := ebiten.Wheel(); dy != 0 && p.Contains(ebiten.CursorPosition()) {
		p.scrollOffset -= dy * 20
		maxScroll := max(p.contentHeight()-p.Height+40, 0)
		p.scrollOffset = min(max(p.scrollOffset, 0), maxScroll)
	}

	p.layout()
	for _, s := range p.sections {
		for _, e := range s.entries {
			if p.visible(e.widget) {
				e.widget.Update()
			}
		}
	}
}

// layout moves every widget to its scrolled position.
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.scrollOffset
	for _, s := range p.sections {
		y += sectionHeight
		for _, e := range s.entries {
			if e.label != "" {
				y += labelHeight
			}
			e.widget.Move(p.X+margin, y)
			y += e.widget.Height() + widgetGap
		}
	}
}

func (p *Panel) contentHeight() float64 {
	h := titleHeight
	for _, s := range p.sections {
		h += sectionHeight
		for _, e := range s.entries {
			if e.label != "" {
				h += labelHeight
			}
			h += e.widget.Height() + widgetGap
		}
	}
	return h
}

func (p *Panel) visible(w Widget) bool {
	var y float64
	switch w := w.(type) {
	case *Slider:
		y = w.bounds.Y
	case *Checkbox:
		y = w.bounds.Y
	case *Button:
		y = w.bounds.Y
	default:
		return true
	}
	return y >= p.Y+titleHeight && y+w.Height() <= p.Y+p.Height
}

func (p *Panel) Draw(screen *ebiten.Image) {
	if p.Hidden {
		return
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+margin), int(p.Y+5))

	y := p.Y + titleHeight - p.scrollOffset
	top, bottom := p.Y+titleHeight, p.Y+p.Height
	for _, s := range p.sections {
		if s.title != "" && y >= top && y+20 <= bottom {
			vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), 20,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, s.title, int(p.X+margin), int(y+3))
		}
		y += sectionHeight
		for _, e := range s.entries {
			if e.label != "" {
				if y >= top && y+labelHeight <= bottom {
					ebitenutil.DebugPrintAt(screen, e.label, int(p.X+margin), int(y))
				}
				y += labelHeight
			}
			if p.visible(e.widget) {
				e.widget.Draw(screen)
			}
			y += e.widget.Height() + widgetGap
		}
	}
}
