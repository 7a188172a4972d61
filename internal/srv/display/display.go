// Package display renders StatusFrames onto the display unit detected at start-up.
package display

import (
	"fmt"
	"image"

	"github.com/jypelle/navlink/internal/srv/status"
)

type Kind int

const (
	KindNone Kind = iota
	KindCharacterGrid
	KindPixelPanel
)

func (k Kind) String() string {
	switch k {
	case KindCharacterGrid:
		return "grid"
	case KindPixelPanel:
		return "pixel"
	default:
		return "none"
	}
}

// Variant is the outcome of the one-time hardware probe.
type Variant struct {
	Kind   Kind
	Rows   int
	Cols   int
	Width  int
	Height int
}

func (v Variant) String() string {
	switch v.Kind {
	case KindCharacterGrid:
		return fmt.Sprintf("character grid %dx%d", v.Cols, v.Rows)
	case KindPixelPanel:
		return fmt.Sprintf("pixel panel %dx%d", v.Width, v.Height)
	default:
		return "no display"
	}
}

// Detector probes the hardware once at start-up.
type Detector interface {
	Detect() Variant
}

// GridDriver paints text cells on a character display.
type GridDriver interface {
	WriteText(row int, col int, text string)
	Flush() error
}

// PixelDriver paints a full frame image on a graphics display.
type PixelDriver interface {
	Flush(img image.Image) error
}

// Backend renders frames for one display variant. Render never fails; paint errors are logged.
type Backend interface {
	Variant() Variant
	Budget() status.Budget
	Render(frame status.StatusFrame)
}

type Options struct {
	// WrapDirections lays the directions out on two lines instead of truncating them.
	WrapDirections bool
}

// New resolves the backend for a detected variant. Missing drivers degrade to None.
func New(variant Variant, grid GridDriver, pixel PixelDriver, opts Options) Backend {
	switch variant.Kind {
	case KindCharacterGrid:
		if grid != nil && variant.Rows > 0 && variant.Cols > 0 {
			return newCharacterGrid(variant, grid)
		}
	case KindPixelPanel:
		if pixel != nil && variant.Width > 0 && variant.Height > 0 {
			return newPixelPanel(variant, pixel, opts)
		}
	}
	return None{}
}

// None silently drops every frame.
type None struct{}

func (None) Variant() Variant { return Variant{Kind: KindNone} }

func (None) Budget() status.Budget { return status.Budget{} }

func (None) Render(frame status.StatusFrame) {}
