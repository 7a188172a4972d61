package display

import (
	"image"

	"github.com/jypelle/navlink/internal/images"
	"github.com/jypelle/navlink/internal/srv/presenter"
	"github.com/jypelle/navlink/internal/srv/status"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const (
	idleText        = "No navigation"
	smallCharWidth  = 6
	referenceWidth  = 128
	lineHeight      = 10
	iconMargin      = 2
	connectivityGap = 2
)

// PixelPanel lays a frame out on a monochrome graphics panel.
//
// Navigation view: ETA top-left, next-turn title top-right, duration and distance stacked
// mid-right, turn icon on the left and directions on the bottom line(s).
// Idle view: big clock, connectivity icons and a short status line.
type PixelPanel struct {
	variant Variant
	driver  PixelDriver
	opts    Options
}

func newPixelPanel(variant Variant, driver PixelDriver, opts Options) *PixelPanel {
	return &PixelPanel{variant: variant, driver: driver, opts: opts}
}

func (p *PixelPanel) Variant() Variant {
	return p.variant
}

func (p *PixelPanel) Budget() status.Budget {
	scale := p.variant.Width / referenceWidth
	if scale < 1 {
		scale = 1
	}
	lines := 1
	if p.opts.WrapDirections {
		lines = 2
	}
	return status.Budget{
		TextWidth:      p.variant.Width / smallCharWidth,
		Title:          7 * scale,
		Eta:            8 * scale,
		Duration:       8 * scale,
		Distance:       8 * scale,
		Directions:     p.variant.Width / smallCharWidth,
		DirectionLines: lines,
	}
}

func (p *PixelPanel) Render(frame status.StatusFrame) {
	if err := p.driver.Flush(p.Draw(frame)); err != nil {
		logrus.Warnf("Unable to refresh pixel display: %v", err)
	}
}

// Draw builds the panel image for a frame.
func (p *PixelPanel) Draw(frame status.StatusFrame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.variant.Width, p.variant.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{black}, image.Point{}, draw.Src)

	switch {
	case frame.Banner != "":
		AddCenteredLabel(img, largeFace, p.variant.Height*5/8, presenter.Clamp(frame.Banner, p.variant.Width/7))
	case frame.Navigating():
		p.drawNavigation(img, frame)
	default:
		p.drawIdle(img, frame)
	}
	return img
}

func (p *PixelPanel) drawNavigation(img *image.RGBA, frame status.StatusFrame) {
	b := p.Budget()
	nav := frame.Navigation
	w, h := p.variant.Width, p.variant.Height
	mid := w * 70 / referenceWidth

	AddLabel(img, smallFace, 0, 9, presenter.Clamp(nav.Eta, b.Eta))
	AddRightLabel(img, largeFace, w-1, 11, presenter.Clamp(nav.Title, b.Title))
	AddLabel(img, smallFace, mid, 28, presenter.Clamp(nav.Duration, b.Duration))
	AddLabel(img, smallFace, mid, 40, presenter.Clamp(nav.Distance, b.Distance))
	AddNavigationIcon(img, image.Pt(iconMargin, 11), nav.IconId)

	lines := frame.DirectionLines
	if len(lines) > b.DirectionLines {
		lines = lines[:b.DirectionLines]
	}
	baseline := h - 2 - (len(lines)-1)*lineHeight
	for _, line := range lines {
		AddLabel(img, smallFace, 0, baseline, presenter.Clamp(line, b.Directions))
		baseline += lineHeight
	}
}

func (p *PixelPanel) drawIdle(img *image.RGBA, frame status.StatusFrame) {
	b := p.Budget()
	w, h := p.variant.Width, p.variant.Height

	AddClock(img, image.Pt((w-5*images.NumberWidth)/2, 12), frame.ClockText)

	x := w
	for _, icon := range []struct {
		on  bool
		img image.Image
	}{
		{frame.SecondaryConnected, images.WifiImage},
		{frame.LinkConnected, images.LinkImage},
	} {
		x -= icon.img.Bounds().Dx()
		if icon.on {
			AddIcon(img, image.Pt(x, 0), icon.img)
		}
		x -= connectivityGap
	}

	text := frame.FreeText
	if text == "" {
		text = idleText
	}
	AddCenteredLabel(img, smallFace, h-2, presenter.Clamp(text, b.TextWidth))
}
