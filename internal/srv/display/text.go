package display

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v2"
	"github.com/jypelle/navlink/internal/images"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	white        = color.RGBA{255, 255, 255, 255}
	black        = color.RGBA{0, 0, 0, 255}
	uniformImage = image.NewUniform(white)

	smallFace font.Face = bitmapfont.Face
	largeFace font.Face = basicfont.Face7x13
)

// AddLabel draws label with its baseline at y.
func AddLabel(img draw.Image, face font.Face, x, y int, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  uniformImage,
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

// AddRightLabel draws label so that it ends at x.
func AddRightLabel(img draw.Image, face font.Face, x, y int, label string) {
	AddLabel(img, face, x-font.MeasureString(face, label).Ceil(), y, label)
}

func AddCenteredLabel(img draw.Image, face font.Face, y int, label string) {
	width := img.Bounds().Dx()
	AddLabel(img, face, (width-font.MeasureString(face, label).Ceil())/2, y, label)
}

// AddNumber blits one glyph of the big digit sprite sheet.
func AddNumber(img draw.Image, position image.Point, glyph int) {
	draw.Draw(
		img,
		image.Rect(0, 0, images.NumberWidth, images.NumberHeight).Add(position),
		images.NumbersImage,
		images.NumbersImage.Bounds().Min.Add(image.Pt(images.NumberWidth*glyph, 0)),
		draw.Src)
}

// AddClock draws "HH:MM" with the big digits, or dashes when text is not a clock.
func AddClock(img draw.Image, position image.Point, text string) {
	glyphs := []int{images.NumberDash, images.NumberDash, images.NumberColon, images.NumberDash, images.NumberDash}
	if len(text) == 5 && text[2] == ':' {
		for i, c := range []byte(text) {
			if c >= '0' && c <= '9' {
				glyphs[i] = int(c - '0')
			}
		}
	}
	for i, glyph := range glyphs {
		AddNumber(img, position.Add(image.Pt(i*images.NumberWidth, 0)), glyph)
	}
}

func AddIcon(img draw.Image, position image.Point, icon image.Image) {
	draw.Draw(img, icon.Bounds().Sub(icon.Bounds().Min).Add(position), icon, icon.Bounds().Min, draw.Src)
}

func AddNavigationIcon(img draw.Image, position image.Point, iconId int) {
	src := images.NavigationIcon(iconId)
	draw.Draw(img, image.Rect(0, 0, src.Dx(), src.Dy()).Add(position), images.NavigationImage, src.Min, draw.Src)
}
