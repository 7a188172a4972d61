package images

import (
	"bytes"
	_ "embed"
	"image"
	_ "image/png"

	"github.com/sirupsen/logrus"
)

const (
	NumberWidth  = 24
	NumberHeight = 36
	// Glyph indexes after the ten digits
	NumberColon = 10
	NumberDash  = 11

	NavigationIconSize = 32
)

// Navigation icon ids, as sent by the companion app.
const (
	IconUnknown = iota
	IconStraight
	IconLeft
	IconRight
	IconSlightLeft
	IconSlightRight
	IconUTurn
	IconArrive
	iconCount
)

//go:embed numbers.png
var NumbersImgFile []byte

var NumbersImage image.Image

//go:embed link.png
var LinkImgFile []byte

var LinkImage image.Image

//go:embed wifi.png
var WifiImgFile []byte

var WifiImage image.Image

//go:embed navigation.png
var NavigationImgFile []byte

var NavigationImage image.Image

func init() {
	NumbersImage = mustDecode("numbers", NumbersImgFile)
	LinkImage = mustDecode("link", LinkImgFile)
	WifiImage = mustDecode("wifi", WifiImgFile)
	NavigationImage = mustDecode("navigation", NavigationImgFile)
}

func mustDecode(name string, raw []byte) image.Image {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		logrus.Panicf("Can't load %s image: %v", name, err)
	}
	return img
}

// NavigationIcon returns the sprite sheet rectangle of an icon id. Unknown ids map to the frame icon.
func NavigationIcon(iconId int) image.Rectangle {
	if iconId < 0 || iconId >= iconCount {
		iconId = IconUnknown
	}
	origin := NavigationImage.Bounds().Min.Add(image.Pt(iconId*NavigationIconSize, 0))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(NavigationIconSize, NavigationIconSize))}
}
