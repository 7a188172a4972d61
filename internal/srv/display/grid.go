package display

import (
	"strings"

	"github.com/jypelle/navlink/internal/srv/presenter"
	"github.com/jypelle/navlink/internal/srv/status"
	"github.com/sirupsen/logrus"
)

const (
	clockPlaceholder = "--:--"
	readyPlaceholder = "Ready"
)

// CharacterGrid lays a frame out on fixed width text rows: clock and flags on row 0,
// navigation summary or free text on row 1.
type CharacterGrid struct {
	variant Variant
	driver  GridDriver
}

func newCharacterGrid(variant Variant, driver GridDriver) *CharacterGrid {
	return &CharacterGrid{variant: variant, driver: driver}
}

func (g *CharacterGrid) Variant() Variant {
	return g.variant
}

func (g *CharacterGrid) Budget() status.Budget {
	cols := g.variant.Cols
	return status.Budget{
		TextWidth:           cols,
		Title:               cols,
		Eta:                 5,
		Duration:            8,
		Distance:            8,
		Directions:          cols,
		DirectionLines:      1,
		SummaryWithDistance: true,
	}
}

func (g *CharacterGrid) Render(frame status.StatusFrame) {
	for row, text := range g.Rows(frame) {
		g.driver.WriteText(row, 0, text)
	}
	if err := g.driver.Flush(); err != nil {
		logrus.Warnf("Unable to refresh character display: %v", err)
	}
}

// Rows returns every row padded to the grid width.
func (g *CharacterGrid) Rows(frame status.StatusFrame) []string {
	cols := g.variant.Cols
	rows := make([]string, g.variant.Rows)

	if frame.Banner != "" {
		rows[0] = center(frame.Banner, cols)
	} else {
		clock := frame.ClockText
		if clock == "" {
			clock = clockPlaceholder
		}
		flags := flag(frame.LinkConnected, 'B') + flag(frame.SecondaryConnected, 'W')
		rows[0] = pad(presenter.Clamp(clock, cols-len(flags)), cols-len(flags)) + flags

		if len(rows) > 1 {
			switch {
			case frame.Navigating():
				if len(frame.DirectionLines) > 0 {
					rows[1] = frame.DirectionLines[0]
				} else {
					rows[1] = frame.Navigation.Title
				}
			case frame.FreeText != "":
				rows[1] = frame.FreeText
			default:
				rows[1] = readyPlaceholder
			}
		}
	}

	for i := range rows {
		rows[i] = pad(presenter.Clamp(rows[i], cols), cols)
	}
	return rows
}

func flag(on bool, c rune) string {
	if on {
		return string(c)
	}
	return "-"
}

func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func center(s string, width int) string {
	s = presenter.Clamp(s, width)
	left := (width - len([]rune(s))) / 2
	if left <= 0 {
		return s
	}
	return strings.Repeat(" ", left) + s
}
