package presenter

import (
	"strings"

	"github.com/jypelle/navlink/internal/srv/status"
)

const Ellipsis = "..."

// Clamp hard cuts s to n runes. n <= 0 leaves s untouched.
func Clamp(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Ellipsize cuts s to n runes, replacing the tail with an ellipsis marker when it does not fit.
func Ellipsize(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= len(Ellipsis) {
		return string(r[:n])
	}
	return string(r[:n-len(Ellipsis)]) + Ellipsis
}

// Wrap word-wraps s into at most maxLines lines of width runes.
// Words longer than width are split; text beyond maxLines is dropped.
func Wrap(s string, width int, maxLines int) []string {
	if width <= 0 {
		return []string{s}
	}
	var lines []string
	var current []rune
	flush := func() {
		lines = append(lines, string(current))
		current = current[:0]
	}
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > 0 {
			if len(current) > 0 {
				if len(current)+1+len(w) <= width {
					current = append(current, ' ')
					current = append(current, w...)
					w = nil
					continue
				}
				flush()
				if len(lines) == maxLines {
					return lines
				}
			}
			n := len(w)
			if n > width {
				n = width
			}
			current = append(current, w[:n]...)
			w = w[n:]
			if len(w) > 0 {
				flush()
				if len(lines) == maxLines {
					return lines
				}
			}
		}
	}
	if len(current) > 0 && len(lines) < maxLines {
		flush()
	}
	return lines
}

// Advance moves a circular scroll offset one character forward.
func Advance(offset int, length int) int {
	if length <= 0 {
		return 0
	}
	return (offset + 1) % length
}

// Window returns width runes of message starting at offset, splicing the head after the tail.
func Window(message string, offset int, width int) string {
	r := []rune(message)
	if width <= 0 || len(r) <= width {
		return message
	}
	offset %= len(r)
	if offset < 0 {
		offset += len(r)
	}
	if offset+width <= len(r) {
		return string(r[offset : offset+width])
	}
	out := make([]rune, 0, width)
	out = append(out, r[offset:]...)
	out = append(out, r[:width-(len(r)-offset)]...)
	return string(out)
}

func (p *Presenter) clampNavigation(nav status.NavigationSnapshot) status.NavigationSnapshot {
	b := p.budget
	nav.Title = Clamp(nav.Title, b.Title)
	nav.Eta = Clamp(nav.Eta, b.Eta)
	nav.Duration = Clamp(nav.Duration, b.Duration)
	nav.Distance = Clamp(nav.Distance, b.Distance)
	nav.Directions = Ellipsize(nav.Directions, b.Directions)
	return nav
}

func (p *Presenter) directionLines(nav *status.NavigationSnapshot) []string {
	b := p.budget
	text := nav.Directions
	if b.SummaryWithDistance {
		text = strings.TrimSpace(nav.Distance + " " + nav.Directions)
	}
	if text == "" {
		return nil
	}
	if b.DirectionLines >= 2 {
		return Wrap(text, b.Directions, b.DirectionLines)
	}
	return []string{Ellipsize(text, b.Directions)}
}
