// Package status holds the render model shared by the presenter and the display backends.
package status

// NavigationSnapshot is one polled fact-set describing an in-progress route.
// Any field may be empty; snapshots are neither monotonic nor complete.
type NavigationSnapshot struct {
	Active     bool
	Title      string
	Eta        string
	Duration   string
	Distance   string
	Directions string
	IconId     int
}

// Valid reports whether the snapshot carries a navigation fact worth showing.
func (n *NavigationSnapshot) Valid() bool {
	if n == nil {
		return false
	}
	return n.Active || n.Distance != "" || n.Directions != "" || n.Title != ""
}

// StatusFrame is the immutable snapshot rendered once per display refresh.
type StatusFrame struct {
	// ClockText is empty when the wall clock is not trustworthy yet.
	ClockText          string
	LinkConnected      bool
	SecondaryConnected bool

	// Navigation is nil on the idle view. Its text fields are already clamped.
	Navigation *NavigationSnapshot
	// DirectionLines is the laid out directions text (one truncated line or a two line wrap).
	DirectionLines []string

	// FreeText is the visible window of the current message.
	FreeText string

	// Banner replaces every other region when set (sleep message).
	Banner string
}

// Navigating reports whether the frame shows the navigation view.
func (f StatusFrame) Navigating() bool {
	return f.Navigation != nil
}

// Budget lists the character budgets of a display layout. A zero budget means unbounded.
type Budget struct {
	TextWidth      int
	Title          int
	Eta            int
	Duration       int
	Distance       int
	Directions     int
	DirectionLines int

	// SummaryWithDistance prefixes the directions with the distance on a single summary line.
	SummaryWithDistance bool
}
