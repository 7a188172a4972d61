// Package presenter turns raw connectivity and navigation facts into StatusFrames.
//
// Two rules drive it. Long free text messages scroll circularly for a bounded window of
// time, and the navigation view is held for a grace period after the last valid fact so
// that short data gaps (rerouting, signal loss) do not flash the idle screen.
package presenter

import (
	"time"

	"github.com/jypelle/navlink/internal/srv/checkpoint"
	"github.com/jypelle/navlink/internal/srv/status"
	"github.com/sirupsen/logrus"
)

const (
	DefaultNavHold      = 10 * time.Second
	DefaultScrollStep   = 300 * time.Millisecond
	DefaultScrollWindow = 8 * time.Second
)

type Config struct {
	NavHold      time.Duration
	ScrollStep   time.Duration
	ScrollWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.NavHold <= 0 {
		c.NavHold = DefaultNavHold
	}
	if c.ScrollStep <= 0 {
		c.ScrollStep = DefaultScrollStep
	}
	if c.ScrollWindow <= 0 {
		c.ScrollWindow = DefaultScrollWindow
	}
	return c
}

// Facts are the raw inputs polled from the link layer every tick.
type Facts struct {
	LinkConnected      bool
	SecondaryConnected bool
	Navigation         *status.NavigationSnapshot
}

type ScrollMode int

const (
	ScrollIdle ScrollMode = iota
	Scrolling
)

// PresentationState is owned by the caller and mutated only by the Presenter.
type PresentationState struct {
	LastValidNavAt time.Time
	WasNavigating  bool
	LastNav        *status.NavigationSnapshot
	ShowNavigation bool

	Message           string
	ScrollMode        ScrollMode
	ScrollOffset      int
	ScrollWindowStart time.Time
	ScrollSteppedAt   time.Time
}

type Presenter struct {
	config Config
	budget status.Budget
}

func New(config Config, budget status.Budget) *Presenter {
	return &Presenter{config: config.withDefaults(), budget: budget}
}

func (p *Presenter) Budget() status.Budget {
	return p.budget
}

// ShowMessage replaces the free text message and restarts its scroll window.
func (p *Presenter) ShowMessage(st *PresentationState, now time.Time, text string) {
	st.Message = text
	st.ScrollOffset = 0
	st.ScrollWindowStart = now
	st.ScrollSteppedAt = now
	st.ScrollMode = ScrollIdle
	if p.budget.TextWidth > 0 && len([]rune(text)) > p.budget.TextWidth {
		st.ScrollMode = Scrolling
	}
}

// Update applies one tick of facts: navigation hysteresis and scroll advance.
func (p *Presenter) Update(st *PresentationState, now time.Time, facts Facts) {
	p.updateNavigation(st, now, facts)
	p.updateScroll(st, now)
}

func (p *Presenter) updateNavigation(st *PresentationState, now time.Time, facts Facts) {
	valid := facts.Navigation.Valid()
	if valid {
		nav := *facts.Navigation
		st.LastNav = &nav
		st.LastValidNavAt = now
		st.WasNavigating = true
	}

	inHold := st.WasNavigating && now.Sub(st.LastValidNavAt) < p.config.NavHold
	show := facts.LinkConnected && (valid || inHold)

	if !show && st.WasNavigating && now.Sub(st.LastValidNavAt) >= p.config.NavHold {
		st.WasNavigating = false
		st.LastNav = nil
	}
	if show != st.ShowNavigation {
		logrus.Debugf("Navigation view: %v", show)
	}
	st.ShowNavigation = show
}

func (p *Presenter) updateScroll(st *PresentationState, now time.Time) {
	if st.ScrollMode != Scrolling {
		return
	}
	if now.Sub(st.ScrollWindowStart) >= p.config.ScrollWindow {
		st.ScrollMode = ScrollIdle
		st.ScrollOffset = 0
		return
	}
	if now.Sub(st.ScrollSteppedAt) >= p.config.ScrollStep {
		st.ScrollOffset = Advance(st.ScrollOffset, len([]rune(st.Message)))
		st.ScrollSteppedAt = now
	}
}

// Frame builds the frame to render from the current state. It does not mutate st.
func (p *Presenter) Frame(st *PresentationState, now time.Time, facts Facts) status.StatusFrame {
	frame := status.StatusFrame{
		ClockText:          ClockText(now),
		LinkConnected:      facts.LinkConnected,
		SecondaryConnected: facts.SecondaryConnected,
	}

	if st.ShowNavigation && st.LastNav != nil {
		nav := p.clampNavigation(*st.LastNav)
		frame.Navigation = &nav
		frame.DirectionLines = p.directionLines(st.LastNav)
	}

	if st.Message != "" {
		if st.ScrollMode == Scrolling {
			frame.FreeText = Window(st.Message, st.ScrollOffset, p.budget.TextWidth)
		} else {
			frame.FreeText = Clamp(st.Message, p.budget.TextWidth)
		}
	}
	return frame
}

// ClockText formats the wall clock, or returns "" when the clock was never set.
func ClockText(now time.Time) string {
	if now.Unix() < int64(checkpoint.MinPlausibleEpoch) {
		return ""
	}
	return now.Format("15:04")
}
