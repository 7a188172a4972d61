package srv

import (
	"time"

	"github.com/jypelle/navlink/internal/srv/presenter"
)

// refreshDisplay feeds the latest facts to the presenter every tick and renders a frame
// once the refresh cadence has elapsed.
func (l *Loop) refreshDisplay(now time.Time) {
	facts := presenter.Facts{
		LinkConnected:      l.devices.Link.Connected(now),
		SecondaryConnected: l.devices.Network.Connected(now),
		Navigation:         l.devices.Link.Navigation(),
	}
	l.presenter.Update(&l.Presentation, now, facts)
	l.lastFacts = facts

	if !l.lastRenderAt.IsZero() && now.Sub(l.lastRenderAt) < l.config.RefreshInterval {
		return
	}
	l.lastRenderAt = now
	l.lastFrame = l.presenter.Frame(&l.Presentation, now, facts)
	l.devices.Backend.Render(l.lastFrame)
}
