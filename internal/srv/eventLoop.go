package srv

import (
	"fmt"
	"time"

	"github.com/jypelle/navlink/apimodel"
	"github.com/jypelle/navlink/internal/srv/device"
	"github.com/jypelle/navlink/internal/srv/event"
	"github.com/jypelle/navlink/internal/srv/power"
	"github.com/jypelle/navlink/internal/srv/presenter"
	"github.com/jypelle/navlink/internal/version"
	"github.com/sirupsen/logrus"
)

func (s *ServerApp) eventLoop() {
	ticker := time.NewTicker(s.Loop.Tick)
	defer ticker.Stop()

	var apiEvents chan event.ApiEvent
	if s.apiDevice != nil {
		apiEvents = s.apiDevice.EventChannel()
	}

	for loop := true; loop; {
		select {
		case <-s.eventLoopAskDone:
			loop = false
		case now := <-ticker.C:
			if s.loop.Tick(now) == power.Asleep {
				logrus.Infof("Device asleep, leaving event loop")
				s.asleep <- true
				loop = false
			}
		case ev := <-apiEvents:
			s.handleApiEvent(ev, time.Now())
		}
	}
	s.eventLoopDone <- true
}

func (s *ServerApp) handleApiEvent(ev event.ApiEvent, now time.Time) {
	var res event.ApiResult
	switch data := ev.Data.(type) {
	case event.ApiEventStatusData:
		res.Value = s.status(now)
	case event.ApiEventNavigationData:
		s.linkDevice.SetNavigation(device.NavigationSnapshot(data.Navigation))
	case event.ApiEventNavigationClearData:
		s.linkDevice.SetNavigation(nil)
	case event.ApiEventLinkLineData:
		res.Err = s.linkDevice.Inject(data.Line)
	case event.ApiEventLinkOutboxData:
		lines := s.linkDevice.TakeOutbox()
		if lines == nil {
			lines = []string{}
		}
		res.Value = lines
	case event.ApiEventButtonData:
		if !s.buttonDevice.Simulation() {
			res.Err = device.ErrForbidden
		} else {
			logrus.Debugf("Simulated button pressed: %v", data.Pressed)
			s.buttonDevice.Simulate(data.Pressed)
		}
	default:
		res.Err = fmt.Errorf("unknown api event %T", data)
	}
	ev.Result <- res
}

func (s *ServerApp) status(now time.Time) apimodel.Status {
	frame, facts := s.loop.LastFrame()
	return apimodel.Status{
		Power:              s.loop.PowerState.String(),
		LinkConnected:      facts.LinkConnected,
		SecondaryConnected: facts.SecondaryConnected,
		Navigating:         frame.Navigating(),
		ClockText:          presenter.ClockText(now),
		Display:            s.backend.Variant().Kind.String(),
		Version:            version.AppVersion.String(),
	}
}
