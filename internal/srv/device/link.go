package device

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/jypelle/navlink/apimodel"
	"github.com/jypelle/navlink/internal/srv/config"
	"github.com/jypelle/navlink/internal/srv/status"
	"github.com/sirupsen/logrus"
)

const outboxSize = 32

var navigationKeys = []string{"active", "title", "eta", "duration", "distance", "directions", "icon"}

// Link is the phone side of the bridge: the rfcomm serial port plus whatever the companion
// app pushes through the api.
type Link struct {
	param    config.LinkParam
	endpoint *SerialEndpoint

	lock         sync.RWMutex
	navigation   *status.NavigationSnapshot
	apiActivity  time.Time
	lastStatusAt time.Time
	wasConnected bool
	outbox       []string
	injected     chan byte
}

func NewLink(param config.LinkParam) *Link {
	link := &Link{
		param:    param,
		injected: make(chan byte, 4096),
	}
	if param.Port != "" {
		link.endpoint = NewSerialEndpoint("link", param.Port, param.BaudRate, 0, param.ReconnectInterval)
	}
	return link
}

func (l *Link) Start() {
	if l.endpoint != nil {
		l.endpoint.Start()
	} else {
		logrus.Infof("Start link device (api only)")
	}
}

func (l *Link) Stop() {
	if l.endpoint != nil {
		l.endpoint.Stop()
	} else {
		logrus.Infof("Stop link device")
	}
}

// Connected is true while the serial link is open or the companion app talked to the api
// within the link timeout.
func (l *Link) Connected(now time.Time) bool {
	if l.endpoint != nil && l.endpoint.Connected() {
		return true
	}
	l.lock.RLock()
	defer l.lock.RUnlock()
	return !l.apiActivity.IsZero() && now.Sub(l.apiActivity) < l.param.Timeout
}

// Touch records api activity.
func (l *Link) Touch(now time.Time) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.apiActivity = now
}

// Navigation returns a copy of the latest snapshot, nil if none.
func (l *Link) Navigation() *status.NavigationSnapshot {
	l.lock.RLock()
	defer l.lock.RUnlock()
	if l.navigation == nil {
		return nil
	}
	nav := *l.navigation
	return &nav
}

func (l *Link) SetNavigation(nav *status.NavigationSnapshot) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.navigation = nav
}

// ObserveLine picks navigation facts out of a line received from the phone and reports
// whether the line was one.
func (l *Link) ObserveLine(line string) bool {
	nav, ok := ParseNavigationLine(line)
	if ok {
		logrus.Debugf("Navigation update: %+v", *nav)
		l.SetNavigation(nav)
	}
	return ok
}

// Service sends the periodic status announcement while connected.
func (l *Link) Service(now time.Time) {
	connected := l.Connected(now)

	l.lock.Lock()
	if connected != l.wasConnected {
		l.wasConnected = connected
		if connected {
			logrus.Infof("Phone connected")
			// announce right away
			l.lastStatusAt = time.Time{}
		} else {
			logrus.Infof("Phone disconnected")
		}
	}
	due := connected && l.param.StatusInterval > 0 && l.param.StatusMessage != "" &&
		(l.lastStatusAt.IsZero() || now.Sub(l.lastStatusAt) >= l.param.StatusInterval)
	if due {
		l.lastStatusAt = now
	}
	l.lock.Unlock()

	if due {
		if err := l.WriteLine(l.param.StatusMessage); err != nil {
			logrus.Warnf("Unable to send status to phone: %v", err)
		} else {
			logrus.Debugf("Status sent to phone")
		}
	}
}

// Inject queues a line as if the phone had sent it.
func (l *Link) Inject(line string) error {
	data := []byte(line + "\n")
	if len(data) > cap(l.injected)-len(l.injected) {
		return ErrLinkBusy
	}
	for _, c := range data {
		l.injected <- c
	}
	return nil
}

// Drain hands every pending received byte to fn.
func (l *Link) Drain(fn func(byte)) {
	if l.endpoint != nil {
		l.endpoint.Drain(fn)
	}
	for {
		select {
		case c := <-l.injected:
			fn(c)
		default:
			return
		}
	}
}

// WriteLine sends line to the phone. Without an open serial link it is kept in the outbox
// for the companion app to fetch.
func (l *Link) WriteLine(line string) error {
	if l.endpoint != nil && l.endpoint.Connected() {
		return l.endpoint.WriteLine(line)
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.apiActivity.IsZero() {
		return ErrNotConnected
	}
	if len(l.outbox) == outboxSize {
		l.outbox = l.outbox[1:]
	}
	l.outbox = append(l.outbox, line)
	return nil
}

// TakeOutbox returns and clears the lines waiting for the companion app.
func (l *Link) TakeOutbox() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	lines := l.outbox
	l.outbox = nil
	return lines
}

// ParseNavigationLine decodes a JSON object carrying at least one navigation key.
func ParseNavigationLine(line string) (*status.NavigationSnapshot, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return nil, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, false
	}
	found := false
	for _, key := range navigationKeys {
		if _, ok := raw[key]; ok {
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}
	var nav apimodel.Navigation
	if err := json.Unmarshal([]byte(line), &nav); err != nil {
		return nil, false
	}
	return NavigationSnapshot(nav), true
}

func NavigationSnapshot(nav apimodel.Navigation) *status.NavigationSnapshot {
	return &status.NavigationSnapshot{
		Active:     nav.Active,
		Title:      nav.Title,
		Eta:        nav.Eta,
		Duration:   nav.Duration,
		Distance:   nav.Distance,
		Directions: nav.Directions,
		IconId:     nav.Icon,
	}
}
