package srv

import (
	"time"

	"github.com/jypelle/navlink/internal/srv/bridge"
	"github.com/jypelle/navlink/internal/srv/checkpoint"
	"github.com/jypelle/navlink/internal/srv/display"
	"github.com/jypelle/navlink/internal/srv/power"
	"github.com/jypelle/navlink/internal/srv/presenter"
	"github.com/jypelle/navlink/internal/srv/status"
	"github.com/sirupsen/logrus"
)

type ButtonSampler interface {
	Pressed() bool
}

// LineEndpoint is a byte source that accepts outgoing lines.
type LineEndpoint interface {
	Drain(fn func(byte))
	WriteLine(line string) error
}

type LinkLayer interface {
	LineEndpoint
	Connected(now time.Time) bool
	Navigation() *status.NavigationSnapshot
	Service(now time.Time)
	// ObserveLine reports whether the line carried navigation facts.
	ObserveLine(line string) bool
}

type Secondary interface {
	Connected(now time.Time) bool
}

type LoopDevices struct {
	Button  ButtonSampler
	Console LineEndpoint
	Link    LinkLayer
	Network Secondary
	Power   power.Subsystem
	Backend display.Backend
	Storage checkpoint.Storage
}

type LoopConfig struct {
	Classifier         power.Classifier
	Wake               power.WakeSource
	BootGuard          bool
	Presenter          presenter.Config
	Bridge             bridge.Config
	RefreshInterval    time.Duration
	CheckpointInterval time.Duration
	EchoPrefix         string
	PeerPrefix         string
	SleepMessage       string
}

// Loop owns every core component and the state they share. Tick runs one cooperative
// iteration; nothing in it blocks.
type Loop struct {
	config  LoopConfig
	devices LoopDevices

	controller *power.Controller
	presenter  *presenter.Presenter
	checkpoint *checkpoint.Store
	bridge     *bridge.Bridge

	PowerState   power.State
	ButtonState  power.ButtonState
	Presentation presenter.PresentationState

	now              time.Time
	lastRenderAt     time.Time
	lastCheckpointAt time.Time
	lastFacts        presenter.Facts
	lastFrame        status.StatusFrame
}

func NewLoop(config LoopConfig, devices LoopDevices) *Loop {
	l := &Loop{
		config:     config,
		devices:    devices,
		presenter:  presenter.New(config.Presenter, devices.Backend.Budget()),
		checkpoint: checkpoint.New(devices.Storage),
	}
	l.controller = power.NewController(devices.Power, l.checkpoint, l, config.Wake, config.BootGuard)
	l.bridge = bridge.New(config.Bridge, prefixedSink{devices.Console, config.PeerPrefix}, devices.Link, l)
	return l
}

func (l *Loop) Checkpoint() *checkpoint.Store {
	return l.checkpoint
}

// Boot decides the initial power state. A button already held at power-up is not a press.
func (l *Loop) Boot(now time.Time) power.State {
	held := l.devices.Button.Pressed()
	l.ButtonState = power.ButtonState{LastPressed: held}
	l.lastCheckpointAt = now
	l.PowerState = l.controller.Boot(now, held)
	return l.PowerState
}

// Tick runs the five ordered steps: button, link, display, checkpoint, bridge.
func (l *Loop) Tick(now time.Time) power.State {
	if l.PowerState == power.Asleep {
		return l.PowerState
	}
	l.now = now

	// 1. power button
	action := l.config.Classifier.Sample(&l.ButtonState, now, l.devices.Button.Pressed())
	if action == power.Sleep {
		l.PowerState = l.controller.Sleep(now)
		return l.PowerState
	}

	// 2. link layer
	l.devices.Link.Service(now)

	// 3. presentation and display
	l.refreshDisplay(now)

	// 4. clock checkpoint
	if now.Sub(l.lastCheckpointAt) >= l.config.CheckpointInterval {
		l.lastCheckpointAt = now
		if err := l.checkpoint.Save(now); err != nil {
			logrus.Warnf("Unable to save clock checkpoint: %v", err)
		}
	}

	// 5. bridge
	l.devices.Console.Drain(func(c byte) { l.bridge.Feed(bridge.Local, c) })
	l.devices.Link.Drain(func(c byte) { l.bridge.Feed(bridge.Remote, c) })

	return l.PowerState
}

// ObserveLine is called by the bridge after each relayed line.
func (l *Loop) ObserveLine(from bridge.Endpoint, line string) {
	switch from {
	case bridge.Local:
		logrus.Debugf("Console -> phone: %s", line)
		if err := l.devices.Console.WriteLine(l.config.EchoPrefix + line); err != nil {
			logrus.Warnf("Unable to echo on console: %v", err)
		}
	case bridge.Remote:
		logrus.Debugf("Phone -> console: %s", line)
		if !l.devices.Link.ObserveLine(line) {
			l.presenter.ShowMessage(&l.Presentation, l.now, line)
		}
	}
}

// ShowSleep renders the sleep banner right away.
func (l *Loop) ShowSleep() {
	l.devices.Backend.Render(status.StatusFrame{Banner: l.config.SleepMessage})
}

// LastFrame is the frame rendered last, with the facts it was built from.
func (l *Loop) LastFrame() (status.StatusFrame, presenter.Facts) {
	return l.lastFrame, l.lastFacts
}

// prefixedSink writes lines to an endpoint behind a fixed prefix.
type prefixedSink struct {
	endpoint LineEndpoint
	prefix   string
}

func (s prefixedSink) WriteLine(line string) error {
	return s.endpoint.WriteLine(s.prefix + line)
}
