package device

import (
	"sync/atomic"

	"github.com/jypelle/navlink/internal/srv/config"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Button samples the power button. It is wired active low with the internal pull-up,
// debounce is left to the sampling cadence.
type Button struct {
	name       string
	simulation bool
	pin        gpio.PinIO
	simulated  atomic.Bool
}

func NewButton(param config.ButtonParam, simulation bool) *Button {
	return &Button{name: param.Pin, simulation: simulation}
}

func (b *Button) Start() {
	logrus.Infof("Start button device")

	if b.simulation {
		return
	}

	if _, err := host.Init(); err != nil {
		logrus.Fatalf("Unable to initialize host drivers: %v", err)
	}

	b.pin = gpioreg.ByName(b.name)
	if b.pin == nil {
		logrus.Fatalf("Failed to find %s button", b.name)
	}

	// Set it as input, with an internal pull up resistor:
	if err := b.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		logrus.Fatalf("Failed to setup %s button: %v", b.name, err)
	}
}

// Pressed returns the raw sample.
func (b *Button) Pressed() bool {
	if b.simulation || b.pin == nil {
		return b.simulated.Load()
	}
	return !bool(b.pin.Read())
}

// Simulate sets the sample returned in simulation mode.
func (b *Button) Simulate(pressed bool) {
	b.simulated.Store(pressed)
}

func (b *Button) Simulation() bool {
	return b.simulation
}

func (b *Button) Pin() string {
	return b.name
}
