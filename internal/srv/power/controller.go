package power

import (
	"time"

	"github.com/sirupsen/logrus"
)

type WakeCause int

const (
	WakeNone WakeCause = iota
	WakeButton
)

func (w WakeCause) String() string {
	if w == WakeButton {
		return "button"
	}
	return "none"
}

// WakeSource tells the low power subsystem which button edge ends the sleep.
type WakeSource struct {
	Pin         string
	FallingEdge bool
}

// Subsystem is the power/reset collaborator.
type Subsystem interface {
	WakeCause() WakeCause
	// EnterLowPower does not return on real hardware.
	EnterLowPower(wake WakeSource) error
}

type Checkpointer interface {
	Save(now time.Time) error
}

// Announcer shows the sleep message before the device goes down.
type Announcer interface {
	ShowSleep()
}

type Controller struct {
	subsystem  Subsystem
	checkpoint Checkpointer
	announcer  Announcer
	wake       WakeSource
	bootGuard  bool
}

func NewController(subsystem Subsystem, checkpoint Checkpointer, announcer Announcer, wake WakeSource, bootGuard bool) *Controller {
	return &Controller{
		subsystem:  subsystem,
		checkpoint: checkpoint,
		announcer:  announcer,
		wake:       wake,
		bootGuard:  bootGuard,
	}
}

// Boot returns the initial power state. Without a recorded button wake and without the
// button held at power-up, the device goes straight back to sleep.
func (c *Controller) Boot(now time.Time, held bool) State {
	cause := c.subsystem.WakeCause()
	logrus.Infof("Wake cause: %s, button held: %v", cause, held)
	if c.bootGuard && cause == WakeNone && !held {
		logrus.Infof("Not started by the button, going back to sleep")
		return c.Sleep(now)
	}
	return Active
}

// Sleep saves the clock, shows the sleep message and enters low power.
func (c *Controller) Sleep(now time.Time) State {
	logrus.Infof("Entering sleep")
	if c.checkpoint != nil {
		if err := c.checkpoint.Save(now); err != nil {
			logrus.Warnf("Unable to save clock checkpoint before sleep: %v", err)
		}
	}
	if c.announcer != nil {
		c.announcer.ShowSleep()
	}
	if err := c.subsystem.EnterLowPower(c.wake); err != nil {
		logrus.Errorf("Unable to enter low power: %v", err)
	}
	return Asleep
}
