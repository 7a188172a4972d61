package device

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Clock applies a restored checkpoint to the system clock.
type Clock struct {
	enabled    bool
	simulation bool
	set        func(epoch uint64) error
}

func NewClock(enabled bool, simulation bool) *Clock {
	return &Clock{
		enabled:    enabled,
		simulation: simulation,
		set:        setSystemClock,
	}
}

// Restore moves the clock forward to the checkpoint. A clock already past it is kept.
func (c *Clock) Restore(now time.Time, epoch uint64, ok bool) bool {
	if !ok {
		logrus.Infof("No clock checkpoint, keeping current clock")
		return false
	}
	restored := time.Unix(int64(epoch), 0)
	if !now.Before(restored) {
		logrus.Debugf("Clock %s already past checkpoint %s", now.Format(time.RFC3339), restored.Format(time.RFC3339))
		return false
	}
	if !c.enabled || c.simulation {
		logrus.Infof("Clock checkpoint %s not applied", restored.Format(time.RFC3339))
		return false
	}
	if err := c.set(epoch); err != nil {
		logrus.Warnf("Unable to restore clock: %v", err)
		return false
	}
	logrus.Infof("Clock restored to %s", restored.Format(time.RFC3339))
	return true
}
