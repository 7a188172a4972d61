package device

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jypelle/navlink/internal/srv/power"
	"github.com/sirupsen/logrus"
)

// Power implements the power subsystem on Linux. The wake marker file records that the
// last run ended in a button-wakeable sleep, the next boot consumes it.
type Power struct {
	markerFilename string
	sleepCommand   []string
	simulation     bool
}

func NewPower(markerFilename string, sleepCommand []string, simulation bool) *Power {
	return &Power{
		markerFilename: markerFilename,
		sleepCommand:   sleepCommand,
		simulation:     simulation,
	}
}

func (p *Power) WakeCause() power.WakeCause {
	if _, err := os.Stat(p.markerFilename); err != nil {
		return power.WakeNone
	}
	if err := os.Remove(p.markerFilename); err != nil {
		logrus.Warnf("Unable to remove wake marker %s: %v", p.markerFilename, err)
	}
	return power.WakeButton
}

// EnterLowPower returns once the system resumes; the caller then ends the run.
func (p *Power) EnterLowPower(wake power.WakeSource) error {
	edge := "rising"
	if wake.FallingEdge {
		edge = "falling"
	}
	marker := fmt.Sprintf("pin=%s edge=%s\n", wake.Pin, edge)
	if err := os.WriteFile(p.markerFilename, []byte(marker), 0660); err != nil {
		return fmt.Errorf("unable to write wake marker: %w", err)
	}

	if p.simulation || len(p.sleepCommand) == 0 {
		logrus.Infof("Low power requested, wake on %s edge of %s", edge, wake.Pin)
		return nil
	}

	logrus.Infof("Run sleep command: %s", strings.Join(p.sleepCommand, " "))
	sleepCmd := exec.Command(p.sleepCommand[0], p.sleepCommand[1:]...)
	if err := sleepCmd.Run(); err != nil {
		return fmt.Errorf("unable to enter low power: %w", err)
	}
	return nil
}
