//go:build !amd64

package device

import "github.com/sirupsen/logrus"

// Boards have no desktop to open a window on; simulated frames are only kept in memory.
type simulationWindow struct{}

func (d *Display) startSimulation() {
	logrus.Infof("No simulation window on this architecture")
}

func (d *Display) invalidateSimulationWindow() {
}

func (d *Display) closeSimulationWindow() {
}
