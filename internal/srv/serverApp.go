package srv

import (
	"os"
	"os/exec"
	"time"

	"github.com/jypelle/navlink/internal/srv/bridge"
	"github.com/jypelle/navlink/internal/srv/checkpoint"
	"github.com/jypelle/navlink/internal/srv/config"
	"github.com/jypelle/navlink/internal/srv/device"
	"github.com/jypelle/navlink/internal/srv/display"
	"github.com/jypelle/navlink/internal/srv/power"
	"github.com/jypelle/navlink/internal/srv/presenter"
	"github.com/jypelle/navlink/internal/version"
	"github.com/sirupsen/logrus"
)

type ServerApp struct {
	*config.ServerConfig
	displayDevice *device.Display
	buttonDevice  *device.Button
	consoleDevice *device.SerialEndpoint
	linkDevice    *device.Link
	networkDevice *device.Network
	powerDevice   *device.Power
	clockDevice   *device.Clock
	apiDevice     *device.Api

	backend      display.Backend
	storage      checkpoint.Storage
	closeStorage func()
	loop         *Loop
	running      bool

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
	asleep           chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of %s server %s ...", version.AppName, version.AppVersion.String())

	app := &ServerApp{
		eventLoopAskDone: make(chan bool, 1),
		eventLoopDone:    make(chan bool, 1),
		asleep:           make(chan bool, 1),
		ServerConfig:     config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	app.displayDevice = device.NewDisplay(app.Display, app.SimulationMode)
	app.buttonDevice = device.NewButton(app.Button, app.SimulationMode)
	app.consoleDevice = device.NewSerialEndpoint("console", app.Console.Port, app.Console.BaudRate, 3, time.Second)
	app.linkDevice = device.NewLink(app.Link)
	app.networkDevice = device.NewNetwork(app.Wifi.Interface, app.SimulationMode)
	app.powerDevice = device.NewPower(app.GetCompleteWakeMarkerFilename(), app.Power.SleepCommand, app.SimulationMode)
	app.clockDevice = device.NewClock(app.Checkpoint.RestoreClock, app.SimulationMode)
	if app.ApiParam.Enabled {
		app.apiDevice = device.NewApi(app.ServerConfig, app.linkDevice.Touch)
	}

	logrus.Debugln("Server created")

	return app
}

// openStorage selects the checkpoint backend. A broken backend degrades to memory.
func (s *ServerApp) openStorage() {
	s.closeStorage = func() {}
	switch s.Checkpoint.Backend {
	case "flash":
		blockDev, err := device.OpenFileBlockDevice(s.GetCompleteFlashFilename())
		if err == nil {
			var flash *device.FlashStorage
			flash, err = device.NewFlashStorage(blockDev)
			if err == nil {
				s.storage = flash
				s.closeStorage = func() {
					flash.Close()
					blockDev.Close()
				}
				return
			}
			blockDev.Close()
		}
		logrus.Warnf("Unable to open flash storage, checkpoint kept in memory: %v", err)
	default:
		state, err := config.NewServerState(s.GetCompleteStateFilename())
		if err == nil {
			s.storage = state
			return
		}
		logrus.Warnf("Unable to open state file, checkpoint kept in memory: %v", err)
	}
	s.storage = checkpoint.NewMemoryStorage()
}

func (s *ServerApp) newLoop() *Loop {
	overflow, err := bridge.ParseOverflow(s.Bridge.Overflow)
	if err != nil {
		logrus.Warnf("%v, lines are left unbounded", err)
	}
	return NewLoop(
		LoopConfig{
			Classifier: power.NewClassifier(s.Button.ShortPress, s.Button.LongPress),
			Wake:       power.WakeSource{Pin: s.Button.Pin, FallingEdge: true},
			BootGuard:  s.Power.BootGuard,
			Presenter: presenter.Config{
				NavHold:      s.Presenter.NavHold,
				ScrollStep:   s.Presenter.ScrollStep,
				ScrollWindow: s.Presenter.ScrollWindow,
			},
			Bridge:             bridge.Config{MaxLineLength: s.Bridge.MaxLineLength, Overflow: overflow},
			RefreshInterval:    s.Display.RefreshInterval,
			CheckpointInterval: s.Checkpoint.Interval,
			EchoPrefix:         s.Console.EchoPrefix,
			PeerPrefix:         s.Console.PeerPrefix,
			SleepMessage:       s.Display.SleepMessage,
		},
		LoopDevices{
			Button:  s.buttonDevice,
			Console: s.consoleDevice,
			Link:    s.linkDevice,
			Network: s.networkDevice,
			Power:   s.powerDevice,
			Backend: s.backend,
			Storage: s.storage,
		})
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting navlink server ...")

	logrus.Printf("Starting devices ...")

	// Start display device
	variant := s.displayDevice.Detect()
	s.displayDevice.Start()
	s.backend = display.New(variant, s.displayDevice.Grid(), s.displayDevice.Pixel(), display.Options{WrapDirections: s.Display.WrapDirections})

	// Start button device
	s.buttonDevice.Start()

	// Restore clock
	s.openStorage()
	s.loop = s.newLoop()
	epoch, ok := s.loop.Checkpoint().Restore()
	s.clockDevice.Restore(time.Now(), epoch, ok)

	if s.loop.Boot(time.Now()) == power.Asleep {
		s.asleep <- true
		return
	}

	// Start bridge endpoints
	s.consoleDevice.Start()
	s.linkDevice.Start()

	// Start event loop
	s.running = true
	go s.eventLoop()

	// Start api device
	if s.apiDevice != nil {
		s.apiDevice.Start()
	}
}

// Asleep is signaled once the power controller put the device to sleep.
func (s *ServerApp) Asleep() <-chan bool {
	return s.asleep
}

func (s *ServerApp) Stop(halt bool) {
	logrus.Printf("Stopping navlink server ...")

	if s.running {
		// Stop api
		if s.apiDevice != nil {
			s.apiDevice.StopSendingEvent()
		}

		// Stop event loop
		logrus.Infof("Stop event loop")
		s.eventLoopAskDone <- true
		<-s.eventLoopDone

		// Save clock before leaving
		if s.loop.PowerState == power.Active {
			if err := s.loop.Checkpoint().Save(time.Now()); err != nil {
				logrus.Warnf("Unable to save clock checkpoint: %v", err)
			}
		}

		// Stop bridge endpoints
		s.linkDevice.Stop()
		s.consoleDevice.Stop()
	}

	// Stop display device
	s.displayDevice.Stop()

	if s.closeStorage != nil {
		s.closeStorage()
	}

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		haltCmd := exec.Command("sudo", "halt")
		err := haltCmd.Run()
		if err != nil {
			logrus.Panicf("Unable to halt the system: %v", err)
		}
	}
	os.Exit(0)
}
