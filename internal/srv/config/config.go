package config

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"time"
)

const paramFilename = "param.yaml"
const stateFilename = "state.yaml"
const flashFilename = "flash.img"

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
}

func NewServerConfig(configDir string, debugMode bool, simulationMode bool) *ServerConfig {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	// Check Configuration folder
	_, err := os.Stat(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Printf("Creation of config folder: %s", configDir)
			err = os.MkdirAll(configDir, 0770)
			if err != nil {
				logrus.Fatalf("Unable to create config folder: %v\n", err)
			}
		} else {
			logrus.Fatalf("Unable to access config folder: %s", configDir)
		}
	}

	// Open param file
	rawConfig, err := os.ReadFile(serverConfig.GetCompleteParamFilename())
	if err == nil {
		serverConfig.ServerParam, err = ParseServerParam(rawConfig)
		if err != nil {
			logrus.Fatalf("Unable to interpret config file: %v\n", err)
		}
	} else {
		// Create default param file
		logrus.Infof("Create default param file")
		serverConfig.ServerParam, err = ParseServerParam(nil)
		if err != nil {
			logrus.Fatalf("Unable to interpret config file: %v\n", err)
		}

		serverConfig.SaveParam()
	}

	return serverConfig
}

// ParseServerParam overlays raw on the embedded defaults, so a param file
// only needs the keys it changes.
func ParseServerParam(raw []byte) (*ServerParam, error) {
	serverParam := &ServerParam{}
	if err := yaml.Unmarshal(ParamDefaultFile, serverParam); err != nil {
		return nil, fmt.Errorf("default param: %w", err)
	}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, serverParam); err != nil {
			return nil, err
		}
	}
	if err := serverParam.Validate(); err != nil {
		return nil, err
	}
	return serverParam, nil
}

func (sp *ServerParam) Validate() error {
	switch sp.Display.Type {
	case "auto", "none", "grid", "pixel":
	default:
		return fmt.Errorf("display.type: unknown value %q", sp.Display.Type)
	}
	if sp.Display.GridCols <= 0 || sp.Display.GridRows <= 0 {
		return fmt.Errorf("display: grid size must be positive, got %dx%d", sp.Display.GridCols, sp.Display.GridRows)
	}
	if sp.Display.PixelWidth <= 0 || sp.Display.PixelHeight <= 0 {
		return fmt.Errorf("display: pixel size must be positive, got %dx%d", sp.Display.PixelWidth, sp.Display.PixelHeight)
	}
	if sp.Button.ShortPress <= 0 || sp.Button.LongPress <= sp.Button.ShortPress {
		return fmt.Errorf("button: need 0 < short_press < long_press, got %s and %s", sp.Button.ShortPress, sp.Button.LongPress)
	}
	switch sp.Bridge.Overflow {
	case "", "unbounded", "truncate-oldest", "drop":
	default:
		return fmt.Errorf("bridge.overflow: unknown value %q", sp.Bridge.Overflow)
	}
	if sp.Bridge.MaxLineLength < 0 {
		return fmt.Errorf("bridge.max_line_length: must not be negative")
	}
	switch sp.Checkpoint.Backend {
	case "file", "flash":
	default:
		return fmt.Errorf("checkpoint.backend: unknown value %q", sp.Checkpoint.Backend)
	}
	for name, d := range map[string]time.Duration{
		"display.refresh_interval": sp.Display.RefreshInterval,
		"checkpoint.interval":      sp.Checkpoint.Interval,
		"link.status_interval":     sp.Link.StatusInterval,
		"loop.tick":                sp.Loop.Tick,
	} {
		if d <= 0 {
			return fmt.Errorf("%s: must be positive", name)
		}
	}
	return nil
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

func (sc *ServerConfig) GetCompleteStateFilename() string {
	return filepath.Join(sc.ConfigDir, stateFilename)
}

func (sc *ServerConfig) GetCompleteFlashFilename() string {
	return filepath.Join(sc.ConfigDir, flashFilename)
}

// GetCompleteWakeMarkerFilename resolves power.wake_marker against the config folder.
func (sc *ServerConfig) GetCompleteWakeMarkerFilename() string {
	if filepath.IsAbs(sc.Power.WakeMarker) {
		return sc.Power.WakeMarker
	}
	return filepath.Join(sc.ConfigDir, sc.Power.WakeMarker)
}

func (sc *ServerConfig) SaveParam() {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawConfig, err := yaml.Marshal(*sc.ServerParam)
	if err != nil {
		logrus.Fatalf("Unable to serialize param file: %v\n", err)
	}
	err = os.WriteFile(sc.GetCompleteParamFilename(), rawConfig, 0660)
	if err != nil {
		logrus.Fatalf("Unable to save param file: %v\n", err)
	}
}
