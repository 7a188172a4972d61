package config

import (
	_ "embed"
	"time"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	Display    DisplayParam    `yaml:"display"`
	Button     ButtonParam     `yaml:"button"`
	Power      PowerParam      `yaml:"power"`
	Console    SerialParam     `yaml:"console"`
	Link       LinkParam       `yaml:"link"`
	Wifi       WifiParam       `yaml:"wifi"`
	Bridge     BridgeParam     `yaml:"bridge"`
	Presenter  PresenterParam  `yaml:"presenter"`
	Checkpoint CheckpointParam `yaml:"checkpoint"`
	ApiParam   ApiParam        `yaml:"api"`
	Loop       LoopParam       `yaml:"loop"`
}

type DisplayParam struct {
	// Type is one of auto, none, grid, pixel
	Type            string        `yaml:"type"`
	I2cBus          string        `yaml:"i2c_bus"`
	GridAddresses   []uint16      `yaml:"grid_addresses"`
	PixelAddresses  []uint16      `yaml:"pixel_addresses"`
	GridCols        int           `yaml:"grid_cols"`
	GridRows        int           `yaml:"grid_rows"`
	PixelWidth      int           `yaml:"pixel_width"`
	PixelHeight     int           `yaml:"pixel_height"`
	Contrast        uint8         `yaml:"contrast"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	WrapDirections  bool          `yaml:"wrap_directions"`
	SleepMessage    string        `yaml:"sleep_message"`
}

type ButtonParam struct {
	Pin        string        `yaml:"pin"`
	ShortPress time.Duration `yaml:"short_press"`
	LongPress  time.Duration `yaml:"long_press"`
}

type PowerParam struct {
	BootGuard    bool     `yaml:"boot_guard"`
	SleepCommand []string `yaml:"sleep_command"`
	WakeMarker   string   `yaml:"wake_marker"`
}

type SerialParam struct {
	// Port is a serial device path, empty for stdin/stdout
	Port       string `yaml:"port"`
	BaudRate   int    `yaml:"baud_rate"`
	EchoPrefix string `yaml:"echo_prefix"`
	PeerPrefix string `yaml:"peer_prefix"`
}

type LinkParam struct {
	Port              string        `yaml:"port"`
	BaudRate          int           `yaml:"baud_rate"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	Timeout           time.Duration `yaml:"timeout"`
	StatusInterval    time.Duration `yaml:"status_interval"`
	StatusMessage     string        `yaml:"status_message"`
}

type WifiParam struct {
	Interface string `yaml:"interface"`
}

type BridgeParam struct {
	MaxLineLength int    `yaml:"max_line_length"`
	Overflow      string `yaml:"overflow"`
}

type PresenterParam struct {
	NavHold      time.Duration `yaml:"nav_hold"`
	ScrollStep   time.Duration `yaml:"scroll_step"`
	ScrollWindow time.Duration `yaml:"scroll_window"`
}

type CheckpointParam struct {
	// Backend is file (state.yaml) or flash (littlefs image)
	Backend      string        `yaml:"backend"`
	Interval     time.Duration `yaml:"interval"`
	RestoreClock bool          `yaml:"restore_clock"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	Port    int64  `yaml:"port"`
	Ssl     bool   `yaml:"ssl"`
	ApiKey  string `yaml:"api_key"`
}

type LoopParam struct {
	Tick time.Duration `yaml:"tick"`
}
