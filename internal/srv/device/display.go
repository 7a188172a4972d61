package device

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"strings"
	"sync"

	"github.com/jypelle/navlink/internal/srv/config"
	"github.com/jypelle/navlink/internal/srv/display"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers/hd44780i2c"
)

const ssd1306Address = 0x3C

type Display struct {
	param          config.DisplayParam
	simulationMode bool

	busLock     sync.Mutex
	i2cBus      i2c.BusCloser
	oledDisplay *ssd1306.Dev
	lcd         *hd44780i2c.Device

	lock    sync.RWMutex
	variant display.Variant
	cells   [][]byte
	lastImg image.Image

	simulationWindow simulationWindow

	askImg  chan image.Image
	askDone chan bool
	done    chan bool
}

func NewDisplay(param config.DisplayParam, simulationMode bool) *Display {
	if !simulationMode {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize host drivers: %v", err)
		}
	}

	return &Display{
		param:          param,
		simulationMode: simulationMode,
		askImg:         make(chan image.Image, 1),
		askDone:        make(chan bool),
		done:           make(chan bool),
	}
}

// Detect probes the configured bus once. Any failure degrades to no display.
func (d *Display) Detect() display.Variant {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.simulationMode {
		d.variant = d.simulatedVariant()
	} else {
		d.variant = d.probe()
	}
	if d.variant.Kind == display.KindCharacterGrid {
		d.cells = make([][]byte, d.variant.Rows)
		for row := range d.cells {
			d.cells[row] = []byte(strings.Repeat(" ", d.variant.Cols))
		}
	}
	logrus.Infof("Display detected: %s", d.variant)
	return d.variant
}

func (d *Display) gridVariant() display.Variant {
	return display.Variant{Kind: display.KindCharacterGrid, Rows: d.param.GridRows, Cols: d.param.GridCols}
}

func (d *Display) pixelVariant() display.Variant {
	return display.Variant{Kind: display.KindPixelPanel, Width: d.param.PixelWidth, Height: d.param.PixelHeight}
}

func (d *Display) simulatedVariant() display.Variant {
	switch d.param.Type {
	case "none":
		return display.Variant{Kind: display.KindNone}
	case "grid":
		return d.gridVariant()
	default:
		return d.pixelVariant()
	}
}

func (d *Display) probe() display.Variant {
	if d.param.Type == "none" {
		return display.Variant{Kind: display.KindNone}
	}

	var err error
	d.i2cBus, err = i2creg.Open(d.param.I2cBus)
	if err != nil {
		logrus.Warnf("Unable to open i2c bus %q: %v", d.param.I2cBus, err)
		return display.Variant{Kind: display.KindNone}
	}

	if d.param.Type == "auto" || d.param.Type == "pixel" {
		for _, addr := range d.param.PixelAddresses {
			if !probeI2c(d.i2cBus, addr) {
				logrus.Debugf("No pixel panel at 0x%02X", addr)
				continue
			}
			if d.openPixelPanel(addr) {
				return d.pixelVariant()
			}
		}
	}
	if d.param.Type == "auto" || d.param.Type == "grid" {
		for _, addr := range d.param.GridAddresses {
			if !probeI2c(d.i2cBus, addr) {
				logrus.Debugf("No character grid at 0x%02X", addr)
				continue
			}
			if d.openCharacterGrid(addr) {
				return d.gridVariant()
			}
		}
	}

	d.i2cBus.Close()
	d.i2cBus = nil
	return display.Variant{Kind: display.KindNone}
}

func (d *Display) openPixelPanel(addr uint16) bool {
	var bus i2c.Bus = d.i2cBus
	if addr != ssd1306Address {
		bus = remappedBus{Bus: d.i2cBus, from: ssd1306Address, to: addr}
	}
	opts := ssd1306.DefaultOpts
	opts.W = d.param.PixelWidth
	opts.H = d.param.PixelHeight

	oledDisplay, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		logrus.Warnf("Unable to initialize oled display at 0x%02X: %v", addr, err)
		return false
	}
	oledDisplay.SetContrast(d.param.Contrast)
	d.oledDisplay = oledDisplay
	return true
}

func (d *Display) openCharacterGrid(addr uint16) bool {
	lcd := hd44780i2c.New(tinygoBus{bus: d.i2cBus}, uint8(addr))
	err := lcd.Configure(hd44780i2c.Config{
		Width:  uint8(d.param.GridCols),
		Height: uint8(d.param.GridRows),
	})
	if err != nil {
		logrus.Warnf("Unable to initialize lcd at 0x%02X: %v", addr, err)
		return false
	}
	lcd.ClearDisplay()
	d.lcd = &lcd
	return true
}

func (d *Display) Start() {
	logrus.Infof("Start display device")

	if d.simulationMode {
		d.startSimulation()
		return
	}

	go func() {
		for loop := true; loop; {
			select {
			case <-d.askDone:
				loop = false
			case newImg := <-d.askImg:
				d.busLock.Lock()
				if d.oledDisplay != nil {
					if err := d.oledDisplay.Draw(d.oledDisplay.Bounds(), newImg, image.Point{}); err != nil {
						logrus.Warnf("Unable to draw on oled display: %v", err)
					}
				}
				d.busLock.Unlock()
			}
		}
		d.busLock.Lock()
		if d.i2cBus != nil {
			d.i2cBus.Close()
		}
		d.busLock.Unlock()
		d.done <- true
	}()
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	if d.simulationMode {
		d.closeSimulationWindow()
	} else {
		d.askDone <- true
		<-d.done
	}
}

// Grid returns the character cell driver.
func (d *Display) Grid() display.GridDriver {
	return gridDriver{d}
}

// Pixel returns the frame image driver.
func (d *Display) Pixel() display.PixelDriver {
	return pixelDriver{d}
}

// Rows returns a copy of the character cells last written.
func (d *Display) Rows() []string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	rows := make([]string, len(d.cells))
	for i, row := range d.cells {
		rows[i] = string(row)
	}
	return rows
}

type gridDriver struct {
	d *Display
}

func (g gridDriver) WriteText(row int, col int, text string) {
	g.d.lock.Lock()
	defer g.d.lock.Unlock()
	if row < 0 || row >= len(g.d.cells) {
		return
	}
	cells := g.d.cells[row]
	for i := 0; i < len(text) && col+i < len(cells); i++ {
		if col+i >= 0 {
			cells[col+i] = text[i]
		}
	}
}

func (g gridDriver) Flush() error {
	rows := g.d.Rows()
	if g.d.simulationMode {
		g.d.lock.Lock()
		g.d.lastImg = gridImage(rows)
		g.d.lock.Unlock()
		logrus.Debugf("Grid: %q", rows)
		g.d.invalidateSimulationWindow()
		return nil
	}

	g.d.busLock.Lock()
	defer g.d.busLock.Unlock()
	if g.d.lcd == nil {
		return nil
	}
	for y, row := range rows {
		g.d.lcd.SetCursor(0, uint8(y))
		g.d.lcd.Print([]byte(row))
	}
	return nil
}

type pixelDriver struct {
	d *Display
}

// Flush hands the frame to the bus goroutine. A frame still pending is replaced.
func (p pixelDriver) Flush(img image.Image) error {
	p.d.lock.Lock()
	p.d.lastImg = img
	p.d.lock.Unlock()

	if p.d.simulationMode {
		p.d.invalidateSimulationWindow()
		return nil
	}
	for {
		select {
		case p.d.askImg <- img:
			return nil
		default:
			select {
			case <-p.d.askImg:
			default:
			}
		}
	}
}

// gridImage paints character rows the way a backlit LCD shows them, for the simulation window.
func gridImage(rows []string) image.Image {
	face := basicfont.Face7x13
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, cols*face.Advance+8, len(rows)*face.Height+8))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 0x20, G: 0x40, B: 0xC0, A: 0xFF}}, image.Point{}, draw.Src)
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
	}
	for y, row := range rows {
		drawer.Dot = fixed.P(4, 4+(y+1)*face.Height-face.Descent)
		drawer.DrawString(row)
	}
	return img
}
