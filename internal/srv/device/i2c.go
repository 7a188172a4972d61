package device

import (
	"periph.io/x/conn/v3/i2c"
)

// probeI2c reports whether a device acknowledges a one byte read at addr.
func probeI2c(bus i2c.Bus, addr uint16) bool {
	dev := &i2c.Dev{Bus: bus, Addr: addr}
	return dev.Tx(nil, make([]byte, 1)) == nil
}

// tinygoBus exposes a periph bus through the tinygo drivers I2C interface.
type tinygoBus struct {
	bus i2c.Bus
}

func (b tinygoBus) Tx(addr uint16, w, r []byte) error {
	return b.bus.Tx(addr, w, r)
}

func (b tinygoBus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.bus.Tx(uint16(addr), []byte{r}, buf)
}

func (b tinygoBus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, r)
	w = append(w, buf...)
	return b.bus.Tx(uint16(addr), w, nil)
}

// remappedBus redirects one address to another. The ssd1306 driver always talks to 0x3C,
// panels strapped to 0x3D go through this.
type remappedBus struct {
	i2c.Bus
	from uint16
	to   uint16
}

func (b remappedBus) Tx(addr uint16, w, r []byte) error {
	if addr == b.from {
		addr = b.to
	}
	return b.Bus.Tx(addr, w, r)
}
