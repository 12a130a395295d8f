package portio

import (
	"log"

	"example.com/pata-engine/core_engine/devices"
)

// BusIO adapts an emulated device bus to the PortIO interface. Word
// operations are issued as repeated size-2 accesses on the same port,
// matching the rep insw/outsw access pattern seen by the device.
type BusIO struct {
	Bus   *devices.IOBus
	Debug bool
}

// NewBusIO wraps an emulated device bus.
func NewBusIO(bus *devices.IOBus) *BusIO {
	return &BusIO{Bus: bus}
}

func (b *BusIO) Inb(port uint16) byte {
	data := []byte{0xff} // unclaimed ports float high
	if err := b.Bus.HandleIO(port, devices.IODirectionIn, 1, data); err != nil && b.Debug {
		log.Printf("BusIO: %v", err)
	}
	return data[0]
}

func (b *BusIO) Outb(port uint16, value byte) {
	if err := b.Bus.HandleIO(port, devices.IODirectionOut, 1, []byte{value}); err != nil && b.Debug {
		log.Printf("BusIO: %v", err)
	}
}

func (b *BusIO) Insw(port uint16, buf []byte) {
	for i := 0; i+1 < len(buf); i += 2 {
		word := buf[i : i+2]
		word[0], word[1] = 0xff, 0xff
		if err := b.Bus.HandleIO(port, devices.IODirectionIn, 2, word); err != nil && b.Debug {
			log.Printf("BusIO: %v", err)
		}
	}
}

func (b *BusIO) Outsw(port uint16, buf []byte) {
	for i := 0; i+1 < len(buf); i += 2 {
		if err := b.Bus.HandleIO(port, devices.IODirectionOut, 2, buf[i:i+2]); err != nil && b.Debug {
			log.Printf("BusIO: %v", err)
		}
	}
}
