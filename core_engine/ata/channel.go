// core_engine/ata/channel.go
package ata

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"example.com/pata-engine/core_engine/portio"
)

// Channel holds the per-controller-channel configuration: the two port
// group bases, the IRQ line, and the bus location the channel was
// discovered at. Populated once during Setup and read-only afterwards.
type Channel struct {
	ID      int
	IOBase1 uint16 // command block base
	IOBase2 uint16 // control block base
	IRQ     uint8
	BusLoc  int32 // discovery bus location, -1 for legacy ISA
}

// Engine drives ATA/ATAPI devices on up to MAX_ATA_CHANNELS channels using
// polled programmed I/O. All register access goes through the PortIO
// backend handed to NewEngine; there is no DMA and no interrupt handling.
type Engine struct {
	io portio.PortIO

	// Timeout bounds every polled wait. Defaults to IDE_TIMEOUT.
	Timeout time.Duration
	Debug   bool

	// yield suspends the calling task between status polls; delay performs
	// a fixed-duration settle wait. Both are injectable for tests.
	yield func()
	delay func(time.Duration)

	channels []Channel

	// Drive pool and device-class registries. Appended to only during
	// detection, read-only afterwards.
	lock   sync.Mutex
	drives []*Drive
	cdMap  []*Drive
	bootHD []*Drive

	spinupEnd time.Time
}

// NewEngine creates an engine over the given port I/O backend.
func NewEngine(io portio.PortIO) *Engine {
	return &Engine{
		io:      io,
		Timeout: IDE_TIMEOUT,
		yield:   runtime.Gosched,
		delay:   time.Sleep,
	}
}

// SetYield replaces the cooperative-yield hook invoked between polls.
func (e *Engine) SetYield(fn func()) {
	if fn != nil {
		e.yield = fn
	}
}

// SetDelay replaces the fixed-delay hook used for settle waits.
func (e *Engine) SetDelay(fn func(time.Duration)) {
	if fn != nil {
		e.delay = fn
	}
}

// AddChannel registers a controller channel and returns its id. Channels
// are fixed once added.
func (e *Engine) AddChannel(iobase1, iobase2 uint16, irq uint8, busLoc int32) (int, error) {
	if len(e.channels) >= MAX_ATA_CHANNELS {
		return -1, fmt.Errorf("ata: channel limit (%d) reached", MAX_ATA_CHANNELS)
	}
	id := len(e.channels)
	e.channels = append(e.channels, Channel{
		ID:      id,
		IOBase1: iobase1,
		IOBase2: iobase2,
		IRQ:     irq,
		BusLoc:  busLoc,
	})
	return id, nil
}

// Channels returns the configured channel table.
func (e *Engine) Channels() []Channel {
	return e.channels
}

// channelFor resolves a drive id to its channel and slave position.
func (e *Engine) channelFor(id int) (*Channel, int) {
	return &e.channels[id/2], id % 2
}
