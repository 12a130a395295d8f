// core_engine/ata/setup.go
//
// Controller discovery and detection startup.
package ata

import (
	"log"
	"sync"
	"time"
)

// ControllerLoc describes one discovered IDE controller. ProgIF bit 0
// selects native port decoding for the first channel and bit 2 for the
// second; a clear bit means the channel decodes the legacy compatibility
// ports. Port holds the four decoded bases in channel order: command
// block and control block for the first channel, then the second.
type ControllerLoc struct {
	BusLoc int32
	IRQ    uint8
	ProgIF uint8
	Port   [4]uint16
}

// BusEnumerator reports the IDE controllers present on the machine. A nil
// enumerator, or one reporting no controllers, falls back to probing the
// two legacy ISA channels.
type BusEnumerator interface {
	IDEControllers() []ControllerLoc
}

// Setup populates the channel table from the enumerator and runs device
// detection on every channel concurrently, returning once all channels
// have been scanned. The spin-up grace period shared by all channels
// starts when Setup is called.
func (e *Engine) Setup(enum BusEnumerator) {
	e.spinupEnd = time.Now().Add(e.Timeout)

	var locs []ControllerLoc
	if enum != nil {
		locs = enum.IDEControllers()
	}
	for _, loc := range locs {
		e.addController(loc)
	}
	if len(e.channels) == 0 {
		// No enumerable controller: assume the legacy ISA wiring.
		e.AddChannel(PORT_ATA1_CMD_BASE, PORT_ATA1_CTRL_BASE, IRQ_ATA1, -1)
		e.AddChannel(PORT_ATA2_CMD_BASE, PORT_ATA2_CTRL_BASE, IRQ_ATA2, -1)
	}

	var wg sync.WaitGroup
	for i := range e.channels {
		wg.Add(1)
		go func(ch *Channel) {
			defer wg.Done()
			e.detectChannel(ch)
		}(&e.channels[i])
	}
	wg.Wait()
}

// addController registers both channels of one controller, resolving each
// channel's ports from its decoding mode.
func (e *Engine) addController(loc ControllerLoc) {
	cmd1, ctrl1 := uint16(PORT_ATA1_CMD_BASE), uint16(PORT_ATA1_CTRL_BASE)
	irq1 := uint8(IRQ_ATA1)
	if loc.ProgIF&1 != 0 {
		cmd1, ctrl1 = loc.Port[0], loc.Port[1]
		irq1 = loc.IRQ
	}
	if _, err := e.AddChannel(cmd1, ctrl1, irq1, loc.BusLoc); err != nil {
		log.Printf("ata: setup: %v", err)
		return
	}

	cmd2, ctrl2 := uint16(PORT_ATA2_CMD_BASE), uint16(PORT_ATA2_CTRL_BASE)
	irq2 := uint8(IRQ_ATA2)
	if loc.ProgIF&4 != 0 {
		cmd2, ctrl2 = loc.Port[2], loc.Port[3]
		irq2 = loc.IRQ
	}
	if _, err := e.AddChannel(cmd2, ctrl2, irq2, loc.BusLoc); err != nil {
		log.Printf("ata: setup: %v", err)
	}
}
