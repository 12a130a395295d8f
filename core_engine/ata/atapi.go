// core_engine/ata/atapi.go
package ata

import (
	"errors"
	"fmt"
	"log"
)

// atapiCmdData submits a packet command and receives its data phase. The
// PACKET opcode is issued with the expected per-block response size in the
// LBA mid/high registers, then the 12-byte command block is written to the
// data register as words, then the response is pulled with the ordinary
// PIO transfer loop. Interrupts are disabled for the duration and always
// re-enabled on exit.
func (e *Engine) atapiCmdData(op *DiskOp, cdb []byte, blockSize int) error {
	ch, _ := e.channelFor(op.Drive.ID)
	iobase1, iobase2 := ch.IOBase1, ch.IOBase2

	cmd := pioCommand{
		lbaMid:  byte(blockSize),
		lbaHigh: byte(blockSize >> 8),
		command: ATA_CMD_PACKET,
	}

	e.io.Outb(iobase2+ATA_CB_DC, ATA_CB_DC_HD15|ATA_CB_DC_NIEN)
	defer e.io.Outb(iobase2+ATA_CB_DC, ATA_CB_DC_HD15)

	if err := e.sendCommand(op.Drive, &cmd); err != nil {
		return err
	}

	// Device is waiting for the command block.
	e.io.Outsw(iobase1+ATA_CB_DATA, cdb)

	status, err := e.pauseAwaitNotBsy(iobase1, iobase2)
	if err != nil {
		return err
	}
	if status&ATA_CB_STAT_ERR != 0 {
		errReg := e.io.Inb(iobase1 + ATA_CB_ERR)
		if errReg != ATAPI_ERR_NOT_READY && e.Debug {
			// "Not ready" is expected while media spins up; skip it.
			log.Printf("ata: packet command error (status 0x%02x err 0x%02x)", status, errReg)
		}
		return fmt.Errorf("%w: packet err 0x%02x", ErrDeviceError, errReg)
	}
	if status&ATA_CB_STAT_DRQ == 0 {
		if e.Debug {
			log.Printf("ata: packet DRQ not set (status 0x%02x)", status)
		}
		return fmt.Errorf("%w: DRQ not set after packet", ErrProtocol)
	}

	return e.transfer(op, false, blockSize)
}

// cdromRead reads op.Count blocks from an optical device with a READ(10)
// packet.
func (e *Engine) cdromRead(op *DiskOp) error {
	cdb := make([]byte, 12)
	cdb[0] = 0x28 // READ(10)
	cdb[2] = byte(op.LBA >> 24)
	cdb[3] = byte(op.LBA >> 16)
	cdb[4] = byte(op.LBA >> 8)
	cdb[5] = byte(op.LBA)
	cdb[7] = byte(op.Count >> 8)
	cdb[8] = byte(op.Count)
	return e.atapiCmdData(op, cdb, CDROM_SECTOR_SIZE)
}

// CmdPacket submits an arbitrary 12-byte packet command to a drive and
// reads back up to length bytes of response into buf.
func (e *Engine) CmdPacket(d *Drive, cdb []byte, length int, buf []byte) error {
	if len(cdb) != 12 {
		return errors.New("ata: packet command block must be 12 bytes")
	}
	op := DiskOp{
		Drive: d,
		Count: 1,
		Buf:   buf,
	}
	return e.atapiCmdData(&op, cdb, length)
}
