// core_engine/ata/protocol.go
//
// Register-level command submission and the programmed-I/O transfer loop.
package ata

import (
	"fmt"
	"log"
	"time"
)

// Reset pulses the channel's soft-reset line and brings the selected
// device back to a usable state. The reset pulse affects both positions on
// the channel, so a slave target must be re-selected and the selection
// verified; the master's device/head register is forced explicitly because
// some emulated controllers do not reset it. Interrupts are re-enabled on
// every exit path.
func (e *Engine) Reset(d *Drive) {
	ch, slave := e.channelFor(d.ID)
	iobase1, iobase2 := ch.IOBase1, ch.IOBase2

	if e.Debug {
		log.Printf("ata: reset drive %d", d.ID)
	}
	// Pulse SRST.
	e.io.Outb(iobase2+ATA_CB_DC, ATA_CB_DC_HD15|ATA_CB_DC_NIEN|ATA_CB_DC_SRST)
	e.delay(5 * time.Microsecond)
	e.io.Outb(iobase2+ATA_CB_DC, ATA_CB_DC_HD15|ATA_CB_DC_NIEN)
	e.delay(2 * time.Millisecond)

	defer e.io.Outb(iobase2+ATA_CB_DC, ATA_CB_DC_HD15) // re-enable interrupts

	if _, err := e.awaitNotBsy(iobase1); err != nil {
		return
	}
	if slave == 1 {
		// The reset cleared the selection; re-assert it until the
		// device/head register reflects it.
		end := time.Now().Add(e.Timeout)
		for {
			e.io.Outb(iobase1+ATA_CB_DH, ATA_CB_DH_DEV1)
			if _, err := e.ndelayAwaitNotBsy(iobase1); err != nil {
				return
			}
			if e.io.Inb(iobase1+ATA_CB_DH) == ATA_CB_DH_DEV1 {
				break
			}
			if time.Now().After(end) {
				log.Printf("ata: reset slave select timed out on channel %d", ch.ID)
				return
			}
		}
	} else {
		e.io.Outb(iobase1+ATA_CB_DH, ATA_CB_DH_DEV0)
	}

	// On a user reset of a known ATA device, also wait for ready.
	if d.Type == DTYPE_ATA {
		e.awaitRdy(iobase1)
	}
}

// sendCommand selects the drive's position, writes the encoded command
// registers, and waits for the device to respond. On success the status
// shows no error and the data-request bit is asserted, ready for the data
// phase.
func (e *Engine) sendCommand(d *Drive, cmd *pioCommand) error {
	ch, slave := e.channelFor(d.ID)
	iobase1 := ch.IOBase1

	if _, err := e.awaitNotBsy(iobase1); err != nil {
		return err
	}

	newDH := cmd.device &^ ATA_CB_DH_DEV1
	if slave == 1 {
		newDH = cmd.device | ATA_CB_DH_DEV1
	} else {
		newDH |= ATA_CB_DH_DEV0
	}
	oldDH := e.io.Inb(iobase1 + ATA_CB_DH)
	e.io.Outb(iobase1+ATA_CB_DH, newDH)
	if (oldDH^newDH)&(1<<4) != 0 {
		// Device switch: allow the settle interval before proceeding.
		if _, err := e.ndelayAwaitNotBsy(iobase1); err != nil {
			return err
		}
	}

	if cmd.command&ATA_CMD_EXT_BIT != 0 {
		e.io.Outb(iobase1+ATA_CB_FR, 0x00)
		e.io.Outb(iobase1+ATA_CB_SC, cmd.sectorCount2)
		e.io.Outb(iobase1+ATA_CB_SN, cmd.lbaLow2)
		e.io.Outb(iobase1+ATA_CB_CL, cmd.lbaMid2)
		e.io.Outb(iobase1+ATA_CB_CH, cmd.lbaHigh2)
	}
	e.io.Outb(iobase1+ATA_CB_FR, cmd.feature)
	e.io.Outb(iobase1+ATA_CB_SC, cmd.sectorCount)
	e.io.Outb(iobase1+ATA_CB_SN, cmd.lbaLow)
	e.io.Outb(iobase1+ATA_CB_CL, cmd.lbaMid)
	e.io.Outb(iobase1+ATA_CB_CH, cmd.lbaHigh)
	e.io.Outb(iobase1+ATA_CB_CMD, cmd.command)

	status, err := e.ndelayAwaitNotBsy(iobase1)
	if err != nil {
		return err
	}
	if status&ATA_CB_STAT_ERR != 0 {
		errReg := e.io.Inb(iobase1 + ATA_CB_ERR)
		if e.Debug {
			log.Printf("ata: command 0x%02x error (status 0x%02x err 0x%02x)",
				cmd.command, status, errReg)
		}
		return fmt.Errorf("%w: command 0x%02x err 0x%02x", ErrDeviceError, cmd.command, errReg)
	}
	if status&ATA_CB_STAT_DRQ == 0 {
		if e.Debug {
			log.Printf("ata: command 0x%02x DRQ not set (status 0x%02x)", cmd.command, status)
		}
		return fmt.Errorf("%w: DRQ not set after command 0x%02x", ErrProtocol, cmd.command)
	}
	return nil
}

// transfer moves op.Count blocks of blockSize bytes between the data
// register and op.Buf. After every block it waits one PIO cycle and
// re-polls status; between blocks exactly DRQ must be set, and after the
// last block busy, fault, DRQ, and error must all be clear (fault is
// ignored on reads, where some devices assert it spuriously). On failure
// op.Count is rewritten with the number of blocks not yet completed.
func (e *Engine) transfer(op *DiskOp, isWrite bool, blockSize int) error {
	ch, _ := e.channelFor(op.Drive.ID)
	iobase1, iobase2 := ch.IOBase1, ch.IOBase2

	if e.Debug {
		log.Printf("ata: transfer drive=%d write=%t count=%d bs=%d",
			op.Drive.ID, isWrite, op.Count, blockSize)
	}
	if op.Count == 0 {
		return nil
	}
	count := op.Count
	buf := op.Buf
	var status byte
	for {
		if isWrite {
			e.io.Outsw(iobase1+ATA_CB_DATA, buf[:blockSize])
		} else {
			e.io.Insw(iobase1+ATA_CB_DATA, buf[:blockSize])
		}
		buf = buf[blockSize:]

		var err error
		status, err = e.pauseAwaitNotBsy(iobase1, iobase2)
		if err != nil {
			// The just-transferred block was never confirmed.
			op.Count = count
			return err
		}

		count--
		if count == 0 {
			break
		}
		status &= ATA_CB_STAT_BSY | ATA_CB_STAT_DRQ | ATA_CB_STAT_ERR
		if status != ATA_CB_STAT_DRQ {
			if e.Debug {
				log.Printf("ata: transfer blocks left, bad status 0x%02x", status)
			}
			op.Count = count
			return fmt.Errorf("%w: mid-transfer status 0x%02x", ErrProtocol, status)
		}
	}

	status &= ATA_CB_STAT_BSY | ATA_CB_STAT_DF | ATA_CB_STAT_DRQ | ATA_CB_STAT_ERR
	if !isWrite {
		status &^= ATA_CB_STAT_DF
	}
	if status != 0 {
		if e.Debug {
			log.Printf("ata: transfer complete, bad status 0x%02x", status)
		}
		op.Count = 0
		return fmt.Errorf("%w: final status 0x%02x", ErrProtocol, status)
	}
	op.Count = 0
	return nil
}

// ataCmdData runs one read/write operation end to end: encode, submit,
// transfer. Channel interrupts stay disabled for the duration and are
// re-enabled on every exit path.
func (e *Engine) ataCmdData(op *DiskOp, isWrite bool, opcode byte) error {
	if op.Count == 0 {
		return nil
	}
	ch, _ := e.channelFor(op.Drive.ID)

	cmd := buildRWCommand(opcode, op.LBA, op.Count)

	e.io.Outb(ch.IOBase2+ATA_CB_DC, ATA_CB_DC_HD15|ATA_CB_DC_NIEN)
	defer e.io.Outb(ch.IOBase2+ATA_CB_DC, ATA_CB_DC_HD15)

	if err := e.sendCommand(op.Drive, &cmd); err != nil {
		return err
	}
	return e.transfer(op, isWrite, DISK_SECTOR_SIZE)
}

// isReady samples the status register directly, without a full protocol
// exchange.
func (e *Engine) isReady(d *Drive) uint8 {
	ch, _ := e.channelFor(d.ID)
	status := e.io.Inb(ch.IOBase1 + ATA_CB_STAT)
	if status&(ATA_CB_STAT_BSY|ATA_CB_STAT_RDY) == ATA_CB_STAT_RDY {
		return DISK_RET_SUCCESS
	}
	return DISK_RET_ENOTREADY
}
