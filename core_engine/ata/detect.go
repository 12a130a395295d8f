// core_engine/ata/detect.go
//
// Power-up device detection and identification. One detection task runs
// per channel; the two positions on a channel are probed master first,
// then slave.
package ata

import (
	"log"
	"time"
)

// detectChannel probes both device positions on one channel. Any failed
// step aborts only the position being probed; the scan continues.
func (e *Engine) detectChannel(ch *Channel) {
	startID := ch.ID * 2
	lastResetID := -1
	for id := startID; id < startID+2; id++ {
		slave := id % 2
		iobase1 := ch.IOBase1
		if iobase1 == 0 {
			break
		}

		// Wait out the spin-up, bounded by the shared deadline.
		if _, err := e.powerupAwaitNotBsy(iobase1); err != nil {
			continue
		}
		newDH := ATA_CB_DH_DEV0
		if slave == 1 {
			newDH = ATA_CB_DH_DEV1
		}
		e.io.Outb(iobase1+ATA_CB_DH, newDH)
		e.delay(400 * time.Nanosecond)
		if _, err := e.powerupAwaitNotBsy(iobase1); err != nil {
			continue
		}

		// Sanity-check the register file: sentinel values must read back
		// and the device/head register must reflect the selection, or
		// nothing is listening at this position.
		e.io.Outb(iobase1+ATA_CB_DH, newDH)
		dh := e.io.Inb(iobase1 + ATA_CB_DH)
		e.io.Outb(iobase1+ATA_CB_SC, 0x55)
		e.io.Outb(iobase1+ATA_CB_SN, 0xaa)
		sc := e.io.Inb(iobase1 + ATA_CB_SC)
		sn := e.io.Inb(iobase1 + ATA_CB_SN)
		if e.Debug {
			log.Printf("ata: detect id=%d sc=0x%02x sn=0x%02x dh=0x%02x", id, sc, sn, dh)
		}
		if sc != 0x55 || sn != 0xaa || dh != newDH {
			continue
		}

		dummy := Drive{ID: id}

		// Reset the channel, unless the slave position follows a reset
		// just issued for the master: one pulse covers both positions.
		if !(slave == 1 && id == lastResetID+1) {
			e.Reset(&dummy)
			lastResetID = id
		}

		buf := make([]byte, DISK_SECTOR_SIZE)
		drive := e.initDriveATAPI(&dummy, buf)
		if drive == nil {
			// Not ATAPI. A zero status here means nothing can be present.
			if e.io.Inb(iobase1+ATA_CB_STAT) == 0 {
				continue
			}
			if _, err := e.awaitRdy(iobase1); err != nil {
				continue
			}
			drive = e.initDriveATA(&dummy, buf)
			if drive == nil {
				continue
			}
		}
		log.Printf("%s", drive.Describe())

		resetResult := identifyWord(buf, ID_W_RESETRESULT)
		if e.Debug {
			log.Printf("ata: detect resetresult=0x%04x", resetResult)
		}
		if slave == 0 && resetResult&0xdf61 == 0x4041 {
			// The reset result looks valid and device 0 is answering for
			// device 1, so no distinct slave exists; skip its probe.
			id++
		}
	}
}

// initDriveATAPI attempts packet-device identification at the dummy
// drive's position. Returns the registered drive, or nil on a miss.
func (e *Engine) initDriveATAPI(dummy *Drive, buf []byte) *Drive {
	op := DiskOp{
		Drive: dummy,
		LBA:   1,
		Count: 1,
		Buf:   buf,
	}
	if err := e.ataCmdData(&op, false, ATA_CMD_IDENTIFY_DEVICE_PACKET); err != nil {
		return nil
	}

	d := e.allocDrive(dummy.ID)
	if d == nil {
		return nil
	}
	extractIdentify(d, buf)
	d.Type = DTYPE_ATAPI
	d.BlkSize = CDROM_SECTOR_SIZE
	d.Sectors = ^uint64(0)
	_, d.IsCD = extractATAPIType(buf)
	if d.IsCD {
		e.mapCDDrive(d)
	}
	return d
}

// initDriveATA attempts ATA identification at the dummy drive's position.
// Returns the registered drive, or nil on a miss.
func (e *Engine) initDriveATA(dummy *Drive, buf []byte) *Drive {
	op := DiskOp{
		Drive: dummy,
		LBA:   1,
		Count: 1,
		Buf:   buf,
	}
	if err := e.ataCmdData(&op, false, ATA_CMD_IDENTIFY_DEVICE); err != nil {
		return nil
	}

	d := e.allocDrive(dummy.ID)
	if d == nil {
		return nil
	}
	extractIdentify(d, buf)
	d.Type = DTYPE_ATA
	d.BlkSize = DISK_SECTOR_SIZE
	d.PCHS = extractPCHS(buf)
	d.Sectors = extractSectors(buf)

	setupTranslation(d)
	e.addBootHD(d)
	return d
}
