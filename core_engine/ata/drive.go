// core_engine/ata/drive.go
package ata

import (
	"fmt"
	"log"
)

// CHS is a legacy cylinder/head/sector geometry triple.
type CHS struct {
	Cylinders uint16
	Heads     uint16
	SPT       uint16
}

// Drive describes one detected device. Created only after a successful
// IDENTIFY exchange; immutable afterwards except for the one-time
// geometry-translation step during detection.
type Drive struct {
	ID        int   // channel*2 + slave
	Type      uint8 // DTYPE_ATA or DTYPE_ATAPI
	Removable bool
	Version   int    // ATA/ATAPI protocol major version
	Model     string // trimmed model string
	BlkSize   int
	Sectors   uint64

	// ATA only: legacy geometry as reported, and the translation derived
	// from the sector count for legacy addressing.
	PCHS CHS
	LCHS CHS

	// ATAPI only: true when the packet device type is the CD-ROM class.
	IsCD bool
}

// Channel returns the owning channel index.
func (d *Drive) Channel() int { return d.ID / 2 }

// Slave reports whether the drive sits at the slave position.
func (d *Drive) Slave() bool { return d.ID%2 == 1 }

// allocDrive takes a slot from the bounded drive pool. Returns nil when
// the pool is exhausted.
func (e *Engine) allocDrive(id int) *Drive {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.drives) >= MAX_ATA_DRIVES {
		log.Printf("ata: drive pool exhausted, ignoring device %d", id)
		return nil
	}
	d := &Drive{ID: id}
	e.drives = append(e.drives, d)
	return d
}

// Drives returns every detected drive.
func (e *Engine) Drives() []*Drive {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]*Drive, len(e.drives))
	copy(out, e.drives)
	return out
}

// mapCDDrive registers an optical device in the CD lookup table.
func (e *Engine) mapCDDrive(d *Drive) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.cdMap = append(e.cdMap, d)
}

// CDDrives returns the optical-device table.
func (e *Engine) CDDrives() []*Drive {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]*Drive, len(e.cdMap))
	copy(out, e.cdMap)
	return out
}

// addBootHD registers an ATA disk as a bootable storage device.
func (e *Engine) addBootHD(d *Drive) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.bootHD = append(e.bootHD, d)
}

// BootDrives returns the bootable-disk registry.
func (e *Engine) BootDrives() []*Drive {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]*Drive, len(e.bootHD))
	copy(out, e.bootHD)
	return out
}

// setupTranslation derives the translated geometry used for legacy
// addressing: 63 sectors per track, head count stepped up with capacity,
// cylinders clamped to the 1024 the legacy interface can address.
func setupTranslation(d *Drive) {
	sectors := d.Sectors
	spt := uint64(63)
	sectors /= spt
	var heads uint64
	switch {
	case sectors/1024 > 128:
		heads = 255
	case sectors/1024 > 64:
		heads = 128
	case sectors/1024 > 32:
		heads = 64
	case sectors/1024 > 16:
		heads = 32
	default:
		heads = 16
	}
	cylinders := sectors / heads
	if cylinders > 1024 {
		cylinders = 1024
	}
	d.LCHS = CHS{Cylinders: uint16(cylinders), Heads: uint16(heads), SPT: uint16(spt)}
}

// Describe returns a one-line human-readable summary of the drive.
func (d *Drive) Describe() string {
	if d.Type == DTYPE_ATAPI {
		kind := "Device"
		if d.IsCD {
			kind = "CD-Rom/DVD-Rom"
		}
		return fmt.Sprintf("ata%d-%d: %s ATAPI-%d %s", d.Channel(), d.ID%2, d.Model, d.Version, kind)
	}
	sizeMB := d.Sectors >> 11
	if sizeMB < 1<<16 {
		return fmt.Sprintf("ata%d-%d: %s ATA-%d Hard-Disk (%d MiBytes)",
			d.Channel(), d.ID%2, d.Model, d.Version, sizeMB)
	}
	return fmt.Sprintf("ata%d-%d: %s ATA-%d Hard-Disk (%d GiBytes)",
		d.Channel(), d.ID%2, d.Model, d.Version, sizeMB>>10)
}
