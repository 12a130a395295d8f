// core_engine/ata/detect_test.go
package ata_test

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"example.com/pata-engine/core_engine/ata"
	"example.com/pata-engine/core_engine/devices"
	"example.com/pata-engine/core_engine/portio"
)

func TestDetectHardDisk(t *testing.T) {
	engine, drives := detectDrives(t, testHardDisk(), nil)

	if len(drives) != 1 {
		t.Fatalf("Expected 1 drive, got %d", len(drives))
	}
	d := drives[0]
	if d.Type != ata.DTYPE_ATA {
		t.Errorf("Expected DTYPE_ATA, got %d", d.Type)
	}
	if d.ID != 0 {
		t.Errorf("Expected drive id 0, got %d", d.ID)
	}
	if d.Model != "QEMU HARDDISK" {
		t.Errorf("Model not trimmed/decoded: %q", d.Model)
	}
	if d.Version != 7 {
		t.Errorf("Expected version 7, got %d", d.Version)
	}
	if d.BlkSize != ata.DISK_SECTOR_SIZE {
		t.Errorf("Expected 512-byte blocks, got %d", d.BlkSize)
	}
	if d.Sectors != 1<<21 {
		t.Errorf("Expected %d sectors, got %d", 1<<21, d.Sectors)
	}
	if d.PCHS != (ata.CHS{Cylinders: 16383, Heads: 16, SPT: 63}) {
		t.Errorf("Bad physical geometry: %+v", d.PCHS)
	}
	if d.LCHS != (ata.CHS{Cylinders: 1024, Heads: 32, SPT: 63}) {
		t.Errorf("Bad translated geometry: %+v", d.LCHS)
	}
	if len(engine.BootDrives()) != 1 {
		t.Errorf("Disk not registered as bootable")
	}
	if len(engine.CDDrives()) != 0 {
		t.Errorf("Disk must not appear in the CD table")
	}
	if !strings.Contains(d.Describe(), "ATA-7 Hard-Disk (1024 MiBytes)") {
		t.Errorf("Bad description: %q", d.Describe())
	}
}

func TestDetectCDROM(t *testing.T) {
	engine, drives := detectDrives(t, nil, testCDROM())

	if len(drives) != 1 {
		t.Fatalf("Expected 1 drive, got %d", len(drives))
	}
	d := drives[0]
	if d.Type != ata.DTYPE_ATAPI {
		t.Errorf("Expected DTYPE_ATAPI, got %d", d.Type)
	}
	if d.ID != 1 {
		t.Errorf("Expected slave drive id 1, got %d", d.ID)
	}
	if !d.IsCD || !d.Removable {
		t.Errorf("Expected a removable CD device: %+v", d)
	}
	if d.BlkSize != ata.CDROM_SECTOR_SIZE {
		t.Errorf("Expected 2048-byte blocks, got %d", d.BlkSize)
	}
	if len(engine.CDDrives()) != 1 {
		t.Errorf("CD device not registered in the CD table")
	}
	if len(engine.BootDrives()) != 0 {
		t.Errorf("CD device must not register as a bootable disk")
	}
	if !strings.Contains(d.Describe(), "ATAPI-5 CD-Rom/DVD-Rom") {
		t.Errorf("Bad description: %q", d.Describe())
	}
}

func TestDetectNonOpticalPacketDevice(t *testing.T) {
	tape := &devices.IDEDrive{
		Model:     "QEMU TAPE",
		ATAPI:     true,
		Removable: true,
		Version:   4,
	}
	engine, drives := detectDrives(t, nil, tape)

	if len(drives) != 1 {
		t.Fatalf("Expected 1 drive, got %d", len(drives))
	}
	d := drives[0]
	if d.Type != ata.DTYPE_ATAPI {
		t.Errorf("Expected DTYPE_ATAPI, got %d", d.Type)
	}
	if d.IsCD {
		t.Error("A non-optical packet device must not be flagged as a CD")
	}
	if len(engine.CDDrives()) != 0 {
		t.Errorf("Non-optical packet device must not enter the CD table")
	}
}

func TestDetectMixedChannel(t *testing.T) {
	_, drives := detectDrives(t, testHardDisk(), testCDROM())
	if len(drives) != 2 {
		t.Fatalf("Expected both devices, got %d", len(drives))
	}
	if drives[0].Type != ata.DTYPE_ATA || drives[1].Type != ata.DTYPE_ATAPI {
		t.Errorf("Bad drive types: %d, %d", drives[0].Type, drives[1].Type)
	}
}

func TestDetectEmptyBus(t *testing.T) {
	// No channel device registered at all: both legacy channels float.
	bus := devices.NewIOBus()
	engine := ata.NewEngine(portio.NewBusIO(bus))
	engine.Timeout = 50 * time.Millisecond
	engine.SetDelay(func(time.Duration) {})
	engine.Setup(nil)
	if n := len(engine.Drives()); n != 0 {
		t.Errorf("Expected no drives on a floating bus, got %d", n)
	}
}

func TestDetectAbsentSlave(t *testing.T) {
	_, drives := detectDrives(t, testHardDisk(), nil)
	if len(drives) != 1 {
		t.Fatalf("Expected only the master, got %d drives", len(drives))
	}
}

func TestDetectSlaveSkipHeuristic(t *testing.T) {
	master := testHardDisk()
	// A valid power-up reset result reporting that no device 1 responded.
	master.ResetResult = 0x4041
	_, drives := detectDrives(t, master, testCDROM())
	if len(drives) != 1 {
		t.Fatalf("Expected the slave probe to be skipped, got %d drives", len(drives))
	}

	master = testHardDisk()
	master.ResetResult = 0x0000
	_, drives = detectDrives(t, master, testCDROM())
	if len(drives) != 2 {
		t.Fatalf("Expected both devices with an invalid reset result, got %d drives", len(drives))
	}
}

func TestDetectLargeDisk(t *testing.T) {
	disk := testHardDisk()
	disk.LBA48 = true
	disk.Sectors = 1<<30 + 12345
	_, drives := detectDrives(t, disk, nil)
	if len(drives) != 1 {
		t.Fatalf("Expected 1 drive, got %d", len(drives))
	}
	if drives[0].Sectors != 1<<30+12345 {
		t.Errorf("48-bit sector count not used: got %d", drives[0].Sectors)
	}
}

// stuckBusyDevice answers every status read with the busy bit set.
type stuckBusyDevice struct{}

func (s *stuckBusyDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	if direction == devices.IODirectionIn {
		for i := range data {
			data[i] = 0x80
		}
	}
	return nil
}

func TestDetectStuckBusyTimesOut(t *testing.T) {
	bus := devices.NewIOBus()
	bus.RegisterDevice(0x1f0, 0x1f7, &stuckBusyDevice{})
	bus.RegisterDevice(0x3f0, 0x3f7, &stuckBusyDevice{})
	engine := ata.NewEngine(portio.NewBusIO(bus))
	engine.Timeout = 20 * time.Millisecond
	engine.SetDelay(func(time.Duration) {})

	var yields atomic.Int64
	engine.SetYield(func() { yields.Add(1) })

	start := time.Now()
	engine.Setup(nil)
	if n := len(engine.Drives()); n != 0 {
		t.Errorf("Expected no drives behind a stuck-busy channel, got %d", n)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Detection not bounded by the timeout: took %v", elapsed)
	}
	if yields.Load() == 0 {
		t.Error("Expected the engine to yield between status polls")
	}
}
