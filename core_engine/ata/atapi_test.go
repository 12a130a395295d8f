// core_engine/ata/atapi_test.go
package ata_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"example.com/pata-engine/core_engine/ata"
)

func TestCdromRead(t *testing.T) {
	engine, drives := detectDrives(t, nil, testCDROM())
	op := ata.DiskOp{
		Command: ata.CMD_READ,
		Drive:   drives[0],
		LBA:     16,
		Count:   2,
		Buf:     make([]byte, 2*ata.CDROM_SECTOR_SIZE),
	}
	if ret := engine.ProcessOp(&op); ret != ata.DISK_RET_SUCCESS {
		t.Fatalf("CD read failed with code 0x%02x", ret)
	}
	if op.Count != 0 {
		t.Errorf("Expected 0 blocks remaining, got %d", op.Count)
	}
	if !bytes.Equal(op.Buf, expectedSectors(16, 2, ata.CDROM_SECTOR_SIZE)) {
		t.Error("CD data does not match the drive content")
	}
}

func TestCmdPacketRead(t *testing.T) {
	engine, drives := detectDrives(t, nil, testCDROM())

	cdb := make([]byte, 12)
	cdb[0] = 0x28 // READ(10)
	cdb[5] = 100  // lba
	cdb[8] = 1    // one block
	buf := make([]byte, ata.CDROM_SECTOR_SIZE)
	if err := engine.CmdPacket(drives[0], cdb, ata.CDROM_SECTOR_SIZE, buf); err != nil {
		t.Fatalf("CmdPacket failed: %v", err)
	}
	if !bytes.Equal(buf, expectedSectors(100, 1, ata.CDROM_SECTOR_SIZE)) {
		t.Error("Packet response does not match the drive content")
	}
}

func TestCmdPacketBadLength(t *testing.T) {
	engine, drives := detectDrives(t, nil, testCDROM())
	if err := engine.CmdPacket(drives[0], make([]byte, 10), 0, nil); err == nil {
		t.Error("Expected an error for a short command block")
	}
}

func TestCmdPacketDeviceError(t *testing.T) {
	cd := testCDROM()
	cd.PacketErr = 0x04
	engine, drives := detectDrives(t, nil, cd)

	cdb := make([]byte, 12)
	cdb[0] = 0x28
	cdb[8] = 1
	err := engine.CmdPacket(drives[0], cdb, ata.CDROM_SECTOR_SIZE, make([]byte, ata.CDROM_SECTOR_SIZE))
	if !errors.Is(err, ata.ErrDeviceError) {
		t.Errorf("Expected ErrDeviceError, got %v", err)
	}
}

func TestCmdPacketTimeout(t *testing.T) {
	cd := testCDROM()
	engine, drives := detectDrives(t, nil, cd)
	// Injected after detection so the identify exchange is unaffected.
	cd.HangAfterBlocks = 1
	engine.Timeout = 30 * time.Millisecond

	cdb := make([]byte, 12)
	cdb[0] = 0x28
	cdb[8] = 1
	err := engine.CmdPacket(drives[0], cdb, ata.CDROM_SECTOR_SIZE, make([]byte, ata.CDROM_SECTOR_SIZE))
	if !errors.Is(err, ata.ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}

func TestAtapiWriteToReadOnlyDeviceFails(t *testing.T) {
	// A packet device aborts plain ATA write opcodes at the command stage.
	engine, drives := detectDrives(t, testHardDisk(), testCDROM())
	cd := drives[1]
	cd.Type = ata.DTYPE_ATA // force the ATA path onto the packet device
	op := ata.DiskOp{
		Command: ata.CMD_WRITE,
		Drive:   cd,
		Count:   1,
		Buf:     make([]byte, ata.DISK_SECTOR_SIZE),
	}
	if ret := engine.ProcessOp(&op); ret != ata.DISK_RET_EBADTRACK {
		t.Errorf("Expected DISK_RET_EBADTRACK, got 0x%02x", ret)
	}
}
