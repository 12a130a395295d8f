// core_engine/ata/engine_test.go
package ata_test

import (
	"testing"
	"time"

	"example.com/pata-engine/core_engine/ata"
	"example.com/pata-engine/core_engine/devices"
	"example.com/pata-engine/core_engine/portio"
)

// createTestEngine wires an engine to an emulated IDE channel at the
// legacy primary ports. The secondary legacy channel stays unclaimed, so
// it reads as a floating bus. Settle delays are stubbed out and the
// timeout shortened so failure-path tests stay fast.
func createTestEngine(t *testing.T, master, slave *devices.IDEDrive) (*ata.Engine, *devices.IDEChannel) {
	t.Helper()
	bus := devices.NewIOBus()
	ch := devices.NewIDEChannel(0x1f0, 0x3f0, master, slave)
	ch.Register(bus)
	engine := ata.NewEngine(portio.NewBusIO(bus))
	engine.Timeout = 100 * time.Millisecond
	engine.SetDelay(func(time.Duration) {})
	return engine, ch
}

// detectDrives runs full detection and returns what was found.
func detectDrives(t *testing.T, master, slave *devices.IDEDrive) (*ata.Engine, []*ata.Drive) {
	t.Helper()
	engine, _ := createTestEngine(t, master, slave)
	engine.Setup(nil)
	return engine, engine.Drives()
}

// testHardDisk returns a 1 GiByte emulated disk configuration.
func testHardDisk() *devices.IDEDrive {
	return &devices.IDEDrive{
		Model:     "QEMU HARDDISK",
		Version:   7,
		Cylinders: 16383,
		Heads:     16,
		SPT:       63,
		Sectors:   1 << 21,
	}
}

// testCDROM returns an emulated DVD drive configuration.
func testCDROM() *devices.IDEDrive {
	return &devices.IDEDrive{
		Model:     "QEMU DVD-ROM",
		ATAPI:     true,
		IsCD:      true,
		Removable: true,
		Version:   5,
	}
}

func TestSetupLegacyFallback(t *testing.T) {
	engine, _ := createTestEngine(t, testHardDisk(), nil)
	engine.Setup(nil)

	channels := engine.Channels()
	if len(channels) != 2 {
		t.Fatalf("Expected 2 legacy channels, got %d", len(channels))
	}
	if channels[0].IOBase1 != 0x1f0 || channels[0].IOBase2 != 0x3f0 || channels[0].IRQ != 14 {
		t.Errorf("Bad primary channel: %+v", channels[0])
	}
	if channels[1].IOBase1 != 0x170 || channels[1].IOBase2 != 0x370 || channels[1].IRQ != 15 {
		t.Errorf("Bad secondary channel: %+v", channels[1])
	}
	if channels[0].BusLoc != -1 {
		t.Errorf("Legacy channel should carry bus location -1, got %d", channels[0].BusLoc)
	}
}

// staticEnumerator reports a fixed controller list.
type staticEnumerator struct {
	locs []ata.ControllerLoc
}

func (s *staticEnumerator) IDEControllers() []ata.ControllerLoc {
	return s.locs
}

func TestSetupNativeController(t *testing.T) {
	engine, _ := createTestEngine(t, nil, nil)
	enum := &staticEnumerator{locs: []ata.ControllerLoc{{
		BusLoc: 0x0101,
		IRQ:    11,
		ProgIF: 0x05,
		Port:   [4]uint16{0xc000, 0xc008, 0xc010, 0xc018},
	}}}
	engine.Setup(enum)

	channels := engine.Channels()
	if len(channels) != 2 {
		t.Fatalf("Expected 2 channels, got %d", len(channels))
	}
	if channels[0].IOBase1 != 0xc000 || channels[0].IOBase2 != 0xc008 || channels[0].IRQ != 11 {
		t.Errorf("Native first channel not decoded from controller ports: %+v", channels[0])
	}
	if channels[1].IOBase1 != 0xc010 || channels[1].IOBase2 != 0xc018 {
		t.Errorf("Native second channel not decoded from controller ports: %+v", channels[1])
	}
	if channels[0].BusLoc != 0x0101 {
		t.Errorf("Expected bus location 0x0101, got 0x%x", channels[0].BusLoc)
	}
}

func TestSetupCompatibilityController(t *testing.T) {
	engine, _ := createTestEngine(t, testHardDisk(), nil)
	enum := &staticEnumerator{locs: []ata.ControllerLoc{{
		BusLoc: 0x0039,
		IRQ:    11,
		ProgIF: 0x00,
		Port:   [4]uint16{0xc000, 0xc008, 0xc010, 0xc018},
	}}}
	engine.Setup(enum)

	channels := engine.Channels()
	if len(channels) != 2 {
		t.Fatalf("Expected 2 channels, got %d", len(channels))
	}
	// Compatibility decoding ignores the controller's ports.
	if channels[0].IOBase1 != 0x1f0 || channels[0].IRQ != 14 {
		t.Errorf("Compatibility first channel should use legacy ports: %+v", channels[0])
	}
	if channels[1].IOBase1 != 0x170 || channels[1].IRQ != 15 {
		t.Errorf("Compatibility second channel should use legacy ports: %+v", channels[1])
	}
	if len(engine.Drives()) != 1 {
		t.Errorf("Expected the disk behind the compatibility ports to be detected, got %d drives", len(engine.Drives()))
	}
}

func TestAddChannelLimit(t *testing.T) {
	engine, _ := createTestEngine(t, nil, nil)
	for i := 0; i < ata.MAX_ATA_CHANNELS; i++ {
		id, err := engine.AddChannel(0x1f0, 0x3f0, 14, -1)
		if err != nil {
			t.Fatalf("AddChannel %d failed: %v", i, err)
		}
		if id != i {
			t.Errorf("Expected channel id %d, got %d", i, id)
		}
	}
	if _, err := engine.AddChannel(0x1f0, 0x3f0, 14, -1); err == nil {
		t.Error("Expected an error past the channel limit")
	}
}
