// patadump probes the IDE channels, lists the devices it finds, and
// optionally dumps a range of sectors from the first disk. With -emu it
// runs against a built-in emulated channel instead of /dev/port, which
// needs root.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"example.com/pata-engine/core_engine/ata"
	"example.com/pata-engine/core_engine/devices"
	"example.com/pata-engine/core_engine/portio"
)

func main() {
	emu := flag.Bool("emu", false, "probe an emulated channel instead of real ports")
	debug := flag.Bool("debug", false, "log register-level detail")
	timeout := flag.Duration("timeout", ata.IDE_TIMEOUT, "per-wait timeout")
	lba := flag.Uint64("lba", 0, "first sector to dump")
	count := flag.Uint("count", 0, "number of sectors to dump")
	flag.Parse()

	var io portio.PortIO
	if *emu {
		bus := devices.NewIOBus()
		disk := &devices.IDEDrive{
			Model:     "EMU HARDDISK",
			Version:   7,
			Cylinders: 16383, Heads: 16, SPT: 63,
			Sectors: 1 << 22,
			LBA48:   true,
		}
		cd := &devices.IDEDrive{
			Model:   "EMU DVD-ROM",
			ATAPI:   true,
			IsCD:    true,
			Version: 5,
		}
		ch := devices.NewIDEChannel(0x1f0, 0x3f0, disk, cd)
		ch.Debug = *debug
		ch.Register(bus)
		io = portio.NewBusIO(bus)
	} else {
		dp, err := portio.OpenDevPort(0x100, 0x300)
		if err != nil {
			log.Fatalf("patadump: %v", err)
		}
		defer dp.Close()
		io = dp
	}

	engine := ata.NewEngine(io)
	engine.Debug = *debug
	engine.Timeout = *timeout
	engine.Setup(nil)

	drives := engine.Drives()
	if len(drives) == 0 {
		fmt.Println("no devices detected")
		os.Exit(1)
	}
	for _, d := range drives {
		fmt.Println(d.Describe())
	}

	if *count == 0 {
		return
	}
	boot := engine.BootDrives()
	if len(boot) == 0 {
		log.Fatal("patadump: no disk to dump")
	}
	d := boot[0]
	buf := make([]byte, int(*count)*d.BlkSize)
	op := ata.DiskOp{
		Command: ata.CMD_READ,
		Drive:   d,
		LBA:     *lba,
		Count:   uint32(*count),
		Buf:     buf,
	}
	start := time.Now()
	if ret := engine.ProcessOp(&op); ret != ata.DISK_RET_SUCCESS {
		log.Fatalf("patadump: read failed (code 0x%02x, %d sectors left)", ret, op.Count)
	}
	fmt.Printf("read %d sectors from lba %d in %v\n", *count, *lba, time.Since(start))
	fmt.Print(hex.Dump(buf))
}
