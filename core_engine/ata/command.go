// core_engine/ata/command.go
package ata

// pioCommand is the transient register image for one command submission:
// the primary bank plus the 48-bit extension twins. Built fresh per
// submission and never kept.
type pioCommand struct {
	feature     byte
	sectorCount byte
	lbaLow      byte
	lbaMid      byte
	lbaHigh     byte
	device      byte
	command     byte

	sectorCount2 byte
	lbaLow2      byte
	lbaMid2      byte
	lbaHigh2     byte
}

// needsLBA48 reports whether a transfer must use 48-bit addressing: either
// the block count does not fit the 8-bit count register, or the last block
// lies at or beyond the 28-bit boundary.
func needsLBA48(lba uint64, count uint32) bool {
	return count >= 1<<8 || lba+uint64(count) >= 1<<28
}

// buildRWCommand encodes a read/write for the given LBA and block count.
// 48-bit mode populates the twin fields from LBA bits 24..47 and the count
// high byte, masks the LBA to 24 bits, and tags the opcode; 28-bit mode
// packs LBA bits 24..27 into the device/head byte. The feature byte is
// zero for plain reads and writes.
func buildRWCommand(opcode byte, lba uint64, count uint32) pioCommand {
	var cmd pioCommand
	cmd.command = opcode
	if needsLBA48(lba, count) {
		cmd.sectorCount2 = byte(count >> 8)
		cmd.lbaLow2 = byte(lba >> 24)
		cmd.lbaMid2 = byte(lba >> 32)
		cmd.lbaHigh2 = byte(lba >> 40)

		cmd.command |= ATA_CMD_EXT_BIT
		lba &= 0xffffff
	}
	cmd.sectorCount = byte(count)
	cmd.lbaLow = byte(lba)
	cmd.lbaMid = byte(lba >> 8)
	cmd.lbaHigh = byte(lba >> 16)
	cmd.device = byte(lba>>24)&0xf | ATA_CB_DH_LBA
	return cmd
}
