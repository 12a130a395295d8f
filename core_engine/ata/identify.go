// core_engine/ata/identify.go
package ata

import (
	"encoding/binary"
	"strings"
)

// identifyWord extracts the n'th little-endian word of an IDENTIFY
// response buffer.
func identifyWord(buf []byte, n int) uint16 {
	return binary.LittleEndian.Uint16(buf[n*2:])
}

// extractVersion finds the highest protocol version bit advertised in the
// major-version bitmap.
func extractVersion(buf []byte) int {
	ataVersion := identifyWord(buf, ID_W_VERSION)
	for version := 15; version > 0; version-- {
		if ataVersion&(1<<version) != 0 {
			return version
		}
	}
	return 0
}

// extractModel decodes the byte-swapped model field and trims trailing
// padding.
func extractModel(buf []byte) string {
	model := make([]byte, ID_MODEL_WORDS*2)
	for i := 0; i < ID_MODEL_WORDS; i++ {
		v := identifyWord(buf, ID_W_MODEL+i)
		model[i*2] = byte(v >> 8)
		model[i*2+1] = byte(v)
	}
	return strings.TrimRight(string(model), " \x00")
}

// extractIdentify fills the fields common to ATA and ATAPI IDENTIFY
// responses.
func extractIdentify(d *Drive, buf []byte) {
	d.Model = extractModel(buf)
	d.Removable = identifyWord(buf, ID_W_CONFIG)&0x80 != 0
	d.Version = extractVersion(buf)
}

// extractATAPIType returns the packet device type byte and whether it is
// the CD-ROM device class.
func extractATAPIType(buf []byte) (byte, bool) {
	devType := byte(identifyWord(buf, ID_W_CONFIG)>>8) & 0x1f
	return devType, devType == 0x05
}

// extractSectors reads the total addressable sector count, preferring the
// 48-bit field when the capability bit is set.
func extractSectors(buf []byte) uint64 {
	if identifyWord(buf, ID_W_CMDSET2)&(1<<10) != 0 {
		return uint64(identifyWord(buf, ID_W_LBA48)) |
			uint64(identifyWord(buf, ID_W_LBA48+1))<<16 |
			uint64(identifyWord(buf, ID_W_LBA48+2))<<32 |
			uint64(identifyWord(buf, ID_W_LBA48+3))<<48
	}
	return uint64(identifyWord(buf, ID_W_LBA28)) |
		uint64(identifyWord(buf, ID_W_LBA28+1))<<16
}

// extractPCHS reads the legacy geometry fields.
func extractPCHS(buf []byte) CHS {
	return CHS{
		Cylinders: identifyWord(buf, ID_W_CYLINDERS),
		Heads:     identifyWord(buf, ID_W_HEADS),
		SPT:       identifyWord(buf, ID_W_SPT),
	}
}
