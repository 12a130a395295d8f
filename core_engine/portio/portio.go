// Package portio abstracts x86 port I/O so the ATA engine can run
// against real hardware ports or an emulated device bus through the same
// interface.
package portio

// PortIO is the register access contract used by the ATA engine. Inb/Outb
// move single bytes; Insw/Outsw move buf as a sequence of 16-bit words
// through one port, low byte first, the way the string I/O instructions
// do. len(buf) must be even for the word operations.
type PortIO interface {
	Inb(port uint16) byte
	Outb(port uint16, value byte)
	Insw(port uint16, buf []byte)
	Outsw(port uint16, buf []byte)
}
