//go:build linux

package portio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DevPort performs raw port I/O through /dev/port. Each port maps to the
// byte offset equal to its number; words are moved one byte at a time,
// which is how /dev/port decodes multi-byte reads anyway. Requires root
// (CAP_SYS_RAWIO).
type DevPort struct {
	fd int
}

// OpenDevPort opens /dev/port and requests access to the given port
// range with ioperm(2).
func OpenDevPort(from, num uint64) (*DevPort, error) {
	fd, err := unix.Open("/dev/port", unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("portio: open /dev/port: %w", err)
	}
	if err := unix.Ioperm(int(from), int(num), 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("portio: ioperm 0x%x+%d: %w", from, num, err)
	}
	return &DevPort{fd: fd}, nil
}

// Close releases the file descriptor. Port permissions drop when the
// process exits.
func (p *DevPort) Close() error {
	return unix.Close(p.fd)
}

func (p *DevPort) Inb(port uint16) byte {
	var b [1]byte
	if _, err := unix.Pread(p.fd, b[:], int64(port)); err != nil {
		return 0xff
	}
	return b[0]
}

func (p *DevPort) Outb(port uint16, value byte) {
	unix.Pwrite(p.fd, []byte{value}, int64(port))
}

func (p *DevPort) Insw(port uint16, buf []byte) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = p.Inb(port)
		buf[i+1] = p.Inb(port)
	}
}

func (p *DevPort) Outsw(port uint16, buf []byte) {
	for i := 0; i+1 < len(buf); i += 2 {
		p.Outb(port, buf[i])
		p.Outb(port, buf[i+1])
	}
}
