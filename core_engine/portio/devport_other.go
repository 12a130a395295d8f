//go:build !linux

package portio

import "errors"

// DevPort is only implemented on Linux.
type DevPort struct{}

func OpenDevPort(from, num uint64) (*DevPort, error) {
	return nil, errors.New("portio: /dev/port access requires linux")
}

func (p *DevPort) Close() error                { return nil }
func (p *DevPort) Inb(port uint16) byte        { return 0xff }
func (p *DevPort) Outb(port uint16, v byte)    {}
func (p *DevPort) Insw(port uint16, b []byte)  {}
func (p *DevPort) Outsw(port uint16, b []byte) {}
