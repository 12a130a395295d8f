package devices

import (
	"fmt"
	"log"
)

// I/O directions, matching the KVM exit convention.
const (
	IODirectionIn  uint8 = 0 // read from device
	IODirectionOut uint8 = 1 // write to device
)

// PioDevice defines the interface for a port I/O device.
type PioDevice interface {
	HandleIO(port uint16, direction uint8, size uint8, data []byte) error
}

type portRange struct {
	start, end uint16
	device     PioDevice
}

// IOBus manages port I/O access to registered devices. Devices claim
// contiguous port ranges; lookups scan the ranges in registration order.
type IOBus struct {
	ranges []portRange
}

// NewIOBus creates and initializes a new IOBus.
func NewIOBus() *IOBus {
	return &IOBus{}
}

// RegisterDevice registers a device to handle I/O for [startPort, endPort].
func (bus *IOBus) RegisterDevice(startPort, endPort uint16, device PioDevice) {
	if device == nil {
		log.Printf("IOBus: Warning: Attempted to register a nil device for ports 0x%x-0x%x", startPort, endPort)
		return
	}
	for _, r := range bus.ranges {
		if startPort <= r.end && endPort >= r.start {
			log.Printf("IOBus: Warning: Ports 0x%x-0x%x overlap a registered device (%T). New device (%T) takes precedence.",
				startPort, endPort, r.device, device)
		}
	}
	bus.ranges = append([]portRange{{startPort, endPort, device}}, bus.ranges...)
}

// HandleIO routes an I/O operation to the appropriate registered device.
func (bus *IOBus) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	for _, r := range bus.ranges {
		if port >= r.start && port <= r.end {
			return r.device.HandleIO(port, direction, size, data)
		}
	}
	return fmt.Errorf("IOBus: Unhandled I/O to port 0x%x", port)
}
