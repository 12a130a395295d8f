// core_engine/ata/wait.go
package ata

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// Failure classes for a single protocol exchange. Callers distinguish them
// with errors.Is; the dispatcher folds all of them into result codes.
var (
	// ErrTimeout: a polled condition never became true before the deadline.
	ErrTimeout = errors.New("ata: timeout")
	// ErrDeviceError: the device asserted the error status bit.
	ErrDeviceError = errors.New("ata: device error")
	// ErrProtocol: the status pattern was inconsistent with the expected
	// transfer phase. Treated as a data-corruption risk; never retried.
	ErrProtocol = errors.New("ata: protocol violation")
)

// awaitStatus polls the status register at iobase1 until
// (status & mask) == flags, yielding between polls. The deadline is
// computed once from the monotonic clock. Returns the matching status
// byte, or ErrTimeout.
func (e *Engine) awaitStatus(iobase1 uint16, mask, flags byte) (byte, error) {
	end := time.Now().Add(e.Timeout)
	for {
		status := e.io.Inb(iobase1 + ATA_CB_STAT)
		if status&mask == flags {
			return status, nil
		}
		if time.Now().After(end) {
			log.Printf("ata: wait on port 0x%x timed out (mask 0x%02x want 0x%02x last 0x%02x)",
				iobase1, mask, flags, status)
			return status, fmt.Errorf("%w: port 0x%x", ErrTimeout, iobase1)
		}
		e.yield()
	}
}

// awaitNotBsy waits for the busy bit to clear.
func (e *Engine) awaitNotBsy(iobase1 uint16) (byte, error) {
	return e.awaitStatus(iobase1, ATA_CB_STAT_BSY, 0)
}

// awaitRdy waits for the ready bit after busy has cleared.
func (e *Engine) awaitRdy(iobase1 uint16) (byte, error) {
	return e.awaitStatus(iobase1, ATA_CB_STAT_RDY, ATA_CB_STAT_RDY)
}

// pauseAwaitNotBsy waits one PIO transfer cycle (a single alternate-status
// read) before polling for not-busy.
func (e *Engine) pauseAwaitNotBsy(iobase1, iobase2 uint16) (byte, error) {
	e.io.Inb(iobase2 + ATA_CB_ASTAT)
	return e.awaitNotBsy(iobase1)
}

// ndelayAwaitNotBsy pauses 400ns (the post-selection settle interval)
// before polling for not-busy.
func (e *Engine) ndelayAwaitNotBsy(iobase1 uint16) (byte, error) {
	e.delay(400 * time.Nanosecond)
	return e.awaitNotBsy(iobase1)
}

// powerupAwaitNotBsy waits for not-busy against the shared spin-up
// deadline. If every poll reads all-ones the bus is floating (no
// controller behind the port); that is reported as a timeout so the
// caller skips the position.
func (e *Engine) powerupAwaitNotBsy(iobase1 uint16) (byte, error) {
	orStatus := byte(0)
	for {
		status := e.io.Inb(iobase1 + ATA_CB_STAT)
		if status&ATA_CB_STAT_BSY == 0 {
			if e.Debug {
				log.Printf("ata: powerup iobase=0x%x st=0x%02x", iobase1, status)
			}
			return status, nil
		}
		orStatus |= status
		if orStatus == 0xff {
			log.Printf("ata: powerup port 0x%x floating", iobase1)
			return status, fmt.Errorf("%w: floating bus at 0x%x", ErrTimeout, iobase1)
		}
		if time.Now().After(e.spinupEnd) {
			log.Printf("ata: powerup port 0x%x timed out", iobase1)
			return status, fmt.Errorf("%w: powerup at 0x%x", ErrTimeout, iobase1)
		}
		e.yield()
	}
}
