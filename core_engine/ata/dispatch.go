// core_engine/ata/dispatch.go
package ata

// DiskOp is the logical disk-operation contract consumed from the upper
// disk layer. Count carries the requested block count in and the number
// of blocks not yet completed out: 0 after full success, the remaining
// count after a partial failure.
type DiskOp struct {
	Command uint8
	Drive   *Drive
	LBA     uint64
	Count   uint32
	Buf     []byte
}

// ProcessOp routes a logical operation to the protocol engine appropriate
// for the drive's type and normalizes the outcome to a public result
// code. Raw protocol errors never leak to the caller.
func (e *Engine) ProcessOp(op *DiskOp) uint8 {
	if op.Drive != nil && op.Drive.Type == DTYPE_ATAPI {
		return e.processATAPIOp(op)
	}
	return e.processATAOp(op)
}

// processATAOp handles operations against an ATA disk.
func (e *Engine) processATAOp(op *DiskOp) uint8 {
	var err error
	switch op.Command {
	case CMD_READ:
		if op.Count > MAX_ATA_TRANSFER {
			op.Count = 0
			return DISK_RET_EPARAM
		}
		err = e.ataCmdData(op, false, ATA_CMD_READ_SECTORS)
	case CMD_WRITE:
		if op.Count > MAX_ATA_TRANSFER {
			op.Count = 0
			return DISK_RET_EPARAM
		}
		err = e.ataCmdData(op, true, ATA_CMD_WRITE_SECTORS)
	default:
		return e.processMiscOp(op)
	}
	if err != nil {
		return DISK_RET_EBADTRACK
	}
	return DISK_RET_SUCCESS
}

// processATAPIOp handles operations against a packet device. Writes are
// always rejected.
func (e *Engine) processATAPIOp(op *DiskOp) uint8 {
	var err error
	switch op.Command {
	case CMD_READ:
		if op.Count > MAX_ATAPI_TRANSFER {
			op.Count = 0
			return DISK_RET_EPARAM
		}
		err = e.cdromRead(op)
	case CMD_WRITE, CMD_FORMAT:
		return DISK_RET_EWRITEPROTECT
	default:
		return e.processMiscOp(op)
	}
	if err != nil {
		return DISK_RET_EBADTRACK
	}
	return DISK_RET_SUCCESS
}

// processMiscOp handles the non-transfer operation kinds shared by both
// device classes.
func (e *Engine) processMiscOp(op *DiskOp) uint8 {
	switch op.Command {
	case CMD_RESET:
		e.Reset(op.Drive)
		return DISK_RET_SUCCESS
	case CMD_ISREADY:
		return e.isReady(op.Drive)
	case CMD_FORMAT, CMD_VERIFY, CMD_SEEK:
		// Legacy no-op commands.
		return DISK_RET_SUCCESS
	default:
		op.Count = 0
		return DISK_RET_EPARAM
	}
}
