// core_engine/ata/ata_constants.go
package ata

import "time"

// Maximum number of IDE channels the engine will manage, and the drive
// positions per channel. Drive ids are dense: id = channel*2 + slave.
const (
	MAX_ATA_CHANNELS = 4
	MAX_ATA_DRIVES   = MAX_ATA_CHANNELS * 2
)

// IDE_TIMEOUT bounds any single polled ATA wait. The same value seeds the
// shared spin-up deadline at detection time.
const IDE_TIMEOUT = 32 * time.Second

// Command block register offsets (from a channel's command port base).
const (
	ATA_CB_DATA uint16 = 0 // data register (16-bit)
	ATA_CB_ERR  uint16 = 1 // error register (read)
	ATA_CB_FR   uint16 = 1 // feature register (write)
	ATA_CB_SC   uint16 = 2 // sector count
	ATA_CB_SN   uint16 = 3 // sector number / LBA low
	ATA_CB_CL   uint16 = 4 // cylinder low / LBA mid
	ATA_CB_CH   uint16 = 5 // cylinder high / LBA high
	ATA_CB_DH   uint16 = 6 // device/head
	ATA_CB_STAT uint16 = 7 // status (read)
	ATA_CB_CMD  uint16 = 7 // command (write)
)

// Control block register offsets (from a channel's control port base).
const (
	ATA_CB_ASTAT uint16 = 6 // alternate status (read)
	ATA_CB_DC    uint16 = 6 // device control (write)
)

// Device/head register bits.
const (
	ATA_CB_DH_DEV0 byte = 0xa0 // select device 0 (master)
	ATA_CB_DH_DEV1 byte = 0xb0 // select device 1 (slave)
	ATA_CB_DH_LBA  byte = 0x40 // LBA addressing mode
)

// Device control register bits.
const (
	ATA_CB_DC_HD15 byte = 0x08 // bit always set on write
	ATA_CB_DC_SRST byte = 0x04 // soft reset
	ATA_CB_DC_NIEN byte = 0x02 // disable interrupts
)

// Status register bits.
const (
	ATA_CB_STAT_BSY byte = 0x80 // busy
	ATA_CB_STAT_RDY byte = 0x40 // ready
	ATA_CB_STAT_DF  byte = 0x20 // device fault
	ATA_CB_STAT_DSC byte = 0x10 // seek complete
	ATA_CB_STAT_DRQ byte = 0x08 // data request
	ATA_CB_STAT_ERR byte = 0x01 // error
)

// Command opcodes.
const (
	ATA_CMD_READ_SECTORS           byte = 0x20
	ATA_CMD_WRITE_SECTORS          byte = 0x30
	ATA_CMD_PACKET                 byte = 0xa0
	ATA_CMD_IDENTIFY_DEVICE_PACKET byte = 0xa1
	ATA_CMD_IDENTIFY_DEVICE        byte = 0xec

	// OR'd into a read/write opcode to select the 48-bit variant.
	ATA_CMD_EXT_BIT byte = 0x04
)

// ATAPI error-register value for "not ready"; expected while a packet
// device spins up, so it is not logged.
const ATAPI_ERR_NOT_READY byte = 0x20

// Fixed transfer block sizes.
const (
	DISK_SECTOR_SIZE  = 512
	CDROM_SECTOR_SIZE = 2048
)

// Largest block counts a single command can carry on the wire: the 48-bit
// form has a 16-bit count register (a zero value encodes 65536), and the
// READ(10) command block carries a 16-bit count.
const (
	MAX_ATA_TRANSFER   = 65536
	MAX_ATAPI_TRANSFER = 65535
)

// Logical operation kinds consumed by the dispatcher.
const (
	CMD_READ uint8 = iota
	CMD_WRITE
	CMD_VERIFY
	CMD_FORMAT
	CMD_SEEK
	CMD_RESET
	CMD_ISREADY
)

// Result codes produced by the dispatcher.
const (
	DISK_RET_SUCCESS       uint8 = 0x00
	DISK_RET_EPARAM        uint8 = 0x01
	DISK_RET_EWRITEPROTECT uint8 = 0x03
	DISK_RET_EBADTRACK     uint8 = 0x0c
	DISK_RET_ENOTREADY     uint8 = 0xaa
)

// Drive types.
const (
	DTYPE_NONE uint8 = iota
	DTYPE_ATA
	DTYPE_ATAPI
)

// IDENTIFY response word indices consumed by the parser.
const (
	ID_W_CONFIG      = 0   // general configuration (removable bit, ATAPI type)
	ID_W_CYLINDERS   = 1   // legacy cylinder count
	ID_W_HEADS       = 3   // legacy head count
	ID_W_SPT         = 6   // legacy sectors per track
	ID_W_MODEL       = 27  // words 27..46: model string, byte-swapped
	ID_W_VERSION     = 80  // major version bitmap
	ID_W_CMDSET2     = 83  // bit 10: 48-bit LBA supported
	ID_W_RESETRESULT = 93  // hardware reset result
	ID_W_LBA28       = 60  // words 60..61: 28-bit total sectors
	ID_W_LBA48       = 100 // words 100..103: 48-bit total sectors

	ID_MODEL_WORDS = 20 // 40 model characters
)

// Legacy ISA port assignment used when bus discovery reports nothing.
const (
	PORT_ATA1_CMD_BASE  uint16 = 0x1f0
	PORT_ATA1_CTRL_BASE uint16 = 0x3f0
	PORT_ATA2_CMD_BASE  uint16 = 0x170
	PORT_ATA2_CTRL_BASE uint16 = 0x370

	IRQ_ATA1 uint8 = 14
	IRQ_ATA2 uint8 = 15
)
