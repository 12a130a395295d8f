package devices

// Register offsets within the IDE command block (from the command port
// base) and control block (from the control port base).
const (
	IDE_REG_DATA    uint16 = 0
	IDE_REG_ERROR   uint16 = 1 // read
	IDE_REG_FEATURE uint16 = 1 // write
	IDE_REG_SECCNT  uint16 = 2
	IDE_REG_SECNUM  uint16 = 3
	IDE_REG_CYLLO   uint16 = 4
	IDE_REG_CYLHI   uint16 = 5
	IDE_REG_DEVHEAD uint16 = 6
	IDE_REG_STATUS  uint16 = 7 // read
	IDE_REG_COMMAND uint16 = 7 // write

	IDE_REG_ALTSTATUS uint16 = 6 // read, control block
	IDE_REG_DEVCTRL   uint16 = 6 // write, control block
)

// Status register bits.
const (
	IDE_ST_BSY  byte = 0x80
	IDE_ST_DRDY byte = 0x40
	IDE_ST_DF   byte = 0x20
	IDE_ST_DSC  byte = 0x10
	IDE_ST_DRQ  byte = 0x08
	IDE_ST_ERR  byte = 0x01
)

// Device control register bits.
const (
	IDE_CTRL_SRST byte = 0x04
	IDE_CTRL_NIEN byte = 0x02
)

// Device/head register bits.
const (
	IDE_DH_SLAVE byte = 0x10
	IDE_DH_LBA   byte = 0x40
)

// Command opcodes implemented by the emulation.
const (
	IDE_CMD_READ_SECTORS      byte = 0x20
	IDE_CMD_READ_SECTORS_EXT  byte = 0x24
	IDE_CMD_WRITE_SECTORS     byte = 0x30
	IDE_CMD_WRITE_SECTORS_EXT byte = 0x34
	IDE_CMD_PACKET            byte = 0xa0
	IDE_CMD_IDENTIFY_PACKET   byte = 0xa1
	IDE_CMD_IDENTIFY          byte = 0xec
)

// Error register values.
const (
	IDE_ERR_ABRT     byte = 0x04
	IDE_ERR_IDNF     byte = 0x10
	IDE_ERR_NOTREADY byte = 0x20 // ATAPI sense-key form
)

// SCSI opcode served by the packet emulation.
const IDE_PKT_READ10 byte = 0x28

// Transfer block sizes.
const (
	IDE_SECTOR_SIZE       = 512
	IDE_CDROM_SECTOR_SIZE = 2048
)

// Data-phase states.
const (
	idePhaseNone = iota
	idePhaseRead
	idePhaseWrite
	idePhaseCDB
)
