package devices

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
)

// IDEDrive is the configuration of one emulated device position. Data, when
// set, is the byte-addressed backing store; without it reads serve the
// deterministic pattern from FillSector and writes are discarded.
//
// The fault-injection fields let tests force specific failure shapes:
// FailAfterBlocks asserts the error bit in place of the data-request bit
// once that many blocks have moved, HangAfterBlocks keeps the busy bit set
// forever after that many blocks, FinalStatusErr asserts the error bit on
// an otherwise completed transfer, and PacketErr fails every packet command
// with that error-register value.
type IDEDrive struct {
	Model       string
	ATAPI       bool
	IsCD        bool
	Removable   bool
	Version     int
	Cylinders   uint16
	Heads       uint16
	SPT         uint16
	Sectors     uint64
	LBA48       bool
	ResetResult uint16
	Data        []byte

	FailAfterBlocks int
	HangAfterBlocks int
	FinalStatusErr  bool
	PacketErr       byte
}

// ideReg is a command-block register with a one-deep previous-value latch,
// as required for the 48-bit command protocol.
type ideReg struct {
	cur, prev byte
}

func (r *ideReg) write(v byte) {
	r.prev = r.cur
	r.cur = v
}

// IDEChannel emulates one polled-PIO IDE channel with up to two attached
// drives. It decodes the command block at cmdBase and the control block at
// ctrlBase. A channel with no drives floats the bus: every read returns
// all-ones. A present channel with an absent selected position reads zero.
type IDEChannel struct {
	mu       sync.Mutex
	cmdBase  uint16
	ctrlBase uint16
	drives   [2]*IDEDrive
	Debug    bool

	devHead byte
	feature byte
	ctrl    byte
	sc      ideReg
	sn      ideReg
	cl      ideReg
	ch      ideReg
	status  byte
	errReg  byte
	hang    bool

	phase      int
	buf        []byte
	pos        int
	blockSize  int
	blocksDone int
	lba        uint64
	cdb        []byte
	pktLimit   int
}

// NewIDEChannel creates a channel with the given port bases and drive
// positions (either may be nil).
func NewIDEChannel(cmdBase, ctrlBase uint16, master, slave *IDEDrive) *IDEChannel {
	c := &IDEChannel{
		cmdBase:  cmdBase,
		ctrlBase: ctrlBase,
		drives:   [2]*IDEDrive{master, slave},
		devHead:  0xa0,
	}
	c.status = c.statusFor(c.selected())
	return c
}

// Register claims the channel's two port blocks on the bus.
func (c *IDEChannel) Register(bus *IOBus) {
	bus.RegisterDevice(c.cmdBase, c.cmdBase+7, c)
	bus.RegisterDevice(c.ctrlBase, c.ctrlBase+7, c)
}

func (c *IDEChannel) selected() *IDEDrive {
	return c.drives[(c.devHead>>4)&1]
}

// statusFor is the idle status presented by a device position.
func (c *IDEChannel) statusFor(d *IDEDrive) byte {
	if d == nil || d.ATAPI {
		return 0
	}
	return IDE_ST_DRDY | IDE_ST_DSC
}

// HandleIO implements PioDevice.
func (c *IDEChannel) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drives[0] == nil && c.drives[1] == nil {
		if direction == IODirectionIn {
			for i := range data {
				data[i] = 0xff
			}
		}
		return nil
	}

	if port >= c.ctrlBase && port < c.ctrlBase+8 {
		return c.handleCtrl(port-c.ctrlBase, direction, data)
	}
	if port >= c.cmdBase && port < c.cmdBase+8 {
		return c.handleCmd(port-c.cmdBase, direction, data)
	}
	return fmt.Errorf("IDEChannel: I/O to unmapped port 0x%x", port)
}

func (c *IDEChannel) handleCtrl(offset uint16, direction uint8, data []byte) error {
	if offset != IDE_REG_DEVCTRL {
		if direction == IODirectionIn {
			for i := range data {
				data[i] = 0
			}
		}
		return nil
	}
	if direction == IODirectionIn {
		data[0] = c.readStatus()
		return nil
	}
	prev := c.ctrl
	c.ctrl = data[0]
	if c.ctrl&IDE_CTRL_SRST != 0 {
		c.status = IDE_ST_BSY
	} else if prev&IDE_CTRL_SRST != 0 {
		c.completeReset()
	}
	return nil
}

// completeReset applies the soft-reset effects when the reset bit is
// released: master selected, data phase dropped, idle status restored.
func (c *IDEChannel) completeReset() {
	c.devHead = 0xa0
	c.phase = idePhaseNone
	c.hang = false
	c.errReg = 0x01 // diagnostic code: device 0 passed
	c.status = c.statusFor(c.selected())
	if c.Debug {
		log.Printf("IDEChannel 0x%x: soft reset complete", c.cmdBase)
	}
}

func (c *IDEChannel) handleCmd(offset uint16, direction uint8, data []byte) error {
	if direction == IODirectionIn {
		c.readCmdReg(offset, data)
		return nil
	}
	switch offset {
	case IDE_REG_DATA:
		c.writeData(data)
	case IDE_REG_FEATURE:
		c.feature = data[0]
	case IDE_REG_SECCNT:
		c.sc.write(data[0])
	case IDE_REG_SECNUM:
		c.sn.write(data[0])
	case IDE_REG_CYLLO:
		c.cl.write(data[0])
	case IDE_REG_CYLHI:
		c.ch.write(data[0])
	case IDE_REG_DEVHEAD:
		c.devHead = data[0]
		c.phase = idePhaseNone
		c.hang = false
		c.status = c.statusFor(c.selected())
	case IDE_REG_COMMAND:
		if d := c.selected(); d != nil {
			c.execCommand(d, data[0])
		}
	}
	return nil
}

func (c *IDEChannel) readCmdReg(offset uint16, data []byte) {
	if c.selected() == nil {
		for i := range data {
			data[i] = 0
		}
		return
	}
	switch offset {
	case IDE_REG_DATA:
		c.readData(data)
	case IDE_REG_ERROR:
		data[0] = c.errReg
	case IDE_REG_SECCNT:
		data[0] = c.sc.cur
	case IDE_REG_SECNUM:
		data[0] = c.sn.cur
	case IDE_REG_CYLLO:
		data[0] = c.cl.cur
	case IDE_REG_CYLHI:
		data[0] = c.ch.cur
	case IDE_REG_DEVHEAD:
		data[0] = c.devHead
	case IDE_REG_STATUS:
		data[0] = c.readStatus()
	}
}

func (c *IDEChannel) readStatus() byte {
	if c.selected() == nil {
		return 0
	}
	if c.hang {
		return IDE_ST_BSY
	}
	return c.status
}

func (c *IDEChannel) abort() {
	c.phase = idePhaseNone
	c.errReg = IDE_ERR_ABRT
	c.status = IDE_ST_DRDY | IDE_ST_ERR
}

func (c *IDEChannel) execCommand(d *IDEDrive, opcode byte) {
	c.errReg = 0
	if c.Debug {
		log.Printf("IDEChannel 0x%x: command 0x%02x", c.cmdBase, opcode)
	}
	switch opcode {
	case IDE_CMD_IDENTIFY:
		if d.ATAPI {
			c.abort()
			return
		}
		c.startRead(identifyATA(d), IDE_SECTOR_SIZE)
	case IDE_CMD_IDENTIFY_PACKET:
		if !d.ATAPI {
			c.abort()
			return
		}
		c.startRead(identifyATAPI(d), IDE_SECTOR_SIZE)
	case IDE_CMD_READ_SECTORS, IDE_CMD_READ_SECTORS_EXT:
		// Packet devices abort non-packet data commands.
		if d.ATAPI {
			c.abort()
			return
		}
		lba, count := c.decodeAddress(opcode == IDE_CMD_READ_SECTORS_EXT)
		c.lba = lba
		c.startRead(c.readBlocks(d, lba, count, IDE_SECTOR_SIZE), IDE_SECTOR_SIZE)
	case IDE_CMD_WRITE_SECTORS, IDE_CMD_WRITE_SECTORS_EXT:
		if d.ATAPI {
			c.abort()
			return
		}
		lba, count := c.decodeAddress(opcode == IDE_CMD_WRITE_SECTORS_EXT)
		c.lba = lba
		c.startWrite(count, IDE_SECTOR_SIZE)
	case IDE_CMD_PACKET:
		if !d.ATAPI {
			c.abort()
			return
		}
		c.phase = idePhaseCDB
		c.cdb = c.cdb[:0]
		c.pktLimit = int(c.cl.cur) | int(c.ch.cur)<<8
		c.status = IDE_ST_DRQ
	default:
		c.abort()
	}
}

// decodeAddress recovers the block address and count from the command
// registers. The 48-bit form uses the previous-value latches for the high
// halves.
func (c *IDEChannel) decodeAddress(ext bool) (uint64, int) {
	if ext {
		count := int(c.sc.prev)<<8 | int(c.sc.cur)
		if count == 0 {
			count = 65536
		}
		lba := uint64(c.sn.cur) | uint64(c.cl.cur)<<8 | uint64(c.ch.cur)<<16 |
			uint64(c.sn.prev)<<24 | uint64(c.cl.prev)<<32 | uint64(c.ch.prev)<<40
		return lba, count
	}
	count := int(c.sc.cur)
	if count == 0 {
		count = 256
	}
	lba := uint64(c.sn.cur) | uint64(c.cl.cur)<<8 | uint64(c.ch.cur)<<16 |
		uint64(c.devHead&0x0f)<<24
	return lba, count
}

// readBlocks materializes the full response for a read command from the
// drive's backing store or the fill pattern.
func (c *IDEChannel) readBlocks(d *IDEDrive, lba uint64, count, blockSize int) []byte {
	buf := make([]byte, count*blockSize)
	for b := 0; b < count; b++ {
		block := buf[b*blockSize : (b+1)*blockSize]
		off := (lba + uint64(b)) * uint64(blockSize)
		if d.Data != nil && off+uint64(blockSize) <= uint64(len(d.Data)) {
			copy(block, d.Data[off:])
		} else {
			FillSector(block, lba+uint64(b))
		}
	}
	return buf
}

func (c *IDEChannel) startRead(buf []byte, blockSize int) {
	c.phase = idePhaseRead
	c.buf = buf
	c.pos = 0
	c.blockSize = blockSize
	c.blocksDone = 0
	c.status = IDE_ST_DRDY | IDE_ST_DSC | IDE_ST_DRQ
}

func (c *IDEChannel) startWrite(count, blockSize int) {
	c.phase = idePhaseWrite
	c.buf = make([]byte, count*blockSize)
	c.pos = 0
	c.blockSize = blockSize
	c.blocksDone = 0
	c.status = IDE_ST_DRDY | IDE_ST_DSC | IDE_ST_DRQ
}

func (c *IDEChannel) readData(data []byte) {
	if c.phase != idePhaseRead {
		for i := range data {
			data[i] = 0
		}
		return
	}
	n := copy(data, c.buf[c.pos:])
	for i := n; i < len(data); i++ {
		data[i] = 0
	}
	c.pos += n
	if c.pos%c.blockSize == 0 || c.pos >= len(c.buf) {
		c.blockDone(false)
	}
}

func (c *IDEChannel) writeData(data []byte) {
	switch c.phase {
	case idePhaseCDB:
		c.cdb = append(c.cdb, data...)
		if len(c.cdb) >= 12 {
			c.finishPacket(c.selected())
		}
	case idePhaseWrite:
		n := copy(c.buf[c.pos:], data)
		c.pos += n
		if c.pos%c.blockSize == 0 || c.pos >= len(c.buf) {
			c.blockDone(true)
		}
	}
}

// blockDone applies the per-block status transition and the configured
// fault injections once a full block has crossed the data register.
func (c *IDEChannel) blockDone(isWrite bool) {
	d := c.selected()
	c.blocksDone++
	if isWrite && d != nil && d.Data != nil {
		off := (c.lba + uint64(c.blocksDone-1)) * uint64(c.blockSize)
		if off+uint64(c.blockSize) <= uint64(len(d.Data)) {
			copy(d.Data[off:], c.buf[(c.blocksDone-1)*c.blockSize:c.blocksDone*c.blockSize])
		}
	}
	if d != nil && d.HangAfterBlocks > 0 && c.blocksDone >= d.HangAfterBlocks {
		c.hang = true
		return
	}
	if c.pos >= len(c.buf) {
		c.phase = idePhaseNone
		c.status = IDE_ST_DRDY | IDE_ST_DSC
		if d != nil && d.FinalStatusErr {
			c.errReg = IDE_ERR_IDNF
			c.status |= IDE_ST_ERR
		}
		return
	}
	if d != nil && d.FailAfterBlocks > 0 && c.blocksDone >= d.FailAfterBlocks {
		c.phase = idePhaseNone
		c.errReg = IDE_ERR_IDNF
		c.status = IDE_ST_DRDY | IDE_ST_ERR
		return
	}
	c.status = IDE_ST_DRDY | IDE_ST_DSC | IDE_ST_DRQ
}

// finishPacket executes a completed 12-byte command block. Only READ(10)
// produces data; anything else completes with no data phase.
func (c *IDEChannel) finishPacket(d *IDEDrive) {
	c.phase = idePhaseNone
	if d.PacketErr != 0 {
		c.errReg = d.PacketErr
		c.status = IDE_ST_DRDY | IDE_ST_ERR
		return
	}
	if c.cdb[0] == IDE_PKT_READ10 {
		lba := uint64(binary.BigEndian.Uint32(c.cdb[2:6]))
		count := int(binary.BigEndian.Uint16(c.cdb[7:9]))
		blockSize := c.pktLimit
		if blockSize == 0 {
			blockSize = IDE_CDROM_SECTOR_SIZE
		}
		c.lba = lba
		c.startRead(c.readBlocks(d, lba, count, blockSize), blockSize)
		return
	}
	c.status = IDE_ST_DRDY | IDE_ST_DSC
}

// FillSector writes the deterministic content served for unbacked blocks,
// so tests can compute expected data without a backing store.
func FillSector(buf []byte, lba uint64) {
	for i := range buf {
		buf[i] = byte(lba + uint64(i)*7)
	}
}

func putIdentifyWord(buf []byte, n int, v uint16) {
	binary.LittleEndian.PutUint16(buf[n*2:], v)
}

func putIdentifyModel(buf []byte, model string) {
	padded := make([]byte, 40)
	for i := range padded {
		padded[i] = ' '
	}
	copy(padded, model)
	for i := 0; i < 20; i++ {
		// Model characters are stored byte-swapped within each word.
		putIdentifyWord(buf, 27+i, uint16(padded[i*2])<<8|uint16(padded[i*2+1]))
	}
}

func identifyATA(d *IDEDrive) []byte {
	buf := make([]byte, IDE_SECTOR_SIZE)
	config := uint16(0x0040)
	if d.Removable {
		config |= 0x0080
	}
	putIdentifyWord(buf, 0, config)
	putIdentifyWord(buf, 1, d.Cylinders)
	putIdentifyWord(buf, 3, d.Heads)
	putIdentifyWord(buf, 6, d.SPT)
	putIdentifyModel(buf, d.Model)
	putIdentifyWord(buf, 49, 0x0200) // LBA supported

	lba28 := d.Sectors
	if lba28 > 0x0fffffff {
		lba28 = 0x0fffffff
	}
	putIdentifyWord(buf, 60, uint16(lba28))
	putIdentifyWord(buf, 61, uint16(lba28>>16))
	putIdentifyWord(buf, 80, 1<<uint(d.Version))
	cmdset2 := uint16(0x4000)
	if d.LBA48 {
		cmdset2 |= 1 << 10
		putIdentifyWord(buf, 100, uint16(d.Sectors))
		putIdentifyWord(buf, 101, uint16(d.Sectors>>16))
		putIdentifyWord(buf, 102, uint16(d.Sectors>>32))
		putIdentifyWord(buf, 103, uint16(d.Sectors>>48))
	}
	putIdentifyWord(buf, 83, cmdset2)
	putIdentifyWord(buf, 93, d.ResetResult)
	return buf
}

func identifyATAPI(d *IDEDrive) []byte {
	buf := make([]byte, IDE_SECTOR_SIZE)
	class := uint16(0x01) // sequential-access unless marked CD
	if d.IsCD {
		class = 0x05
	}
	config := uint16(0x8000) | class<<8
	if d.Removable {
		config |= 0x0080
	}
	putIdentifyWord(buf, 0, config)
	putIdentifyModel(buf, d.Model)
	putIdentifyWord(buf, 80, 1<<uint(d.Version))
	return buf
}
