package qcaspi

import (
	"encoding/binary"
	"fmt"
)

// Conn 全双工 SPI 连接；每次 Tx 对应一次片选周期。
// periph.io 的 spi.Conn 满足该接口。
type Conn interface {
	Tx(w, r []byte) error
}

// Device QCA7000 寄存器级访问
type Device struct {
	conn Conn
}

// New 包装 SPI 连接
func New(conn Conn) *Device {
	return &Device{conn: conn}
}

func command(flags, reg uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], flags|reg)
	return b[:]
}

// ReadRegister 读 16 位内部寄存器
func (d *Device) ReadRegister(reg uint16) (uint16, error) {
	w := append(command(CmdRead|CmdInternal, reg), 0x00, 0x00)
	r := make([]byte, len(w))
	if err := d.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("read register 0x%04X: %w", reg, err)
	}
	return binary.BigEndian.Uint16(r[2:4]), nil
}

// WriteRegister 写 16 位内部寄存器
func (d *Device) WriteRegister(reg, value uint16) error {
	w := command(CmdWrite|CmdInternal, reg)
	w = binary.BigEndian.AppendUint16(w, value)
	if err := d.conn.Tx(w, make([]byte, len(w))); err != nil {
		return fmt.Errorf("write register 0x%04X: %w", reg, err)
	}
	return nil
}

// WriteBurst 发送一帧以太网数据：先写 BFR_SIZE = len+10，再在一个片选周期内写
// 命令字 + AA AA AA AA + len(LE16) + 00 00 + data + 55 55。
// 不检查芯片写空间，调用方负责失步后的重同步。
func (d *Device) WriteBurst(data []byte) error {
	total := len(data) + burstOverhead
	if total > BufferSize {
		return fmt.Errorf("write burst: %d bytes exceeds modem buffer", len(data))
	}
	if err := d.WriteRegister(RegBfrSize, uint16(total)); err != nil {
		return err
	}
	w := make([]byte, 0, 2+total)
	w = append(w, command(CmdWrite|CmdExternal, 0)...)
	w = append(w, preambleByte, preambleByte, preambleByte, preambleByte)
	w = binary.LittleEndian.AppendUint16(w, uint16(len(data)))
	w = append(w, 0x00, 0x00)
	w = append(w, data...)
	w = append(w, trailerByte, trailerByte)
	if err := d.conn.Tx(w, make([]byte, len(w))); err != nil {
		return fmt.Errorf("write burst: %w", err)
	}
	return nil
}

// ReadBurst 读取芯片接收缓冲区。可读字节为 0 或超过缓冲区容量时按"无数据"处理，返回 0。
func (d *Device) ReadBurst(dst []byte) (int, error) {
	available, err := d.ReadRegister(RegRdbufByteAva)
	if err != nil {
		return 0, err
	}
	n := int(available)
	if n == 0 || n > BufferSize || n > len(dst) {
		return 0, nil
	}
	if err := d.WriteRegister(RegBfrSize, available); err != nil {
		return 0, err
	}
	w := make([]byte, 2+n)
	copy(w, command(CmdRead|CmdExternal, 0))
	r := make([]byte, len(w))
	if err := d.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("read burst: %w", err)
	}
	copy(dst, r[2:])
	return n, nil
}

// Reset 置位 SPI_CONFIG 的 CPU_ON 位，使芯片回到上电状态
func (d *Device) Reset() error {
	v, err := d.ReadRegister(RegSpiConfig)
	if err != nil {
		return err
	}
	return d.WriteRegister(RegSpiConfig, v|IntCPUOn)
}

// Signature 读签名寄存器
func (d *Device) Signature() (uint16, error) {
	return d.ReadRegister(RegSignature)
}

// WriteSpace 读可写空间
func (d *Device) WriteSpace() (uint16, error) {
	return d.ReadRegister(RegWrbufSpcAva)
}

// AckInterrupts 关中断、读出并回写中断原因，再只打开"有包可读"中断。返回读到的原因。
func (d *Device) AckInterrupts() (uint16, error) {
	if err := d.WriteRegister(RegIntrEnable, 0); err != nil {
		return 0, err
	}
	cause, err := d.ReadRegister(RegIntrCause)
	if err != nil {
		return 0, err
	}
	if err := d.WriteRegister(RegIntrCause, cause); err != nil {
		return cause, err
	}
	return cause, d.WriteRegister(RegIntrEnable, IntPktAvlbl)
}
