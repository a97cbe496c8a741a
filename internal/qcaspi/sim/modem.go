// Package sim 内存中的 QCA7000 模型：实现 qcaspi.Conn，供测试、回放与无硬件运行使用。
package sim

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/devdems/evse-plc/internal/hpav"
	"github.com/devdems/evse-plc/internal/qcaspi"
)

// Modem 模拟调制解调器
type Modem struct {
	mu sync.Mutex

	regs       map[uint16]uint16
	signature  uint16
	writeSpace uint16
	rx         []byte
	sent       [][]byte
	resets     int
	badBursts  int
	dropped    int

	autoReply bool
	modemMAC  hpav.MAC
	peers     []hpav.MAC
}

// Option 配置项
type Option func(*Modem)

// WithAutoReply 自动应答 SET_KEY.REQ（来自 modemMAC）与 GET_SW.REQ（modemMAC 与各 peer 各回一次）
func WithAutoReply(modemMAC hpav.MAC, peers ...hpav.MAC) Option {
	return func(m *Modem) {
		m.autoReply = true
		m.modemMAC = modemMAC
		m.peers = append([]hpav.MAC(nil), peers...)
	}
}

// NewModem 创建处于正常状态的模拟芯片
func NewModem(opts ...Option) *Modem {
	m := &Modem{
		regs:       make(map[uint16]uint16),
		signature:  qcaspi.GoodSignature,
		writeSpace: qcaspi.BufferSize,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Tx 实现 qcaspi.Conn
func (m *Modem) Tx(w, r []byte) error {
	if len(w) < 2 {
		return errors.New("sim: short transaction")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := binary.BigEndian.Uint16(w[0:2])
	read := cmd&qcaspi.CmdRead != 0
	internal := cmd&qcaspi.CmdInternal != 0
	reg := cmd &^ (qcaspi.CmdRead | qcaspi.CmdInternal)

	switch {
	case internal && read:
		if len(r) >= 4 {
			binary.BigEndian.PutUint16(r[2:4], m.readReg(reg))
		}
	case internal:
		if len(w) >= 4 {
			m.writeReg(reg, binary.BigEndian.Uint16(w[2:4]))
		}
	case read:
		n := int(m.regs[qcaspi.RegBfrSize])
		if n > len(m.rx) {
			n = len(m.rx)
		}
		if n > len(r)-2 {
			n = len(r) - 2
		}
		copy(r[2:], m.rx[:n])
		m.rx = m.rx[n:]
	default:
		m.acceptBurst(w[2:])
	}
	return nil
}

func (m *Modem) readReg(reg uint16) uint16 {
	switch reg {
	case qcaspi.RegSignature:
		return m.signature
	case qcaspi.RegWrbufSpcAva:
		return m.writeSpace
	case qcaspi.RegRdbufByteAva:
		return uint16(len(m.rx))
	}
	return m.regs[reg]
}

func (m *Modem) writeReg(reg, v uint16) {
	if reg == qcaspi.RegSpiConfig && v&qcaspi.IntCPUOn != 0 {
		m.resets++
		m.rx = nil
		v &^= qcaspi.IntCPUOn
	}
	m.regs[reg] = v
}

func (m *Modem) acceptBurst(b []byte) {
	if len(b) < 10 || b[0] != 0xAA || b[1] != 0xAA || b[2] != 0xAA || b[3] != 0xAA {
		m.badBursts++
		return
	}
	n := int(binary.LittleEndian.Uint16(b[4:6]))
	if len(b) != n+10 || b[8+n] != 0x55 || b[9+n] != 0x55 || int(m.regs[qcaspi.RegBfrSize]) != n+10 {
		m.badBursts++
		return
	}
	frame := append([]byte(nil), b[8:8+n]...)
	m.sent = append(m.sent, frame)
	if m.autoReply {
		m.reply(frame)
	}
}

func (m *Modem) reply(frame []byte) {
	h, err := hpav.ParseHeader(frame)
	if err != nil {
		return
	}
	switch h.MMType {
	case hpav.CMSetKey | hpav.Req:
		m.enqueue(qcaspi.Enframe((&hpav.SetKeyCnf{Src: m.modemMAC, Dst: h.Src, Result: hpav.SetKeyResultOK}).Encode()))
	case hpav.VSGetSw | hpav.Req:
		for _, mac := range append([]hpav.MAC{m.modemMAC}, m.peers...) {
			m.enqueue(qcaspi.Enframe((&hpav.GetSwCnf{Src: mac, Dst: h.Src}).Encode()))
		}
	}
}

// enqueue 接收缓冲区容量为 qcaspi.BufferSize，放不下的整块丢弃
func (m *Modem) enqueue(b []byte) bool {
	if len(m.rx)+len(b) > qcaspi.BufferSize {
		m.dropped++
		return false
	}
	m.rx = append(m.rx, b...)
	return true
}

// InjectFrame 以接收缓冲区格式排入一帧；缓冲区满时丢弃并返回 false
func (m *Modem) InjectFrame(frame []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueue(qcaspi.Enframe(frame))
}

// InjectRaw 原样排入字节（用于构造损坏数据）
func (m *Modem) InjectRaw(b []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueue(b)
}

// Sent 已发送帧的副本
func (m *Modem) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	for i, f := range m.sent {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// TakeSent 取出并清空已发送帧
func (m *Modem) TakeSent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sent
	m.sent = nil
	return out
}

func (m *Modem) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

func (m *Modem) BadBursts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.badBursts
}

// Dropped 因接收缓冲区满而丢弃的次数
func (m *Modem) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Pending 接收缓冲区中待读字节数
func (m *Modem) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rx)
}

func (m *Modem) SetSignature(v uint16) {
	m.mu.Lock()
	m.signature = v
	m.mu.Unlock()
}

func (m *Modem) SetWriteSpace(v uint16) {
	m.mu.Lock()
	m.writeSpace = v
	m.mu.Unlock()
}

// Register 读取寄存器当前值（测试用）
func (m *Modem) Register(reg uint16) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[reg]
}
