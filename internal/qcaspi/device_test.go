package qcaspi_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdems/evse-plc/internal/qcaspi"
	"github.com/devdems/evse-plc/internal/qcaspi/sim"
)

// recConn 记录每次片选周期的写入数据
type recConn struct {
	txs   [][]byte
	reply func(w, r []byte)
	err   error
}

func (c *recConn) Tx(w, r []byte) error {
	c.txs = append(c.txs, append([]byte(nil), w...))
	if c.err != nil {
		return c.err
	}
	if c.reply != nil {
		c.reply(w, r)
	}
	return nil
}

func TestReadRegister_CommandWord(t *testing.T) {
	c := &recConn{reply: func(w, r []byte) { r[2], r[3] = 0xAA, 0x55 }}
	d := qcaspi.New(c)

	v, err := d.ReadRegister(qcaspi.RegSignature)
	require.NoError(t, err)
	assert.Equal(t, qcaspi.GoodSignature, v)
	require.Len(t, c.txs, 1)
	// read | internal | 0x1A00 = 0xDA00
	assert.Equal(t, []byte{0xDA, 0x00, 0x00, 0x00}, c.txs[0])
}

func TestWriteRegister_CommandWord(t *testing.T) {
	c := &recConn{}
	d := qcaspi.New(c)
	require.NoError(t, d.WriteRegister(qcaspi.RegBfrSize, 70))
	assert.Equal(t, []byte{0x41, 0x00, 0x00, 0x46}, c.txs[0])
}

func TestWriteBurst_Framing(t *testing.T) {
	c := &recConn{}
	d := qcaspi.New(c)
	payload := bytes.Repeat([]byte{0x11}, 60)

	require.NoError(t, d.WriteBurst(payload))
	require.Len(t, c.txs, 2)
	// BFR_SIZE = len + 10
	assert.Equal(t, uint16(70), binary.BigEndian.Uint16(c.txs[0][2:4]))

	burst := c.txs[1]
	assert.Equal(t, []byte{0x00, 0x00}, burst[0:2], "write | external")
	assert.Equal(t, []byte{0xAA, 0xAA, 0xAA, 0xAA, 60, 0, 0, 0}, burst[2:10])
	assert.Equal(t, payload, burst[10:70])
	assert.Equal(t, []byte{0x55, 0x55}, burst[70:72])
}

func TestWriteBurst_TooLarge(t *testing.T) {
	d := qcaspi.New(&recConn{})
	assert.Error(t, d.WriteBurst(make([]byte, qcaspi.BufferSize)))
}

func TestReadBurst_Sim(t *testing.T) {
	m := sim.NewModem()
	d := qcaspi.New(m)
	frame := bytes.Repeat([]byte{0x42}, 64)
	m.InjectFrame(frame)

	buf := make([]byte, qcaspi.BufferSize)
	n, err := d.ReadBurst(buf)
	require.NoError(t, err)
	assert.Equal(t, 64+14, n)

	frames, err := qcaspi.Deframe(buf[:n])
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, frame, frames[0])
	assert.Equal(t, 0, m.Pending())
}

func TestReadBurst_NothingOrOversized(t *testing.T) {
	m := sim.NewModem()
	d := qcaspi.New(m)
	buf := make([]byte, qcaspi.BufferSize)

	n, err := d.ReadBurst(buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	// 超过芯片缓冲区容量视为无数据
	m.InjectRaw(make([]byte, qcaspi.BufferSize+1))
	n, err = d.ReadBurst(buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReadBurst_TransportError(t *testing.T) {
	d := qcaspi.New(&recConn{err: errors.New("bus")})
	_, err := d.ReadBurst(make([]byte, 100))
	assert.Error(t, err)
}

func TestReset_SetsCPUOn(t *testing.T) {
	m := sim.NewModem()
	d := qcaspi.New(m)
	m.InjectFrame(make([]byte, 60))

	require.NoError(t, d.Reset())
	assert.Equal(t, 1, m.Resets())
	assert.Zero(t, m.Pending())
}

func TestAckInterrupts(t *testing.T) {
	m := sim.NewModem()
	d := qcaspi.New(m)
	require.NoError(t, d.WriteRegister(qcaspi.RegIntrCause, qcaspi.IntPktAvlbl|qcaspi.IntCPUOn))

	cause, err := d.AckInterrupts()
	require.NoError(t, err)
	assert.Equal(t, qcaspi.IntPktAvlbl|qcaspi.IntCPUOn, cause)
	assert.Equal(t, qcaspi.IntPktAvlbl, m.Register(qcaspi.RegIntrEnable))
}

func TestWriteBurst_SimCapturesFrame(t *testing.T) {
	m := sim.NewModem()
	d := qcaspi.New(m)
	frame := bytes.Repeat([]byte{0x07}, 109)
	require.NoError(t, d.WriteBurst(frame))
	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, frame, sent[0])
	assert.Zero(t, m.BadBursts())
}
