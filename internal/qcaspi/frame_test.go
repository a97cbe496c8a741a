package qcaspi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeframe_Multiple(t *testing.T) {
	f1 := bytes.Repeat([]byte{0x01}, 60)
	f2 := bytes.Repeat([]byte{0x02}, 109)
	buf := append(Enframe(f1), Enframe(f2)...)

	frames, err := Deframe(buf)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, f1, frames[0])
	assert.Equal(t, f2, frames[1])
}

func TestDeframe_IgnoresShortTail(t *testing.T) {
	f1 := bytes.Repeat([]byte{0x01}, 60)
	buf := append(Enframe(f1), 0x00, 0x00, 0x00)
	frames, err := Deframe(buf)
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestDeframe_MissingPreamble(t *testing.T) {
	buf := Enframe(make([]byte, 60))
	buf[5] = 0x00
	_, err := Deframe(buf)
	assert.ErrorIs(t, err, ErrBadFraming)
}

func TestDeframe_ImplausibleLength(t *testing.T) {
	buf := Enframe(make([]byte, 60))
	buf[8], buf[9] = 10, 0 // < 60
	_, err := Deframe(buf)
	assert.ErrorIs(t, err, ErrBadFraming)

	buf = Enframe(make([]byte, 60))
	buf[8], buf[9] = 0xFF, 0x0F // 超出本次数据
	_, err = Deframe(buf)
	assert.ErrorIs(t, err, ErrBadFraming)
}

func TestDeframe_MissingTrailer(t *testing.T) {
	buf := Enframe(make([]byte, 60))
	buf[len(buf)-1] = 0x00
	_, err := Deframe(buf)
	assert.ErrorIs(t, err, ErrBadFraming)
}

func TestDeframe_GoodThenBad(t *testing.T) {
	good := Enframe(bytes.Repeat([]byte{0x01}, 60))
	bad := Enframe(make([]byte, 60))
	bad[4] = 0x00
	frames, err := Deframe(append(good, bad...))
	assert.ErrorIs(t, err, ErrBadFraming)
	assert.Len(t, frames, 1)
}

func TestDeframe_ShortBurst(t *testing.T) {
	_, err := Deframe([]byte{0x00, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrBadFraming)
}
