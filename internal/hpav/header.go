package hpav

import (
	"encoding/binary"
	"errors"
)

// 以太网帧常量
const (
	EtherTypeHomePlugAV uint16 = 0x88E1
	EtherTypeIPv6       uint16 = 0x86DD

	HeaderLen   = 19 // dst(6) + src(6) + ethertype(2) + ver(1) + mmtype(2) + frag(2)
	MinFrameLen = 60 // 以太网最小帧长（不含 FCS）

	Version1_0 = 0x00
	Version1_1 = 0x01
)

var (
	ErrShortFrame = errors.New("hpav: short frame")
	ErrNotHPAV    = errors.New("hpav: not a homeplug av frame")
)

// Header 公共以太网 + 管理消息头
type Header struct {
	Dst     MAC
	Src     MAC
	Version byte
	MMType  MMType
}

// put 写入 0-16 字节；17-18 分片字段保持为 0（本角色只发未分片消息）
func (h Header) put(b []byte) {
	copy(b[0:6], h.Dst[:])
	copy(b[6:12], h.Src[:])
	binary.BigEndian.PutUint16(b[12:14], EtherTypeHomePlugAV)
	b[14] = h.Version
	binary.LittleEndian.PutUint16(b[15:17], uint16(h.MMType))
}

// ParseHeader 解析公共头
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderLen {
		return h, ErrShortFrame
	}
	if EtherType(b) != EtherTypeHomePlugAV {
		return h, ErrNotHPAV
	}
	copy(h.Dst[:], b[0:6])
	copy(h.Src[:], b[6:12])
	h.Version = b[14]
	h.MMType = TypeOf(b)
	return h, nil
}

// EtherType 以太网类型字段（大端）
func EtherType(frame []byte) uint16 {
	if len(frame) < 14 {
		return 0
	}
	return uint16(frame[12])<<8 | uint16(frame[13])
}

// TypeOf 管理消息类型：byte[16]*256 + byte[15]
func TypeOf(frame []byte) MMType {
	if len(frame) < 17 {
		return 0
	}
	return MMType(uint16(frame[16])<<8 | uint16(frame[15]))
}

// Pad 补齐到以太网最小帧长
func Pad(frame []byte) []byte {
	if len(frame) >= MinFrameLen {
		return frame
	}
	out := make([]byte, MinFrameLen)
	copy(out, frame)
	return out
}

func srcOf(b []byte) MAC {
	var m MAC
	copy(m[:], b[6:12])
	return m
}

func dstOf(b []byte) MAC {
	var m MAC
	copy(m[:], b[0:6])
	return m
}
