package hpav

import (
	"encoding/hex"
	"fmt"
	"net"
)

// MAC 以太网 MAC 地址（固定 6 字节，区别于 net.HardwareAddr）
type MAC [6]byte

// Broadcast 广播地址
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// LocalModemMAC 本地 QCA 调制解调器的厂商管理地址（SET_KEY / 恢复出厂命令的目的地址）
var LocalModemMAC = MAC{0x00, 0xB0, 0x52, 0x00, 0x00, 0x01}

func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// Hex 返回不带分隔符的小写十六进制（EVCCID 格式）
func (m MAC) Hex() string {
	return hex.EncodeToString(m[:])
}

// IsZero 是否全零
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// ParseMAC 解析 "aa:bb:cc:dd:ee:ff" 或 "aabbccddeeff"
func ParseMAC(s string) (MAC, error) {
	var m MAC
	if len(s) == 12 {
		b, err := hex.DecodeString(s)
		if err != nil {
			return m, fmt.Errorf("parse mac %q: %w", s, err)
		}
		copy(m[:], b)
		return m, nil
	}
	hw, err := net.ParseMAC(s)
	if err != nil {
		return m, fmt.Errorf("parse mac %q: %w", s, err)
	}
	if len(hw) != 6 {
		return m, fmt.Errorf("parse mac %q: need 6 bytes, got %d", s, len(hw))
	}
	copy(m[:], hw)
	return m, nil
}

// NID 网络标识（7 字节，最后一字节高两位保留为 0）
type NID [7]byte

// Valid 高两位是否为 0
func (n NID) Valid() bool {
	return n[6]&0xC0 == 0
}

func (n NID) String() string {
	return hex.EncodeToString(n[:])
}

// ParseNID 解析 14 位十六进制 NID
func ParseNID(s string) (NID, error) {
	var n NID
	b, err := hex.DecodeString(s)
	if err != nil {
		return n, fmt.Errorf("parse nid %q: %w", s, err)
	}
	if len(b) != len(n) {
		return n, fmt.Errorf("parse nid %q: need %d bytes, got %d", s, len(n), len(b))
	}
	copy(n[:], b)
	if !n.Valid() {
		return n, fmt.Errorf("parse nid %q: upper two bits of byte 6 must be zero", s)
	}
	return n, nil
}

// NMK 网络成员密钥
type NMK [16]byte

// RunID 车辆下发的会话关联标识
type RunID [8]byte

func (r RunID) String() string {
	return hex.EncodeToString(r[:])
}

// OUI 厂商标识
type OUI [3]byte

// QualcommOUI 高通 (Atheros) 厂商 OUI
var QualcommOUI = OUI{0x00, 0xB0, 0x52}
