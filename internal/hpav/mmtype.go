package hpav

import "fmt"

// MMType HomePlug AV 管理消息类型（基值 + 低两位子类型）
type MMType uint16

// 子类型（Table 11-2）
const (
	Req MMType = 0x0
	Cnf MMType = 0x1
	Ind MMType = 0x2
	Rsp MMType = 0x3
)

// 管理消息基值
const (
	CMSetKey          MMType = 0x6008
	CMSlacParam       MMType = 0x6064
	CMStartAttenChar  MMType = 0x6068
	CMAttenChar       MMType = 0x606C
	CMMnbcSound       MMType = 0x6074
	CMSlacMatch       MMType = 0x607C
	CMAttenProfile    MMType = 0x6084
	VSGetSw           MMType = 0xA000
	VSFactoryDefaults MMType = 0xA07C
)

// Base 去掉子类型后的基值
func (t MMType) Base() MMType { return t &^ 0x3 }

// Sub 子类型
func (t MMType) Sub() MMType { return t & 0x3 }

var baseNames = map[MMType]string{
	CMSetKey:          "CM_SET_KEY",
	CMSlacParam:       "CM_SLAC_PARAM",
	CMStartAttenChar:  "CM_START_ATTEN_CHAR",
	CMAttenChar:       "CM_ATTEN_CHAR",
	CMMnbcSound:       "CM_MNBC_SOUND",
	CMSlacMatch:       "CM_SLAC_MATCH",
	CMAttenProfile:    "CM_ATTEN_PROFILE",
	VSGetSw:           "VS_GET_SW",
	VSFactoryDefaults: "VS_FACTORY_DEFAULTS",
}

var subNames = [4]string{"REQ", "CNF", "IND", "RSP"}

func (t MMType) String() string {
	name, ok := baseNames[t.Base()]
	if !ok {
		return fmt.Sprintf("0x%04X", uint16(t))
	}
	return name + "." + subNames[t.Sub()]
}
