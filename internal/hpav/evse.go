package hpav

// 本文件为充电桩 (EVSE) 侧发出的消息。
// 每个 Encode 先分配全零缓冲区再写入已定义字段，未定义字节保持为 0。

// 固定长度
const (
	SetKeyReqLen       = 60
	GetSwReqLen        = 20
	SlacParamCnfLen    = 60
	AttenCharIndLen    = 130
	SlacMatchCnfLen    = 109
	FactoryDefaultsLen = 20

	// SLAC 参数
	SoundCount     = 10   // 期望的 M-Sound 次数
	SoundTimeout   = 0x06 // 单位 100ms
	RespTypeOther  = 0x01 // 响应发给其他 GP 站点
	NumGroups      = 58   // 载波分组数
	MatchMVFLength = 0x56 // SLAC_MATCH.CNF MVF 长度
	KeyInfoNMK     = 0x01 // SET_KEY key info type
	PIDHLE         = 0x04 // 协议 ID：HLE 协议
	NewEKSNMK      = 0x01 // Table A.8: 01 = NMK
)

// Message 可编码的管理消息
type Message interface {
	Type() MMType
	Encode() []byte
}

// SetKeyReq CM_SET_KEY.REQ：为本地调制解调器配置 NMK/NID
type SetKeyReq struct {
	Src MAC
	NID NID
	NMK NMK
}

func (m *SetKeyReq) Type() MMType { return CMSetKey | Req }

func (m *SetKeyReq) Encode() []byte {
	b := make([]byte, SetKeyReqLen)
	Header{Dst: LocalModemMAC, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	b[19] = KeyInfoNMK
	b[28] = PIDHLE
	b[32] = 0x00 // CCo capability
	copy(b[33:40], m.NID[:])
	b[40] = NewEKSNMK
	copy(b[41:57], m.NMK[:])
	return b
}

func DecodeSetKeyReq(b []byte) (*SetKeyReq, error) {
	if len(b) < SetKeyReqLen {
		return nil, ErrShortFrame
	}
	m := &SetKeyReq{Src: srcOf(b)}
	copy(m.NID[:], b[33:40])
	copy(m.NMK[:], b[41:57])
	return m, nil
}

// GetSwReq VS_GET_SW.REQ：广播查询网络上的调制解调器
type GetSwReq struct {
	Src MAC
}

func (m *GetSwReq) Type() MMType { return VSGetSw | Req }

func (m *GetSwReq) Encode() []byte {
	b := make([]byte, GetSwReqLen)
	Header{Dst: Broadcast, Src: m.Src, Version: Version1_0, MMType: m.Type()}.put(b)
	copy(b[17:20], QualcommOUI[:])
	return b
}

func DecodeGetSwReq(b []byte) (*GetSwReq, error) {
	if len(b) < GetSwReqLen {
		return nil, ErrShortFrame
	}
	return &GetSwReq{Src: srcOf(b)}, nil
}

// SlacParamCnf CM_SLAC_PARAM.CNF
type SlacParamCnf struct {
	Src     MAC
	Vehicle MAC
	RunID   RunID
}

func (m *SlacParamCnf) Type() MMType { return CMSlacParam | Cnf }

func (m *SlacParamCnf) Encode() []byte {
	b := make([]byte, SlacParamCnfLen)
	Header{Dst: m.Vehicle, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	copy(b[19:25], Broadcast[:]) // M-SOUND target
	b[25] = SoundCount
	b[26] = SoundTimeout
	b[27] = RespTypeOther
	copy(b[28:34], m.Vehicle[:]) // forwarding_sta
	copy(b[36:44], m.RunID[:])
	return b
}

func DecodeSlacParamCnf(b []byte) (*SlacParamCnf, error) {
	if len(b) < SlacParamCnfLen {
		return nil, ErrShortFrame
	}
	m := &SlacParamCnf{Src: srcOf(b)}
	copy(m.Vehicle[:], b[28:34])
	copy(m.RunID[:], b[36:44])
	return m, nil
}

// AttenCharInd CM_ATTEN_CHAR.IND：把平均衰减结果告知车辆
type AttenCharInd struct {
	Src     MAC
	Vehicle MAC
	RunID   RunID
	Sounds  byte
	Atten   [NumGroups]byte
}

func (m *AttenCharInd) Type() MMType { return CMAttenChar | Ind }

func (m *AttenCharInd) Encode() []byte {
	b := make([]byte, AttenCharIndLen)
	Header{Dst: m.Vehicle, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	b[19] = 0x00 // app type
	b[20] = 0x00 // security
	copy(b[21:27], m.Vehicle[:])
	copy(b[27:35], m.RunID[:])
	// 35-51 source_id、52-68 response_id 全零 (ISO 15118-3 Table A.4)
	b[69] = m.Sounds
	b[70] = NumGroups
	copy(b[71:71+NumGroups], m.Atten[:])
	return b
}

func DecodeAttenCharInd(b []byte) (*AttenCharInd, error) {
	if len(b) < 71+NumGroups {
		return nil, ErrShortFrame
	}
	m := &AttenCharInd{Src: srcOf(b), Sounds: b[69]}
	copy(m.Vehicle[:], b[21:27])
	copy(m.RunID[:], b[27:35])
	copy(m.Atten[:], b[71:71+NumGroups])
	return m, nil
}

// SlacMatchCnf CM_SLAC_MATCH.CNF：下发 NID/NMK，车辆据此加入私有网络
type SlacMatchCnf struct {
	Src     MAC
	Vehicle MAC
	EVSE    MAC
	RunID   RunID
	NID     NID
	NMK     NMK
}

func (m *SlacMatchCnf) Type() MMType { return CMSlacMatch | Cnf }

func (m *SlacMatchCnf) Encode() []byte {
	b := make([]byte, SlacMatchCnfLen)
	Header{Dst: m.Vehicle, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	b[21] = MatchMVFLength
	b[22] = 0x00
	// 23-39 pev_id 全零
	copy(b[40:46], m.Vehicle[:])
	// 46-62 evse_id 全零
	copy(b[63:69], m.EVSE[:])
	copy(b[69:77], m.RunID[:])
	// 77-84 保留
	copy(b[85:92], m.NID[:])
	// 92 保留
	copy(b[93:109], m.NMK[:])
	return b
}

func DecodeSlacMatchCnf(b []byte) (*SlacMatchCnf, error) {
	if len(b) < SlacMatchCnfLen {
		return nil, ErrShortFrame
	}
	m := &SlacMatchCnf{Src: srcOf(b)}
	copy(m.Vehicle[:], b[40:46])
	copy(m.EVSE[:], b[63:69])
	copy(m.RunID[:], b[69:77])
	copy(m.NID[:], b[85:92])
	copy(m.NMK[:], b[93:109])
	return m, nil
}

// FactoryDefaults VS 厂商命令：恢复调制解调器出厂设置（等同 GPIO3 拉低 15 秒）
type FactoryDefaults struct {
	Src MAC
}

func (m *FactoryDefaults) Type() MMType { return VSFactoryDefaults | Req }

func (m *FactoryDefaults) Encode() []byte {
	b := make([]byte, FactoryDefaultsLen)
	Header{Dst: LocalModemMAC, Src: m.Src, Version: Version1_0, MMType: m.Type()}.put(b)
	copy(b[17:20], QualcommOUI[:])
	return b
}

func DecodeFactoryDefaults(b []byte) (*FactoryDefaults, error) {
	if len(b) < FactoryDefaultsLen {
		return nil, ErrShortFrame
	}
	return &FactoryDefaults{Src: srcOf(b)}, nil
}
