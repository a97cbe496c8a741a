package hpav

import "encoding/binary"

// 本文件为车辆 (PEV) 与调制解调器发给充电桩的消息。
// 解码器只提取状态机需要的字段；编码器供模拟器与回放使用。

const (
	SetKeyCnfLen         = 60
	GetSwCnfLen          = 60
	SlacParamReqLen      = 60
	StartAttenCharIndLen = 60
	MnbcSoundIndLen      = 71
	AttenProfileIndLen   = 85
	AttenCharRspLen      = 70
	SlacMatchReqLen      = 85

	SetKeyResultOK    = 0x01 // SET_KEY.CNF 成功标志（QCA 固件取值）
	AttenResultOK     = 0x00
	MatchReqMVFLength = 0x3E
)

// SetKeyCnf CM_SET_KEY.CNF；源地址即本地调制解调器 MAC
type SetKeyCnf struct {
	Src    MAC
	Dst    MAC
	Result byte
}

func (m *SetKeyCnf) Type() MMType { return CMSetKey | Cnf }

// Success 设置成功
func (m *SetKeyCnf) Success() bool { return m.Result == SetKeyResultOK }

func (m *SetKeyCnf) Encode() []byte {
	b := make([]byte, SetKeyCnfLen)
	Header{Dst: m.Dst, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	b[19] = m.Result
	return b
}

func DecodeSetKeyCnf(b []byte) (*SetKeyCnf, error) {
	if len(b) < 20 {
		return nil, ErrShortFrame
	}
	return &SetKeyCnf{Src: srcOf(b), Dst: dstOf(b), Result: b[19]}, nil
}

// GetSwCnf VS_GET_SW.CNF：每个在线调制解调器各回复一次
type GetSwCnf struct {
	Src MAC
	Dst MAC
}

func (m *GetSwCnf) Type() MMType { return VSGetSw | Cnf }

func (m *GetSwCnf) Encode() []byte {
	b := make([]byte, GetSwCnfLen)
	Header{Dst: m.Dst, Src: m.Src, Version: Version1_0, MMType: m.Type()}.put(b)
	copy(b[17:20], QualcommOUI[:])
	return b
}

func DecodeGetSwCnf(b []byte) (*GetSwCnf, error) {
	if len(b) < HeaderLen {
		return nil, ErrShortFrame
	}
	return &GetSwCnf{Src: srcOf(b), Dst: dstOf(b)}, nil
}

// SlacParamReq CM_SLAC_PARAM.REQ：车辆发起 SLAC
type SlacParamReq struct {
	Src   MAC
	RunID RunID
}

func (m *SlacParamReq) Type() MMType { return CMSlacParam | Req }

func (m *SlacParamReq) Encode() []byte {
	b := make([]byte, SlacParamReqLen)
	Header{Dst: Broadcast, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	copy(b[21:29], m.RunID[:])
	return b
}

func DecodeSlacParamReq(b []byte) (*SlacParamReq, error) {
	if len(b) < 29 {
		return nil, ErrShortFrame
	}
	m := &SlacParamReq{Src: srcOf(b)}
	copy(m.RunID[:], b[21:29])
	return m, nil
}

// StartAttenCharInd CM_START_ATTEN_CHAR.IND
type StartAttenCharInd struct {
	Src       MAC
	NumSounds byte
	Timeout   byte
	RunID     RunID
}

func (m *StartAttenCharInd) Type() MMType { return CMStartAttenChar | Ind }

func (m *StartAttenCharInd) Encode() []byte {
	b := make([]byte, StartAttenCharIndLen)
	Header{Dst: Broadcast, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	b[21] = m.NumSounds
	b[22] = m.Timeout
	b[23] = RespTypeOther
	copy(b[24:30], m.Src[:])
	copy(b[30:38], m.RunID[:])
	return b
}

func DecodeStartAttenCharInd(b []byte) (*StartAttenCharInd, error) {
	if len(b) < HeaderLen {
		return nil, ErrShortFrame
	}
	m := &StartAttenCharInd{Src: srcOf(b)}
	if len(b) >= 38 {
		m.NumSounds = b[21]
		m.Timeout = b[22]
		copy(m.RunID[:], b[30:38])
	}
	return m, nil
}

// MnbcSoundInd CM_MNBC_SOUND.IND：一次 M-Sound
type MnbcSoundInd struct {
	Src   MAC
	Count byte // 剩余次数
	RunID RunID
}

func (m *MnbcSoundInd) Type() MMType { return CMMnbcSound | Ind }

func (m *MnbcSoundInd) Encode() []byte {
	b := make([]byte, MnbcSoundIndLen)
	Header{Dst: Broadcast, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	b[38] = m.Count
	copy(b[39:47], m.RunID[:])
	return b
}

func DecodeMnbcSoundInd(b []byte) (*MnbcSoundInd, error) {
	if len(b) < HeaderLen {
		return nil, ErrShortFrame
	}
	m := &MnbcSoundInd{Src: srcOf(b)}
	if len(b) >= 47 {
		m.Count = b[38]
		copy(m.RunID[:], b[39:47])
	}
	return m, nil
}

// AttenProfileInd CM_ATTEN_PROFILE.IND：本地调制解调器测得的一次分组衰减
type AttenProfileInd struct {
	Src     MAC
	Vehicle MAC
	Groups  [NumGroups]byte
}

func (m *AttenProfileInd) Type() MMType { return CMAttenProfile | Ind }

func (m *AttenProfileInd) Encode() []byte {
	b := make([]byte, AttenProfileIndLen)
	Header{Dst: Broadcast, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	copy(b[19:25], m.Vehicle[:])
	b[25] = NumGroups
	copy(b[27:27+NumGroups], m.Groups[:])
	return b
}

func DecodeAttenProfileInd(b []byte) (*AttenProfileInd, error) {
	if len(b) < 27+NumGroups {
		return nil, ErrShortFrame
	}
	m := &AttenProfileInd{Src: srcOf(b)}
	copy(m.Vehicle[:], b[19:25])
	copy(m.Groups[:], b[27:27+NumGroups])
	return m, nil
}

// AttenCharRsp CM_ATTEN_CHAR.RSP
type AttenCharRsp struct {
	Src     MAC
	Vehicle MAC
	RunID   RunID
	Result  byte
}

func (m *AttenCharRsp) Type() MMType { return CMAttenChar | Rsp }

// Success 车辆确认成功
func (m *AttenCharRsp) Success() bool { return m.Result == AttenResultOK }

func (m *AttenCharRsp) Encode() []byte {
	b := make([]byte, AttenCharRspLen)
	Header{Dst: Broadcast, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	copy(b[21:27], m.Vehicle[:])
	copy(b[27:35], m.RunID[:])
	b[69] = m.Result
	return b
}

func DecodeAttenCharRsp(b []byte) (*AttenCharRsp, error) {
	if len(b) < AttenCharRspLen {
		return nil, ErrShortFrame
	}
	m := &AttenCharRsp{Src: srcOf(b), Result: b[69]}
	copy(m.Vehicle[:], b[21:27])
	copy(m.RunID[:], b[27:35])
	return m, nil
}

// SlacMatchReq CM_SLAC_MATCH.REQ
type SlacMatchReq struct {
	Src       MAC
	Dst       MAC
	MVFLength uint16
	Vehicle   MAC
	EVSE      MAC
	RunID     RunID
}

func (m *SlacMatchReq) Type() MMType { return CMSlacMatch | Req }

func (m *SlacMatchReq) Encode() []byte {
	b := make([]byte, SlacMatchReqLen)
	Header{Dst: m.Dst, Src: m.Src, Version: Version1_1, MMType: m.Type()}.put(b)
	binary.LittleEndian.PutUint16(b[21:23], m.MVFLength)
	copy(b[40:46], m.Vehicle[:])
	copy(b[63:69], m.EVSE[:])
	copy(b[69:77], m.RunID[:])
	return b
}

func DecodeSlacMatchReq(b []byte) (*SlacMatchReq, error) {
	if len(b) < 77 {
		return nil, ErrShortFrame
	}
	m := &SlacMatchReq{Src: srcOf(b), Dst: dstOf(b), MVFLength: binary.LittleEndian.Uint16(b[21:23])}
	copy(m.Vehicle[:], b[40:46])
	copy(m.EVSE[:], b[63:69])
	copy(m.RunID[:], b[69:77])
	return m, nil
}
