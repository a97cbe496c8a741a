package hpav

// Unknown 未识别的管理消息（不是错误，由调用方决定是否忽略）
type Unknown struct {
	Header
	Raw []byte
}

func (m *Unknown) Type() MMType   { return m.MMType }
func (m *Unknown) Encode() []byte { return append([]byte(nil), m.Raw...) }

// Decode 按 MMTYPE 解析为具体消息
func Decode(frame []byte) (Message, error) {
	h, err := ParseHeader(frame)
	if err != nil {
		return nil, err
	}
	switch h.MMType {
	case CMSetKey | Req:
		return DecodeSetKeyReq(frame)
	case CMSetKey | Cnf:
		return DecodeSetKeyCnf(frame)
	case CMSlacParam | Req:
		return DecodeSlacParamReq(frame)
	case CMSlacParam | Cnf:
		return DecodeSlacParamCnf(frame)
	case CMStartAttenChar | Ind:
		return DecodeStartAttenCharInd(frame)
	case CMMnbcSound | Ind:
		return DecodeMnbcSoundInd(frame)
	case CMAttenProfile | Ind:
		return DecodeAttenProfileInd(frame)
	case CMAttenChar | Ind:
		return DecodeAttenCharInd(frame)
	case CMAttenChar | Rsp:
		return DecodeAttenCharRsp(frame)
	case CMSlacMatch | Req:
		return DecodeSlacMatchReq(frame)
	case CMSlacMatch | Cnf:
		return DecodeSlacMatchCnf(frame)
	case VSGetSw | Req:
		return DecodeGetSwReq(frame)
	case VSGetSw | Cnf:
		return DecodeGetSwCnf(frame)
	case VSFactoryDefaults | Req:
		return DecodeFactoryDefaults(frame)
	}
	return &Unknown{Header: h, Raw: append([]byte(nil), frame...)}, nil
}
