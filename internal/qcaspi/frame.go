package qcaspi

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrBadFraming = errors.New("qcaspi: bad framing")

// Deframe 把一次 ReadBurst 的数据切分为以太网帧。
// 每帧布局：总长(4) | AA AA AA AA | 帧长(LE16) | 00 00 | 以太网帧 | 55 55。
// 剩余不足一个最小帧（60 + 14 字节）时停止。遇到坏帧返回已切出的帧与 ErrBadFraming，
// 调用方应先处理已切出的帧再复位芯片。
func Deframe(buf []byte) ([][]byte, error) {
	var frames [][]byte
	for len(buf) >= minRxFrameLen+rxOverhead {
		if buf[4] != preambleByte || buf[5] != preambleByte || buf[6] != preambleByte || buf[7] != preambleByte {
			return frames, fmt.Errorf("%w: missing preamble", ErrBadFraming)
		}
		n := int(binary.LittleEndian.Uint16(buf[8:10]))
		if n < minRxFrameLen {
			return frames, fmt.Errorf("%w: frame length %d", ErrBadFraming, n)
		}
		end := rxHeaderLen + n
		if end+burstTrailerLen > len(buf) {
			return frames, fmt.Errorf("%w: frame length %d exceeds burst of %d", ErrBadFraming, n, len(buf))
		}
		if buf[end] != trailerByte || buf[end+1] != trailerByte {
			return frames, fmt.Errorf("%w: missing trailer", ErrBadFraming)
		}
		frames = append(frames, buf[rxHeaderLen:end])
		buf = buf[end+burstTrailerLen:]
	}
	if len(frames) == 0 && len(buf) > 0 {
		return nil, fmt.Errorf("%w: short burst of %d bytes", ErrBadFraming, len(buf))
	}
	return frames, nil
}

// Enframe 按接收缓冲区格式封装一帧（模拟器与测试使用）
func Enframe(frame []byte) []byte {
	out := make([]byte, 0, len(frame)+rxOverhead)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(frame)+burstOverhead))
	out = append(out, preambleByte, preambleByte, preambleByte, preambleByte)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(frame)))
	out = append(out, 0x00, 0x00)
	out = append(out, frame...)
	out = append(out, trailerByte, trailerByte)
	return out
}
