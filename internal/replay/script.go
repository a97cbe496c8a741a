// Package replay 按脚本把入站帧注入模拟调制解调器，用虚拟时钟驱动调度循环，记录发出的帧。
package replay

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devdems/evse-plc/internal/hpav"
)

// Script 回放脚本
type Script struct {
	LocalMAC string        `yaml:"localMac"`
	ModemMAC string        `yaml:"modemMac"`
	Peers    []string      `yaml:"peers"` // 对 GET_SW.REQ 额外应答的调制解调器
	Tick     time.Duration `yaml:"tick"`
	Settle   time.Duration `yaml:"settle"` // 最后一步之后继续运行的时长
	Steps    []Step        `yaml:"steps"`
}

// Step 一步：等待 After 后注入一帧（Frame 十六进制或 Msg 描述），重复 Repeat 次
type Step struct {
	After  time.Duration `yaml:"after"`
	Frame  string        `yaml:"frame"`
	Raw    bool          `yaml:"raw"` // Frame 原样进入接收缓冲区，不加 SPI 帧头
	Msg    *Msg          `yaml:"msg"`
	Repeat int           `yaml:"repeat"`
	Note   string        `yaml:"note"`
}

// Msg 车辆侧消息的简写
type Msg struct {
	Type      string `yaml:"type"`
	Src       string `yaml:"src"`
	Vehicle   string `yaml:"vehicle"`
	RunID     string `yaml:"runId"`
	Result    int    `yaml:"result"`
	Atten     int    `yaml:"atten"`
	MVFLength int    `yaml:"mvfLength"`
}

// Load 读取 YAML 脚本
func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay script: %w", err)
	}
	return Parse(b)
}

// Parse 解析 YAML 脚本并填默认值
func Parse(b []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal replay script: %w", err)
	}
	if s.LocalMAC == "" {
		s.LocalMAC = "02:00:00:00:00:01"
	}
	if s.ModemMAC == "" {
		s.ModemMAC = hpav.LocalModemMAC.String()
	}
	if s.Tick <= 0 {
		s.Tick = 20 * time.Millisecond
	}
	if s.Settle <= 0 {
		s.Settle = 2 * time.Second
	}
	for i, st := range s.Steps {
		if st.Frame == "" && st.Msg == nil && st.After == 0 {
			return nil, fmt.Errorf("replay step %d: empty step", i)
		}
		if st.Frame != "" && st.Msg != nil {
			return nil, fmt.Errorf("replay step %d: frame and msg are exclusive", i)
		}
	}
	return &s, nil
}

// Payload 该步要注入的字节；无注入时返回 nil
func (st Step) Payload() ([]byte, error) {
	if st.Frame != "" {
		b, err := hex.DecodeString(strings.NewReplacer(" ", "", "\n", "", ":", "").Replace(st.Frame))
		if err != nil {
			return nil, fmt.Errorf("decode frame hex: %w", err)
		}
		return b, nil
	}
	if st.Msg == nil {
		return nil, nil
	}
	m, err := st.Msg.Build()
	if err != nil {
		return nil, err
	}
	return m.Encode(), nil
}

// Build 由简写构建消息
func (m *Msg) Build() (hpav.Message, error) {
	var (
		src, vehicle hpav.MAC
		run          hpav.RunID
		err          error
	)
	if m.Src != "" {
		if src, err = hpav.ParseMAC(m.Src); err != nil {
			return nil, err
		}
	}
	vehicle = src
	if m.Vehicle != "" {
		if vehicle, err = hpav.ParseMAC(m.Vehicle); err != nil {
			return nil, err
		}
	}
	if m.RunID != "" {
		b, err := hex.DecodeString(m.RunID)
		if err != nil || len(b) != len(run) {
			return nil, fmt.Errorf("runId %q: need 16 hex digits", m.RunID)
		}
		copy(run[:], b)
	}

	switch strings.ToLower(m.Type) {
	case "slac_param_req":
		return &hpav.SlacParamReq{Src: src, RunID: run}, nil
	case "start_atten_char_ind":
		return &hpav.StartAttenCharInd{Src: src, NumSounds: hpav.SoundCount, Timeout: hpav.SoundTimeout, RunID: run}, nil
	case "mnbc_sound_ind":
		return &hpav.MnbcSoundInd{Src: src, RunID: run}, nil
	case "atten_profile_ind":
		var g [hpav.NumGroups]byte
		for i := range g {
			g[i] = byte(m.Atten)
		}
		return &hpav.AttenProfileInd{Src: src, Vehicle: vehicle, Groups: g}, nil
	case "atten_char_rsp":
		return &hpav.AttenCharRsp{Src: src, Vehicle: vehicle, RunID: run, Result: byte(m.Result)}, nil
	case "slac_match_req":
		mvf := uint16(hpav.MatchReqMVFLength)
		if m.MVFLength != 0 {
			mvf = uint16(m.MVFLength)
		}
		return &hpav.SlacMatchReq{Src: src, Dst: hpav.Broadcast, MVFLength: mvf, Vehicle: vehicle, RunID: run}, nil
	case "set_key_cnf":
		res := byte(hpav.SetKeyResultOK)
		if m.Result != 0 {
			res = byte(m.Result)
		}
		return &hpav.SetKeyCnf{Src: src, Result: res}, nil
	case "get_sw_cnf":
		return &hpav.GetSwCnf{Src: src}, nil
	}
	return nil, fmt.Errorf("unknown msg type %q", m.Type)
}
