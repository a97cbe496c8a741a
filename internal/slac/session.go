package slac

import (
	"time"

	"github.com/devdems/evse-plc/internal/hpav"
)

// Session 一次配对会话的身份上下文。LocalMAC 开机时设置一次，
// 车辆侧标识在每次 SLAC_PARAM.REQ 时清空重填。
type Session struct {
	ID        string
	StartedAt time.Time

	LocalMAC        hpav.MAC
	LocalModemMAC   hpav.MAC // 来自 SET_KEY.CNF
	VehicleMAC      hpav.MAC // 来自 SLAC_PARAM.REQ
	VehicleModemMAC hpav.MAC // 来自 GET_SW.CNF，可用于识别车辆
	RunID           hpav.RunID
}

func (s *Session) clearVehicle() {
	s.ID = ""
	s.StartedAt = time.Time{}
	s.VehicleMAC = hpav.MAC{}
	s.VehicleModemMAC = hpav.MAC{}
	s.RunID = hpav.RunID{}
}

// Keys 会话密钥材料；SET_KEY.REQ 与 SLAC_MATCH.CNF 下发同一份，直到整体重启前不变
type Keys struct {
	NID hpav.NID
	NMK hpav.NMK
}

// Profile 衰减累加器
type Profile struct {
	acc      [hpav.NumGroups]uint16
	Sounds   int
	Averaged bool
}

// Reset 每次进入 sounding 阶段清零
func (p *Profile) Reset() {
	*p = Profile{}
}

// AddSound 收到一次 M-Sound，计数上限为期望次数
func (p *Profile) AddSound() {
	if p.Sounds < hpav.SoundCount {
		p.Sounds++
	}
}

// Accumulate 累加一次 ATTEN_PROFILE；计数达到 10 时做且只做一次整数平均
func (p *Profile) Accumulate(groups [hpav.NumGroups]byte) {
	if p.Averaged {
		return
	}
	for i, v := range groups {
		p.acc[i] += uint16(v)
	}
	if p.Sounds == hpav.SoundCount {
		for i := range p.acc {
			p.acc[i] /= hpav.SoundCount
		}
		p.Averaged = true
	}
}

// Values 按字节输出；未平均的部分累加值只保留低字节
func (p *Profile) Values() [hpav.NumGroups]byte {
	var out [hpav.NumGroups]byte
	for i, v := range p.acc {
		out[i] = byte(v)
	}
	return out
}
