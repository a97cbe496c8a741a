package engine

import (
	"time"

	"github.com/devdems/evse-plc/internal/slac"
)

// FrameHandler 上层 IPv6 处理器；frame 为副本，可自由持有
type FrameHandler interface {
	HandleFrame(frame []byte)
}

// Notifier 配对完成通知；实现不得阻塞调度循环
type Notifier interface {
	Notify(r Report)
}

// Notifiers 依次通知多个接收者
type Notifiers []Notifier

func (ns Notifiers) Notify(r Report) {
	for _, n := range ns {
		if n != nil {
			n.Notify(r)
		}
	}
}

// Report 配对完成报告。SOC/能量字段当前没有数据来源，固定为 0。
type Report struct {
	SessionID       string    `json:"sessionId"`
	EVCCID          string    `json:"evccid"`
	VehicleMAC      string    `json:"vehicleMac"`
	VehicleModemMAC string    `json:"vehicleModemMac"`
	LocalModemMAC   string    `json:"localModemMac"`
	RunID           string    `json:"runId"`
	ModemsFound     int       `json:"modemsFound"`
	CurrentSOC      float64   `json:"currentSoc"`
	FullSOC         float64   `json:"fullSoc"`
	EnergyCapacity  float64   `json:"energyCapacity"`
	EnergyRequest   float64   `json:"energyRequest"`
	StartedAt       time.Time `json:"startedAt"`
	At              time.Time `json:"at"`
}

// NewReport 由状态机结果构建报告；EVCCID 为车辆 MAC 的 12 位小写十六进制
func NewReport(r slac.Result) Report {
	return Report{
		SessionID:       r.SessionID,
		EVCCID:          r.VehicleMAC.Hex(),
		VehicleMAC:      r.VehicleMAC.String(),
		VehicleModemMAC: r.VehicleModemMAC.String(),
		LocalModemMAC:   r.LocalModemMAC.String(),
		RunID:           r.RunID.String(),
		ModemsFound:     r.ModemsFound,
		StartedAt:       r.StartedAt,
		At:              r.CompletedAt,
	}
}
