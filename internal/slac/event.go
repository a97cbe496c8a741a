package slac

import (
	"time"

	"github.com/devdems/evse-plc/internal/hpav"
)

// Event 状态机输入
type Event interface{ isEvent() }

// SignatureRead 上电阶段读到的签名寄存器值
type SignatureRead struct{ Value uint16 }

// WriteSpaceRead 读到的可写空间
type WriteSpaceRead struct{ Value uint16 }

// Enter 进入动作节拍（KeyConfigRequested / ModemDiscoveryRequested）
type Enter struct{ Now time.Time }

// Received 已解码的入站管理消息
type Received struct {
	Msg hpav.Message
	Now time.Time
}

// TimerCheck 每个节拍检查一次两个超时
type TimerCheck struct{ Now time.Time }

// FramingError 接收数据损坏
type FramingError struct{ Err error }

// Restart 运维触发的整体重启。ResetModem 为 false 时不复位芯片（例如芯片正在恢复出厂设置）。
type Restart struct {
	Reason     string
	ResetModem bool
}

func (SignatureRead) isEvent()  {}
func (WriteSpaceRead) isEvent() {}
func (Enter) isEvent()          {}
func (Received) isEvent()       {}
func (TimerCheck) isEvent()     {}
func (FramingError) isEvent()   {}
func (Restart) isEvent()        {}

// Effect 状态机输出，由调度循环执行
type Effect interface{ isEffect() }

// Send 发送一条管理消息
type Send struct{ Msg hpav.Message }

// ResetModem 复位芯片
type ResetModem struct{}

// AckInterrupts 清中断并打开"有包可读"中断
type AckInterrupts struct{}

// HandOff 私有网络建立，交给外部回调
type HandOff struct{ Result Result }

func (Send) isEffect()          {}
func (ResetModem) isEffect()    {}
func (AckInterrupts) isEffect() {}
func (HandOff) isEffect()       {}

// Result 一次成功配对的摘要
type Result struct {
	SessionID       string
	VehicleMAC      hpav.MAC
	VehicleModemMAC hpav.MAC
	LocalModemMAC   hpav.MAC
	RunID           hpav.RunID
	ModemsFound     int
	StartedAt       time.Time
	CompletedAt     time.Time
}
