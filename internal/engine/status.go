package engine

import (
	"time"

	"github.com/devdems/evse-plc/internal/slac"
)

// Status 调度循环每个节拍发布的只读快照
type Status struct {
	Phase slac.State     `json:"-"`
	Key   slac.KeyStatus `json:"-"`

	State             string    `json:"state"`
	KeyStatus         string    `json:"keyStatus"`
	LocalMAC          string    `json:"localMac"`
	LocalModemMAC     string    `json:"localModemMac,omitempty"`
	SessionID         string    `json:"sessionId,omitempty"`
	VehicleMAC        string    `json:"vehicleMac,omitempty"`
	VehicleModemMAC   string    `json:"vehicleModemMac,omitempty"`
	RunID             string    `json:"runId,omitempty"`
	Sounds            int       `json:"sounds"`
	ModemsFound       int       `json:"modemsFound"`
	SessionsCompleted int       `json:"sessionsCompleted"`
	DiscoveryRetries  int       `json:"discoveryRetries"`
	FramingErrors     int       `json:"framingErrors"`
	ModemResets       int       `json:"modemResets"`
	TransportErrors   int       `json:"transportErrors"`
	DroppedFrames     int       `json:"droppedFrames"`
	LastError         string    `json:"lastError,omitempty"`
	LastReport        *Report   `json:"lastReport,omitempty"`
	Ticks             uint64    `json:"ticks"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ModemReady 调制解调器已通过上电检查并完成密钥配置
func (s Status) ModemReady() bool {
	return s.Phase > slac.KeyConfigRequested && s.Key == slac.KeySet
}
