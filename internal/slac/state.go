package slac

// State SLAC 会话状态
type State int

const (
	ModemPowerUp State = iota
	ModemWriteSpaceCheck
	KeyConfigRequested
	KeyConfigConfirmed
	ParamConfirmed
	Sounding
	AttenIndSent
	AttenRspReceived
	MatchConfirmed
	ModemDiscoveryRequested
	ModemDiscoveryWaiting
	LinkReady
	SessionHandedOff
)

var stateNames = [...]string{
	ModemPowerUp:            "modem_power_up",
	ModemWriteSpaceCheck:    "modem_write_space_check",
	KeyConfigRequested:      "key_config_requested",
	KeyConfigConfirmed:      "key_config_confirmed",
	ParamConfirmed:          "param_confirmed",
	Sounding:                "sounding",
	AttenIndSent:            "atten_ind_sent",
	AttenRspReceived:        "atten_rsp_received",
	MatchConfirmed:          "match_confirmed",
	ModemDiscoveryRequested: "modem_discovery_requested",
	ModemDiscoveryWaiting:   "modem_discovery_waiting",
	LinkReady:               "link_ready",
	SessionHandedOff:        "session_handed_off",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// PollsTransport 该状态下调度循环是否轮询芯片接收缓冲区
func (s State) PollsTransport() bool {
	switch s {
	case ModemPowerUp, ModemWriteSpaceCheck, KeyConfigRequested, ModemDiscoveryRequested:
		return false
	}
	return true
}

// HasEntryAction 一次性进入动作状态（发送后立即迁移）
func (s State) HasEntryAction() bool {
	return s == KeyConfigRequested || s == ModemDiscoveryRequested
}

// KeyStatus 本地调制解调器密钥配置结果
type KeyStatus int

const (
	KeyPending KeyStatus = iota
	KeySet
	KeyFailed
)

func (k KeyStatus) String() string {
	switch k {
	case KeySet:
		return "set"
	case KeyFailed:
		return "failed"
	default:
		return "pending"
	}
}
