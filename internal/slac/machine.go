// Package slac 充电桩侧 SLAC 会话状态机。
//
// Machine 是纯转移函数：输入 Event，输出 Effect，不直接访问 SPI。
// 所有调用必须来自同一个 goroutine（调度循环）。
package slac

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/hpav"
	"github.com/devdems/evse-plc/internal/qcaspi"
)

// 默认超时
const (
	DefaultSoundTimeout     = 600 * time.Millisecond
	DefaultDiscoveryTimeout = 1000 * time.Millisecond
	DefaultMinModems        = 2
)

// Config 状态机配置
type Config struct {
	LocalMAC         hpav.MAC
	NID              hpav.NID
	DeriveNID        bool // true 时由每次生成的 NMK 推导 NID
	SoundTimeout     time.Duration
	DiscoveryTimeout time.Duration
	MinModems        int

	Rand  io.Reader     // NMK 随机源，默认 crypto/rand
	NewID func() string // 会话 ID，默认 uuid
}

// Machine SLAC 状态机
type Machine struct {
	cfg Config
	log *zap.Logger

	state     State
	sess      Session
	keys      Keys
	keyStatus KeyStatus
	profile   Profile

	soundStart     time.Time
	discoveryStart time.Time
	modems         []hpav.MAC
	discoveries    int
	completed      int
}

// New 创建状态机，初始状态 ModemPowerUp
func New(cfg Config, log *zap.Logger) *Machine {
	if cfg.SoundTimeout <= 0 {
		cfg.SoundTimeout = DefaultSoundTimeout
	}
	if cfg.DiscoveryTimeout <= 0 {
		cfg.DiscoveryTimeout = DefaultDiscoveryTimeout
	}
	if cfg.MinModems <= 0 {
		cfg.MinModems = DefaultMinModems
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Machine{cfg: cfg, log: log}
	m.sess.LocalMAC = cfg.LocalMAC
	m.keys.NID = cfg.NID
	return m
}

func (m *Machine) State() State          { return m.state }
func (m *Machine) Session() Session      { return m.sess }
func (m *Machine) Keys() Keys            { return m.keys }
func (m *Machine) KeyStatus() KeyStatus  { return m.keyStatus }
func (m *Machine) Profile() Profile      { return m.profile }
func (m *Machine) ModemsFound() int      { return len(m.modems) }
func (m *Machine) DiscoveryRetries() int { return m.discoveries }
func (m *Machine) Completed() int        { return m.completed }

// Apply 处理一个事件，返回需要执行的副作用
func (m *Machine) Apply(ev Event) []Effect {
	switch e := ev.(type) {
	case SignatureRead:
		if m.state == ModemPowerUp && e.Value == qcaspi.GoodSignature {
			m.setState(ModemWriteSpaceCheck)
			return []Effect{AckInterrupts{}}
		}
	case WriteSpaceRead:
		if m.state == ModemWriteSpaceCheck && e.Value == qcaspi.BufferSize {
			m.setState(KeyConfigRequested)
		}
	case Enter:
		return m.enter(e.Now)
	case Received:
		if e.Msg == nil {
			return nil
		}
		return m.receive(e.Msg, e.Now)
	case TimerCheck:
		return m.timers(e.Now)
	case FramingError:
		m.log.Warn("receive framing error, restarting", zap.Error(e.Err), zap.String("state", m.state.String()))
		m.restart()
		return []Effect{ResetModem{}}
	case Restart:
		m.log.Info("slac restart", zap.String("reason", e.Reason), zap.String("state", m.state.String()))
		m.restart()
		if e.ResetModem {
			return []Effect{ResetModem{}}
		}
	}
	return nil
}

func (m *Machine) setState(s State) {
	if s == m.state {
		return
	}
	m.log.Debug("slac state", zap.String("from", m.state.String()), zap.String("to", s.String()))
	m.state = s
}

// restart 整体回到上电状态；LocalMAC 保留，密钥在下次 KeyConfigRequested 重新生成
func (m *Machine) restart() {
	m.sess = Session{LocalMAC: m.cfg.LocalMAC}
	m.keyStatus = KeyPending
	m.profile.Reset()
	m.modems = nil
	m.soundStart = time.Time{}
	m.discoveryStart = time.Time{}
	m.state = ModemPowerUp
}

func (m *Machine) enter(now time.Time) []Effect {
	switch m.state {
	case KeyConfigRequested:
		if err := m.newKeys(); err != nil {
			m.log.Error("generate nmk failed", zap.Error(err))
			return nil
		}
		m.keyStatus = KeyPending
		m.setState(KeyConfigConfirmed)
		return []Effect{Send{Msg: &hpav.SetKeyReq{Src: m.sess.LocalMAC, NID: m.keys.NID, NMK: m.keys.NMK}}}

	case ModemDiscoveryRequested:
		m.modems = nil
		m.discoveryStart = now
		m.setState(ModemDiscoveryWaiting)
		return []Effect{Send{Msg: &hpav.GetSwReq{Src: m.sess.LocalMAC}}}
	}
	return nil
}

func (m *Machine) newKeys() error {
	var nmk hpav.NMK
	if _, err := io.ReadFull(m.cfg.Rand, nmk[:]); err != nil {
		return fmt.Errorf("read nmk: %w", err)
	}
	m.keys.NMK = nmk
	if m.cfg.DeriveNID {
		m.keys.NID = hpav.DeriveNID(nmk, 0)
	}
	return nil
}

func (m *Machine) receive(msg hpav.Message, now time.Time) []Effect {
	switch v := msg.(type) {
	case *hpav.SetKeyCnf:
		if v.Success() {
			m.sess.LocalModemMAC = v.Src
			m.keyStatus = KeySet
			m.log.Info("modem key set", zap.String("modem_mac", v.Src.String()))
		} else {
			m.keyStatus = KeyFailed
			m.log.Warn("modem key config failed", zap.Uint8("result", v.Result))
		}

	case *hpav.SlacParamReq:
		m.sess.clearVehicle()
		m.sess.ID = m.cfg.NewID()
		m.sess.StartedAt = now
		m.sess.VehicleMAC = v.Src
		m.sess.RunID = v.RunID
		m.profile.Reset()
		m.modems = nil
		m.log.Info("slac param request",
			zap.String("session_id", m.sess.ID),
			zap.String("vehicle_mac", v.Src.String()),
			zap.String("run_id", v.RunID.String()))
		m.setState(ParamConfirmed)
		return []Effect{Send{Msg: &hpav.SlacParamCnf{Src: m.sess.LocalMAC, Vehicle: v.Src, RunID: v.RunID}}}

	case *hpav.StartAttenCharInd:
		if m.state == ParamConfirmed {
			m.profile.Reset()
			m.soundStart = now
			m.setState(Sounding)
		}

	case *hpav.MnbcSoundInd:
		if m.state == Sounding {
			m.profile.AddSound()
		}

	case *hpav.AttenProfileInd:
		if m.state == Sounding {
			m.profile.Accumulate(v.Groups)
		}

	case *hpav.AttenCharRsp:
		if m.state != AttenIndSent {
			break
		}
		if v.Vehicle == m.sess.VehicleMAC && v.RunID == m.sess.RunID && v.Success() {
			m.setState(AttenRspReceived)
			break
		}
		m.log.Warn("atten char response rejected",
			zap.String("vehicle_mac", v.Vehicle.String()),
			zap.String("run_id", v.RunID.String()),
			zap.Uint8("result", v.Result))
		m.sess.clearVehicle()
		m.setState(KeyConfigConfirmed)

	case *hpav.SlacMatchReq:
		if m.state != AttenRspReceived {
			break
		}
		if v.Vehicle != m.sess.VehicleMAC || v.RunID != m.sess.RunID || v.MVFLength != hpav.MatchReqMVFLength {
			m.log.Warn("slac match request rejected",
				zap.String("vehicle_mac", v.Vehicle.String()),
				zap.Uint16("mvf_length", v.MVFLength))
			break
		}
		cnf := &hpav.SlacMatchCnf{
			Src:     m.sess.LocalMAC,
			Vehicle: m.sess.VehicleMAC,
			EVSE:    m.sess.LocalMAC,
			RunID:   m.sess.RunID,
			NID:     m.keys.NID,
			NMK:     m.keys.NMK,
		}
		m.setState(MatchConfirmed)
		m.setState(ModemDiscoveryRequested)
		return []Effect{Send{Msg: cnf}}

	case *hpav.GetSwCnf:
		if m.state != ModemDiscoveryWaiting {
			break
		}
		if v.Src != m.sess.LocalModemMAC {
			m.sess.VehicleModemMAC = v.Src
		}
		for _, mac := range m.modems {
			if mac == v.Src {
				return nil
			}
		}
		m.modems = append(m.modems, v.Src)
	}
	return nil
}

func (m *Machine) timers(now time.Time) []Effect {
	switch m.state {
	case Sounding:
		if now.Sub(m.soundStart) <= m.cfg.SoundTimeout {
			return nil
		}
		ind := &hpav.AttenCharInd{
			Src:     m.sess.LocalMAC,
			Vehicle: m.sess.VehicleMAC,
			RunID:   m.sess.RunID,
			Sounds:  byte(m.profile.Sounds),
			Atten:   m.profile.Values(),
		}
		m.log.Info("sounding finished",
			zap.String("session_id", m.sess.ID),
			zap.Int("sounds", m.profile.Sounds),
			zap.Bool("averaged", m.profile.Averaged))
		m.setState(AttenIndSent)
		return []Effect{Send{Msg: ind}}

	case ModemDiscoveryWaiting:
		if now.Sub(m.discoveryStart) <= m.cfg.DiscoveryTimeout {
			return nil
		}
		if len(m.modems) < m.cfg.MinModems {
			m.discoveries++
			m.log.Debug("modem discovery retry", zap.Int("modems", len(m.modems)))
			m.setState(ModemDiscoveryRequested)
			return nil
		}
		m.setState(LinkReady)
		res := Result{
			SessionID:       m.sess.ID,
			VehicleMAC:      m.sess.VehicleMAC,
			VehicleModemMAC: m.sess.VehicleModemMAC,
			LocalModemMAC:   m.sess.LocalModemMAC,
			RunID:           m.sess.RunID,
			ModemsFound:     len(m.modems),
			StartedAt:       m.sess.StartedAt,
			CompletedAt:     now,
		}
		m.completed++
		m.log.Info("private network established",
			zap.String("session_id", res.SessionID),
			zap.String("vehicle_mac", res.VehicleMAC.String()),
			zap.String("vehicle_modem_mac", res.VehicleModemMAC.String()),
			zap.Int("modems", res.ModemsFound))
		m.setState(SessionHandedOff)
		return []Effect{HandOff{Result: res}}
	}
	return nil
}
