package replay

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/engine"
	"github.com/devdems/evse-plc/internal/hpav"
	"github.com/devdems/evse-plc/internal/metrics"
	"github.com/devdems/evse-plc/internal/qcaspi"
	"github.com/devdems/evse-plc/internal/qcaspi/sim"
	"github.com/devdems/evse-plc/internal/slac"
)

// Epoch 虚拟时钟起点
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Exchange 一条发出的帧
type Exchange struct {
	At    time.Duration // 相对 Epoch
	State string        // 发送所在节拍结束时的状态
	Type  hpav.MMType
	Frame []byte
}

// Outcome 回放结果
type Outcome struct {
	Sent    []Exchange
	Reports []engine.Report
	Status  engine.Status
	Resets  int
	Dropped int // 接收缓冲区满而未注入的帧
}

// Types 发出帧的消息类型序列
func (o *Outcome) Types() []hpav.MMType {
	out := make([]hpav.MMType, len(o.Sent))
	for i, x := range o.Sent {
		out[i] = x.Type
	}
	return out
}

type collector struct{ reports []engine.Report }

func (c *collector) Notify(r engine.Report) { c.reports = append(c.reports, r) }

// Options 回放附加项
type Options struct {
	Metrics *metrics.AppMetrics
	Handler engine.FrameHandler
	NewID   func() string
	Machine func(*slac.Config) // 覆盖状态机配置
}

// Run 在模拟调制解调器上执行脚本；时间完全由虚拟时钟推进，结果确定
func Run(s *Script, opts Options, log *zap.Logger) (*Outcome, error) {
	if log == nil {
		log = zap.NewNop()
	}
	local, err := hpav.ParseMAC(s.LocalMAC)
	if err != nil {
		return nil, fmt.Errorf("localMac: %w", err)
	}
	modemMAC, err := hpav.ParseMAC(s.ModemMAC)
	if err != nil {
		return nil, fmt.Errorf("modemMac: %w", err)
	}
	peers := make([]hpav.MAC, 0, len(s.Peers))
	for _, p := range s.Peers {
		mac, err := hpav.ParseMAC(p)
		if err != nil {
			return nil, fmt.Errorf("peer %q: %w", p, err)
		}
		peers = append(peers, mac)
	}
	payloads := make([][]byte, len(s.Steps))
	for i, st := range s.Steps {
		if payloads[i], err = st.Payload(); err != nil {
			return nil, fmt.Errorf("replay step %d: %w", i, err)
		}
	}

	modem := sim.NewModem(sim.WithAutoReply(modemMAC, peers...))
	now := Epoch
	notes := &collector{}
	mcfg := slac.Config{LocalMAC: local, NewID: opts.NewID}
	if opts.Machine != nil {
		opts.Machine(&mcfg)
	}
	eng := engine.New(qcaspi.New(modem), engine.Options{
		Machine:      mcfg,
		TickInterval: s.Tick,
		Handler:      opts.Handler,
		Notifier:     notes,
		Metrics:      opts.Metrics,
		Clock:        func() time.Time { return now },
	}, log)

	out := &Outcome{}
	tick := func() {
		now = now.Add(s.Tick)
		eng.Tick(now)
		state := eng.Status().State
		for _, f := range modem.TakeSent() {
			out.Sent = append(out.Sent, Exchange{At: now.Sub(Epoch), State: state, Type: hpav.TypeOf(f), Frame: f})
		}
	}
	advance := func(d time.Duration) {
		for end := now.Add(d); now.Before(end); {
			tick()
		}
	}

	for i, st := range s.Steps {
		advance(st.After)
		if payloads[i] == nil {
			continue
		}
		n := st.Repeat
		if n <= 0 {
			n = 1
		}
		for j := 0; j < n; j++ {
			var ok bool
			if st.Raw {
				ok = modem.InjectRaw(payloads[i])
			} else {
				ok = modem.InjectFrame(payloads[i])
			}
			if !ok {
				log.Warn("replay inject dropped, modem rx buffer full", zap.Int("step", i), zap.Int("repeat", j))
			}
		}
		log.Debug("replay inject", zap.Int("step", i), zap.String("note", st.Note), zap.Int("times", n))
	}
	advance(s.Settle)

	out.Reports = notes.reports
	out.Status = eng.Status()
	out.Resets = modem.Resets()
	out.Dropped = modem.Dropped()
	return out, nil
}
