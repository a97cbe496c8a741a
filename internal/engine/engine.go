// Package engine 单 goroutine 轮询/分发循环：读芯片、切帧、分类、驱动状态机、执行副作用。
// 只有该 goroutine 访问 SPI、接收缓冲区与状态机，其他 goroutine 通过 Status 快照与命令通道交互。
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/hpav"
	"github.com/devdems/evse-plc/internal/metrics"
	"github.com/devdems/evse-plc/internal/qcaspi"
	"github.com/devdems/evse-plc/internal/slac"
)

// DefaultTickInterval 默认轮询周期
const DefaultTickInterval = 20 * time.Millisecond

// ErrBusy 命令通道已满
var ErrBusy = errors.New("engine: command queue full")

// Transport 调度循环用到的芯片操作，*qcaspi.Device 满足该接口
type Transport interface {
	Signature() (uint16, error)
	WriteSpace() (uint16, error)
	ReadBurst(dst []byte) (int, error)
	WriteBurst(frame []byte) error
	Reset() error
	AckInterrupts() (uint16, error)
}

// Command 运维命令
type Command int

const (
	CmdRestart Command = iota + 1
	CmdFactoryDefaults
)

func (c Command) String() string {
	switch c {
	case CmdRestart:
		return "restart"
	case CmdFactoryDefaults:
		return "factory_defaults"
	}
	return "unknown"
}

// Options 调度循环配置
type Options struct {
	Machine      slac.Config
	TickInterval time.Duration
	Handler      FrameHandler
	Notifier     Notifier
	Metrics      *metrics.AppMetrics
	Clock        func() time.Time
}

// Engine 轮询/分发循环
type Engine struct {
	dev      Transport
	machine  *slac.Machine
	log      *zap.Logger
	handler  FrameHandler
	notifier Notifier
	metrics  *metrics.AppMetrics
	clock    func() time.Time
	interval time.Duration

	buf  []byte
	cmds chan Command

	ticks           uint64
	framingErrors   int
	resets          int
	transportErrors int
	dropped         int
	retriesSeen     int
	lastErr         string
	lastReport      *Report

	mu     sync.RWMutex
	status Status
}

// New 创建调度循环
func New(dev Transport, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	e := &Engine{
		dev:      dev,
		machine:  slac.New(opts.Machine, log.Named("slac")),
		log:      log,
		handler:  opts.Handler,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		interval: opts.TickInterval,
		buf:      make([]byte, qcaspi.BufferSize),
		cmds:     make(chan Command, 4),
	}
	e.publish(time.Time{})
	return e
}

// Run 按固定周期执行 Tick，直到 ctx 取消
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("plc engine started",
		zap.Duration("tick", e.interval),
		zap.String("local_mac", e.machine.Session().LocalMAC.String()))
	t := time.NewTicker(e.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			e.log.Info("plc engine stopped")
			return ctx.Err()
		case <-t.C:
			e.Tick(e.clock())
		}
	}
}

// Submit 投递运维命令，在下一个节拍开始时执行
func (e *Engine) Submit(c Command) error {
	select {
	case e.cmds <- c:
		return nil
	default:
		return ErrBusy
	}
}

// Status 最近一次发布的快照
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Tick 执行一个调度周期
func (e *Engine) Tick(now time.Time) {
	e.ticks++
	e.drainCommands(now)

	switch st := e.machine.State(); {
	case st == slac.ModemPowerUp:
		sig, err := e.dev.Signature()
		if err != nil {
			e.transportError("signature", err)
			break
		}
		e.apply(slac.SignatureRead{Value: sig})
	case st == slac.ModemWriteSpaceCheck:
		space, err := e.dev.WriteSpace()
		if err != nil {
			e.transportError("write_space", err)
			break
		}
		e.apply(slac.WriteSpaceRead{Value: space})
	case st.HasEntryAction():
		e.apply(slac.Enter{Now: now})
	case st.PollsTransport():
		e.poll(now)
	}

	e.apply(slac.TimerCheck{Now: now})
	e.publish(now)
}

func (e *Engine) drainCommands(now time.Time) {
	for {
		select {
		case c := <-e.cmds:
			e.log.Info("operator command", zap.String("command", c.String()))
			switch c {
			case CmdRestart:
				e.apply(slac.Restart{Reason: c.String(), ResetModem: true})
			case CmdFactoryDefaults:
				e.send(&hpav.FactoryDefaults{Src: e.machine.Session().LocalMAC})
				e.apply(slac.Restart{Reason: c.String()})
			}
		default:
			return
		}
	}
}

func (e *Engine) poll(now time.Time) {
	n, err := e.dev.ReadBurst(e.buf)
	if err != nil {
		e.transportError("read_burst", err)
		return
	}
	if n == 0 {
		return
	}
	frames, ferr := qcaspi.Deframe(e.buf[:n])
	for _, f := range frames {
		e.dispatch(f, now)
	}
	if ferr != nil {
		e.framingErrors++
		e.lastErr = ferr.Error()
		if e.metrics != nil {
			e.metrics.FramingErrors.Inc()
		}
		e.apply(slac.FramingError{Err: ferr})
	}
}

// dispatch 按 EtherType 分类；frame 指向接收缓冲区，交出去前必须复制
func (e *Engine) dispatch(frame []byte, now time.Time) {
	switch et := hpav.EtherType(frame); et {
	case hpav.EtherTypeHomePlugAV:
		msg, err := hpav.Decode(frame)
		if err != nil {
			e.drop("decode")
			e.log.Debug("drop undecodable frame", zap.Error(err), zap.Stringer("mmtype", hpav.TypeOf(frame)))
			return
		}
		if e.metrics != nil {
			e.metrics.FramesReceived.WithLabelValues(msg.Type().String()).Inc()
		}
		if _, ok := msg.(*hpav.SlacParamReq); ok && e.metrics != nil {
			e.metrics.SessionsStarted.Inc()
		}
		e.apply(slac.Received{Msg: msg, Now: now})
	case hpav.EtherTypeIPv6:
		if e.handler == nil {
			e.drop("no_handler")
			return
		}
		e.handler.HandleFrame(append([]byte(nil), frame...))
	default:
		e.drop("ethertype")
		e.log.Debug("drop frame", zap.Uint16("ethertype", et))
	}
}

func (e *Engine) apply(ev slac.Event) {
	for _, eff := range e.machine.Apply(ev) {
		switch v := eff.(type) {
		case slac.Send:
			e.send(v.Msg)
		case slac.ResetModem:
			e.resets++
			if e.metrics != nil {
				e.metrics.ModemResets.Inc()
			}
			if err := e.dev.Reset(); err != nil {
				e.transportError("reset", err)
			}
		case slac.AckInterrupts:
			cause, err := e.dev.AckInterrupts()
			if err != nil {
				e.transportError("ack_interrupts", err)
				continue
			}
			e.log.Debug("modem interrupts acknowledged", zap.Uint16("cause", cause))
		case slac.HandOff:
			r := NewReport(v.Result)
			e.lastReport = &r
			if e.metrics != nil {
				e.metrics.SessionsCompleted.Inc()
			}
			if e.notifier != nil {
				e.notifier.Notify(r)
			}
		}
	}
}

func (e *Engine) send(msg hpav.Message) {
	frame := hpav.Pad(msg.Encode())
	if err := e.dev.WriteBurst(frame); err != nil {
		e.transportError("write_burst", err)
		return
	}
	if e.metrics != nil {
		e.metrics.FramesSent.WithLabelValues(msg.Type().String()).Inc()
	}
	e.log.Debug("frame sent", zap.Stringer("mmtype", msg.Type()), zap.Int("len", len(frame)))
}

func (e *Engine) drop(reason string) {
	e.dropped++
	if e.metrics != nil {
		e.metrics.FramesDropped.WithLabelValues(reason).Inc()
	}
}

func (e *Engine) transportError(op string, err error) {
	e.transportErrors++
	e.lastErr = op + ": " + err.Error()
	if e.metrics != nil {
		e.metrics.TransportErrors.WithLabelValues(op).Inc()
	}
	e.log.Warn("spi transaction failed", zap.String("op", op), zap.Error(err))
}

func (e *Engine) publish(now time.Time) {
	m := e.machine
	sess := m.Session()
	st := Status{
		Phase:             m.State(),
		Key:               m.KeyStatus(),
		State:             m.State().String(),
		KeyStatus:         m.KeyStatus().String(),
		LocalMAC:          sess.LocalMAC.String(),
		SessionID:         sess.ID,
		Sounds:            m.Profile().Sounds,
		ModemsFound:       m.ModemsFound(),
		SessionsCompleted: m.Completed(),
		DiscoveryRetries:  m.DiscoveryRetries(),
		FramingErrors:     e.framingErrors,
		ModemResets:       e.resets,
		TransportErrors:   e.transportErrors,
		DroppedFrames:     e.dropped,
		LastError:         e.lastErr,
		LastReport:        e.lastReport,
		Ticks:             e.ticks,
		UpdatedAt:         now,
	}
	if !sess.LocalModemMAC.IsZero() {
		st.LocalModemMAC = sess.LocalModemMAC.String()
	}
	if !sess.VehicleMAC.IsZero() {
		st.VehicleMAC = sess.VehicleMAC.String()
		st.RunID = sess.RunID.String()
	}
	if !sess.VehicleModemMAC.IsZero() {
		st.VehicleModemMAC = sess.VehicleModemMAC.String()
	}

	if e.metrics != nil {
		e.metrics.StateGauge.Set(float64(st.Phase))
		if d := st.DiscoveryRetries - e.retriesSeen; d > 0 {
			e.metrics.DiscoveryRetries.Add(float64(d))
		}
	}
	e.retriesSeen = st.DiscoveryRetries

	e.mu.Lock()
	e.status = st
	e.mu.Unlock()
}
