package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/engine"
)

const (
	// Redis Key前缀
	sessionKeyFmt   = "evse:session:%s" // 单次会话（Hash）
	SessionIndexKey = "evse:sessions"   // 最近会话 ID（List，最新在前）

	defaultHistorySize = 100
	recordTimeout      = 2 * time.Second
)

// SessionRecorder 配对历史记录，实现 engine.Notifier
type SessionRecorder struct {
	rdb    redis.Cmdable
	size   int64
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionRecorder historySize<=0 时取 100；条目 TTL 为 0 表示不过期
func NewSessionRecorder(rdb redis.Cmdable, historySize int, ttl time.Duration, logger *zap.Logger) *SessionRecorder {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRecorder{rdb: rdb, size: int64(historySize), ttl: ttl, logger: logger}
}

func sessionKey(id string) string {
	return fmt.Sprintf(sessionKeyFmt, id)
}

// Record 写入一次会话并裁剪索引
func (r *SessionRecorder) Record(ctx context.Context, rep engine.Report) error {
	if rep.SessionID == "" {
		return errors.New("record session: empty session id")
	}
	key := sessionKey(rep.SessionID)

	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, map[string]any{
			"session_id":        rep.SessionID,
			"evccid":            rep.EVCCID,
			"vehicle_mac":       rep.VehicleMAC,
			"vehicle_modem_mac": rep.VehicleModemMAC,
			"local_modem_mac":   rep.LocalModemMAC,
			"run_id":            rep.RunID,
			"modems_found":      rep.ModemsFound,
			"started_at":        rep.StartedAt.UTC().Format(time.RFC3339Nano),
			"at":                rep.At.UTC().Format(time.RFC3339Nano),
		})
		if r.ttl > 0 {
			p.Expire(ctx, key, r.ttl)
		}
		p.LPush(ctx, SessionIndexKey, rep.SessionID)
		p.LTrim(ctx, SessionIndexKey, 0, r.size-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record session %s: %w", rep.SessionID, err)
	}
	return nil
}

// Recent 最近 n 次会话，最新在前；已过期的条目被跳过
func (r *SessionRecorder) Recent(ctx context.Context, n int) ([]engine.Report, error) {
	if n <= 0 || int64(n) > r.size {
		n = int(r.size)
	}
	ids, err := r.rdb.LRange(ctx, SessionIndexKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]engine.Report, 0, len(ids))
	for _, id := range ids {
		m, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("get session %s: %w", id, err)
		}
		if len(m) == 0 {
			continue
		}
		out = append(out, parseReport(m))
	}
	return out, nil
}

// Notify 异步写入，不阻塞调度循环
func (r *SessionRecorder) Notify(rep engine.Report) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.Record(ctx, rep); err != nil {
			r.logger.Warn("record session failed", zap.String("session_id", rep.SessionID), zap.Error(err))
		}
	}()
}

func parseReport(m map[string]string) engine.Report {
	rep := engine.Report{
		SessionID:       m["session_id"],
		EVCCID:          m["evccid"],
		VehicleMAC:      m["vehicle_mac"],
		VehicleModemMAC: m["vehicle_modem_mac"],
		LocalModemMAC:   m["local_modem_mac"],
		RunID:           m["run_id"],
	}
	rep.ModemsFound, _ = strconv.Atoi(m["modems_found"])
	rep.StartedAt, _ = time.Parse(time.RFC3339Nano, m["started_at"])
	rep.At, _ = time.Parse(time.RFC3339Nano, m["at"])
	return rep
}
