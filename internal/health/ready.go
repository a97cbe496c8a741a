package health

import "sync/atomic"

// Readiness 就绪状态聚合（调制解调器、HTTP）
type Readiness struct {
	modemReady atomic.Bool
	httpReady  atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetModemReady(v bool) { r.modemReady.Store(v) }
func (r *Readiness) SetHTTPReady(v bool)  { r.httpReady.Store(v) }

// Ready 总体就绪：各子系统均为 true
func (r *Readiness) Ready() bool {
	return r.modemReady.Load() && r.httpReady.Load()
}
