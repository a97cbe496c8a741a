// Package ipv6 链路建立后承载的 IPv6 帧的上层边界：解析、记录、计数，然后交给可选的下游。
package ipv6

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/metrics"
)

// SDPPort ISO 15118 SECC 发现协议 UDP 端口
const SDPPort = 15118

// Packet 解析结果
type Packet struct {
	Src        net.IP
	Dst        net.IP
	NextHeader layers.IPProtocol
	Kind       string
	Payload    []byte
}

// Handler 实现 engine.FrameHandler
type Handler struct {
	log     *zap.Logger
	metrics *metrics.AppMetrics
	next    func(Packet)
}

// NewHandler next 可为 nil
func NewHandler(log *zap.Logger, m *metrics.AppMetrics, next func(Packet)) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{log: log, metrics: m, next: next}
}

// HandleFrame 解析一帧以太网 IPv6 数据
func (h *Handler) HandleFrame(frame []byte) {
	pkt, ok := Parse(frame)
	if h.metrics != nil {
		h.metrics.IPv6Frames.WithLabelValues(pkt.Kind).Inc()
	}
	if !ok {
		h.log.Debug("malformed ipv6 frame", zap.Int("len", len(frame)))
		return
	}
	h.log.Debug("ipv6 frame",
		zap.String("src", pkt.Src.String()),
		zap.String("dst", pkt.Dst.String()),
		zap.String("next_header", pkt.NextHeader.String()),
		zap.String("kind", pkt.Kind))
	if h.next != nil {
		h.next(pkt)
	}
}

// Parse 用 gopacket 解析以太网帧；Kind 为 icmpv6 / sdp / udp / tcp / other / malformed
func Parse(frame []byte) (Packet, bool) {
	p := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	l := p.Layer(layers.LayerTypeIPv6)
	if l == nil {
		return Packet{Kind: "malformed"}, false
	}
	ip, ok := l.(*layers.IPv6)
	if !ok {
		return Packet{Kind: "malformed"}, false
	}
	pkt := Packet{Src: ip.SrcIP, Dst: ip.DstIP, NextHeader: ip.NextHeader, Kind: "other", Payload: ip.Payload}

	switch {
	case p.Layer(layers.LayerTypeICMPv6) != nil:
		pkt.Kind = "icmpv6"
	case p.Layer(layers.LayerTypeUDP) != nil:
		udp := p.Layer(layers.LayerTypeUDP).(*layers.UDP)
		pkt.Kind = "udp"
		if udp.DstPort == SDPPort || udp.SrcPort == SDPPort {
			pkt.Kind = "sdp"
		}
		pkt.Payload = udp.Payload
	case p.Layer(layers.LayerTypeTCP) != nil:
		pkt.Kind = "tcp"
		pkt.Payload = p.Layer(layers.LayerTypeTCP).(*layers.TCP).Payload
	}
	if p.ErrorLayer() != nil && pkt.Kind == "other" {
		pkt.Kind = "malformed"
		return pkt, false
	}
	return pkt, true
}
