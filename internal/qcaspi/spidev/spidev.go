// Package spidev 基于 periph.io 打开 Linux spidev 上的 QCA7000。
package spidev

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/devdems/evse-plc/internal/qcaspi"
)

// Port 已打开的 SPI 端口
type Port struct {
	port spi.PortCloser
	conn spi.Conn
}

// Open 初始化主机驱动并以 MODE3、8 位字长连接。device 为空时使用第一个可用端口。
func Open(device string, speedHz int64) (*Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", device, err)
	}
	c, err := p.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode3, 8)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("connect spi %q: %w", device, err)
	}
	return &Port{port: p, conn: c}, nil
}

// Tx 实现 qcaspi.Conn
func (p *Port) Tx(w, r []byte) error {
	return p.conn.Tx(w, r)
}

// Close 关闭端口
func (p *Port) Close() error {
	return p.port.Close()
}

var _ qcaspi.Conn = (*Port)(nil)
