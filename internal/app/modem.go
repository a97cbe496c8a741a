package app

import (
	"fmt"
	"io"
	"net"
	"strings"

	"go.uber.org/zap"

	cfgpkg "github.com/devdems/evse-plc/internal/config"
	"github.com/devdems/evse-plc/internal/hpav"
	"github.com/devdems/evse-plc/internal/qcaspi"
	"github.com/devdems/evse-plc/internal/qcaspi/sim"
	"github.com/devdems/evse-plc/internal/qcaspi/spidev"
	"github.com/devdems/evse-plc/internal/slac"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenModem 按 modem.driver 打开 SPI 连接：spidev 为真实芯片，sim 为内存模型
func OpenModem(cfg cfgpkg.ModemConfig, log *zap.Logger) (*qcaspi.Device, io.Closer, error) {
	switch cfg.Driver {
	case "sim":
		peers := make([]hpav.MAC, 0, len(cfg.SimPeers))
		for _, s := range cfg.SimPeers {
			mac, err := hpav.ParseMAC(s)
			if err != nil {
				return nil, nil, fmt.Errorf("modem.simPeers: %w", err)
			}
			peers = append(peers, mac)
		}
		log.Warn("using simulated modem", zap.Int("peers", len(peers)))
		return qcaspi.New(sim.NewModem(sim.WithAutoReply(hpav.LocalModemMAC, peers...))), nopCloser{}, nil
	case "spidev":
		port, err := spidev.Open(cfg.Device, cfg.SpeedHz)
		if err != nil {
			return nil, nil, err
		}
		log.Info("spi port opened", zap.String("device", cfg.Device), zap.Int64("speed_hz", cfg.SpeedHz))
		return qcaspi.New(port), port, nil
	}
	return nil, nil, fmt.Errorf("unknown modem driver %q", cfg.Driver)
}

// interfaceByName 测试替换点
var interfaceByName = net.InterfaceByName

// LocalMAC 充电桩本机 MAC：优先 modem.localMac，否则取 modem.interface 的硬件地址
func LocalMAC(cfg cfgpkg.ModemConfig) (hpav.MAC, error) {
	if cfg.LocalMAC != "" {
		mac, err := hpav.ParseMAC(cfg.LocalMAC)
		if err != nil {
			return hpav.MAC{}, fmt.Errorf("modem.localMac: %w", err)
		}
		return mac, nil
	}
	if cfg.Interface == "" {
		return hpav.MAC{}, fmt.Errorf("modem.localMac: empty and modem.interface not set")
	}
	ifi, err := interfaceByName(cfg.Interface)
	if err != nil {
		return hpav.MAC{}, fmt.Errorf("modem.interface %q: %w", cfg.Interface, err)
	}
	var mac hpav.MAC
	if len(ifi.HardwareAddr) != len(mac) {
		return hpav.MAC{}, fmt.Errorf("modem.interface %q: no ethernet hardware address", cfg.Interface)
	}
	copy(mac[:], ifi.HardwareAddr)
	if mac == (hpav.MAC{}) {
		return hpav.MAC{}, fmt.Errorf("modem.interface %q: zero hardware address", cfg.Interface)
	}
	return mac, nil
}

// MachineConfig 由配置构建状态机参数；slac.nid 为 "derive" 时由每次生成的 NMK 推导
func MachineConfig(cfg *cfgpkg.Config) (slac.Config, error) {
	local, err := LocalMAC(cfg.Modem)
	if err != nil {
		return slac.Config{}, err
	}
	mc := slac.Config{
		LocalMAC:         local,
		SoundTimeout:     cfg.SLAC.SoundTimeout,
		DiscoveryTimeout: cfg.SLAC.DiscoveryTimeout,
		MinModems:        cfg.SLAC.MinModems,
	}
	if strings.EqualFold(cfg.SLAC.NID, "derive") {
		mc.DeriveNID = true
		return mc, nil
	}
	if mc.NID, err = hpav.ParseNID(cfg.SLAC.NID); err != nil {
		return slac.Config{}, fmt.Errorf("slac.nid: %w", err)
	}
	return mc, nil
}
