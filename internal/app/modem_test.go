package app

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/devdems/evse-plc/internal/config"
	"github.com/devdems/evse-plc/internal/engine"
	"github.com/devdems/evse-plc/internal/hpav"
	"github.com/devdems/evse-plc/internal/qcaspi"
)

func baseConfig() *cfgpkg.Config {
	return &cfgpkg.Config{
		Modem: cfgpkg.ModemConfig{Driver: "sim", LocalMAC: "02:00:00:00:00:01", TickInterval: 20 * time.Millisecond},
		SLAC:  cfgpkg.SLACConfig{NID: "01020304050607", SoundTimeout: 600 * time.Millisecond, DiscoveryTimeout: time.Second, MinModems: 2},
	}
}

func TestMachineConfig(t *testing.T) {
	mc, err := MachineConfig(baseConfig())
	require.NoError(t, err)
	assert.Equal(t, "02:00:00:00:00:01", mc.LocalMAC.String())
	assert.Equal(t, hpav.NID{1, 2, 3, 4, 5, 6, 7}, mc.NID)
	assert.False(t, mc.DeriveNID)
	assert.Equal(t, 2, mc.MinModems)

	cfg := baseConfig()
	cfg.SLAC.NID = "DERIVE"
	mc, err = MachineConfig(cfg)
	require.NoError(t, err)
	assert.True(t, mc.DeriveNID)

	cfg.SLAC.NID = "010203040506C7"
	_, err = MachineConfig(cfg)
	assert.ErrorContains(t, err, "slac.nid")

	cfg = baseConfig()
	cfg.Modem.LocalMAC = "bogus"
	_, err = MachineConfig(cfg)
	assert.ErrorContains(t, err, "modem.localMac")
}

func TestLocalMAC_FromInterface(t *testing.T) {
	orig := interfaceByName
	t.Cleanup(func() { interfaceByName = orig })
	ifaces := map[string]*net.Interface{
		"eth0": {Name: "eth0", HardwareAddr: net.HardwareAddr{0x24, 0x0a, 0xc4, 0x12, 0x34, 0x56}},
		"lo":   {Name: "lo"},
		"zero": {Name: "zero", HardwareAddr: make(net.HardwareAddr, 6)},
	}
	interfaceByName = func(name string) (*net.Interface, error) {
		if ifi, ok := ifaces[name]; ok {
			return ifi, nil
		}
		return nil, errors.New("no such network interface")
	}

	cfg := baseConfig()
	cfg.Modem.LocalMAC = ""
	cfg.Modem.Interface = "eth0"
	mc, err := MachineConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "24:0a:c4:12:34:56", mc.LocalMAC.String())

	// 显式配置优先于网卡
	mac, err := LocalMAC(cfgpkg.ModemConfig{LocalMAC: "02:00:00:00:00:09", Interface: "eth0"})
	require.NoError(t, err)
	assert.Equal(t, "02:00:00:00:00:09", mac.String())

	tests := []struct {
		name    string
		iface   string
		wantErr string
	}{
		{"missing", "wlan9", "no such network interface"},
		{"loopback", "lo", "no ethernet hardware address"},
		{"zero", "zero", "zero hardware address"},
		{"unset", "", "modem.interface not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Modem.LocalMAC = ""
			cfg.Modem.Interface = tt.iface
			_, err := MachineConfig(cfg)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOpenModem_Sim(t *testing.T) {
	cfg := baseConfig()
	cfg.Modem.SimPeers = []string{"00:b0:52:11:22:33"}
	dev, closer, err := OpenModem(cfg.Modem, zap.NewNop())
	require.NoError(t, err)
	defer closer.Close()

	sig, err := dev.Signature()
	require.NoError(t, err)
	assert.Equal(t, uint16(qcaspi.GoodSignature), sig)

	mc, err := MachineConfig(cfg)
	require.NoError(t, err)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	eng := engine.New(dev, engine.Options{Machine: mc, Clock: func() time.Time { return now }}, nil)
	for i := 0; i < 4; i++ {
		now = now.Add(20 * time.Millisecond)
		eng.Tick(now)
	}
	st := eng.Status()
	assert.True(t, st.ModemReady())
	assert.Equal(t, hpav.LocalModemMAC.String(), st.LocalModemMAC)

	agg := NewHealthAggregator(eng, 20*time.Millisecond)
	assert.NotNil(t, agg)
}

func TestOpenModem_Errors(t *testing.T) {
	_, _, err := OpenModem(cfgpkg.ModemConfig{Driver: "usb"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown modem driver")

	_, _, err = OpenModem(cfgpkg.ModemConfig{Driver: "sim", SimPeers: []string{"zz"}}, zap.NewNop())
	assert.ErrorContains(t, err, "modem.simPeers")
}
