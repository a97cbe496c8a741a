package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "evse.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "app:\n  env: test\n"))
	require.NoError(t, err)
	assert.Equal(t, "evse-plc", cfg.App.Name)
	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "spidev", cfg.Modem.Driver)
	assert.Equal(t, 20*time.Millisecond, cfg.Modem.TickInterval)
	assert.Empty(t, cfg.Modem.LocalMAC)
	assert.Equal(t, "eth0", cfg.Modem.Interface)
	assert.Equal(t, 600*time.Millisecond, cfg.SLAC.SoundTimeout)
	assert.Equal(t, time.Second, cfg.SLAC.DiscoveryTimeout)
	assert.Equal(t, 2, cfg.SLAC.MinModems)
	assert.Equal(t, "01020304050607", cfg.SLAC.NID)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	p := writeFile(t, `
modem:
  driver: sim
  localMac: "02:11:22:33:44:55"
  simPeers: ["00:b0:52:11:22:33"]
slac:
  soundTimeout: 800ms
callback:
  url: http://evcc.local/soc
`)
	t.Setenv("EVSE_CALLBACK_RETRIES", "7")
	t.Setenv("EVSE_REDIS_ENABLED", "true")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Modem.Driver)
	assert.Equal(t, "02:11:22:33:44:55", cfg.Modem.LocalMAC)
	assert.Equal(t, []string{"00:b0:52:11:22:33"}, cfg.Modem.SimPeers)
	assert.Equal(t, 800*time.Millisecond, cfg.SLAC.SoundTimeout)
	assert.Equal(t, "http://evcc.local/soc", cfg.Callback.URL)
	assert.Equal(t, 7, cfg.Callback.Retries)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	p := writeFile(t, "modem:\n  driver: sim\n")
	t.Setenv("EVSE_CONFIG", p)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Modem.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeFile(t, "modem:\n  driver: usb\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "slac:\n  soundTimeout: 0s\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "modem: [\n"))
	assert.Error(t, err)
}
