package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wifitracker.yml")
	data := `
wifitracker:
  storage:
    dir: /var/lib/wifitracker
    devices:
      mode: redis
      redis:
        addr: 127.0.0.1:6379
        key: devices
  input:
    mode: pcap
    pcap:
      iface: wlan0mon
  vendor:
    enabled: true
    timeout: 5s
    max_concurrent: 10
    headers:
      X-Api-Key: secret
  report:
    output:
      mode: http
      http:
        url: http://collector/devices
        timeout: 3s
  logging:
    level: debug
    console: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	wt := cfg.WifiTracker
	require.Equal(t, "/var/lib/wifitracker", wt.Storage.Dir)
	require.Equal(t, "redis", wt.Storage.Devices.Mode)
	require.Equal(t, "devices", wt.Storage.Devices.Redis.Key)
	require.Equal(t, "pcap", wt.Input.Mode)
	require.Equal(t, "wlan0mon", wt.Input.Pcap.Iface)
	require.True(t, wt.Vendor.Enabled)
	require.Equal(t, 5*time.Second, wt.Vendor.Timeout)
	require.Equal(t, 10, wt.Vendor.MaxConcurrent)
	require.Equal(t, "secret", wt.Vendor.Headers["X-Api-Key"])
	require.Equal(t, "http", wt.Report.Output.Mode)
	require.Equal(t, 3*time.Second, wt.Report.Output.HTTP.Timeout)
	require.Equal(t, "debug", wt.Logging.Level)
	require.True(t, wt.Logging.Console)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("wifitracker: [unclosed"), 0644))
	_, err = LoadConfig(path)
	require.Error(t, err)
}
