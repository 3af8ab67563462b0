package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wifitracker/config"
	"wifitracker/internal/vendor"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &config.Config{}
	applyDefaults(cfg)

	wt := cfg.WifiTracker
	require.Equal(t, "data", wt.Storage.Dir)
	require.Equal(t, filepath.Join("data", "requests.jsonl"), wt.Storage.EventLog)
	require.Equal(t, "file", wt.Storage.Devices.Mode)
	require.Equal(t, filepath.Join("data", "devices"), wt.Storage.Devices.Dir)
	require.Equal(t, "wifitracker:devices", wt.Storage.Devices.Redis.Key)
	require.Equal(t, "redis", wt.Input.Mode)
	require.Equal(t, vendor.DefaultURL, wt.Vendor.URL)
	require.Equal(t, 20*time.Second, wt.Vendor.Timeout)
	require.Equal(t, 100, wt.Vendor.MaxConcurrent)
	require.Equal(t, 0, wt.Vendor.Retries)
	require.Equal(t, ":9108", wt.Metrics.Listen)
	require.Equal(t, "-", wt.Report.Output.File.Path)
	require.Equal(t, "info", wt.Logging.Level)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &config.Config{WifiTracker: config.WifiTrackerConfig{
		Storage: config.StorageConfig{Dir: "/srv/wt", EventLog: "/var/log/req.jsonl"},
		Vendor:  config.VendorConfig{MaxConcurrent: 4},
	}}
	applyDefaults(cfg)

	require.Equal(t, "/var/log/req.jsonl", cfg.WifiTracker.Storage.EventLog)
	require.Equal(t, filepath.Join("/srv/wt", "devices"), cfg.WifiTracker.Storage.Devices.Dir)
	require.Equal(t, 4, cfg.WifiTracker.Vendor.MaxConcurrent)
}

func TestParseAsOf(t *testing.T) {
	cases := map[string]time.Time{
		"2016-04-01 12:30:00.250000": time.Date(2016, 4, 1, 12, 30, 0, 250000000, time.UTC),
		"2016-04-01 12:30:00":        time.Date(2016, 4, 1, 12, 30, 0, 0, time.UTC),
		"2016-04-01":                 time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC),
		"2016-04-01T14:30:00+02:00":  time.Date(2016, 4, 1, 12, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseAsOf(in)
		require.NoError(t, err, in)
		require.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	_, err := parseAsOf("yesterday")
	require.Error(t, err)
}
