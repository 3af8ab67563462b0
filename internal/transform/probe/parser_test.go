package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseEventLogFormat(t *testing.T) {
	req, err := Parse([]byte(`{"source_mac":"AA:BB:CC:DD:EE:01","capture_dts":"2016-04-01 12:00:00.123456","target_ssid":"CoffeeShop","signal_strength":-57}`))
	require.NoError(t, err)
	require.Equal(t, "aa:bb:cc:dd:ee:01", req.SourceMAC)
	require.True(t, req.CaptureTime.Equal(time.Date(2016, 4, 1, 12, 0, 0, 123456000, time.UTC)))
	require.Equal(t, "CoffeeShop", req.SSID())
	require.Equal(t, -57, *req.SignalStrength)
}

func TestParseAliasesAndRFC3339(t *testing.T) {
	req, err := Parse([]byte(`{"source":"aa-bb-cc-dd-ee-02","timestamp":"2016-04-01T14:00:00.5+02:00","ssid":"","rssi":"-70"}`))
	require.NoError(t, err)
	require.Equal(t, "aa:bb:cc:dd:ee:02", req.SourceMAC)
	require.True(t, req.CaptureTime.Equal(time.Date(2016, 4, 1, 12, 0, 0, 500000000, time.UTC)))
	require.Nil(t, req.TargetSSID)
	require.Equal(t, -70, *req.SignalStrength)
}

func TestParseUnixSeconds(t *testing.T) {
	req, err := Parse([]byte(`{"source_mac":"aa:bb:cc:dd:ee:03","ts":1459512000.25}`))
	require.NoError(t, err)
	require.True(t, req.CaptureTime.Equal(time.Date(2016, 4, 1, 12, 0, 0, 250000000, time.UTC)))
	require.Nil(t, req.SignalStrength)
}

func TestParseRejectsIncompleteEvents(t *testing.T) {
	for _, payload := range []string{
		`not json`,
		`{"capture_dts":"2016-04-01 12:00:00.000000"}`,
		`{"source_mac":"aa:bb:cc:dd:ee:01","capture_dts":"soon"}`,
		`{"source_mac":"zz","capture_dts":"2016-04-01 12:00:00.000000"}`,
	} {
		_, err := Parse([]byte(payload))
		require.ErrorIs(t, err, ErrMalformed, payload)
	}
}
