package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wifitracker/pkg/models"
)

func TestDecodeAllSkipsCorruptAndMismatched(t *testing.T) {
	hash := map[string]string{
		"aa:bb:cc:dd:ee:02": `{"device_mac":"aa:bb:cc:dd:ee:02","known_ssids":["b"],"last_seen_dts":"2016-04-01 12:00:00.000000","vendor_company":null,"vendor_country":null}`,
		"aa:bb:cc:dd:ee:01": `{"device_mac":"aa:bb:cc:dd:ee:01","known_ssids":[],"last_seen_dts":"2016-04-01 12:00:00.000000","vendor_company":"Acme","vendor_country":"AT"}`,
		"aa:bb:cc:dd:ee:03": `{"device_mac":"aa:bb:cc:dd:ee:04","known_ssids":[],"last_seen_dts":"2016-04-01 12:00:00.000000"}`,
		"aa:bb:cc:dd:ee:05": `not json`,
	}

	recs := decodeAll(hash)
	require.Len(t, recs, 2)
	require.Equal(t, "aa:bb:cc:dd:ee:01", recs[0].DeviceMAC)
	require.Equal(t, "Acme", *recs[0].VendorCompany)
	require.Equal(t, []string{"b"}, recs[1].KnownSSIDs)
}

func TestWithDefaults(t *testing.T) {
	cfg := withDefaults(Config{Key: "  custom  "})
	require.Equal(t, "127.0.0.1:6379", cfg.Addr)
	require.Equal(t, "custom", cfg.Key)
	require.Equal(t, 5*time.Second, cfg.Timeout)
}

// TestRedisRoundTrip runs against a live server when WIFITRACKER_REDIS_ADDR is set.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("WIFITRACKER_REDIS_ADDR")
	if addr == "" {
		t.Skip("WIFITRACKER_REDIS_ADDR not set")
	}
	key := "wifitracker:test:" + time.Now().Format("150405.000000")
	s, err := New(Config{Addr: addr, Key: key})
	require.NoError(t, err)
	defer s.Close()
	defer s.client.Del(context.Background(), key)

	ctx := context.Background()
	rec := models.DeviceRecord{DeviceMAC: "aa:bb:cc:dd:ee:01", KnownSSIDs: []string{"x"}, LastSeenTime: time.Date(2016, 4, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, s.Put(ctx, rec))

	got, ok, err := s.Get(ctx, rec.DeviceMAC)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec.KnownSSIDs, got.KnownSSIDs)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
