package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.EventsIngested.Add(3)
	m.VendorLookups.WithLabelValues(LookupTimeout).Inc()

	require.Equal(t, 3.0, testutil.ToFloat64(m.EventsIngested))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "wifitracker_probe_requests_total 3")
	require.Contains(t, string(body), `wifitracker_vendor_lookups_total{result="timeout"} 1`)
}

func TestNewWithNilRegistry(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.DevicesCreated.Inc()
	require.Equal(t, 0.0, testutil.ToFloat64(b.DevicesCreated))
}
