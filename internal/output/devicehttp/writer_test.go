package devicehttp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wifitracker/pkg/models"
)

func TestWriteDevicesPostsArray(t *testing.T) {
	type received struct {
		auth  string
		ctype string
		body  []byte
	}
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{auth: r.Header.Get("Authorization"), ctype: r.Header.Get("Content-Type"), body: body}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer t"}})
	require.NoError(t, err)
	defer w.Close()

	recs := []models.DeviceRecord{{DeviceMAC: "aa:bb:cc:dd:ee:01", KnownSSIDs: []string{"a"}, LastSeenTime: time.Date(2016, 4, 1, 12, 0, 0, 0, time.UTC)}}
	require.NoError(t, w.WriteDevices(recs))

	r := <-got
	require.Equal(t, "Bearer t", r.auth)
	require.Equal(t, "application/json", r.ctype)
	var decoded []models.DeviceRecord
	require.NoError(t, json.Unmarshal(r.body, &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "aa:bb:cc:dd:ee:01", decoded[0].DeviceMAC)
}

func TestWriteDevicesReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusBadGateway)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL})
	require.NoError(t, err)
	err = w.WriteDevices(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestWriteDevicesSendsEmptyReport(t *testing.T) {
	got := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- body
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, w.WriteDevices(nil))
	require.Equal(t, "[]", string(<-got))
}

func TestNewWriterRequiresURL(t *testing.T) {
	_, err := NewWriter(Config{})
	require.Error(t, err)
}
