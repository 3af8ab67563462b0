// Package probe parses probe request events published by external decoders.
package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"wifitracker/pkg/models"
)

// ErrMalformed marks payloads that cannot be turned into a probe request.
var ErrMalformed = errors.New("malformed probe request")

var timestampLayouts = []string{
	models.TimestampLayout,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
}

// Parse converts a JSON probe request into a normalized ProbeRequest. It
// accepts the event log format as well as RFC 3339 or unix-second capture
// times, and source/ssid/rssi aliases used by common sniffers.
// Every error wraps ErrMalformed.
func Parse(data []byte) (models.ProbeRequest, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.ProbeRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	mac := getString(raw, "source_mac", "source", "sa", "addr2")
	if mac == "" {
		return models.ProbeRequest{}, fmt.Errorf("%w: missing source address", ErrMalformed)
	}

	ts, ok := getTime(raw, "capture_dts", "capture_time", "timestamp", "ts")
	if !ok {
		return models.ProbeRequest{}, fmt.Errorf("%w: missing or malformed capture time", ErrMalformed)
	}

	var signal *int
	if v, ok := getInt(raw, "signal_strength", "rssi", "signal_dbm"); ok {
		signal = &v
	}

	req, err := models.NewProbeRequest(mac, ts, getString(raw, "target_ssid", "ssid"), signal)
	if err != nil {
		return models.ProbeRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return req, nil
}

func getTime(raw map[string]interface{}, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if t, ok := parseTime(val); ok {
				return t, true
			}
		case float64:
			sec, frac := math.Modf(val)
			return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
		}
	}
	return time.Time{}, false
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func getString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func getInt(raw map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		switch val := raw[key].(type) {
		case float64:
			return int(val), true
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}
