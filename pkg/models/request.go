package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProbeRequest is a single captured 802.11 probe request.
type ProbeRequest struct {
	SourceMAC      string
	CaptureTime    time.Time
	TargetSSID     *string
	SignalStrength *int
}

// NewProbeRequest builds a request at the ingestion boundary. The MAC is
// normalized, the capture time truncated to microseconds and an empty SSID
// recorded as a wildcard probe.
func NewProbeRequest(sourceMAC string, captured time.Time, ssid string, signal *int) (ProbeRequest, error) {
	mac, err := NormalizeMAC(sourceMAC)
	if err != nil {
		return ProbeRequest{}, err
	}
	req := ProbeRequest{
		SourceMAC:      mac,
		CaptureTime:    TruncateTimestamp(captured),
		SignalStrength: signal,
	}
	if ssid != "" {
		req.TargetSSID = &ssid
	}
	return req, nil
}

// Normalized returns r with the capture time truncated to the persisted
// precision and an empty SSID recorded as a wildcard probe, so the value
// matches what the event log reads back.
func (r ProbeRequest) Normalized() ProbeRequest {
	r.CaptureTime = TruncateTimestamp(r.CaptureTime)
	if r.TargetSSID != nil && *r.TargetSSID == "" {
		r.TargetSSID = nil
	}
	return r
}

// SSID returns the probed network name, or "" for a wildcard probe.
func (r ProbeRequest) SSID() string {
	if r.TargetSSID == nil {
		return ""
	}
	return *r.TargetSSID
}

func (r ProbeRequest) String() string {
	rssi := "None"
	if r.SignalStrength != nil {
		rssi = fmt.Sprintf("%d", *r.SignalStrength)
	}
	return fmt.Sprintf("SENDER='%s', SSID='%s', RSSi=%s", r.SourceMAC, r.SSID(), rssi)
}

type probeRequestJSON struct {
	SourceMAC      string  `json:"source_mac"`
	CaptureDTS     string  `json:"capture_dts"`
	TargetSSID     *string `json:"target_ssid"`
	SignalStrength *int    `json:"signal_strength"`
}

// MarshalJSON encodes the request in the event log line format.
func (r ProbeRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(probeRequestJSON{
		SourceMAC:      r.SourceMAC,
		CaptureDTS:     FormatTimestamp(r.CaptureTime),
		TargetSSID:     r.TargetSSID,
		SignalStrength: r.SignalStrength,
	})
}

// UnmarshalJSON decodes an event log line. A missing or malformed
// capture_dts is an error.
func (r *ProbeRequest) UnmarshalJSON(data []byte) error {
	var raw probeRequestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.SourceMAC == "" {
		return fmt.Errorf("missing source_mac")
	}
	ts, err := ParseTimestamp(raw.CaptureDTS)
	if err != nil {
		return err
	}
	if raw.TargetSSID != nil && *raw.TargetSSID == "" {
		raw.TargetSSID = nil
	}
	*r = ProbeRequest{
		SourceMAC:      raw.SourceMAC,
		CaptureTime:    ts,
		TargetSSID:     raw.TargetSSID,
		SignalStrength: raw.SignalStrength,
	}
	return nil
}
