package registry

import (
	"fmt"
	"iter"
	"time"

	"wifitracker/pkg/models"
)

// EventSource replays logged probe requests.
type EventSource interface {
	ReadAllBefore(t time.Time) iter.Seq2[models.ProbeRequest, error]
}

// Fold applies one request to the registry, creating the device on first sight.
func (r *Registry) Fold(req models.ProbeRequest) (models.DeviceRecord, bool) {
	_, created := r.GetOrCreate(req.SourceMAC)
	rec, _ := r.Merge(req.SourceMAC, req.SSID(), req.CaptureTime)
	return rec, created
}

// RebuildAsOf folds every request captured before t into a new registry. The
// result shares no state with any live registry.
func RebuildAsOf(src EventSource, t time.Time) (*Registry, error) {
	r := New()
	for req, err := range src.ReadAllBefore(t) {
		if err != nil {
			return r, fmt.Errorf("replay event log: %w", err)
		}
		r.Fold(req)
	}
	return r, nil
}
