package engine

import (
	"context"
	"sort"
	"time"

	"wifitracker/internal/logger"
	"wifitracker/internal/registry"
	"wifitracker/pkg/models"
)

// Report folds every logged request captured before asOf into a fresh
// registry and returns its records sorted by MAC. A non-nil resolver
// resolves all devices after the fold.
func Report(ctx context.Context, src registry.EventSource, resolver VendorResolver, asOf time.Time) ([]models.DeviceRecord, error) {
	reg, err := registry.RebuildAsOf(src, asOf)
	if err != nil {
		return nil, err
	}
	logger.Infof("Rebuilt %d devices as of %s", reg.Len(), models.FormatTimestamp(asOf))

	if resolver != nil {
		macs := reg.MACs()
		for mac, info := range resolver.ResolveAll(ctx, macs) {
			if _, err := reg.SetVendor(mac, info); err != nil {
				logger.Warnf("Failed to record vendor for %s: %v", mac, err)
			}
		}
	}

	snap := reg.Snapshot()
	out := make([]models.DeviceRecord, 0, len(snap))
	for _, rec := range snap {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceMAC < out[j].DeviceMAC })
	return out, nil
}
