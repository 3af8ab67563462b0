// Package registry holds the aggregated state of every device observed.
//
// Records are kept in a fixed set of shards. A shard lock only guards the
// shard's map for lookup and insertion; each device has its own mutex, so
// updates to different devices never contend and updates to one device are
// serialized.
package registry

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"wifitracker/pkg/models"
)

// ErrDeviceNotFound is returned when updating a device that was never created.
var ErrDeviceNotFound = errors.New("device not found")

const shardCount = 64

// Store persists device records.
type Store interface {
	Put(ctx context.Context, rec models.DeviceRecord) error
	Get(ctx context.Context, mac string) (models.DeviceRecord, bool, error)
	All(ctx context.Context) ([]models.DeviceRecord, error)
	Close() error
}

// Device is the registry entry for one hardware address. The same *Device is
// returned to every caller for a given MAC.
type Device struct {
	mac       string
	mu        sync.Mutex
	rec       models.DeviceRecord
	persistMu sync.Mutex
}

// MAC returns the device's hardware address.
func (d *Device) MAC() string {
	return d.mac
}

// Snapshot returns a copy of the current record.
func (d *Device) Snapshot() models.DeviceRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rec.Clone()
}

func (d *Device) update(fn func(*models.DeviceRecord)) models.DeviceRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.rec)
	return d.rec.Clone()
}

// Persist writes the device's current record to store. Writes for one device
// are serialized and always carry the state at the time of the write, so a
// slow writer cannot overwrite a newer record with an older one.
func (d *Device) Persist(ctx context.Context, store Store) error {
	d.persistMu.Lock()
	defer d.persistMu.Unlock()
	return store.Put(ctx, d.Snapshot())
}

type shard struct {
	mu      sync.RWMutex
	devices map[string]*Device
}

// Registry maps hardware addresses to device records.
type Registry struct {
	shards [shardCount]*shard
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{devices: make(map[string]*Device)}
	}
	return r
}

func (r *Registry) shardFor(mac string) *shard {
	h := fnv.New32a()
	h.Write([]byte(mac))
	return r.shards[h.Sum32()%shardCount]
}

// GetOrCreate returns the device for mac, creating it if needed. created is
// true for exactly one caller per MAC.
func (r *Registry) GetOrCreate(mac string) (*Device, bool) {
	s := r.shardFor(mac)

	s.mu.RLock()
	d, ok := s.devices[mac]
	s.mu.RUnlock()
	if ok {
		return d, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[mac]; ok {
		return d, false
	}
	d = &Device{mac: mac, rec: models.DeviceRecord{DeviceMAC: mac, KnownSSIDs: []string{}}}
	s.devices[mac] = d
	return d, true
}

func (r *Registry) lookup(mac string) (*Device, bool) {
	s := r.shardFor(mac)
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[mac]
	return d, ok
}

// Merge adds ssid to the device's known SSIDs (ignored when empty) and
// advances its last-seen time if observed is newer. It returns the updated
// record.
func (r *Registry) Merge(mac, ssid string, observed time.Time) (models.DeviceRecord, error) {
	d, ok := r.lookup(mac)
	if !ok {
		return models.DeviceRecord{}, ErrDeviceNotFound
	}
	return d.update(func(rec *models.DeviceRecord) {
		rec.AddSSID(ssid)
		rec.Observe(observed)
	}), nil
}

// SetVendor records a vendor lookup outcome; a nil info stores an unresolved vendor.
func (r *Registry) SetVendor(mac string, info *models.VendorInfo) (models.DeviceRecord, error) {
	d, ok := r.lookup(mac)
	if !ok {
		return models.DeviceRecord{}, ErrDeviceNotFound
	}
	return d.update(func(rec *models.DeviceRecord) {
		rec.SetVendor(info)
	}), nil
}

// Persist writes the current record for mac to store.
func (r *Registry) Persist(ctx context.Context, mac string, store Store) error {
	d, ok := r.lookup(mac)
	if !ok {
		return ErrDeviceNotFound
	}
	return d.Persist(ctx, store)
}

// Get returns a copy of the record for mac.
func (r *Registry) Get(mac string) (models.DeviceRecord, bool) {
	d, ok := r.lookup(mac)
	if !ok {
		return models.DeviceRecord{}, false
	}
	return d.Snapshot(), true
}

// Put inserts or replaces a record wholesale.
func (r *Registry) Put(rec models.DeviceRecord) {
	d, _ := r.GetOrCreate(rec.DeviceMAC)
	rec = rec.Clone()
	if rec.KnownSSIDs == nil {
		rec.KnownSSIDs = []string{}
	}
	d.update(func(cur *models.DeviceRecord) { *cur = rec })
}

// Snapshot returns copies of all records keyed by MAC.
func (r *Registry) Snapshot() map[string]models.DeviceRecord {
	out := make(map[string]models.DeviceRecord)
	for _, s := range r.shards {
		s.mu.RLock()
		devices := make([]*Device, 0, len(s.devices))
		for _, d := range s.devices {
			devices = append(devices, d)
		}
		s.mu.RUnlock()

		for _, d := range devices {
			rec := d.Snapshot()
			out[rec.DeviceMAC] = rec
		}
	}
	return out
}

// MACs returns the addresses of all known devices.
func (r *Registry) MACs() []string {
	var out []string
	for _, s := range r.shards {
		s.mu.RLock()
		for mac := range s.devices {
			out = append(out, mac)
		}
		s.mu.RUnlock()
	}
	return out
}

// Len returns the number of known devices.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.devices)
		s.mu.RUnlock()
	}
	return n
}

// Load populates the registry from a persisted store and returns the number
// of records loaded.
func (r *Registry) Load(ctx context.Context, store Store) (int, error) {
	recs, err := store.All(ctx)
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		r.Put(rec)
	}
	return len(recs), nil
}
