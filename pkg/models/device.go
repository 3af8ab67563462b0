package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// VendorInfo is the manufacturer metadata resolved for a device.
type VendorInfo struct {
	Company string `json:"company"`
	Country string `json:"country"`
}

// DeviceRecord aggregates every probe request seen from one hardware address.
type DeviceRecord struct {
	DeviceMAC     string
	KnownSSIDs    []string
	LastSeenTime  time.Time
	VendorCompany *string
	VendorCountry *string
}

// AddSSID appends ssid if it is non-empty and not yet known.
func (d *DeviceRecord) AddSSID(ssid string) bool {
	if ssid == "" || slices.Contains(d.KnownSSIDs, ssid) {
		return false
	}
	d.KnownSSIDs = append(d.KnownSSIDs, ssid)
	return true
}

// Observe advances LastSeenTime to t if t is newer.
func (d *DeviceRecord) Observe(t time.Time) bool {
	if !t.After(d.LastSeenTime) {
		return false
	}
	d.LastSeenTime = t
	return true
}

// SetVendor records the outcome of a vendor lookup; a nil info clears both fields.
func (d *DeviceRecord) SetVendor(info *VendorInfo) {
	if info == nil {
		d.VendorCompany = nil
		d.VendorCountry = nil
		return
	}
	company, country := info.Company, info.Country
	d.VendorCompany = &company
	d.VendorCountry = &country
}

// Clone returns a deep copy.
func (d DeviceRecord) Clone() DeviceRecord {
	out := d
	out.KnownSSIDs = slices.Clone(d.KnownSSIDs)
	if d.VendorCompany != nil {
		v := *d.VendorCompany
		out.VendorCompany = &v
	}
	if d.VendorCountry != nil {
		v := *d.VendorCountry
		out.VendorCountry = &v
	}
	return out
}

func (d DeviceRecord) String() string {
	return fmt.Sprintf("MAC='%s', vendor='%s [%s]'", d.DeviceMAC, deref(d.VendorCompany), deref(d.VendorCountry))
}

func deref(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

type deviceRecordJSON struct {
	DeviceMAC     string   `json:"device_mac"`
	KnownSSIDs    []string `json:"known_ssids"`
	LastSeenDTS   string   `json:"last_seen_dts"`
	VendorCompany *string  `json:"vendor_company"`
	VendorCountry *string  `json:"vendor_country"`
}

// MarshalJSON encodes the persisted device record format.
func (d DeviceRecord) MarshalJSON() ([]byte, error) {
	ssids := d.KnownSSIDs
	if ssids == nil {
		ssids = []string{}
	}
	return json.Marshal(deviceRecordJSON{
		DeviceMAC:     d.DeviceMAC,
		KnownSSIDs:    ssids,
		LastSeenDTS:   FormatTimestamp(d.LastSeenTime),
		VendorCompany: d.VendorCompany,
		VendorCountry: d.VendorCountry,
	})
}

// UnmarshalJSON decodes the persisted device record format.
func (d *DeviceRecord) UnmarshalJSON(data []byte) error {
	var raw deviceRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.DeviceMAC == "" {
		return fmt.Errorf("missing device_mac")
	}
	ts, err := ParseTimestamp(raw.LastSeenDTS)
	if err != nil {
		return err
	}
	ssids := raw.KnownSSIDs
	if ssids == nil {
		ssids = []string{}
	}
	*d = DeviceRecord{
		DeviceMAC:     raw.DeviceMAC,
		KnownSSIDs:    ssids,
		LastSeenTime:  ts,
		VendorCompany: raw.VendorCompany,
		VendorCountry: raw.VendorCountry,
	}
	return nil
}
