package pipeline

import "wifitracker/pkg/models"

// DeviceWriter writes device record reports.
type DeviceWriter interface {
	WriteDevices(devices []models.DeviceRecord) error
	Close() error
}
