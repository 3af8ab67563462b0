package devicejson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"wifitracker/internal/logger"
	"wifitracker/pkg/models"
)

// Writer outputs device records to a JSON lines file.
type Writer struct {
	closer  io.Closer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewWriter creates a JSONL writer for device records. The path "-" writes
// to standard output.
func NewWriter(path string) (*Writer, error) {
	if path == "-" {
		return NewStreamWriter(os.Stdout), nil
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	logger.Infof("Device JSON writer initialized: %s", path)
	w := NewStreamWriter(f)
	w.closer = f
	return w, nil
}

// NewStreamWriter writes to w without owning it.
func NewStreamWriter(w io.Writer) *Writer {
	return &Writer{encoder: json.NewEncoder(w)}
}

// NewPrettyWriter writes indented records to w, one JSON document per device.
func NewPrettyWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return &Writer{encoder: enc}
}

// WriteDevices writes one line per device.
func (w *Writer) WriteDevices(devices []models.DeviceRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, d := range devices {
		if err := w.encoder.Encode(d); err != nil {
			return fmt.Errorf("failed to encode device record: %w", err)
		}
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}
