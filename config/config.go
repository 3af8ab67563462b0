package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	WifiTracker WifiTrackerConfig `yaml:"wifitracker"`
}

// WifiTrackerConfig is the project configuration.
type WifiTrackerConfig struct {
	Storage StorageConfig `yaml:"storage"`
	Input   InputConfig   `yaml:"input"`
	Vendor  VendorConfig  `yaml:"vendor"`
	Metrics MetricsConfig `yaml:"metrics"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig controls where events and device records live.
type StorageConfig struct {
	Dir      string        `yaml:"dir"`
	EventLog string        `yaml:"event_log"`
	Devices  DevicesConfig `yaml:"devices"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DevicesConfig controls the device record store.
type DevicesConfig struct {
	Mode  string      `yaml:"mode"` // file|redis
	Dir   string      `yaml:"dir"`
	Redis RedisConfig `yaml:"redis"`
}

// InputConfig controls the probe request source.
type InputConfig struct {
	Mode  string      `yaml:"mode"` // redis|pcap
	Redis RedisConfig `yaml:"redis"`
	Pcap  PcapConfig  `yaml:"pcap"`
}

// RedisConfig controls a Redis connection.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// PcapConfig selects a capture file or a monitor-mode interface.
type PcapConfig struct {
	Path  string `yaml:"path"`
	Iface string `yaml:"iface"`
}

// VendorConfig controls MAC vendor lookups.
type VendorConfig struct {
	Enabled       bool              `yaml:"enabled"`
	URL           string            `yaml:"url"`
	Timeout       time.Duration     `yaml:"timeout"`
	MaxConcurrent int               `yaml:"max_concurrent"`
	Retries       int               `yaml:"retries"`
	RetryInterval time.Duration     `yaml:"retry_interval"`
	Headers       map[string]string `yaml:"headers"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// ReportConfig controls the historical report.
type ReportConfig struct {
	Output OutputConfig `yaml:"output"`
}

// OutputConfig controls output.
type OutputConfig struct {
	Mode string           `yaml:"mode"` // file|http
	File FileOutputConfig `yaml:"file"`
	HTTP HTTPOutputConfig `yaml:"http"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
