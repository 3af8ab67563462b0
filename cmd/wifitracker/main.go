package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"iter"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"wifitracker/config"
	"wifitracker/internal/capture/dot11"
	"wifitracker/internal/engine"
	"wifitracker/internal/eventlog"
	inputredis "wifitracker/internal/input/redis"
	"wifitracker/internal/logger"
	"wifitracker/internal/metrics"
	"wifitracker/internal/output/devicehttp"
	"wifitracker/internal/output/devicejson"
	"wifitracker/internal/pipeline"
	"wifitracker/internal/registry"
	"wifitracker/internal/store/filestore"
	"wifitracker/internal/store/redisstore"
	"wifitracker/internal/vendor"
	"wifitracker/pkg/models"
)

const defaultConfigFile = "wifitracker.yml"

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, defaultConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return defaultConfigFile
}

// loadConfig falls back to defaults when no config file exists.
func loadConfig(configArg string) (*config.Config, string) {
	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = &config.Config{WifiTracker: config.WifiTrackerConfig{
			Vendor:  config.VendorConfig{Enabled: true},
			Logging: config.LoggingConfig{Enabled: true, Console: true},
		}}
		configPath = "(defaults)"
	}
	applyDefaults(cfg)
	return cfg, configPath
}

func applyDefaults(cfg *config.Config) {
	wt := &cfg.WifiTracker

	if wt.Storage.Dir == "" {
		wt.Storage.Dir = "data"
	}
	if wt.Storage.EventLog == "" {
		wt.Storage.EventLog = filepath.Join(wt.Storage.Dir, "requests.jsonl")
	}
	if wt.Storage.Timeout <= 0 {
		wt.Storage.Timeout = 5 * time.Second
	}
	if wt.Storage.Devices.Mode == "" {
		wt.Storage.Devices.Mode = "file"
	}
	if wt.Storage.Devices.Dir == "" {
		wt.Storage.Devices.Dir = filepath.Join(wt.Storage.Dir, "devices")
	}
	if wt.Storage.Devices.Redis.Addr == "" {
		wt.Storage.Devices.Redis.Addr = "127.0.0.1:6379"
	}
	if wt.Storage.Devices.Redis.Key == "" {
		wt.Storage.Devices.Redis.Key = "wifitracker:devices"
	}

	if wt.Input.Mode == "" {
		wt.Input.Mode = "redis"
	}
	if wt.Input.Redis.Addr == "" {
		wt.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if wt.Input.Redis.Key == "" {
		wt.Input.Redis.Key = "wifitracker:requests"
	}
	if wt.Input.Redis.BlockTimeout == 0 {
		wt.Input.Redis.BlockTimeout = 5 * time.Second
	}

	if wt.Vendor.URL == "" {
		wt.Vendor.URL = vendor.DefaultURL
	}
	if wt.Vendor.Timeout <= 0 {
		wt.Vendor.Timeout = vendor.DefaultTimeout
	}
	if wt.Vendor.MaxConcurrent <= 0 {
		wt.Vendor.MaxConcurrent = vendor.DefaultMaxConcurrent
	}
	if wt.Vendor.RetryInterval <= 0 {
		wt.Vendor.RetryInterval = vendor.DefaultRetryInterval
	}

	if wt.Metrics.Listen == "" {
		wt.Metrics.Listen = ":9108"
	}

	if wt.Report.Output.Mode == "" {
		wt.Report.Output.Mode = "file"
	}
	if wt.Report.Output.File.Path == "" {
		wt.Report.Output.File.Path = "-"
	}

	if wt.Logging.Level == "" {
		wt.Logging.Level = "info"
	}
}

func initLogger(cfg *config.Config) {
	lc := cfg.WifiTracker.Logging
	if err := logger.Init(logger.Config{
		Enabled: lc.Enabled,
		Level:   lc.Level,
		File:    lc.File,
		Console: lc.Console,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
}

func openStore(cfg *config.Config) registry.Store {
	dc := cfg.WifiTracker.Storage.Devices
	switch dc.Mode {
	case "file":
		s, err := filestore.New(dc.Dir)
		if err != nil {
			logger.Errorf("Failed to open device file store: %v", err)
			log.Fatalf("Failed to open device file store: %v", err)
		}
		logger.Infof("Device store: file (%s)", dc.Dir)
		return s
	case "redis":
		s, err := redisstore.New(redisstore.Config{
			Addr:     dc.Redis.Addr,
			Password: dc.Redis.Password,
			DB:       dc.Redis.DB,
			Key:      dc.Redis.Key,
			Timeout:  cfg.WifiTracker.Storage.Timeout,
		})
		if err != nil {
			logger.Errorf("Failed to open device redis store: %v", err)
			log.Fatalf("Failed to open device redis store: %v", err)
		}
		return s
	default:
		log.Fatalf("Unknown device store mode: %s", dc.Mode)
	}
	return nil
}

func newResolver(cfg *config.Config, m *metrics.Metrics) *vendor.Resolver {
	vc := cfg.WifiTracker.Vendor
	r, err := vendor.NewResolver(vendor.Config{
		URL:           vc.URL,
		Timeout:       vc.Timeout,
		MaxConcurrent: vc.MaxConcurrent,
		Retries:       vc.Retries,
		RetryInterval: vc.RetryInterval,
		Headers:       vc.Headers,
		Metrics:       m,
	})
	if err != nil {
		logger.Errorf("Failed to create vendor resolver: %v", err)
		log.Fatalf("Failed to create vendor resolver: %v", err)
	}
	logger.Infof("Vendor lookups: %s (max_concurrent=%d timeout=%s)", vc.URL, vc.MaxConcurrent, vc.Timeout)
	return r
}

func openSource(cfg *config.Config) pipeline.Source {
	ic := cfg.WifiTracker.Input
	switch ic.Mode {
	case "redis":
		c, err := inputredis.NewConsumer(inputredis.Config{
			Addr:         ic.Redis.Addr,
			Password:     ic.Redis.Password,
			DB:           ic.Redis.DB,
			Key:          ic.Redis.Key,
			BlockTimeout: ic.Redis.BlockTimeout,
		})
		if err != nil {
			logger.Errorf("Failed to create Redis consumer: %v", err)
			log.Fatalf("Failed to create Redis consumer: %v", err)
		}
		logger.Infof("Input mode: redis (%s key=%s)", ic.Redis.Addr, ic.Redis.Key)
		return c
	case "pcap":
		var (
			src *dot11.Source
			err error
		)
		switch {
		case ic.Pcap.Path != "":
			src, err = dot11.OpenFile(ic.Pcap.Path)
		case ic.Pcap.Iface != "":
			src, err = dot11.OpenLive(ic.Pcap.Iface)
		default:
			err = errors.New("input.pcap needs path or iface")
		}
		if err != nil {
			logger.Errorf("Failed to open capture: %v", err)
			log.Fatalf("Failed to open capture: %v", err)
		}
		logger.Infof("Input mode: pcap")
		return src
	default:
		log.Fatalf("Unknown input mode: %s", ic.Mode)
	}
	return nil
}

func serveMetrics(cfg *config.Config, m *metrics.Metrics) *http.Server {
	if !cfg.WifiTracker.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: cfg.WifiTracker.Metrics.Listen, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server error: %v", err)
		}
	}()
	logger.Infof("Metrics listening on %s", cfg.WifiTracker.Metrics.Listen)
	return srv
}

func runTracker(args []string) int {
	fs := flag.NewFlagSet("track", flag.ContinueOnError)
	configArg := fs.String("config", "", "Path to wifitracker.yml")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *configArg == "" && fs.NArg() > 0 {
		*configArg = fs.Arg(0)
	}

	cfg, configPath := loadConfig(*configArg)
	initLogger(cfg)
	defer logger.Close()

	logger.Infof("WifiTracker starting")
	logger.Infof("Config loaded from: %s", configPath)

	eventLog, err := eventlog.Open(cfg.WifiTracker.Storage.EventLog)
	if err != nil {
		logger.Errorf("Failed to open event log: %v", err)
		log.Fatalf("Failed to open event log: %v", err)
	}
	defer eventLog.Close()
	logger.Infof("Event log: %s", eventLog.Path())

	store := openStore(cfg)
	defer store.Close()

	reg := registry.New()
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	n, err := reg.Load(loadCtx, store)
	cancelLoad()
	if err != nil {
		logger.Warnf("Warm start from device store failed: %v", err)
	} else {
		logger.Infof("Warm start: %d known devices", n)
	}

	m := metrics.New(nil)
	metricsSrv := serveMetrics(cfg, m)

	var resolver engine.VendorResolver
	if cfg.WifiTracker.Vendor.Enabled {
		resolver = newResolver(cfg, m)
	} else {
		logger.Infof("Vendor lookups disabled")
	}

	eng, err := engine.New(engine.Config{
		Registry:     reg,
		Log:          eventLog,
		Store:        store,
		Resolver:     resolver,
		Metrics:      m,
		StoreTimeout: cfg.WifiTracker.Storage.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	pipe := pipeline.New(openSource(cfg), eng)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("Pipeline error: %v", err)
		code = 1
	}

	logger.Infof("Shutting down")
	if err := pipe.Close(); err != nil {
		logger.Errorf("Error closing pipeline: %v", err)
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), cfg.WifiTracker.Vendor.Timeout+5*time.Second)
	if err := eng.Close(closeCtx); err != nil {
		logger.Warnf("Engine close: %v", err)
	}
	cancelClose()

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}

	logger.Infof("WifiTracker stopped: %d devices", reg.Len())
	return code
}

// logFile replays an event log without opening it for writing.
type logFile string

func (f logFile) ReadAllBefore(t time.Time) iter.Seq2[models.ProbeRequest, error] {
	return eventlog.ReadFileBefore(string(f), t)
}

func openWriter(cfg *config.Config, outputArg string, pretty bool) pipeline.DeviceWriter {
	oc := cfg.WifiTracker.Report.Output
	if outputArg != "" {
		oc.Mode = "file"
		oc.File.Path = outputArg
	}

	switch oc.Mode {
	case "file":
		if pretty && oc.File.Path == "-" {
			return devicejson.NewPrettyWriter(os.Stdout)
		}
		w, err := devicejson.NewWriter(oc.File.Path)
		if err != nil {
			log.Fatalf("Failed to create report file writer: %v", err)
		}
		return w
	case "http":
		w, err := devicehttp.NewWriter(devicehttp.Config{
			URL:     oc.HTTP.URL,
			Timeout: oc.HTTP.Timeout,
			Headers: oc.HTTP.Headers,
		})
		if err != nil {
			log.Fatalf("Failed to create report HTTP writer: %v", err)
		}
		logger.Infof("Report output mode: http (%s)", oc.HTTP.URL)
		return w
	default:
		log.Fatalf("Unknown report output mode: %s", oc.Mode)
	}
	return nil
}

func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	configArg := fs.String("config", "", "Path to wifitracker.yml")
	asOfArg := fs.String("as-of", "", "Reconstruct devices from requests captured before this time (YYYY-MM-DD HH:MM:SS[.ffffff], UTC); default now")
	eventLogArg := fs.String("event-log", "", "Event log path (overrides storage.event_log)")
	noVendor := fs.Bool("no-vendor", false, "Skip vendor lookups")
	output := fs.String("output", "", "Output path, - for stdout (overrides report.output)")
	pretty := fs.Bool("pretty", false, "Indent records when printing to stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, _ := loadConfig(*configArg)
	initLogger(cfg)
	defer logger.Close()

	asOf := time.Now().UTC()
	if strings.TrimSpace(*asOfArg) != "" {
		t, err := parseAsOf(*asOfArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -as-of: %v\n", err)
			return 2
		}
		asOf = t
	}

	path := cfg.WifiTracker.Storage.EventLog
	if *eventLogArg != "" {
		path = *eventLogArg
	}

	var resolver engine.VendorResolver
	if cfg.WifiTracker.Vendor.Enabled && !*noVendor {
		resolver = newResolver(cfg, metrics.New(nil))
	}

	devices, err := engine.Report(context.Background(), logFile(path), resolver, asOf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build report: %v\n", err)
		return 1
	}

	w := openWriter(cfg, *output, *pretty)
	defer w.Close()
	if err := w.WriteDevices(devices); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		return 1
	}

	logger.Infof("Report as of %s: %d devices", models.FormatTimestamp(asOf), len(devices))
	return 0
}

func parseAsOf(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{models.TimestampLayout, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "track":
			os.Exit(runTracker(os.Args[2:]))
		case "report":
			os.Exit(runReport(os.Args[2:]))
		}
	}

	os.Exit(runTracker(os.Args[1:]))
}
