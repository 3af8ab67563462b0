// Package engine folds probe requests into device records.
//
// Each device moves from unknown to seen on its first request, which starts
// one background vendor lookup; the lookup result moves it to resolved.
// Ingestion never waits on lookups and never returns an error: storage
// failures are logged and counted, and the request is always appended to the
// event log.
package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"wifitracker/internal/logger"
	"wifitracker/internal/metrics"
	"wifitracker/internal/registry"
	"wifitracker/pkg/models"
)

const defaultStoreTimeout = 5 * time.Second

// EventLog is the durable request log the engine appends to and replays.
type EventLog interface {
	Append(req models.ProbeRequest) error
	ReadAllBefore(t time.Time) iter.Seq2[models.ProbeRequest, error]
}

// VendorResolver resolves manufacturer metadata for hardware addresses.
type VendorResolver interface {
	Resolve(ctx context.Context, mac string) *models.VendorInfo
	ResolveAll(ctx context.Context, macs []string) map[string]*models.VendorInfo
}

// Config wires the engine's collaborators. Log is required; a nil Store
// disables write-through persistence and a nil Resolver disables lookups.
type Config struct {
	Registry     *registry.Registry
	Log          EventLog
	Store        registry.Store
	Resolver     VendorResolver
	Metrics      *metrics.Metrics
	StoreTimeout time.Duration
}

// Engine is the live aggregation engine.
type Engine struct {
	registry     *registry.Registry
	log          EventLog
	store        registry.Store
	resolver     VendorResolver
	metrics      *metrics.Metrics
	storeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Log == nil {
		return nil, errors.New("engine requires an event log")
	}
	if cfg.Registry == nil {
		cfg.Registry = registry.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(nil)
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		registry:     cfg.Registry,
		log:          cfg.Log,
		store:        cfg.Store,
		resolver:     cfg.Resolver,
		metrics:      cfg.Metrics,
		storeTimeout: cfg.StoreTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Registry returns the live registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// OnProbeRequest ingests one request.
func (e *Engine) OnProbeRequest(req models.ProbeRequest) {
	req = req.Normalized()
	e.metrics.EventsIngested.Inc()
	defer e.appendToLog(req)

	if req.SourceMAC == "" {
		logger.Warnf("Probe request without source address: %s", req)
		return
	}

	_, created := e.registry.GetOrCreate(req.SourceMAC)
	if created {
		e.metrics.DevicesCreated.Inc()
		logger.Debugf("New device created: %s", req.SourceMAC)
		e.scheduleResolve(req.SourceMAC)
	}

	if _, err := e.registry.Merge(req.SourceMAC, req.SSID(), req.CaptureTime); err != nil {
		logger.Errorf("Failed to merge probe request from %s: %v", req.SourceMAC, err)
		return
	}
	e.persist(req.SourceMAC)
}

func (e *Engine) appendToLog(req models.ProbeRequest) {
	if err := e.log.Append(req); err != nil {
		e.metrics.PersistFailures.WithLabelValues(metrics.TargetEventLog).Inc()
		logger.Errorf("Failed to append probe request to event log: %v", err)
	}
}

func (e *Engine) persist(mac string) {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.storeTimeout)
	defer cancel()
	if err := e.registry.Persist(ctx, mac, e.store); err != nil {
		e.metrics.PersistFailures.WithLabelValues(metrics.TargetStore).Inc()
		logger.Errorf("Failed to persist device %s: %v", mac, err)
	}
}

func (e *Engine) scheduleResolve(mac string) {
	if e.resolver == nil {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.pending.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.pending.Done()
		info := e.resolver.Resolve(e.ctx, mac)
		if e.ctx.Err() != nil {
			logger.Debugf("Vendor lookup for %s abandoned on shutdown", mac)
			return
		}
		if _, err := e.registry.SetVendor(mac, info); err != nil {
			logger.Errorf("Failed to record vendor for %s: %v", mac, err)
			return
		}
		e.persist(mac)
	}()
}

// Wait blocks until every scheduled vendor lookup has finished.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// Report reconstructs device state as of asOf from the event log without
// touching live state. With vendors set, every device is resolved in one
// bounded batch after the fold.
func (e *Engine) Report(ctx context.Context, asOf time.Time, vendors bool) ([]models.DeviceRecord, error) {
	resolver := e.resolver
	if !vendors {
		resolver = nil
	}
	return Report(ctx, e.log, resolver, asOf)
}

// Close stops accepting lookups and waits for in-flight ones until ctx is
// done, after which they are abandoned.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		<-done
		return fmt.Errorf("abandoned pending vendor lookups: %w", ctx.Err())
	}
}
