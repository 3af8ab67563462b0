// Package pipeline drives an event source into the aggregation engine.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"wifitracker/internal/logger"
	"wifitracker/internal/transform/probe"
	"wifitracker/pkg/models"
)

// Source yields decoded probe requests. ok is false when the call produced
// nothing to ingest; io.EOF ends a finite source.
type Source interface {
	Next(ctx context.Context) (models.ProbeRequest, bool, error)
	Close() error
}

// Sink receives probe requests one at a time.
type Sink interface {
	OnProbeRequest(req models.ProbeRequest)
}

// Pipeline reads a source sequentially, preserving capture order.
type Pipeline struct {
	source     Source
	sink       Sink
	retryDelay time.Duration
}

// New creates a pipeline.
func New(source Source, sink Sink) *Pipeline {
	return &Pipeline{source: source, sink: sink, retryDelay: 500 * time.Millisecond}
}

// Run ingests until ctx is canceled or the source is exhausted. Malformed
// events are skipped; other source errors are logged and retried.
func (p *Pipeline) Run(ctx context.Context) error {
	logger.Infof("Ingestion pipeline started")
	var ingested, skipped int

	defer func() {
		logger.Infof("Ingestion pipeline stopped: ingested=%d skipped=%d", ingested, skipped)
	}()

	for {
		req, ok, err := p.source.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, probe.ErrMalformed):
			skipped++
			logger.Warnf("Skipping malformed probe request: %v", err)
			continue
		default:
			logger.Errorf("Failed to read probe request: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryDelay):
			}
			continue
		}

		if !ok {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		logger.Debugf("Probe request: %s", req)
		p.sink.OnProbeRequest(req)
		ingested++
	}
}

// Close releases the source.
func (p *Pipeline) Close() error {
	if p.source == nil {
		return nil
	}
	return p.source.Close()
}
