// Package worker holds the background loops: carrier shipment status sync and
// region master-data sync.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhdn/cuestore/internal/telemetry"
)

// ShipmentSyncConfig configures the shipment status sync loop.
type ShipmentSyncConfig struct {
	// Interval is how often open shipments are refreshed from the carrier.
	Interval time.Duration

	// BatchSize caps how many shipments one run refreshes.
	BatchSize int32
}

// ShipmentSyncer is the slice of the shipment service the worker drives.
type ShipmentSyncer interface {
	SyncOpenShipments(ctx context.Context, limit int32) (int, error)
}

// ShipmentSyncWorker periodically pulls carrier status for open shipments so
// tracking stays fresh without waiting for customers to ask.
type ShipmentSyncWorker struct {
	config    ShipmentSyncConfig
	shipments ShipmentSyncer
	metrics   *telemetry.CheckoutMetrics
	logger    *slog.Logger
}

// NewShipmentSyncWorker creates a shipment sync worker.
func NewShipmentSyncWorker(shipments ShipmentSyncer, metrics *telemetry.CheckoutMetrics, config ShipmentSyncConfig, logger *slog.Logger) *ShipmentSyncWorker {
	if config.Interval == 0 {
		config.Interval = 15 * time.Minute
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	return &ShipmentSyncWorker{
		config:    config,
		shipments: shipments,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "shipment_sync")),
	}
}

// Start runs the sync loop until the context is cancelled.
func (w *ShipmentSyncWorker) Start(ctx context.Context) error {
	w.logger.Info("shipment sync starting",
		"interval", w.config.Interval,
		"batch_size", w.config.BatchSize,
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shipment sync shutting down")
			return ctx.Err()

		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ShipmentSyncWorker) runOnce(ctx context.Context) {
	start := time.Now()
	w.metrics.ShipmentSyncRuns.Inc()

	refreshed, err := w.shipments.SyncOpenShipments(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("shipment sync run failed", "error", err)
		return
	}

	w.metrics.ShipmentsRefreshed.Add(float64(refreshed))
	if refreshed > 0 {
		w.logger.Info("shipment sync run completed",
			"refreshed", refreshed,
			"duration", time.Since(start),
		)
	}
}
