package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhdn/cuestore/internal/carrier"
	"github.com/minhdn/cuestore/internal/domain"
	"github.com/minhdn/cuestore/internal/region"
	"github.com/minhdn/cuestore/internal/telemetry"
)

// RegionSyncConfig configures the master-data sync.
type RegionSyncConfig struct {
	// RefreshInterval is how often the reference data is rebuilt.
	// Zero disables periodic refresh; the initial load still runs.
	RefreshInterval time.Duration

	// Force rebuilds the table even when mappings are already loaded.
	Force bool
}

// RegionCatalog is the store surface the sync writes to.
type RegionCatalog interface {
	Count(ctx context.Context) (int64, error)
	ReplaceAll(ctx context.Context, mappings []domain.RegionMapping) error
}

// RegionSyncWorker downloads the carrier's province/district/ward tree and
// rebuilds the local region mapping table. Names are normalized on write so
// request-time lookups stay cheap.
type RegionSyncWorker struct {
	config  RegionSyncConfig
	gateway carrier.Gateway
	store   RegionCatalog
	metrics *telemetry.CheckoutMetrics
	logger  *slog.Logger
}

// NewRegionSyncWorker creates a region sync worker.
func NewRegionSyncWorker(gateway carrier.Gateway, store RegionCatalog, metrics *telemetry.CheckoutMetrics, config RegionSyncConfig, logger *slog.Logger) *RegionSyncWorker {
	return &RegionSyncWorker{
		config:  config,
		gateway: gateway,
		store:   store,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "region_sync")),
	}
}

// Start runs the initial load, then refreshes on the configured interval
// until the context is cancelled.
func (w *RegionSyncWorker) Start(ctx context.Context) error {
	if err := w.syncIfNeeded(ctx); err != nil {
		// Startup must not depend on the carrier being up; existing
		// mappings (possibly stale) keep serving.
		w.logger.Error("initial region sync failed", "error", err)
	}

	if w.config.RefreshInterval == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("region sync shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				w.logger.Error("region sync failed", "error", err)
			}
		}
	}
}

// syncIfNeeded skips the download when mappings are already loaded, unless
// forced. A fresh deployment starts with an empty table and must sync.
func (w *RegionSyncWorker) syncIfNeeded(ctx context.Context) error {
	if !w.config.Force {
		count, err := w.store.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			w.logger.Info("region mappings already loaded", "count", count)
			w.metrics.RegionSyncRows.Set(float64(count))
			return nil
		}
	}
	return w.Sync(ctx)
}

// Sync rebuilds the mapping table from the carrier master data.
func (w *RegionSyncWorker) Sync(ctx context.Context) error {
	start := time.Now()
	w.logger.Info("region sync starting")

	provinces, err := w.gateway.GetProvinces(ctx)
	if err != nil {
		return err
	}

	var mappings []domain.RegionMapping
	for _, p := range provinces {
		province := region.NormalizeProvince(p.ProvinceName)

		districts, err := w.gateway.GetDistricts(ctx, p.ProvinceID)
		if err != nil {
			w.logger.Warn("district download failed, skipping province",
				"province", p.ProvinceName, "error", err)
			continue
		}

		for _, d := range districts {
			district := region.NormalizeDistrict(d.DistrictName)

			wards, err := w.gateway.GetWards(ctx, d.DistrictID)
			if err != nil {
				w.logger.Warn("ward download failed, skipping district",
					"province", p.ProvinceName, "district", d.DistrictName, "error", err)
				continue
			}

			for _, wd := range wards {
				mappings = append(mappings, domain.RegionMapping{
					Province:          province,
					District:          district,
					Ward:              region.NormalizeWard(wd.WardName),
					CarrierDistrictID: d.DistrictID,
					CarrierWardCode:   wd.WardCode,
				})
			}
		}
	}

	if len(mappings) == 0 {
		w.logger.Warn("region sync produced no mappings, keeping existing data")
		return nil
	}

	if err := w.store.ReplaceAll(ctx, mappings); err != nil {
		return err
	}

	w.metrics.RegionSyncRows.Set(float64(len(mappings)))
	w.logger.Info("region sync completed",
		"mappings", len(mappings),
		"provinces", len(provinces),
		"duration", time.Since(start),
	)
	return nil
}
