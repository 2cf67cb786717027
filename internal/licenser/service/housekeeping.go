package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/internal/licenser/store"
)

// HousekeepingService periodically sweeps the lifecycle projections:
// signing keys past their expiry get deactivated, and released documents
// whose coverage window has lapsed are reported. Expiry itself is always
// computed at read time; the sweep only tidies the active flags and logs.
type HousekeepingService struct {
	Store    store.Store
	Keys     *KeyService
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, keys *KeyService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Keys:     keys,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to
// gracefully shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the background worker. Blocks until any in-progress
// sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs each check independently; a failure in one never stops the
// others.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	now := time.Now().UTC()
	s.Logger.Debug("starting housekeeping sweep")

	s.sweepKeys(ctx, now)
	s.sweepDocuments(ctx, now)
}

// sweepKeys deactivates signing keys whose expiry date has passed. The
// selection query already refuses expired keys, so this is bookkeeping
// that keeps key listings honest.
func (s *HousekeepingService) sweepKeys(ctx context.Context, now time.Time) {
	keys, err := s.Store.CryptoKeys().ListKeys(ctx)
	if err != nil {
		s.Logger.Error("failed to list keys during sweep", "error", err)
		return
	}

	for _, key := range keys {
		if !key.Active || key.Usable(now) {
			continue
		}
		if err := s.Keys.DeactivateKey(ctx, key.ID); err != nil {
			s.Logger.Error("failed to deactivate expired key", "key_id", key.ID, "error", err)
			continue
		}
		s.Logger.Info("deactivated expired signing key", "key_id", key.ID, "expires_at", key.ExpiresAt)
	}
}

// sweepDocuments reports released documents that have lapsed. Their stored
// status stays released; expiry is a projection and readers compute it
// from the line dates.
func (s *HousekeepingService) sweepDocuments(ctx context.Context, now time.Time) {
	docs, err := s.Store.Documents().ListDocuments(ctx)
	if err != nil {
		s.Logger.Error("failed to list documents during sweep", "error", err)
		return
	}

	var lapsed int
	for _, header := range docs {
		if header.Status != domain.DocumentReleased {
			continue
		}
		doc, err := s.Store.Documents().GetDocument(ctx, header.No)
		if err != nil {
			s.Logger.Error("failed to load document during sweep", "document_no", header.No, "error", err)
			continue
		}
		if doc.EffectiveStatus(now) == domain.DocumentExpired {
			lapsed++
			s.Logger.Info("released document has lapsed", "document_no", doc.No, "customer_no", doc.CustomerNo)
		}
	}

	s.Logger.Debug("housekeeping sweep completed", "lapsed_documents", lapsed)
}
