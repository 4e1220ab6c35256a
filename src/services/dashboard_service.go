package services

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradeledger/backend/src/logger"
	"github.com/username/tradeledger/backend/src/models"
	"github.com/username/tradeledger/backend/src/processors"
	"github.com/username/tradeledger/backend/src/storage"
)

const ckDashboardView = "agg_dashboard_view_user_%d"

type dashboardServiceImpl struct {
	noteStore   NoteStore
	processor   *processors.DashboardProcessor
	hub         *storage.ChangeHub
	reportCache *cache.Cache
}

// NewDashboardService serves derived analytics over the note store. The
// cached view is invalidated on every ingest, so reads between changes are
// cheap while the snapshot stays the single source of truth.
func NewDashboardService(noteStore NoteStore, processor *processors.DashboardProcessor, hub *storage.ChangeHub, reportCache *cache.Cache) DashboardService {
	return &dashboardServiceImpl{
		noteStore:   noteStore,
		processor:   processor,
		hub:         hub,
		reportCache: reportCache,
	}
}

func (s *dashboardServiceImpl) GetDashboard(ctx context.Context, userID int64) (*models.DashboardView, error) {
	cacheKey := fmt.Sprintf(ckDashboardView, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for dashboard view", "userID", userID)
		return cached.(*models.DashboardView), nil
	}

	summaries, err := s.noteStore.ListSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The view is always recomputed from the full snapshot; no incremental
	// state is carried between changes.
	view := s.processor.Compute(summaries)
	s.reportCache.Set(cacheKey, &view, cache.DefaultExpiration)
	return &view, nil
}

func (s *dashboardServiceImpl) Subscribe(userID int64) (<-chan struct{}, func()) {
	return s.hub.Subscribe(userID)
}

func (s *dashboardServiceImpl) ListContractNotes(ctx context.Context, userID int64) ([]models.ContractNoteSummary, error) {
	return s.noteStore.ListSummaries(ctx, userID)
}

func (s *dashboardServiceImpl) ListTrades(ctx context.Context, userID int64) ([]models.TradeRecord, error) {
	return s.noteStore.ListTrades(ctx, userID)
}

func (s *dashboardServiceImpl) ListCharges(ctx context.Context, userID int64) ([]models.ChargesRecord, error) {
	return s.noteStore.ListCharges(ctx, userID)
}

// InvalidateUserCache drops the cached view and then signals subscribers.
// The order matters: a subscriber woken by the signal re-reads through
// GetDashboard, so the stale entry must already be gone when the signal
// lands.
func (s *dashboardServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckDashboardView, userID))
	s.hub.Notify(userID)
	logger.L.Debug("Invalidated dashboard cache and notified subscribers", "userID", userID)
}
