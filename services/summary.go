package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"mess-backend/models"
	"mess-backend/settlement"
	"mess-backend/storage"
)

// SummaryService serves the monthly settlement view. Summaries are computed
// on demand from the ledger of record and memoized in the versioned cache;
// the version string returned alongside the summary is the HTTP ETag.
type SummaryService struct {
	store storage.Store
	cache SummaryCache
}

func NewSummaryService(store storage.Store, cache SummaryCache) *SummaryService {
	return &SummaryService{store: store, cache: cache}
}

// GetMonthlySummary returns the settlement for one mess-month and the cache
// version it was computed at. Any active member may read it.
func (s *SummaryService) GetMonthlySummary(ctx context.Context, messID, actorID uuid.UUID, month string) (*models.MonthlySummary, string, error) {
	if !models.ValidMonth(month) {
		return nil, "", fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	if _, err := s.store.GetMess(ctx, messID); err != nil {
		return nil, "", err
	}
	member, err := s.store.GetMember(ctx, messID, actorID)
	if err != nil || member.Status != models.MemberStatusActive {
		return nil, "", fmt.Errorf("%w: not an active member", ErrPermissionDenied)
	}

	version, err := s.cache.Version(ctx, messID, month)
	if err != nil {
		version = ""
	}
	if version != "" {
		if cached, ok := s.cache.Get(ctx, messID, month, version); ok {
			return cached, version, nil
		}
	}

	summary, err := s.compute(ctx, messID, month)
	if err != nil {
		return nil, "", err
	}
	if version != "" {
		s.cache.Set(ctx, messID, month, version, summary)
	}
	return summary, version, nil
}

func (s *SummaryService) compute(ctx context.Context, messID uuid.UUID, month string) (*models.MonthlySummary, error) {
	rec, err := s.store.LoadMonth(ctx, messID, month)
	if err != nil {
		return nil, err
	}

	summary := settlement.Compute(messID, month, settlement.Inputs{
		Roster:   rec.Roster,
		Costs:    rec.Costs,
		Bazar:    rec.Bazar,
		Meals:    rec.Meals,
		Payments: rec.Payments,
	})
	return &summary, nil
}
