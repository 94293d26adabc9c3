package pairing

import (
	"context"
	"time"

	"wetime-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxListLimit = 100

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type RecordParams struct {
	TenantID        string
	RequesterID     string
	PartnerID       string
	PartnerJoinedAt time.Time
	MatchedAt       time.Time
}

func (s *Service) Record(ctx context.Context, p RecordParams) (*model.Pairing, error) {
	wait := p.MatchedAt.Sub(p.PartnerJoinedAt)
	if p.PartnerJoinedAt.IsZero() || wait < 0 {
		wait = 0
	}
	rec := &model.Pairing{
		ID:           uuid.NewString(),
		TenantID:     p.TenantID,
		RequesterID:  p.RequesterID,
		PartnerID:    p.PartnerID,
		PartnerWaitS: int64(wait / time.Second),
		MatchedAt:    p.MatchedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecent returns the tenant's latest pairings, newest first.
func (s *Service) ListRecent(ctx context.Context, tenantID string, limit int) ([]model.Pairing, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var items []model.Pairing
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("matched_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
