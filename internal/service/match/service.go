package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	appErr "wetime-service/pkg/errors"

	"go.uber.org/zap"
)

var errConflictRetry = errors.New("candidate consumed concurrently")

type Config struct {
	StaleWindow        time.Duration
	StoreTimeout       time.Duration
	MaxConflictRetries int
}

func DefaultConfig() Config {
	return Config{
		StaleWindow:        30 * time.Minute,
		StoreTimeout:       3 * time.Second,
		MaxConflictRetries: 3,
	}
}

// Service pairs waiting participants of the same tenant first come, first served.
type Service struct {
	store  Store
	locker Locker
	cfg    Config
	log    *zap.Logger
}

func NewService(store Store, locker Locker, cfg Config, log *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.StaleWindow <= 0 {
		cfg.StaleWindow = def.StaleWindow
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.MaxConflictRetries <= 0 {
		cfg.MaxConflictRetries = def.MaxConflictRetries
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, locker: locker, cfg: cfg, log: log}
}

// RequestMatch pairs the requester with the oldest live ticket of the tenant,
// or leaves a fresh ticket for the requester when nobody else is waiting.
// Storage failures are returned wrapped in ErrMatchUnavailable; in that case
// the requester holds no ticket as far as this call could ensure.
func (s *Service) RequestMatch(ctx context.Context, req Request, now time.Time) (Result, error) {
	if req.ParticipantID == "" || req.TenantID == "" {
		return Result{}, fmt.Errorf("%w: participant and tenant are required", appErr.ErrInvalidRequest)
	}
	started := time.Now()
	defer func() { matchDuration.Observe(time.Since(started).Seconds()) }()

	now = now.UTC().Truncate(time.Millisecond)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, req.TenantID)
	if err != nil {
		s.dropOwnTicket(req)
		return s.unavailable(req, err)
	}
	defer unlock()

	result, err := s.pair(ctx, req, now)
	if err != nil {
		s.dropOwnTicket(req)
		return s.unavailable(req, err)
	}

	matchRequests.WithLabelValues(string(result.Outcome)).Inc()
	if result.Matched() {
		s.log.Info("participants matched",
			zap.String("tenantID", req.TenantID),
			zap.String("participantID", req.ParticipantID),
			zap.String("partnerID", result.PartnerID),
			zap.Duration("partnerWaited", now.Sub(result.PartnerJoinedAt)),
		)
	} else {
		s.log.Info("participant enqueued",
			zap.String("tenantID", req.TenantID),
			zap.String("participantID", req.ParticipantID),
		)
	}
	return result, nil
}

func (s *Service) pair(ctx context.Context, req Request, now time.Time) (Result, error) {
	staleBefore := now.Add(-s.cfg.StaleWindow)
	conflicts := 0

	for candidate, err := range s.store.Scan(ctx, req.TenantID) {
		if err != nil {
			return Result{}, err
		}
		if candidate.ParticipantID == req.ParticipantID {
			continue
		}
		if candidate.JoinedAt.Before(staleBefore) {
			if err := s.expire(ctx, candidate); err != nil {
				return Result{}, err
			}
			continue
		}

		err := s.consume(ctx, req, candidate)
		if errors.Is(err, errConflictRetry) {
			conflicts++
			matchConflicts.Inc()
			s.log.Warn("match candidate already taken",
				zap.String("tenantID", req.TenantID),
				zap.String("candidateID", candidate.ParticipantID),
				zap.Int("conflicts", conflicts),
			)
			if conflicts >= s.cfg.MaxConflictRetries {
				break
			}
			continue
		}
		if err != nil {
			return Result{}, err
		}
		return Result{
			Outcome:         OutcomeMatched,
			PartnerID:       candidate.ParticipantID,
			PartnerJoinedAt: candidate.JoinedAt,
		}, nil
	}

	ticket := Ticket{
		ParticipantID: req.ParticipantID,
		TenantID:      req.TenantID,
		OriginChannel: req.OriginChannel,
		JoinedAt:      now,
	}
	if err := s.store.Upsert(ctx, ticket); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeEnqueued}, nil
}

func (s *Service) expire(ctx context.Context, t Ticket) error {
	removed, err := s.store.Remove(ctx, t.TenantID, t.ParticipantID)
	if err != nil {
		return err
	}
	if removed {
		staleTicketsPurged.Inc()
		s.log.Info("stale ticket purged",
			zap.String("tenantID", t.TenantID),
			zap.String("participantID", t.ParticipantID),
			zap.Time("joinedAt", t.JoinedAt),
		)
	}
	return nil
}

func (s *Service) consume(ctx context.Context, req Request, partner Ticket) error {
	ok, err := s.store.ConsumePair(ctx, req.TenantID, partner.ParticipantID, req.ParticipantID)
	if err != nil {
		return err
	}
	if !ok {
		return errConflictRetry
	}
	return nil
}

// dropOwnTicket makes a failed request leave no ticket behind, so a participant
// told that matching is down is not paired later from an older ticket.
func (s *Service) dropOwnTicket(req Request) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
	defer cancel()
	if _, err := s.store.Remove(ctx, req.TenantID, req.ParticipantID); err != nil {
		s.log.Warn("cleanup after failed match request",
			zap.String("tenantID", req.TenantID),
			zap.String("participantID", req.ParticipantID),
			zap.Error(err),
		)
	}
}

func (s *Service) unavailable(req Request, err error) (Result, error) {
	matchRequests.WithLabelValues("unavailable").Inc()
	s.log.Warn("match request failed",
		zap.String("tenantID", req.TenantID),
		zap.String("participantID", req.ParticipantID),
		zap.Error(err),
	)
	return Result{}, fmt.Errorf("%w: %w", appErr.ErrMatchUnavailable, err)
}

// Status reports whether the participant currently holds a live ticket. A
// stale ticket still in storage reports idle.
func (s *Service) Status(ctx context.Context, tenantID, participantID string, now time.Time) (*StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	t, ok, err := s.store.Lookup(ctx, tenantID, participantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrMatchUnavailable, err)
	}
	if !ok || t.JoinedAt.Before(now.Add(-s.cfg.StaleWindow)) {
		return &StatusResult{Status: QueueStatusIdle, TenantID: tenantID}, nil
	}
	joinedAt := t.JoinedAt
	return &StatusResult{
		Status:   QueueStatusWaiting,
		TenantID: tenantID,
		JoinedAt: &joinedAt,
	}, nil
}
