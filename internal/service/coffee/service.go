// Package coffee runs one Speed Coffee request end to end: ask the
// matchmaker, tell the participants, keep a pairing record.
package coffee

import (
	"context"
	"time"

	"wetime-service/internal/model"
	"wetime-service/internal/notify"
	"wetime-service/internal/service/match"
	"wetime-service/internal/service/pairing"

	"go.uber.org/zap"
)

type Matcher interface {
	RequestMatch(ctx context.Context, req match.Request, now time.Time) (match.Result, error)
}

type Recorder interface {
	Record(ctx context.Context, p pairing.RecordParams) (*model.Pairing, error)
}

type Service struct {
	matcher  Matcher
	notifier notify.Notifier
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

// NewService wires the flow. recorder may be nil when no database is configured.
func NewService(matcher Matcher, notifier notify.Notifier, recorder Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		matcher:  matcher,
		notifier: notifier,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// Request asks for a partner and notifies accordingly. Notification and
// history failures are logged; only matchmaking failures are returned.
func (s *Service) Request(ctx context.Context, req match.Request) (match.Result, error) {
	now := s.now()
	res, err := s.matcher.RequestMatch(ctx, req, now)
	if err != nil {
		if nerr := s.notifier.NotifyUnavailable(ctx, req.ParticipantID, req.OriginChannel); nerr != nil {
			s.warn("unavailable notice failed", req, nerr)
		}
		return match.Result{}, err
	}

	if !res.Matched() {
		if nerr := s.notifier.NotifyWaiting(ctx, req.ParticipantID, req.OriginChannel); nerr != nil {
			s.warn("waiting notice failed", req, nerr)
		}
		return res, nil
	}

	if nerr := s.notifier.NotifyMatched(ctx, req.TenantID, req.ParticipantID, res.PartnerID); nerr != nil {
		s.warn("match notice failed", req, nerr)
	}
	if s.recorder != nil {
		_, rerr := s.recorder.Record(ctx, pairing.RecordParams{
			TenantID:        req.TenantID,
			RequesterID:     req.ParticipantID,
			PartnerID:       res.PartnerID,
			PartnerJoinedAt: res.PartnerJoinedAt,
			MatchedAt:       now,
		})
		if rerr != nil {
			s.warn("pairing record failed", req, rerr)
		}
	}
	return res, nil
}

func (s *Service) warn(msg string, req match.Request, err error) {
	s.log.Warn(msg,
		zap.String("tenantID", req.TenantID),
		zap.String("participantID", req.ParticipantID),
		zap.Error(err),
	)
}
