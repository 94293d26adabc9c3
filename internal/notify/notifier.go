// Package notify delivers the match outcome to participants.
package notify

import (
	"context"

	"go.uber.org/zap"
)

//go:generate mockgen -source=notifier.go -destination=mock_notifier.go -package=notify

type Notifier interface {
	// NotifyMatched opens a shared conversation for the pair and posts the
	// match announcement there.
	NotifyMatched(ctx context.Context, tenantID, participantA, participantB string) error
	// NotifyWaiting tells the participant they are queued. An empty
	// originChannel means a direct message.
	NotifyWaiting(ctx context.Context, participantID, originChannel string) error
	// NotifyUnavailable tells the participant matching failed and that they
	// are not queued.
	NotifyUnavailable(ctx context.Context, participantID, originChannel string) error
}

// LogNotifier only logs. Used when no chat platform is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyMatched(_ context.Context, tenantID, a, b string) error {
	n.log.Info("notify matched", zap.String("tenantID", tenantID), zap.String("a", a), zap.String("b", b))
	return nil
}

func (n *LogNotifier) NotifyWaiting(_ context.Context, participantID, originChannel string) error {
	n.log.Info("notify waiting", zap.String("participantID", participantID), zap.String("channel", originChannel))
	return nil
}

func (n *LogNotifier) NotifyUnavailable(_ context.Context, participantID, originChannel string) error {
	n.log.Info("notify unavailable", zap.String("participantID", participantID), zap.String("channel", originChannel))
	return nil
}
