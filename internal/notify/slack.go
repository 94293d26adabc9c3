package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const (
	matchText       = "🎉 *It's a Match!*\n<@%s> meet <@%s>. Grab a coffee and say hi, you have 10 minutes."
	waitingText     = "You are in the queue! 🕒 Waiting for a partner..."
	unavailableText = "Oops! Matching is temporarily unavailable, so you are *not* in the queue. Please try again in a few minutes."
)

type SlackNotifier struct {
	client *slack.Client
	log    *zap.Logger
}

func NewSlackNotifier(client *slack.Client, log *zap.Logger) *SlackNotifier {
	return &SlackNotifier{client: client, log: log}
}

func (n *SlackNotifier) NotifyMatched(ctx context.Context, tenantID, a, b string) error {
	channel, _, _, err := n.client.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{a, b},
	})
	if err != nil {
		return fmt.Errorf("open conversation for %s and %s: %w", a, b, err)
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf(matchText, a, b), false, false),
			nil, nil,
		),
	}
	_, _, err = n.client.PostMessageContext(ctx, channel.ID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText("Match Found!", false),
	)
	if err != nil {
		return fmt.Errorf("post match announcement: %w", err)
	}
	n.log.Debug("match announced",
		zap.String("tenantID", tenantID),
		zap.String("channel", channel.ID),
	)
	return nil
}

func (n *SlackNotifier) NotifyWaiting(ctx context.Context, participantID, originChannel string) error {
	return n.tell(ctx, participantID, originChannel, waitingText)
}

func (n *SlackNotifier) NotifyUnavailable(ctx context.Context, participantID, originChannel string) error {
	return n.tell(ctx, participantID, originChannel, unavailableText)
}

// tell posts an ephemeral note in the origin channel, or a DM when there is none.
func (n *SlackNotifier) tell(ctx context.Context, participantID, originChannel, text string) error {
	var err error
	if originChannel != "" {
		_, err = n.client.PostEphemeralContext(ctx, originChannel, participantID, slack.MsgOptionText(text, false))
	} else {
		_, _, err = n.client.PostMessageContext(ctx, participantID, slack.MsgOptionText(text, false))
	}
	if err != nil {
		return fmt.Errorf("notify %s: %w", participantID, err)
	}
	return nil
}
