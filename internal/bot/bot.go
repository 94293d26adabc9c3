// Package bot connects WeTime to Slack over Socket Mode.
package bot

import (
	"context"
	"fmt"
	"strings"

	"wetime-service/internal/config"
	"wetime-service/internal/service/match"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

const (
	commandDashboard = "/wetime"
	commandCoffee    = "/coffee"

	actionSpeedCoffee = "btn_speed_coffee"
	actionMeTime      = "btn_metime"
	actionJoinVideo   = "btn_join_video"
)

type Requester interface {
	Request(ctx context.Context, req match.Request) (match.Result, error)
}

type Bot struct {
	client *slack.Client
	socket *socketmode.Client
	coffee Requester
	log    *zap.Logger
}

// NewClient builds the Web API client shared by the bot and the notifier.
func NewClient(cfg config.SlackConfig) (*slack.Client, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if !strings.HasPrefix(cfg.AppToken, "xapp-") {
		return nil, fmt.Errorf("app token must start with xapp-")
	}
	return slack.New(
		cfg.BotToken,
		slack.OptionDebug(cfg.Debug),
		slack.OptionAppLevelToken(cfg.AppToken),
	), nil
}

func New(client *slack.Client, coffee Requester, log *zap.Logger, debug bool) *Bot {
	return &Bot{
		client: client,
		socket: socketmode.New(client, socketmode.OptionDebug(debug)),
		coffee: coffee,
		log:    log,
	}
}

// Run blocks until ctx is cancelled or the socket fails.
func (b *Bot) Run(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-b.socket.Events:
				if !ok {
					return
				}
				b.handleEvent(ctx, evt)
			}
		}
	}()
	return b.socket.RunContext(ctx)
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.log.Info("slack connecting")

	case socketmode.EventTypeConnected:
		b.log.Info("slack connected")

	case socketmode.EventTypeConnectionError:
		b.log.Warn("slack connection error", zap.Any("data", evt.Data))

	case socketmode.EventTypeEventsAPI:
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		b.socket.Ack(*evt.Request)
		go b.handleEventsAPI(event)

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		b.socket.Ack(*evt.Request)
		go b.handleSlashCommand(ctx, cmd)

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		b.socket.Ack(*evt.Request)
		go b.handleInteraction(ctx, callback)
	}
}

func (b *Bot) handleEventsAPI(event slackevents.EventsAPIEvent) {
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppHomeOpenedEvent:
		if ev.Tab != "" && ev.Tab != "home" {
			return
		}
		b.publishHome(ev.User)
	}
}

// publishHome renders the dashboard on the user's Home tab.
func (b *Bot) publishHome(userID string) {
	view := slack.HomeTabViewRequest{
		Type:       slack.VTHomeTab,
		CallbackID: "home_view",
		Blocks:     slack.Blocks{BlockSet: dashboardBlocks("")},
	}
	if _, err := b.client.PublishView(userID, view, ""); err != nil {
		b.log.Warn("publishing home view failed", zap.String("userID", userID), zap.Error(err))
	}
}

func (b *Bot) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	switch cmd.Command {
	case commandDashboard:
		b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID,
			slack.MsgOptionBlocks(dashboardBlocks(cmd.UserName)...),
			slack.MsgOptionText("Welcome to WeTime!", false),
		)
	case commandCoffee:
		b.speedCoffee(ctx, match.Request{
			ParticipantID: cmd.UserID,
			TenantID:      cmd.TeamID,
			OriginChannel: cmd.ChannelID,
		})
	default:
		b.postEphemeral(ctx, cmd.ChannelID, cmd.UserID,
			slack.MsgOptionText(fmt.Sprintf("Unknown command: %s", cmd.Command), false))
	}
}

func (b *Bot) handleInteraction(ctx context.Context, callback slack.InteractionCallback) {
	if callback.Type != slack.InteractionTypeBlockActions {
		return
	}
	for _, action := range callback.ActionCallback.BlockActions {
		switch action.ActionID {
		case actionSpeedCoffee:
			// answered by DM, like the original button
			b.speedCoffee(ctx, match.Request{
				ParticipantID: callback.User.ID,
				TenantID:      teamOf(callback),
			})
		case actionMeTime:
			b.reply(ctx, callback.Channel.ID, callback.User.ID, meTimeText)
		case actionJoinVideo:
			// link button; nothing to do beyond the ack
		default:
			b.log.Debug("unhandled block action", zap.String("actionID", action.ActionID))
		}
	}
}

func (b *Bot) speedCoffee(ctx context.Context, req match.Request) {
	res, err := b.coffee.Request(ctx, req)
	if err != nil {
		b.log.Warn("speed coffee request failed",
			zap.String("tenantID", req.TenantID),
			zap.String("participantID", req.ParticipantID),
			zap.Error(err),
		)
		return
	}
	b.log.Debug("speed coffee handled",
		zap.String("participantID", req.ParticipantID),
		zap.String("outcome", string(res.Outcome)),
	)
}

func (b *Bot) reply(ctx context.Context, channelID, userID, text string) {
	if channelID != "" {
		b.postEphemeral(ctx, channelID, userID, slack.MsgOptionText(text, false))
		return
	}
	if _, _, err := b.client.PostMessageContext(ctx, userID, slack.MsgOptionText(text, false)); err != nil {
		b.log.Warn("slack post failed", zap.String("userID", userID), zap.Error(err))
	}
}

func (b *Bot) postEphemeral(ctx context.Context, channelID, userID string, opts ...slack.MsgOption) {
	if _, err := b.client.PostEphemeralContext(ctx, channelID, userID, opts...); err != nil {
		b.log.Warn("slack ephemeral failed",
			zap.String("channelID", channelID),
			zap.String("userID", userID),
			zap.Error(err),
		)
	}
}

// teamOf prefers the user's team so Enterprise Grid installs still match
// people within one workspace.
func teamOf(callback slack.InteractionCallback) string {
	if callback.User.TeamID != "" {
		return callback.User.TeamID
	}
	return callback.Team.ID
}
