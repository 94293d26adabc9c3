package bot

import (
	"fmt"

	"github.com/slack-go/slack"
)

const meTimeText = "🧘 MeTime snoozing is not available yet. Speed Coffee only queues you when you press the button, so enjoy your break!"

func dashboardBlocks(userName string) []slack.Block {
	greeting := "Welcome back! 👋"
	if userName != "" {
		greeting = fmt.Sprintf("Welcome back, %s! 👋", userName)
	}
	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, greeting, true, false)),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "*Choose your break activity:*", false, false),
			nil, nil,
		),
		slack.NewActionBlock("wetime_actions",
			slack.NewButtonBlockElement(actionSpeedCoffee, "",
				slack.NewTextBlockObject(slack.PlainTextType, "☕ Speed Coffee (1:1)", true, false),
			).WithStyle(slack.StylePrimary),
			slack.NewButtonBlockElement(actionMeTime, "",
				slack.NewTextBlockObject(slack.PlainTextType, "🧘 MeTime", true, false),
			),
		),
	}
}
