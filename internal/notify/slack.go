package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackNotifier posts session lifecycle messages to a Slack channel.
type SlackNotifier struct {
	client  slackClient
	channel string
}

// SlackOpts holds parameters for creating a SlackNotifier.
type SlackOpts struct {
	Token   string // xoxb-... Slack bot token
	Channel string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOpts) (*SlackNotifier, error) {
	if opts.Client == nil && opts.Token == "" {
		return nil, fmt.Errorf("notify: slack token is required")
	}
	if opts.Channel == "" {
		return nil, fmt.Errorf("notify: slack channel is required")
	}

	n := &SlackNotifier{client: opts.Client, channel: opts.Channel}
	if n.client == nil {
		n.client = slackapi.New(opts.Token)
	}
	return n, nil
}

// Name identifies the destination in logs.
func (n *SlackNotifier) Name() string { return "slack" }

// Send posts the event as a colored attachment.
func (n *SlackNotifier) Send(ctx context.Context, ev Event) error {
	att := slackapi.Attachment{
		Title:    title(ev),
		Text:     body(ev),
		Color:    slackColor(ev.Kind),
		Fallback: title(ev),
	}
	if _, _, err := n.client.PostMessage(n.channel, slackapi.MsgOptionAttachments(att)); err != nil {
		return fmt.Errorf("notify: slack post: %w", err)
	}
	return nil
}
