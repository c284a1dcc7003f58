package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordSender abstracts the discordgo methods we use, enabling test
// mocks. Sending embeds is plain REST, so no gateway connection is opened.
type discordSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts session lifecycle messages to a Discord channel.
type DiscordNotifier struct {
	sess    discordSender
	channel string
}

// DiscordOpts holds parameters for creating a DiscordNotifier.
type DiscordOpts struct {
	Token     string // Discord bot token
	ChannelID string // channel to post to
	// For testing: inject a mock session instead of the real Discord API.
	Session discordSender
}

// NewDiscord creates a Discord notifier.
func NewDiscord(opts DiscordOpts) (*DiscordNotifier, error) {
	if opts.Session == nil && opts.Token == "" {
		return nil, fmt.Errorf("notify: discord token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: discord channel id is required")
	}

	n := &DiscordNotifier{sess: opts.Session, channel: opts.ChannelID}
	if n.sess == nil {
		dg, err := discordgo.New("Bot " + opts.Token)
		if err != nil {
			return nil, fmt.Errorf("notify: create discord session: %w", err)
		}
		n.sess = dg
	}
	return n, nil
}

// Name identifies the destination in logs.
func (n *DiscordNotifier) Name() string { return "discord" }

// Send posts the event as an embed.
func (n *DiscordNotifier) Send(ctx context.Context, ev Event) error {
	embed := &discordgo.MessageEmbed{
		Title:       title(ev),
		Description: body(ev),
		Color:       discordColor(ev.Kind),
	}
	if _, err := n.sess.ChannelMessageSendEmbed(n.channel, embed); err != nil {
		return fmt.Errorf("notify: discord send: %w", err)
	}
	return nil
}
