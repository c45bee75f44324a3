package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Notifier posts operational alerts about failed badge lookups.
type Notifier interface {
	NotifyUpstreamFailure(ctx context.Context, userID, sessionID string, err error) error
}

// MessageSender is the part of *discordgo.Session the notifier uses.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   MessageSender
	channelID string
}

func NewDiscordNotifier(session MessageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordSession opens a bot session; messages are sent over REST so the
// gateway connection is not opened.
func NewDiscordSession(botToken string) (*discordgo.Session, error) {
	return discordgo.New("Bot " + botToken)
}

func (n *DiscordNotifier) NotifyUpstreamFailure(ctx context.Context, userID, sessionID string, cause error) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	sessionStr := ""
	if sessionID != "" {
		sessionStr = fmt.Sprintf("\n**Session:** %s", sessionID)
	}

	message := fmt.Sprintf("⚠️ **Badge lookup failed**\n**User:** %s%s\n**Error:** %v",
		userID,
		sessionStr,
		cause,
	)

	if _, err := n.session.ChannelMessageSend(n.channelID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}

	return nil
}
