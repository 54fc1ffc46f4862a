package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/izumikawa/forum-watch/app/post"
)

const (
	maxMessageLength = 4096
	maxCaptionLength = 1024
)

// Client wraps the Telegram Bot API for channel delivery and admin
// notifications.
type Client struct {
	bot       *tgbotapi.BotAPI
	channelID int64
	adminID   int64
}

func NewClient(token string, channelID, adminID int64) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	return &Client{
		bot:       bot,
		channelID: channelID,
		adminID:   adminID,
	}, nil
}

// SendPost delivers one post to the channel. When the post carries images the
// first one is sent as a photo with the rendered message as caption; plain
// text otherwise. Overlong text is truncated to the respective Telegram limit.
func (c *Client) SendPost(ctx context.Context, p *post.Post) error {
	text := p.TelegramMessage(ctx)

	if images := p.Images(ctx); len(images) > 0 {
		photo := tgbotapi.NewPhoto(c.channelID, tgbotapi.FileURL(images[0]))
		photo.Caption = truncate(text, maxCaptionLength)
		photo.ParseMode = tgbotapi.ModeMarkdown

		if _, err := c.bot.Send(photo); err == nil {
			return nil
		} else {
			// A broken image URL should not lose the post itself.
			slog.Warn("Failed to send photo, falling back to text", "post", p.ID, "error", err)
		}
	}

	msg := tgbotapi.NewMessage(c.channelID, truncate(text, maxMessageLength))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send post %d: %w", p.ID, err)
	}

	return nil
}

// SendAdminMessage delivers an operational notice to the admin chat. It is a
// no-op when no admin id is configured.
func (c *Client) SendAdminMessage(ctx context.Context, text string) error {
	if c.adminID == 0 {
		return nil
	}

	msg := tgbotapi.NewMessage(c.adminID, truncate(text, maxMessageLength))

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send admin message: %w", err)
	}

	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	runes := []rune(s)
	for len(string(runes)) > limit-3 {
		runes = runes[:len(runes)-1]
	}

	return string(runes) + "..."
}
