// ABOUTME: Slack Web API client built on slack-go
// ABOUTME: Posts rendered messages, updates rated messages, reads profiles and downloads files

package slackapi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"

	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/render"
)

// Client posts to Slack with a bot token.
type Client struct {
	api    *slack.Client
	logger *slog.Logger
}

// New creates a Client.
func New(cfg config.SlackConfig, logger *slog.Logger) *Client {
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &Client{
		api:    slack.New(cfg.AccessToken, opts...),
		logger: logger.With("component", "slackapi"),
	}
}

// Send posts msg to channel. When updateTS is set the message with that
// timestamp is replaced instead.
func (c *Client) Send(ctx context.Context, channel string, msg *render.Message, updateTS string) error {
	opts := options(msg)
	if len(opts) == 0 {
		return nil
	}

	if updateTS != "" {
		if _, _, _, err := c.api.UpdateMessageContext(ctx, channel, updateTS, opts...); err != nil {
			return fmt.Errorf("updating message %s in %s: %w", updateTS, channel, err)
		}
		return nil
	}

	if _, _, err := c.api.PostMessageContext(ctx, channel, opts...); err != nil {
		return fmt.Errorf("posting to %s: %w", channel, err)
	}
	return nil
}

// SendText posts a single mrkdwn text message.
func (c *Client) SendText(ctx context.Context, channel, text string) error {
	if _, _, err := c.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("posting to %s: %w", channel, err)
	}
	return nil
}

// options maps a rendered message to post options. The notification text
// is only sent along with blocks; on its own it would post a bare text.
func options(msg *render.Message) []slack.MsgOption {
	var opts []slack.MsgOption
	if len(msg.Blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(msg.Blocks...))
		if strings.TrimSpace(msg.Text) != "" {
			opts = append(opts, slack.MsgOptionText(msg.Text, false))
		}
	}
	if len(msg.Attachments) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(slack.Attachment{
			Blocks: slack.Blocks{BlockSet: msg.Attachments},
		}))
	}
	return opts
}

// UserProfile returns the real name and email of a user.
func (c *Client) UserProfile(ctx context.Context, userID string) (name, email string, err error) {
	profile, err := c.api.GetUserProfileContext(ctx, &slack.GetUserProfileParameters{UserID: userID})
	if err != nil {
		return "", "", fmt.Errorf("reading profile of %s: %w", userID, err)
	}
	return profile.RealName, profile.Email, nil
}

// FetchFile downloads a private file URL with the bot token.
func (c *Client) FetchFile(ctx context.Context, url string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.api.GetFileContext(ctx, url, &buf); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	return buf.Bytes(), nil
}
