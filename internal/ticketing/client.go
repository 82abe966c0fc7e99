// ABOUTME: Ticketing API client for user registration and closed-ticket replies
// ABOUTME: Reads responses with gjson paths and renders agent Markdown for Slack

package ticketing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/yuin/goldmark"

	"github.com/2389/slack-connector/internal/chatbot"
	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/markup"
	"github.com/2389/slack-connector/internal/session"
)

// extraSlackID is the user extra field holding the Slack identity.
const extraSlackID = 2

var (
	// ErrUnknownUser is returned when no ticketing user has the address.
	ErrUnknownUser = errors.New("ticketing user not found")
	// ErrNotLinked is returned when a ticket creator has no Slack identity.
	ErrNotLinked = errors.New("ticketing user has no Slack identity")
	// ErrInvalidEvent is returned for webhook bodies without a ticket event.
	ErrInvalidEvent = errors.New("invalid ticket event")
)

// Translator looks up localized strings.
type Translator interface {
	Translate(key string, params map[string]string) string
}

// Reply is an agent's answer to a closed ticket, addressed to Slack.
type Reply struct {
	Channel string
	User    string
	Text    string
}

// Client talks to the ticketing API.
type Client struct {
	tokens *chatbot.TokenSource
	http   *http.Client
	tr     Translator
	logger *slog.Logger
}

// New creates a Client.
func New(cfg config.MessengerConfig, timeout time.Duration, tr Translator, logger *slog.Logger) *Client {
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		tokens: chatbot.NewTokenSource(cfg.AuthURL, cfg.Key, cfg.Secret, httpClient),
		http:   httpClient,
		tr:     tr,
		logger: logger.With("component", "ticketing"),
	}
}

// RegisterUser stores externalID on the ticketing user with address contact.
func (c *Client) RegisterUser(ctx context.Context, contact, externalID string) error {
	channel, user, ok := session.ParseExternalID(externalID)
	if !ok {
		return fmt.Errorf("registering %q: not a Slack identity", externalID)
	}

	base, headers, err := c.auth(ctx)
	if err != nil {
		return err
	}
	users, err := c.lookup(ctx, base, headers, contact)
	if err != nil {
		return err
	}
	id := users.Get("data.0.id")
	if !id.Exists() {
		return fmt.Errorf("%w: %s", ErrUnknownUser, contact)
	}

	body := map[string]any{
		"extra": []map[string]any{{"id": extraSlackID, "content": channel + "-" + user}},
	}
	if err := chatbot.DoJSON(ctx, c.http, http.MethodPut, base+"/v1/users/"+url.PathEscape(id.String()), headers, body, nil); err != nil {
		return fmt.Errorf("updating ticketing user: %w", err)
	}
	c.logger.Info("registered Slack identity", "user", id.String(), "session", externalID)
	return nil
}

// ClosedTicket resolves a closed-ticket webhook body into a Slack reply.
func (c *Client) ClosedTicket(ctx context.Context, body []byte) (*Reply, error) {
	event := gjson.GetBytes(body, "events.0")
	creator := event.Get("resource_data.creator.identifier").String()
	ticket := event.Get("resource").String()
	if !event.Exists() || creator == "" {
		return nil, ErrInvalidEvent
	}

	base, headers, err := c.auth(ctx)
	if err != nil {
		return nil, err
	}
	users, err := c.lookup(ctx, base, headers, creator)
	if err != nil {
		return nil, err
	}

	linked := users.Get(fmt.Sprintf("data.0.extra.#(id==%d).content", extraSlackID)).String()
	channel, user, ok := strings.Cut(linked, "-")
	if !ok || channel == "" || user == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotLinked, creator)
	}

	return &Reply{
		Channel: channel,
		User:    user,
		Text:    c.replyText(event.Get("action_data.text").String(), ticket),
	}, nil
}

func (c *Client) replyText(agentText, ticket string) string {
	var b strings.Builder
	b.WriteString("_" + c.tr.Translate("ticket_response_intro", nil) + ":_\n")
	b.WriteString(markdownToSlack(agentText) + "\n\n")
	b.WriteString("_" + c.tr.Translate("ticket_response_info", nil) + ": *" + ticket + "*_\n")
	b.WriteString("_" + c.tr.Translate("ticket_response_end", nil) + "_")
	return b.String()
}

// markdownToSlack renders agent Markdown to HTML and then to mrkdwn.
func markdownToSlack(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return strings.TrimSpace(markup.ToSlack(buf.String()))
}

func (c *Client) auth(ctx context.Context) (string, map[string]string, error) {
	creds, err := c.tokens.Credentials(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("ticketing auth: %w", err)
	}
	if creds.TicketURL == "" {
		return "", nil, errors.New("ticketing auth: no ticketing API URL granted")
	}
	headers := map[string]string{
		"x-inbenta-key": c.tokens.Key(),
		"Authorization": "Bearer " + creds.AccessToken,
	}
	return creds.TicketURL, headers, nil
}

func (c *Client) lookup(ctx context.Context, base string, headers map[string]string, address string) (gjson.Result, error) {
	var body []byte
	endpoint := base + "/v1/users?address=" + url.QueryEscape(address)
	if err := chatbot.DoJSON(ctx, c.http, http.MethodGet, endpoint, headers, nil, &body); err != nil {
		return gjson.Result{}, fmt.Errorf("looking up ticketing user: %w", err)
	}
	return gjson.ParseBytes(body), nil
}
