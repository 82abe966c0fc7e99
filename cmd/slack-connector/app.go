// ABOUTME: Wires config into the connector's collaborators
// ABOUTME: Builds the session store, API clients, connector service and HTTP server

package main

import (
	"fmt"
	"log/slog"

	"github.com/2389/slack-connector/internal/chatbot"
	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/connector"
	"github.com/2389/slack-connector/internal/inbound"
	"github.com/2389/slack-connector/internal/lang"
	"github.com/2389/slack-connector/internal/livechat"
	"github.com/2389/slack-connector/internal/render"
	"github.com/2389/slack-connector/internal/server"
	"github.com/2389/slack-connector/internal/slackapi"
	"github.com/2389/slack-connector/internal/store"
	"github.com/2389/slack-connector/internal/ticketing"
)

type app struct {
	store     store.Store
	connector *connector.Service
	server    *server.Server
}

func build(cfg *config.Config, logger *slog.Logger) (*app, error) {
	sessions, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	tr, err := lang.New(cfg.Lang, cfg.Strings)
	if err != nil {
		sessions.Close()
		return nil, fmt.Errorf("loading translations: %w", err)
	}

	slackClient := slackapi.New(cfg.Slack, logger)
	renderer := render.New(tr, cfg.Conversation.Digester)

	deps := connector.Deps{
		Store:      sessions,
		Bot:        chatbot.New(cfg.API, cfg.Conversation, logger),
		Poster:     slackClient,
		Chat:       livechat.Unavailable{},
		Normalizer: inbound.NewNormalizer(slackClient, logger),
		Renderer:   renderer,
		Directory:  slackClient,
	}
	srvDeps := server.Deps{Slack: slackClient}

	// Interface fields stay nil unless ticketing is configured.
	if cfg.Messenger.Enabled() {
		tickets := ticketing.New(cfg.Messenger, cfg.API.Timeout, tr, logger)
		deps.Registrar = tickets
		srvDeps.Tickets = tickets
	}

	svc := connector.New(connector.Config{
		Chat:    cfg.Chat,
		Ratings: cfg.Conversation.ContentRatings,
	}, deps, logger)
	srvDeps.Events = svc

	srv := server.New(server.Config{
		Addr:          cfg.Server.HTTPAddr,
		WebhookSecret: cfg.Messenger.WebhookSecret,
	}, srvDeps, logger)

	return &app{store: sessions, connector: svc, server: srv}, nil
}
