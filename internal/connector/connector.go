// ABOUTME: Orchestrates an inbound Slack event from parsing to posted replies
// ABOUTME: Loads and saves the session around every event and reports an explicit Outcome

package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/slack-connector/internal/answer"
	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/dedupe"
	"github.com/2389/slack-connector/internal/escalation"
	"github.com/2389/slack-connector/internal/inbound"
	"github.com/2389/slack-connector/internal/livechat"
	"github.com/2389/slack-connector/internal/rating"
	"github.com/2389/slack-connector/internal/render"
	"github.com/2389/slack-connector/internal/session"
	"github.com/2389/slack-connector/internal/store"
)

// OutcomeKind tells the transport how to answer the webhook.
type OutcomeKind int

const (
	// Handled means the event was processed.
	Handled OutcomeKind = iota
	// Ignored means the event was dropped; it is still acknowledged.
	Ignored
	// Challenge means the body was a URL verification request.
	Challenge
)

func (k OutcomeKind) String() string {
	switch k {
	case Handled:
		return "handled"
	case Ignored:
		return "ignored"
	case Challenge:
		return "challenge"
	}
	return "unknown"
}

// Outcome is the result of handling one webhook body.
type Outcome struct {
	Kind      OutcomeKind
	Challenge string
}

// Bot is the answer API.
type Bot interface {
	escalation.Bot
	SendMessage(ctx context.Context, state *session.State, req *inbound.Request) ([]answer.Item, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store      store.Store
	Bot        Bot
	Poster     Poster
	Chat       livechat.Client
	Normalizer *inbound.Normalizer
	Renderer   *render.Renderer
	Directory  escalation.Directory
	Registrar  escalation.Registrar
}

// Service handles inbound Slack events.
type Service struct {
	deps    Deps
	outbox  outbox
	machine *escalation.Machine
	gate    *rating.Gate
	logger  *slog.Logger
}

// Config selects the chat and rating behavior.
type Config struct {
	Chat    config.ChatConfig
	Ratings config.ContentRatingsConfig
}

// New creates a Service.
func New(cfg Config, deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		deps:   deps,
		outbox: outbox{poster: deps.Poster},
		logger: logger.With("component", "connector"),
	}
	s.machine = escalation.New(cfg.Chat, escalation.Deps{
		Chat:      deps.Chat,
		Bot:       deps.Bot,
		Outbox:    s.outbox,
		Directory: deps.Directory,
		Registrar: deps.Registrar,
		Renderer:  deps.Renderer,
		Replay:    s.converse,
	}, logger)
	s.gate = rating.New(cfg.Ratings, deps.Renderer, deps.Bot, s.machine, s.outbox, logger)
	return s
}

// Handle processes one webhook body. Errors are terminal for the event;
// the state changes made before the error are still saved.
func (s *Service) Handle(ctx context.Context, body []byte) (Outcome, error) {
	env, err := inbound.Parse(body)
	if err != nil {
		s.logger.Debug("dropping unparseable body", "error", err)
		return Outcome{Kind: Ignored}, nil
	}
	if env.IsChallenge() {
		return Outcome{Kind: Challenge, Challenge: env.Challenge}, nil
	}

	channel, user := env.Identity()
	if channel == "" || user == "" {
		s.logger.Debug("dropping event without identity", "type", env.Type)
		return Outcome{Kind: Ignored}, nil
	}

	id := session.ExternalID(channel, user)
	logger := s.logger.With("request_id", uuid.NewString(), "session", id)

	state, err := session.Load(ctx, s.deps.Store, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading session: %w", err)
	}

	outcome, err := s.process(ctx, env, state, logger)
	if saveErr := state.Save(ctx, s.deps.Store); saveErr != nil {
		err = errors.Join(err, fmt.Errorf("saving session: %w", saveErr))
	}
	if err != nil {
		logger.Error("event failed", "error", err)
		return Outcome{}, err
	}
	logger.Debug("event done", "outcome", outcome.Kind.String())
	return outcome, nil
}

func (s *Service) process(ctx context.Context, env *inbound.Envelope, state *session.State, logger *slog.Logger) (Outcome, error) {
	if !dedupe.ShouldHandle(env, state) {
		logger.Debug("duplicate or self-authored event")
		return Outcome{Kind: Ignored}, nil
	}

	ev := env.Event()
	if ev == nil {
		return Outcome{Kind: Ignored}, nil
	}

	req, err := s.deps.Normalizer.Normalize(ctx, ev, state)
	if err != nil {
		return Outcome{}, err
	}
	if req == nil || req.IsEmpty() {
		return Outcome{Kind: Ignored}, nil
	}

	if strings.HasPrefix(env.ActionID(), render.RatingsPrefix) {
		ctx = withUpdate(ctx, env.MessageTS())
	}

	return Outcome{Kind: Handled}, s.dispatch(ctx, req, state, logger)
}

// dispatch routes a normalized request. Live chats take everything; the
// remaining routes consume click payloads before plain turns.
func (s *Service) dispatch(ctx context.Context, req *inbound.Request, state *session.State, logger *slog.Logger) error {
	if state.ChatActive() {
		return s.forward(ctx, req, state, logger)
	}

	switch {
	case req.RatingData != nil:
		return s.gate.HandleRating(ctx, req, state)

	case req.EscalateOption != nil:
		if !state.AskingForEscalation {
			logger.Debug("escalation answer without a pending offer")
			return nil
		}
		_, err := s.machine.Resolve(ctx, *req.EscalateOption, state)
		return err

	case len(req.ExtendedContentAnswer) > 0:
		return s.showExtended(ctx, req.ExtendedContentAnswer, state)
	}

	if state.AskingForEscalation {
		// Typing instead of answering the offer declines it silently.
		state.AskingForEscalation = false
		state.EscalationType = session.EscalationNone
	}

	if req.Message != nil && req.Option.IsZero() && len(req.MultipleOutput) == 0 {
		handled, err := s.gate.HandleComment(ctx, *req.Message, state)
		if handled || err != nil {
			return err
		}
	}

	return s.converse(ctx, req, state)
}

// converse sends each turn to the answer API and posts the replies.
func (s *Service) converse(ctx context.Context, req *inbound.Request, state *session.State) error {
	for _, turn := range req.Turns() {
		if turn.Media != nil && turn.Message == nil {
			continue
		}

		items, err := s.deps.Bot.SendMessage(ctx, state, &turn)
		if err != nil {
			return fmt.Errorf("answer API: %w", err)
		}
		if err := s.deliver(ctx, items, lastUserText(&turn), state); err != nil {
			return err
		}
	}
	return nil
}

// showExtended renders a sub-answer embedded in an extended-contents
// button. The answer API already sent it, so it is not asked again.
func (s *Service) showExtended(ctx context.Context, raw []byte, state *session.State) error {
	items, err := answer.ParseResponse(raw)
	if err != nil {
		return fmt.Errorf("decoding extended content: %w", err)
	}
	return s.deliver(ctx, items, "", state)
}

// deliver posts rendered items, then runs escalation and the rating prompt.
func (s *Service) deliver(ctx context.Context, items []answer.Item, userText string, state *session.State) error {
	msgs, err := s.deps.Renderer.RenderBatch(items, userText, state)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := s.outbox.Send(ctx, state, msg); err != nil {
			return err
		}
	}

	decision, err := s.machine.Evaluate(ctx, items, state)
	if err != nil || decision != escalation.DecisionNone {
		return err
	}
	if prompt := s.gate.Prompt(items, state); prompt != nil {
		return s.outbox.Send(ctx, state, prompt)
	}
	return nil
}

// forward relays the turns to the running live chat. A chat that can no
// longer be reached is closed.
func (s *Service) forward(ctx context.Context, req *inbound.Request, state *session.State, logger *slog.Logger) error {
	for _, turn := range req.Turns() {
		msg := livechat.Message{Text: lastUserText(&turn)}
		if m := turn.Media; m != nil {
			msg.File = &livechat.File{Name: m.Name, Type: m.FileType, Data: m.Data}
		}
		if msg.Text == "" && msg.File == nil {
			continue
		}

		if err := s.deps.Chat.SendMessage(ctx, state.ChatOnGoing, msg); err != nil {
			logger.Warn("live chat unreachable, closing", "chat", state.ChatOnGoing, "error", err)
			state.ChatOnGoing = ""
			return s.outbox.Send(ctx, state, s.deps.Renderer.Notice("chat_closed"))
		}
	}
	return nil
}

// HandleChatEvent applies a live chat event to the conversation it belongs
// to. Events for a chat that is no longer the running one are dropped.
func (s *Service) HandleChatEvent(ctx context.Context, sessionID string, ev livechat.Event) error {
	state, err := session.Load(ctx, s.deps.Store, sessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if !state.ChatActive() || state.ChatOnGoing != ev.ChatID {
		s.logger.Debug("dropping event for inactive chat", "session", sessionID, "chat", ev.ChatID)
		return nil
	}

	switch ev.Kind {
	case livechat.EventMessage:
		if ev.Text == "" {
			return nil
		}
		err = s.outbox.Send(ctx, state, s.deps.Renderer.Text(ev.Text))
	case livechat.EventClosed:
		state.ChatOnGoing = ""
		err = s.outbox.Send(ctx, state, s.deps.Renderer.Notice("chat_closed"))
	}

	if saveErr := state.Save(ctx, s.deps.Store); saveErr != nil {
		err = errors.Join(err, fmt.Errorf("saving session: %w", saveErr))
	}
	return err
}

func lastUserText(req *inbound.Request) string {
	switch {
	case req.UserMessage != nil:
		return *req.UserMessage
	case req.Message != nil:
		return *req.Message
	}
	return ""
}
