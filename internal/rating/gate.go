// ABOUTME: Content rating prompt selection and rate-then-comment handling
// ABOUTME: Negative ratings feed the escalation thresholds

package rating

import (
	"context"
	"log/slog"

	"github.com/2389/slack-connector/internal/answer"
	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/escalation"
	"github.com/2389/slack-connector/internal/inbound"
	"github.com/2389/slack-connector/internal/render"
	"github.com/2389/slack-connector/internal/session"
)

// EventRate is the tracking event type for content ratings.
const EventRate = "rate"

// Tracker reports events to the answer API.
type Tracker interface {
	TrackEvent(ctx context.Context, state *session.State, eventType string, data map[string]any) error
}

// Escalator is told about every rating.
type Escalator interface {
	ObserveRating(ctx context.Context, state *session.State, negative bool) (escalation.Decision, error)
}

// Gate decides when to ask for ratings and handles the answers.
type Gate struct {
	cfg       config.ContentRatingsConfig
	renderer  *render.Renderer
	tracker   Tracker
	escalator Escalator
	outbox    escalation.Outbox
	logger    *slog.Logger
}

// New creates a Gate.
func New(cfg config.ContentRatingsConfig, renderer *render.Renderer, tracker Tracker, escalator Escalator, outbox escalation.Outbox, logger *slog.Logger) *Gate {
	return &Gate{
		cfg:       cfg,
		renderer:  renderer,
		tracker:   tracker,
		escalator: escalator,
		outbox:    outbox,
		logger:    logger.With("component", "rating"),
	}
}

// Prompt returns the rating prompt for the first rateable item of a batch,
// or nil when no prompt should be shown.
func (g *Gate) Prompt(items []answer.Item, state *session.State) *render.Message {
	if !g.cfg.Enabled || state.ChatActive() || state.AskingForEscalation {
		return nil
	}
	for i := range items {
		if rateable(&items[i]) {
			return g.renderer.RatingPrompt(items[i].RateCode(), g.cfg.Ratings)
		}
	}
	return nil
}

func rateable(it *answer.Item) bool {
	return answer.Classify(it) == answer.KindAnswer &&
		it.RateCode() != "" &&
		!it.HasFlag(answer.FlagEscalate) &&
		!it.HasFlag(answer.FlagNoRating) &&
		!it.IsEscalationStart() &&
		!it.IsEscalationOffer()
}

// HandleRating tracks a rating click. Tracking faults are logged and do not
// stop the flow.
func (g *Gate) HandleRating(ctx context.Context, req *inbound.Request, state *session.State) error {
	if req.RatingData == nil {
		return nil
	}
	data := req.RatingData.Data
	g.track(ctx, state, data.Code, data.Value, data.Comment)

	negative := req.IsNegativeRating != nil && *req.IsNegativeRating
	decision, err := g.escalator.ObserveRating(ctx, state, negative)
	if err != nil {
		return err
	}
	if decision != escalation.DecisionNone {
		return nil
	}

	if req.AskRatingComment != nil && *req.AskRatingComment {
		state.RatingCommentPending = &session.PendingRating{Code: data.Code, Value: data.Value}
		return g.outbox.Send(ctx, state, g.renderer.Notice("ask_rating_comment"))
	}
	return g.outbox.Send(ctx, state, g.renderer.Notice("thanks"))
}

// HandleComment sends text as the comment of a pending rating. It reports
// false when no rating is waiting for a comment.
func (g *Gate) HandleComment(ctx context.Context, text string, state *session.State) (bool, error) {
	pending := state.RatingCommentPending
	if pending == nil {
		return false, nil
	}
	state.RatingCommentPending = nil

	g.track(ctx, state, pending.Code, pending.Value, &text)
	return true, g.outbox.Send(ctx, state, g.renderer.Notice("thanks"))
}

func (g *Gate) track(ctx context.Context, state *session.State, code string, value int, comment *string) {
	data := map[string]any{"code": code, "value": value, "comment": nil}
	if comment != nil {
		data["comment"] = *comment
	}
	if err := g.tracker.TrackEvent(ctx, state, EventRate, data); err != nil {
		g.logger.Warn("rating tracking failed", "session", state.ID(), "code", code, "error", err)
	}
}
