// ABOUTME: Per-kind normalizers producing canonical requests
// ABOUTME: Dispatches through a table keyed by Kind, built once in NewNormalizer

package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/slack-connector/internal/session"
)

// ActionFieldID marks clicks on action-field buttons and selects.
const ActionFieldID = "ACTION_FIELD"

// attachableFormats are the file types a live agent can receive.
var attachableFormats = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"pdf": true, "xls": true, "xlsx": true, "doc": true, "docx": true,
	"mp4": true, "avi": true,
	"mp3": true,
}

// MediaFetcher downloads a privately shared Slack file.
type MediaFetcher interface {
	FetchFile(ctx context.Context, url string) ([]byte, error)
}

type normalizeFunc func(ctx context.Context, ev *Event, state *session.State) (*Request, error)

// Normalizer converts classified events into canonical requests.
type Normalizer struct {
	media    MediaFetcher
	logger   *slog.Logger
	handlers map[Kind]normalizeFunc
}

// NewNormalizer creates a Normalizer. media may be nil when files are never
// forwarded.
func NewNormalizer(media MediaFetcher, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{
		media:  media,
		logger: logger.With("component", "inbound"),
	}
	n.handlers = map[Kind]normalizeFunc{
		KindPlainText:  n.plainText,
		KindButton:     n.button,
		KindQuickReply: n.quickReply,
		KindSticker:    n.sticker,
		KindAttachment: n.attachment,
	}
	return n
}

// Normalize classifies ev and returns its canonical request. A nil request
// with a nil error means there is nothing to send.
func (n *Normalizer) Normalize(ctx context.Context, ev *Event, state *session.State) (*Request, error) {
	kind := Classify(ev)
	handler, ok := n.handlers[kind]
	if !ok {
		n.logger.Debug("dropping unclassified event")
		return nil, nil
	}

	req, err := handler(ctx, ev, state)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", kind, err)
	}
	return req, nil
}

func (n *Normalizer) plainText(ctx context.Context, ev *Event, state *session.State) (*Request, error) {
	text, _ := ev.TextValue()

	var media *Media
	if len(ev.Files) > 0 && state.ChatActive() {
		var err error
		media, err = n.fetchMedia(ctx, ev.Files[0])
		if err != nil {
			return nil, err
		}
	}

	switch {
	case text == "" && media == nil:
		return nil, nil
	case text == "":
		return &Request{Media: media}, nil
	case media == nil:
		req := Text(text)
		return &req, nil
	}

	// Text and file travel as two turns
	return &Request{MultipleOutput: []Request{Text(text), {Media: media}}}, nil
}

func (n *Normalizer) fetchMedia(ctx context.Context, f File) (*Media, error) {
	fileType := strings.ToLower(f.FileType)
	if f.URLPrivate == "" || !attachableFormats[fileType] {
		n.logger.Debug("ignoring file", "filetype", f.FileType)
		return nil, nil
	}
	if n.media == nil {
		return nil, nil
	}

	data, err := n.media.FetchFile(ctx, f.URLPrivate)
	if err != nil {
		return nil, fmt.Errorf("fetching file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &Media{
		Name:     "file" + uuid.NewString() + "." + fileType,
		FileType: fileType,
		Data:     data,
	}, nil
}

func (n *Normalizer) button(_ context.Context, ev *Event, _ *session.State) (*Request, error) {
	empty := ""
	return &Request{Message: &empty, Option: StringValue(ev.Value)}, nil
}

func (n *Normalizer) quickReply(_ context.Context, ev *Event, state *session.State) (*Request, error) {
	payload := []byte(ev.Message.QuickReply.Payload)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		// Scalar payloads are the option itself
		option := StringValue(ev.Message.QuickReply.Payload)
		if json.Valid(payload) {
			option = Value{raw: payload}
		}
		return optionRequest(option, state), nil
	}

	_, hasOption := fields["option"]
	_, isRating := fields["ratingData"]
	_, isEscalation := fields["escalateOption"]

	if isRating || ev.ActionID == ActionFieldID || isEscalation || !hasOption {
		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("decoding payload: %w", err)
		}
		return &req, nil
	}

	var option Value
	if err := option.UnmarshalJSON(fields["option"]); err != nil {
		return nil, err
	}
	return optionRequest(option, state), nil
}

// optionRequest consumes the remembered multiple-choice escalation marker:
// picking that option asks for an agent, and any option clears it.
func optionRequest(option Value, state *session.State) *Request {
	marker := state.EscalationStartFromMultiple
	state.EscalationStartFromMultiple = ""
	if marker != "" && option.String() == marker {
		req := Text("agent")
		return &req
	}
	return &Request{Option: option}
}

func (n *Normalizer) sticker(_ context.Context, ev *Event, _ *session.State) (*Request, error) {
	if len(ev.Message.Attachments) == 0 {
		return nil, nil
	}
	req := Text(ev.Message.Attachments[0].Payload.URL)
	return &req, nil
}

func (n *Normalizer) attachment(_ context.Context, ev *Event, _ *session.State) (*Request, error) {
	turns := make([]Request, 0, len(ev.Message.Attachments))
	for _, a := range ev.Message.Attachments {
		turns = append(turns, Text(a.Payload.URL))
	}
	if len(turns) == 0 {
		return nil, nil
	}
	return &Request{MultipleOutput: turns}, nil
}
