// ABOUTME: Answer item renderers dispatched by answer kind
// ABOUTME: Produces Block Kit messages for answers, questions, extended contents and action fields

package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/2389/slack-connector/internal/answer"
	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/markup"
	"github.com/2389/slack-connector/internal/session"
)

// Translator looks up localized strings.
type Translator interface {
	Translate(key string, params map[string]string) string
}

type renderFunc func(it *answer.Item, lastUserText string, state *session.State) (*Message, error)

// Renderer renders answer items into Slack messages.
type Renderer struct {
	tr       Translator
	digester config.DigesterConfig
	handlers map[answer.Kind]renderFunc
}

// New creates a Renderer.
func New(tr Translator, digester config.DigesterConfig) *Renderer {
	r := &Renderer{tr: tr, digester: digester}
	r.handlers = map[answer.Kind]renderFunc{
		answer.KindActionField:      r.actionField,
		answer.KindAnswer:           r.answer,
		answer.KindPolarQuestion:    r.polarQuestion,
		answer.KindMultipleChoice:   r.multipleChoice,
		answer.KindExtendedContents: r.extendedContents,
	}
	return r
}

// Render renders a single item. Items of unknown type fall back to their
// text message when they have one.
func (r *Renderer) Render(it *answer.Item, lastUserText string, state *session.State) (*Message, error) {
	kind := answer.Classify(it)
	handler, ok := r.handlers[kind]
	if !ok {
		if !it.HasTextMessage() {
			return nil, fmt.Errorf("%w: item type %q", answer.ErrUnrecognizedResponse, it.Type)
		}
		handler = r.answer
	}
	return handler(it, lastUserText, state)
}

// RenderBatch renders every item in order.
func (r *Renderer) RenderBatch(items []answer.Item, lastUserText string, state *session.State) ([]*Message, error) {
	out := make([]*Message, 0, len(items))
	for i := range items {
		msg, err := r.Render(&items[i], lastUserText, state)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (r *Renderer) notification(body string) string {
	return markup.Notification(body, r.tr.Translate("new-message", nil))
}

func (r *Renderer) answer(it *answer.Item, _ string, _ *session.State) (*Message, error) {
	body := it.Message
	if side := it.Attribute(answer.AttrSideBubble); side != "" {
		body += "\n" + side
	}

	msg := newMessage(r.notification(it.Message))
	for _, seg := range splitBody(body) {
		switch seg.kind {
		case segmentImage:
			if seg.src != "" {
				msg.add(imageBlock(seg.src, seg.alt))
			}
		case segmentDivider:
			msg.add(slack.NewDividerBlock())
		default:
			if text := markup.ToSlack(seg.html); text != "" {
				msg.add(textBlock(text))
			}
		}
	}

	if links := r.urlButtons(it); len(links) > 0 {
		msg.add(buttons(links...))
	}

	if related := it.Parameters.Contents.Related; related != nil && len(related.RelatedContents) > 0 {
		msg.Attachments = r.related(related)
	}

	return msg, nil
}

// urlButtons reads URL buttons from the configured attribute, which holds
// either one object or a list of them.
func (r *Renderer) urlButtons(it *answer.Item) []*slack.ButtonBlockElement {
	cfg := r.digester.URLButtons
	if cfg.AttributeName == "" || cfg.ButtonTitleVar == "" || cfg.ButtonURLVar == "" {
		return nil
	}
	raw, ok := it.Attributes[cfg.AttributeName]
	if !ok {
		return nil
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		var single map[string]any
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		list = []map[string]any{single}
	}

	var out []*slack.ButtonBlockElement
	for _, b := range list {
		title, _ := b[cfg.ButtonTitleVar].(string)
		url, _ := b[cfg.ButtonURLVar].(string)
		if title == "" || url == "" {
			continue
		}
		out = append(out, urlButton(title, url))
	}
	return out
}

func (r *Renderer) related(related *answer.Related) []slack.Block {
	blocks := []slack.Block{textBlock(r.tr.Translate("related-introduction", nil))}
	label := r.tr.Translate("multiple-answer-button-title", nil)
	for _, c := range related.RelatedContents {
		id := c.IDString()
		blocks = append(blocks, textWithAccessory(
			"*"+markup.ToSlack(c.Title)+"*",
			button(label, id, RelatedPrefix+id),
		))
	}
	return blocks
}

func (r *Renderer) polarQuestion(it *answer.Item, lastUserText string, _ *session.State) (*Message, error) {
	msg := newMessage(r.notification(it.Message), textBlock(markup.ToSlack(it.Message)))

	elements := make([]*slack.ButtonBlockElement, 0, len(it.Options))
	for _, opt := range it.Options {
		value := payload(struct {
			Message string          `json:"message"`
			Option  json.RawMessage `json:"option"`
		}{lastUserText, opt.Value})
		elements = append(elements, button(r.tr.Translate(opt.Label, nil), value, ""))
	}
	msg.add(buttons(elements...))

	return msg, nil
}

func (r *Renderer) multipleChoice(it *answer.Item, _ string, state *session.State) (*Message, error) {
	msg := newMessage(r.notification(it.Message), textBlock(markup.ToSlack(it.Message)))

	label := r.tr.Translate("multiple-answer-button-title", nil)
	for _, opt := range it.Options {
		title := opt.Label
		if attr := r.digester.ButtonTitle; attr != "" {
			if custom := opt.Attribute(attr); custom != "" {
				title = custom
			}
		}
		msg.add(textWithAccessory("*"+markup.ToSlack(title)+"*", button(label, opt.ValueString(), "")))

		if opt.Attribute(answer.AttrDynamicRedirect) == answer.RedirectEscalationStart {
			state.EscalationStartFromMultiple = opt.ValueString()
		}
	}
	msg.add(slack.NewDividerBlock())

	return msg, nil
}

func (r *Renderer) extendedContents(it *answer.Item, _ string, _ *session.State) (*Message, error) {
	msg := newMessage(r.notification(it.Message), textBlock(markup.ToSlack(it.Message)))

	var elements []*slack.ButtonBlockElement
	for i := range it.SubAnswers {
		sub := &it.SubAnswers[i]
		title := sub.Message
		if attr := r.digester.ButtonTitle; attr != "" {
			if custom := sub.Attribute(attr); custom != "" {
				title = custom
			}
		}
		title = strings.TrimSpace(markup.ToSlack(title))

		contents := sub.Parameters.Contents
		if contents.Title != "" && contents.URL != nil && contents.URL.Value != "" {
			msg.add(textBlock("<" + contents.URL.Value + "|" + title + ">"))
			continue
		}

		value := payload(struct {
			ExtendedContentAnswer *answer.Item `json:"extendedContentAnswer"`
		}{sub})
		if len(value) > maxButtonValue {
			// Too large to ride on a button: show the sub-answer inline.
			if text := markup.ToSlack(sub.Message); text != "" {
				msg.add(textBlock(text))
			}
			continue
		}
		elements = append(elements, button(title, value, ""))
	}
	if len(elements) > 0 {
		msg.add(buttons(elements...))
	}

	return msg, nil
}

func (r *Renderer) actionField(it *answer.Item, _ string, _ *session.State) (*Message, error) {
	spec, err := it.DecodeActionField()
	if err != nil {
		return nil, err
	}

	msg := newMessage(r.notification(it.Message))
	text := markup.ToSlack(it.Message)

	if spec == nil || spec.ListValues == nil {
		msg.add(textBlock(text))
		return msg, nil
	}

	switch spec.ListValues.DisplayType {
	case "dropdown":
		options := make([]*slack.OptionBlockObject, 0, len(spec.ListValues.Values))
		for _, v := range spec.ListValues.Values {
			value := payload(struct {
				Message string `json:"message"`
			}{v.Option})
			options = append(options, slack.NewOptionBlockObject(
				value,
				slack.NewTextBlockObject(slack.PlainTextType, firstLabel(v), false, false),
				nil,
			))
		}
		sel := slack.NewOptionsSelectBlockElement(
			slack.OptTypeStatic,
			slack.NewTextBlockObject(slack.PlainTextType, r.tr.Translate("action-field-select-placeholder", nil), false, false),
			ActionField,
			options...,
		)
		msg.add(textWithAccessory(text, sel))

	case "buttons":
		msg.add(textBlock(text))
		label := r.tr.Translate("action-field-button-title", nil)
		for _, v := range spec.ListValues.Values {
			value := payload(struct {
				Message     string `json:"message"`
				Option      string `json:"option"`
				UserMessage string `json:"userMessage"`
			}{v.Option, v.Option, v.Option})
			msg.add(textWithAccessory(firstLabel(v), button(label, value, ActionField)))
		}

	default:
		msg.add(textBlock(text))
	}

	return msg, nil
}

func firstLabel(v answer.ActionFieldValue) string {
	if len(v.Label) > 0 && v.Label[0] != "" {
		return v.Label[0]
	}
	return v.Option
}
