// ABOUTME: Fixed prompts rendered outside the answer flow
// ABOUTME: Escalation offer, content rating prompt and plain text notices

package render

import (
	"strconv"

	"github.com/slack-go/slack"

	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/markup"
)

// EscalationOffer asks whether the user wants a human agent.
func (r *Renderer) EscalationOffer() *Message {
	question := r.tr.Translate("ask-to-escalate", nil)

	yes := button(r.tr.Translate("yes", nil), payload(map[string]bool{"escalateOption": true}), "")
	no := button(r.tr.Translate("no", nil), payload(map[string]bool{"escalateOption": false}), "")

	return newMessage(markup.Truncate(question), textBlock(question), buttons(yes, no))
}

type ratingPayload struct {
	AskRatingComment bool `json:"askRatingComment"`
	IsNegativeRating bool `json:"isNegativeRating"`
	RatingData       struct {
		Type string `json:"type"`
		Data struct {
			Code    string  `json:"code"`
			Value   int     `json:"value"`
			Comment *string `json:"comment"`
		} `json:"data"`
	} `json:"ratingData"`
}

// RatingPrompt asks the user to rate the content identified by rateCode.
func (r *Renderer) RatingPrompt(rateCode string, ratings []config.RatingOption) *Message {
	intro := r.tr.Translate("rate-content-intro", nil)
	msg := newMessage(markup.Notification(intro, ""), textBlock(markup.ToSlack(intro)))

	elements := make([]*slack.ButtonBlockElement, 0, len(ratings))
	for _, opt := range ratings {
		var p ratingPayload
		p.AskRatingComment = opt.Comment
		p.IsNegativeRating = opt.IsNegative
		p.RatingData.Type = "rate"
		p.RatingData.Data.Code = rateCode
		p.RatingData.Data.Value = opt.ID

		id := strconv.Itoa(opt.ID)
		elements = append(elements, styledButton(r.tr.Translate(opt.Label, nil), payload(p), RatingsPrefix+id, opt.Style))
	}
	msg.add(buttons(elements...))

	return msg
}

// Text renders a single mrkdwn section.
func (r *Renderer) Text(mrkdwn string) *Message {
	return newMessage(markup.Truncate(mrkdwn), textBlock(mrkdwn))
}

// Notice renders a translated string as a single section.
func (r *Renderer) Notice(key string) *Message {
	return r.Text(r.tr.Translate(key, nil))
}
