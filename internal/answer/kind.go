// ABOUTME: Answer item classification and response parsing
// ABOUTME: Maps the declared item type to a closed Kind set

package answer

import (
	"encoding/json"
	"fmt"
)

// Kind is the semantic kind of an answer item.
type Kind int

const (
	KindUnknown Kind = iota
	KindActionField
	KindAnswer
	KindPolarQuestion
	KindMultipleChoice
	KindExtendedContents
)

func (k Kind) String() string {
	switch k {
	case KindActionField:
		return "actionField"
	case KindAnswer:
		return "answer"
	case KindPolarQuestion:
		return "polarQuestion"
	case KindMultipleChoice:
		return "multipleChoiceQuestion"
	case KindExtendedContents:
		return "extendedContentsAnswer"
	default:
		return "unknown"
	}
}

// Classify returns the kind of it. Answers carrying an action field are
// action fields.
func Classify(it *Item) Kind {
	switch it.Type {
	case "answer":
		if it.HasActionField() {
			return KindActionField
		}
		return KindAnswer
	case "polarQuestion":
		return KindPolarQuestion
	case "multipleChoiceQuestion":
		return KindMultipleChoice
	case "extendedContentsAnswer":
		return KindExtendedContents
	}
	return KindUnknown
}

// ParseResponse decodes an answer API response body into its items.
func ParseResponse(data []byte) ([]Item, error) {
	var wrapped struct {
		Answers json.RawMessage `json:"answers"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
	}

	if len(wrapped.Answers) > 0 && wrapped.Answers[0] == '[' {
		var items []Item
		if err := json.Unmarshal(wrapped.Answers, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
		}
		return items, nil
	}

	var single Item
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
	}
	if Classify(&single) == KindUnknown && !single.HasTextMessage() {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedResponse, truncate(data, 200))
	}
	return []Item{single}, nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
