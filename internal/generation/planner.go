package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deskwise/deskwise/internal/helpers"
)

// CategoryDraft is one planned knowledge-base category, not yet persisted.
type CategoryDraft struct {
	Name        string `json:"name"`
	EmojiIcon   string `json:"emojiIcon"`
	Description string `json:"description"`
}

const plannerSystemPrompt = `You are a customer support content strategist. Research the product or service you are given using the web_search tool, then design the structure of its help center.

Respond with a strict JSON array and nothing else: no prose, no markdown fences. Each element must be an object with exactly these keys:
  "name": short category title,
  "emojiIcon": a single emoji representing the category,
  "description": one sentence describing what the category covers.

Return between 4 and 6 categories covering the most common customer support themes (getting started, account and billing, troubleshooting, and so on as appropriate for the product).`

// PlanCategories asks the agent to research the knowledge base's subject and
// produce its category structure. The model response is decoded directly
// first and through a first-JSON-value scan as a fallback; anything else is
// a ParseError. The decoded array is shape-checked field by field.
func PlanCategories(ctx context.Context, loop *AgentLoop, kbName, kbDescription, brandVoiceExample string) ([]CategoryDraft, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Knowledge base: %s\n", kbName)
	if kbDescription != "" {
		fmt.Fprintf(&user, "Description: %s\n", kbDescription)
	}
	if brandVoiceExample != "" {
		fmt.Fprintf(&user, "\nBrand voice example (match this tone):\n%s\n", brandVoiceExample)
	}

	text, err := loop.Run(ctx, plannerSystemPrompt, user.String())
	if err != nil {
		return nil, err
	}

	var drafts []CategoryDraft
	if err := json.Unmarshal([]byte(text), &drafts); err != nil {
		extracted, exErr := helpers.ExtractJSON(text)
		if exErr != nil {
			return nil, &ParseError{Stage: "plan categories", Raw: text, Err: exErr}
		}
		if err := json.Unmarshal([]byte(extracted), &drafts); err != nil {
			if json.Valid([]byte(extracted)) && !strings.HasPrefix(strings.TrimSpace(extracted), "[") {
				return nil, &ValidationError{Index: -1}
			}
			return nil, &ParseError{Stage: "plan categories", Raw: text, Err: err}
		}
	}

	for i, d := range drafts {
		switch {
		case strings.TrimSpace(d.Name) == "":
			return nil, &ValidationError{Index: i, Field: "name"}
		case strings.TrimSpace(d.EmojiIcon) == "":
			return nil, &ValidationError{Index: i, Field: "emojiIcon"}
		case strings.TrimSpace(d.Description) == "":
			return nil, &ValidationError{Index: i, Field: "description"}
		}
	}
	return drafts, nil
}
