package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deskwise/deskwise/internal/helpers"
)

// ArticleDraft is one generated help article before its markdown body is
// converted and persisted.
type ArticleDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
}

const articlesSystemPrompt = `You are a customer support technical writer. Research the product or service you are given using the web_search tool, then write help-center articles for one of its categories.

Respond with a strict JSON array and nothing else: no prose, no markdown fences. Each element must be an object with exactly these keys:
  "title": the article title,
  "description": one sentence summarizing the article,
  "body": the full article text in markdown (300-500 words, using headings, paragraphs and lists).

Write between 3 and 5 articles answering the questions customers most commonly ask within this category.`

// GenerateArticles asks the agent to write the articles for one planned
// category. The response goes through the same two-tier JSON decode as the
// planner; the decoded drafts are used as-is without field validation, so a
// draft with an empty title or body flows through to persistence.
func GenerateArticles(ctx context.Context, loop *AgentLoop, kbName string, category CategoryDraft, brandVoiceExample, additionalNotes string) ([]ArticleDraft, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Knowledge base: %s\n", kbName)
	fmt.Fprintf(&user, "Category: %s\n", category.Name)
	if category.Description != "" {
		fmt.Fprintf(&user, "Category description: %s\n", category.Description)
	}
	if brandVoiceExample != "" {
		fmt.Fprintf(&user, "\nBrand voice example (match this tone):\n%s\n", brandVoiceExample)
	}
	if additionalNotes != "" {
		fmt.Fprintf(&user, "\nAdditional notes from the requester:\n%s\n", additionalNotes)
	}

	text, err := loop.Run(ctx, articlesSystemPrompt, user.String())
	if err != nil {
		return nil, err
	}

	var drafts []ArticleDraft
	if err := json.Unmarshal([]byte(text), &drafts); err != nil {
		extracted, exErr := helpers.ExtractJSON(text)
		if exErr != nil {
			return nil, &ParseError{Stage: "generate articles", Raw: text, Err: exErr}
		}
		if err := json.Unmarshal([]byte(extracted), &drafts); err != nil {
			return nil, &ParseError{Stage: "generate articles", Raw: text, Err: err}
		}
	}
	return drafts, nil
}
