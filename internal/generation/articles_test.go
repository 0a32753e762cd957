package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/deskwise/deskwise/provider"
)

const articlesJSON = `[
  {"title":"How to reset your password","description":"Recover account access.","body":"# Reset\n\nGo to settings."},
  {"title":"Enable two-factor auth","description":"Add a second factor.","body":"Use an authenticator app."},
  {"title":"Close your account","description":"Offboarding steps.","body":"Contact support first."}
]`

func articlesLoop(text string) *AgentLoop {
	p := &scriptedProvider{responses: []provider.Completion{{Text: text}}}
	return &AgentLoop{Provider: p, Logger: quietLogger()}
}

func TestGenerateArticles(t *testing.T) {
	cat := CategoryDraft{Name: "Account", EmojiIcon: "👤", Description: "Profile and security."}
	drafts, err := GenerateArticles(context.Background(), articlesLoop(articlesJSON), "Acme Docs", cat, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(drafts))
	}
	if drafts[0].Title != "How to reset your password" {
		t.Fatalf("unexpected draft: %+v", drafts[0])
	}
}

func TestGenerateArticlesProseWrapped(t *testing.T) {
	cat := CategoryDraft{Name: "Account"}
	text := "Sure, here are the articles:\n" + articlesJSON
	drafts, err := GenerateArticles(context.Background(), articlesLoop(text), "Acme Docs", cat, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(drafts))
	}
}

// Article drafts are deliberately not shape-checked, so incomplete elements
// flow through instead of failing the job.
func TestGenerateArticlesDoesNotValidateFields(t *testing.T) {
	cat := CategoryDraft{Name: "Account"}
	text := `[{"title":"","description":"","body":""}]`
	drafts, err := GenerateArticles(context.Background(), articlesLoop(text), "Acme Docs", cat, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected the empty draft to pass through, got %d drafts", len(drafts))
	}
}

func TestGenerateArticlesNoJSON(t *testing.T) {
	cat := CategoryDraft{Name: "Account"}
	_, err := GenerateArticles(context.Background(), articlesLoop("no structured output today"), "Acme Docs", cat, "", "")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
