package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deskwise/deskwise/tools/web_fetch"
	"github.com/deskwise/deskwise/tools/web_search"
)

// SearchTool exposes web search to the agent loop. Results are capped at
// MaxResults per call to keep the research context small.
type SearchTool struct {
	Searcher   web_search.WebSearcher
	MaxResults int
}

func (t *SearchTool) Name() string { return "web_search" }

func (t *SearchTool) Description() string {
	return "Search the web for up-to-date information. Returns the top results with title, URL and snippet."
}

func (t *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

func (t *SearchTool) Invoke(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("web_search: bad arguments: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("web_search: query is required")
	}
	k := t.MaxResults
	if k <= 0 || k > 3 {
		k = 3
	}
	results, err := t.Searcher.Search(ctx, args.Query, k)
	if err != nil {
		return "", fmt.Errorf("web_search: %w", err)
	}
	if len(results) == 0 {
		return "No results found.", nil
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Snippet)
	}
	return strings.TrimSpace(b.String()), nil
}

// FetchTool lets the agent open one of the search results and read its
// article text.
type FetchTool struct {
	Fetcher web_fetch.WebFetcher
}

func (t *FetchTool) Name() string { return "open_page" }

func (t *FetchTool) Description() string {
	return "Open a web page by URL and return its readable article text."
}

func (t *FetchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to open",
			},
		},
		"required": []string{"url"},
	}
}

func (t *FetchTool) Invoke(ctx context.Context, arguments string) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("open_page: bad arguments: %w", err)
	}
	if strings.TrimSpace(args.URL) == "" {
		return "", fmt.Errorf("open_page: url is required")
	}
	result, err := t.Fetcher.Exec(ctx, args.URL)
	if err != nil {
		return "", fmt.Errorf("open_page: %w", err)
	}
	if result.Text == "" {
		return fmt.Sprintf("Could not extract readable text from %s (status %d).", args.URL, result.Status), nil
	}
	if result.Title != "" {
		return result.Title + "\n\n" + result.Text, nil
	}
	return result.Text, nil
}
