package web_fetch

import (
	"testing"
	"time"

	"github.com/deskwise/deskwise/tools/web_fetch/chromedp"
)

func TestNewWebFetcherAppliesDefaults(t *testing.T) {
	f, err := NewWebFetcher(ChromedpFetcherType, 0, 0)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	cf, ok := f.(*chromedp.Fetch)
	if !ok {
		t.Fatalf("unexpected fetcher type %T", f)
	}
	if cf.Timeout != 15*time.Second {
		t.Fatalf("default timeout not applied: %v", cf.Timeout)
	}
	if cf.MaxChars != MaxCharsDefault {
		t.Fatalf("default max chars not applied: %d", cf.MaxChars)
	}
}

func TestNewWebFetcherKeepsConfiguredTimeout(t *testing.T) {
	f, err := NewWebFetcher(ChromedpFetcherType, 30*time.Second, 1000)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	cf := f.(*chromedp.Fetch)
	if cf.Timeout != 30*time.Second {
		t.Fatalf("configured timeout not preserved: %v", cf.Timeout)
	}
}

func TestNewWebFetcherRejectsUnknownType(t *testing.T) {
	if _, err := NewWebFetcher(FetcherType("curl"), time.Second, 100); err == nil {
		t.Fatal("expected error for unsupported fetcher type")
	}
}
