package generation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryRegistryLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := NewInMemoryRegistry()

	job := Job{ID: "job-1", KnowledgeBaseID: "kb-1", Status: StatusStarted, StartedAt: time.Now()}
	if err := reg.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := reg.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusStarted || got.KnowledgeBaseID != "kb-1" {
		t.Fatalf("unexpected job: %+v", got)
	}

	if err := reg.SetStatus(ctx, "job-1", StatusResearching, "digging in"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, _ = reg.Get(ctx, "job-1")
	if got.Status != StatusResearching || got.Message != "digging in" {
		t.Fatalf("status not applied: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be stamped")
	}

	if err := reg.Delete(ctx, "job-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := reg.Get(ctx, "job-1"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound after delete, got %v", err)
	}
}

func TestInMemoryRegistryUnknownJob(t *testing.T) {
	ctx := context.Background()
	reg := NewInMemoryRegistry()

	if _, err := reg.Get(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("get: expected ErrJobNotFound, got %v", err)
	}
	if err := reg.SetStatus(ctx, "missing", StatusError, "boom"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("set status: expected ErrJobNotFound, got %v", err)
	}
	if err := reg.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete of unknown id should be a no-op, got %v", err)
	}
}
