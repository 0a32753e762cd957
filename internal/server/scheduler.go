package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/deskwise/deskwise/internal/generation"
	"github.com/deskwise/deskwise/internal/store"
)

// Scheduler periodically regenerates knowledge bases that carry a refresh
// schedule. Locks through redis keep multiple replicas from double-firing
// the same base.
type Scheduler struct {
	Store  *store.Store
	Orch   *generation.Orchestrator
	Rdb    *redis.Client
	Stop   chan struct{}
	Logger *log.Logger

	// Interval overrides the hourly sweep cadence in tests.
	Interval time.Duration
}

func (s *Scheduler) Start() {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	logger := s.logger()
	bases, err := s.Store.ListScheduledKnowledgeBases(ctx)
	if err != nil {
		logger.Printf("listing scheduled knowledge bases: %v", err)
		return
	}
	for _, kb := range bases {
		var last *time.Time
		if kb.LastGeneratedAt.Valid {
			t := kb.LastGeneratedAt.Time
			last = &t
		}
		if !isDue(kb.RefreshCron, last) {
			continue
		}

		if s.Rdb != nil {
			lockKey := "deskwise:sched:lock:" + kb.ID
			ok, _ := s.Rdb.SetNX(ctx, lockKey, "1", 2*time.Minute).Result()
			if !ok {
				continue
			}
		}

		// Scheduled runs have no requesting user; the orchestrator falls
		// back to the base's own organization.
		id, err := s.Orch.StartGeneration(ctx, generation.Request{KnowledgeBaseID: kb.ID})
		if err != nil {
			logger.Printf("scheduled regeneration of %s: %v", kb.ID, err)
			continue
		}
		logger.Printf("scheduled regeneration of %s started as %s", kb.ID, id)
	}
}

// isDue determines whether a base with cronSpec should regenerate now given
// its last generation time. Supports "@daily", "@hourly", and standard
// 5-field cron expressions; invalid expressions degrade to @daily.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}

func (s *Scheduler) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
}
