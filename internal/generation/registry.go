package generation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status is the lifecycle state of a generation job. Transitions are
// strictly sequential; there is no retry or rollback state.
type Status string

const (
	StatusStarted            Status = "started"
	StatusResearching        Status = "researching"
	StatusCategoriesDone     Status = "categories_done"
	StatusGeneratingArticles Status = "generating_articles"
	StatusCompleted          Status = "completed"
	StatusError              Status = "error"
)

// Job is one knowledge-base generation run tracked by the registry.
type Job struct {
	ID              string    `json:"id"`
	KnowledgeBaseID string    `json:"knowledge_base_id"`
	Status          Status    `json:"status"`
	Message         string    `json:"message,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Registry tracks in-flight generation jobs. Implementations must be safe
// for concurrent use: the orchestrator writes while status streams read.
type Registry interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	SetStatus(ctx context.Context, id string, status Status, message string) error
	Delete(ctx context.Context, id string) error
}

// InMemoryRegistry keeps jobs in a mutex-guarded map. It is the default
// for single-process deployments.
type InMemoryRegistry struct {
	jobs map[string]Job
	mu   sync.RWMutex
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{jobs: make(map[string]Job)}
}

func (r *InMemoryRegistry) Create(_ context.Context, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.UpdatedAt = time.Now().UTC()
	r.jobs[job.ID] = job
	return nil
}

func (r *InMemoryRegistry) Get(_ context.Context, id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job, nil
}

func (r *InMemoryRegistry) SetStatus(_ context.Context, id string, status Status, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.Message = message
	job.UpdatedAt = time.Now().UTC()
	r.jobs[id] = job
	return nil
}

func (r *InMemoryRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

const jobKeyPrefix = "deskwise:genjob:"

// RedisRegistry stores jobs as JSON-marshalled records with a TTL, so
// multiple replicas can serve status streams for the same job.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) Create(ctx context.Context, job Job) error {
	job.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, jobKeyPrefix+job.ID, data, r.ttl).Err()
}

func (r *RedisRegistry) Get(ctx context.Context, id string) (Job, error) {
	data, err := r.client.Get(ctx, jobKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, err
	}
	return job, nil
}

func (r *RedisRegistry) SetStatus(ctx context.Context, id string, status Status, message string) error {
	job, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	job.Status = status
	job.Message = message
	return r.Create(ctx, job)
}

func (r *RedisRegistry) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, jobKeyPrefix+id).Err()
}
