package generation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/deskwise/deskwise/internal/document"
	"github.com/deskwise/deskwise/internal/store"
)

// Storage is the persistence surface one generation job needs. *store.Store
// satisfies it; tests substitute a fake.
type Storage interface {
	GetOrganizationIDByUser(ctx context.Context, userID string) (string, error)
	GetKnowledgeBaseByID(ctx context.Context, id string) (store.KnowledgeBase, error)
	InsertCategory(ctx context.Context, c store.Category) (string, error)
	InsertArticle(ctx context.Context, a store.Article) (string, error)
	UpdateKnowledgeBaseGeneratedAt(ctx context.Context, id string, at time.Time) error
}

// Request carries the inputs for one generation run.
type Request struct {
	UserID            string
	KnowledgeBaseID   string
	BrandVoiceExample string
	AdditionalNotes   string
}

// Orchestrator runs generation jobs end to end: plan categories, write
// articles per category, convert bodies, persist everything, and keep the
// registry's status current for streaming clients.
type Orchestrator struct {
	Store    Storage
	Registry Registry
	Loop     *AgentLoop

	// JobTimeout bounds one full run. JobTTL is how long a terminal
	// registry entry stays readable before cleanup.
	JobTimeout time.Duration
	JobTTL     time.Duration
	Logger     *log.Logger
}

// StartGeneration registers a new job and schedules its run in the
// background. It returns the job id as soon as the registry accepted the
// entry; everything after that is only observable through the status stream.
func (o *Orchestrator) StartGeneration(ctx context.Context, req Request) (string, error) {
	id := uuid.NewString()
	job := Job{
		ID:              id,
		KnowledgeBaseID: req.KnowledgeBaseID,
		Status:          StatusStarted,
		Message:         "generation accepted",
		StartedAt:       time.Now().UTC(),
	}
	if err := o.Registry.Create(ctx, job); err != nil {
		return "", fmt.Errorf("register generation job: %w", err)
	}
	jobsStarted.Inc()
	go o.runGeneration(id, req)
	return id, nil
}

func (o *Orchestrator) runGeneration(jobID string, req Request) {
	logger := o.logger()
	timeout := o.JobTimeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := o.generate(ctx, jobID, req); err != nil {
		logger.Printf("generation %s failed: %v", jobID, err)
		jobsFailed.Inc()
		// The run context may already be dead; status writes get their own.
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if serr := o.Registry.SetStatus(sctx, jobID, StatusError, err.Error()); serr != nil {
			logger.Printf("generation %s: recording failure: %v", jobID, serr)
		}
		o.scheduleCleanup(jobID)
		return
	}
	jobsCompleted.Inc()
	o.scheduleCleanup(jobID)
}

// generate is the sequential state machine for one job. Categories and
// their articles are processed strictly in order; a failure anywhere aborts
// the whole job and rows written by earlier iterations stay in place.
func (o *Orchestrator) generate(ctx context.Context, jobID string, req Request) error {
	orgID := ""
	if req.UserID != "" {
		var err error
		orgID, err = o.Store.GetOrganizationIDByUser(ctx, req.UserID)
		if err != nil {
			return err
		}
	}
	kb, err := o.Store.GetKnowledgeBaseByID(ctx, req.KnowledgeBaseID)
	if err != nil {
		return err
	}
	if orgID == "" {
		orgID = kb.OrganizationID
	}

	o.setStatus(ctx, jobID, StatusResearching, fmt.Sprintf("Researching %s", kb.Name))
	drafts, err := PlanCategories(ctx, o.Loop, kb.Name, kb.Description, req.BrandVoiceExample)
	if err != nil {
		return err
	}
	o.setStatus(ctx, jobID, StatusCategoriesDone, fmt.Sprintf("Planned %d categories", len(drafts)))

	for i, draft := range drafts {
		o.setStatus(ctx, jobID, StatusGeneratingArticles,
			fmt.Sprintf("Writing articles for %q (%d of %d)", draft.Name, i+1, len(drafts)))

		categoryID, err := o.Store.InsertCategory(ctx, store.Category{
			OrganizationID:  orgID,
			KnowledgeBaseID: kb.ID,
			Name:            draft.Name,
			EmojiIcon:       draft.EmojiIcon,
			Description:     draft.Description,
			CreatedBy:       req.UserID,
		})
		if err != nil {
			return err
		}

		articles, err := GenerateArticles(ctx, o.Loop, kb.Name, draft, req.BrandVoiceExample, req.AdditionalNotes)
		if err != nil {
			return err
		}
		for _, article := range articles {
			doc := document.Convert(article.Body)
			body, err := doc.JSON()
			if err != nil {
				return fmt.Errorf("serialize article %q: %w", article.Title, err)
			}
			if _, err := o.Store.InsertArticle(ctx, store.Article{
				OrganizationID:  orgID,
				KnowledgeBaseID: kb.ID,
				CategoryID:      categoryID,
				Title:           article.Title,
				Description:     article.Description,
				Body:            body,
				Status:          "published",
				CreatedBy:       req.UserID,
				UpdatedBy:       req.UserID,
			}); err != nil {
				return err
			}
		}
	}

	if err := o.Store.UpdateKnowledgeBaseGeneratedAt(ctx, kb.ID, time.Now().UTC()); err != nil {
		return err
	}
	o.setStatus(ctx, jobID, StatusCompleted, fmt.Sprintf("Generated %d categories", len(drafts)))
	return nil
}

func (o *Orchestrator) setStatus(ctx context.Context, jobID string, status Status, message string) {
	if err := o.Registry.SetStatus(ctx, jobID, status, message); err != nil {
		o.logger().Printf("generation %s: status %s: %v", jobID, status, err)
	}
}

// scheduleCleanup drops the registry entry after the grace period, leaving
// streaming clients time to observe the terminal status.
func (o *Orchestrator) scheduleCleanup(jobID string) {
	ttl := o.JobTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	time.AfterFunc(ttl, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.Registry.Delete(ctx, jobID); err != nil {
			o.logger().Printf("generation %s: cleanup: %v", jobID, err)
		}
	})
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(log.Writer(), "[GEN] ", log.LstdFlags)
}
