package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store wraps the postgres connection used by the helpdesk backend.
type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// User operations

func (s *Store) CreateUser(ctx context.Context, email, hash string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2) RETURNING id`, email, hash).Scan(&id)
	return id, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// Organization operations

func (s *Store) GetOrganizationIDByUser(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `SELECT organization_id FROM organization_members WHERE user_id=$1`, userID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("organization lookup for user %s: %w", userID, err)
	}
	return id, nil
}

func (s *Store) CreateOrganization(ctx context.Context, name, ownerID string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `INSERT INTO organizations (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return "", err
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO organization_members (organization_id, user_id, role) VALUES ($1,$2,'owner')`, id, ownerID)
	return id, err
}

// Knowledge base operations

type KnowledgeBase struct {
	ID              string
	OrganizationID  string
	Name            string
	Description     string
	RefreshCron     string
	LastGeneratedAt sql.NullTime
	CreatedAt       time.Time
}

func (s *Store) CreateKnowledgeBase(ctx context.Context, orgID, name, description, refreshCron string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO knowledge_bases (organization_id, name, description, refresh_cron) VALUES ($1,$2,$3,$4) RETURNING id`,
		orgID, name, description, refreshCron).Scan(&id)
	return id, err
}

func (s *Store) GetKnowledgeBaseByID(ctx context.Context, id string) (KnowledgeBase, error) {
	var kb KnowledgeBase
	var description, refreshCron sql.NullString
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, organization_id, name, description, refresh_cron, last_generated_at, created_at FROM knowledge_bases WHERE id=$1`,
		id).Scan(&kb.ID, &kb.OrganizationID, &kb.Name, &description, &refreshCron, &kb.LastGeneratedAt, &kb.CreatedAt)
	if err != nil {
		return KnowledgeBase{}, fmt.Errorf("knowledge base lookup %s: %w", id, err)
	}
	kb.Description = description.String
	kb.RefreshCron = refreshCron.String
	return kb, nil
}

// ListScheduledKnowledgeBases returns bases that carry a refresh schedule.
func (s *Store) ListScheduledKnowledgeBases(ctx context.Context) ([]KnowledgeBase, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, organization_id, name, description, refresh_cron, last_generated_at, created_at FROM knowledge_bases WHERE refresh_cron IS NOT NULL AND refresh_cron <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []KnowledgeBase
	for rows.Next() {
		var kb KnowledgeBase
		var description, refreshCron sql.NullString
		if err := rows.Scan(&kb.ID, &kb.OrganizationID, &kb.Name, &description, &refreshCron, &kb.LastGeneratedAt, &kb.CreatedAt); err != nil {
			return nil, err
		}
		kb.Description = description.String
		kb.RefreshCron = refreshCron.String
		out = append(out, kb)
	}
	return out, rows.Err()
}

func (s *Store) UpdateKnowledgeBaseGeneratedAt(ctx context.Context, id string, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE knowledge_bases SET last_generated_at=$2 WHERE id=$1`, id, at)
	return err
}

// Category operations

type Category struct {
	ID              string
	OrganizationID  string
	KnowledgeBaseID string
	Name            string
	EmojiIcon       string
	Description     string
	CreatedBy       string
}

func (s *Store) InsertCategory(ctx context.Context, c Category) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO kb_categories (organization_id, knowledge_base_id, name, emoji_icon, description, created_by) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		c.OrganizationID, c.KnowledgeBaseID, c.Name, c.EmojiIcon, c.Description, nullable(c.CreatedBy)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert category %q: %w", c.Name, err)
	}
	return id, nil
}

// Article operations

type Article struct {
	ID              string
	OrganizationID  string
	KnowledgeBaseID string
	CategoryID      string
	Title           string
	Description     string
	Body            []byte // serialized structured document
	Status          string
	CreatedBy       string
	UpdatedBy       string
}

func (s *Store) InsertArticle(ctx context.Context, a Article) (string, error) {
	status := a.Status
	if status == "" {
		status = "published"
	}
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO kb_articles (organization_id, knowledge_base_id, category_id, title, description, body, status, created_by, updated_by) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		a.OrganizationID, a.KnowledgeBaseID, a.CategoryID, a.Title, a.Description, a.Body, status, nullable(a.CreatedBy), nullable(a.UpdatedBy)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert article %q: %w", a.Title, err)
	}
	return id, nil
}

// nullable maps empty strings to NULL for optional uuid columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
