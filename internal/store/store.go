// Package store persists article projects in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("project not found")

// Project is one article production run, from company research through the
// published document. Stage outputs fill in as the pipeline advances.
type Project struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Status      string    `json:"status"`

	// SessionID ties the project to its ephemeral research session.
	SessionID  string `json:"session_id,omitempty"`
	ResearchID string `json:"research_id,omitempty"`

	Storyline       string   `json:"storyline,omitempty"`
	ArticleMarkdown string   `json:"article_markdown,omitempty"`
	ImageText       string   `json:"image_text,omitempty"`
	ArticleSkeleton string   `json:"article_skeleton,omitempty"`
	ImagePrompts    []string `json:"image_prompts,omitempty"`
	GeneratedImages []string `json:"generated_images,omitempty"`
	FinalArticle    string   `json:"final_article,omitempty"`
}

// PartialProject carries the fields of a partial update. Nil fields are left
// untouched by Update.
type PartialProject struct {
	Status          *string   `json:"status,omitempty"`
	SessionID       *string   `json:"session_id,omitempty"`
	ResearchID      *string   `json:"research_id,omitempty"`
	Storyline       *string   `json:"storyline,omitempty"`
	ArticleMarkdown *string   `json:"article_markdown,omitempty"`
	ImageText       *string   `json:"image_text,omitempty"`
	ArticleSkeleton *string   `json:"article_skeleton,omitempty"`
	ImagePrompts    *[]string `json:"image_prompts,omitempty"`
	GeneratedImages *[]string `json:"generated_images,omitempty"`
	FinalArticle    *string   `json:"final_article,omitempty"`
}

// Store manages the projects SQLite database.
type Store struct {
	db *sql.DB
}

// New opens or creates the projects database at the given path, creating the
// schema if needed.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			company_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			status TEXT NOT NULL,
			session_id TEXT,
			research_id TEXT,
			storyline TEXT,
			article_markdown TEXT,
			image_text TEXT,
			article_skeleton TEXT,
			image_prompts TEXT,
			generated_images TEXT,
			final_article TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects(updated_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Create inserts a new project for the named company and returns it.
func (s *Store) Create(ctx context.Context, companyName string) (*Project, error) {
	now := time.Now().UTC()
	p := &Project{
		ID:          uuid.New().String(),
		CompanyName: companyName,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      "created",
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, company_name, created_at, updated_at, status)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.CompanyName, p.CreatedAt.Format(time.RFC3339Nano),
		p.UpdatedAt.Format(time.RFC3339Nano), p.Status)
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}
	return p, nil
}

// Get returns a project by ID.
func (s *Store) Get(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, created_at, updated_at, status,
		        session_id, research_id, storyline, article_markdown, image_text,
		        article_skeleton, image_prompts, generated_images, final_article
		 FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// List returns all projects, newest first.
func (s *Store) List(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_name, created_at, updated_at, status,
		        session_id, research_id, storyline, article_markdown, image_text,
		        article_skeleton, image_prompts, generated_images, final_article
		 FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update applies the non-nil fields of the partial to the project and bumps
// updated_at. Returns the updated project.
func (s *Store) Update(ctx context.Context, id string, partial PartialProject) (*Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if partial.Status != nil {
		p.Status = *partial.Status
	}
	if partial.SessionID != nil {
		p.SessionID = *partial.SessionID
	}
	if partial.ResearchID != nil {
		p.ResearchID = *partial.ResearchID
	}
	if partial.Storyline != nil {
		p.Storyline = *partial.Storyline
	}
	if partial.ArticleMarkdown != nil {
		p.ArticleMarkdown = *partial.ArticleMarkdown
	}
	if partial.ImageText != nil {
		p.ImageText = *partial.ImageText
	}
	if partial.ArticleSkeleton != nil {
		p.ArticleSkeleton = *partial.ArticleSkeleton
	}
	if partial.ImagePrompts != nil {
		p.ImagePrompts = *partial.ImagePrompts
	}
	if partial.GeneratedImages != nil {
		p.GeneratedImages = *partial.GeneratedImages
	}
	if partial.FinalArticle != nil {
		p.FinalArticle = *partial.FinalArticle
	}
	p.UpdatedAt = time.Now().UTC()

	prompts, err := json.Marshal(p.ImagePrompts)
	if err != nil {
		return nil, fmt.Errorf("marshaling image prompts: %w", err)
	}
	images, err := json.Marshal(p.GeneratedImages)
	if err != nil {
		return nil, fmt.Errorf("marshaling generated images: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE projects SET
		   updated_at = ?, status = ?, session_id = ?, research_id = ?,
		   storyline = ?, article_markdown = ?, image_text = ?,
		   article_skeleton = ?, image_prompts = ?, generated_images = ?,
		   final_article = ?
		 WHERE id = ?`,
		p.UpdatedAt.Format(time.RFC3339Nano), p.Status, p.SessionID, p.ResearchID,
		p.Storyline, p.ArticleMarkdown, p.ImageText,
		p.ArticleSkeleton, string(prompts), string(images),
		p.FinalArticle, id)
	if err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return p, nil
}

// Delete removes a project by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*Project, error) {
	var p Project
	var createdAt, updatedAt string
	var sessionID, researchID, storyline, articleMD, imageText sql.NullString
	var skeleton, prompts, images, finalArticle sql.NullString

	err := row.Scan(&p.ID, &p.CompanyName, &createdAt, &updatedAt, &p.Status,
		&sessionID, &researchID, &storyline, &articleMD, &imageText,
		&skeleton, &prompts, &images, &finalArticle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	p.SessionID = sessionID.String
	p.ResearchID = researchID.String
	p.Storyline = storyline.String
	p.ArticleMarkdown = articleMD.String
	p.ImageText = imageText.String
	p.ArticleSkeleton = skeleton.String
	p.FinalArticle = finalArticle.String

	if prompts.Valid && prompts.String != "" {
		if err := json.Unmarshal([]byte(prompts.String), &p.ImagePrompts); err != nil {
			return nil, fmt.Errorf("parsing image prompts: %w", err)
		}
	}
	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &p.GeneratedImages); err != nil {
			return nil, fmt.Errorf("parsing generated images: %w", err)
		}
	}

	return &p, nil
}
