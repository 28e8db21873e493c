package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound returned when archived newsletter doesn't exist
var ErrNotFound = errors.New("not found")

// ArchivedNewsletter is a stored rendered newsletter, HTML empty in listings
type ArchivedNewsletter struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	HTML      string    `db:"html" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ArchiveRepository keeps rendered newsletters which were not delivered
type ArchiveRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db, now: time.Now}
}

// Save stores html and returns its location as sqlite:newsletters/<id>
func (r *ArchiveRepository) Save(ctx context.Context, html, title string) (string, error) {
	var id int64
	err := withLockRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, "INSERT INTO newsletters (title, html, created_at) VALUES (?, ?, ?)",
			title, html, r.now().UTC())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("archive newsletter: %w", err)
	}
	return fmt.Sprintf("sqlite:newsletters/%d", id), nil
}

// GetNewsletter returns archived newsletter with html
func (r *ArchiveRepository) GetNewsletter(ctx context.Context, id int64) (*ArchivedNewsletter, error) {
	var n ArchivedNewsletter
	err := r.db.GetContext(ctx, &n, "SELECT id, title, html, created_at FROM newsletters WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("newsletter %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get newsletter %d: %w", id, err)
	}
	return &n, nil
}

// ListNewsletters returns archived newsletters without html, newest first
func (r *ArchiveRepository) ListNewsletters(ctx context.Context, limit int) ([]ArchivedNewsletter, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	var res []ArchivedNewsletter
	err := r.db.SelectContext(ctx, &res,
		"SELECT id, title, '' AS html, created_at FROM newsletters ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list newsletters: %w", err)
	}
	return res, nil
}
