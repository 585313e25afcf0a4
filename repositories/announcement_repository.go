package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/gamejam/models"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

type AnnouncementRepository interface {
	Create(ctx context.Context, a *models.Announcement) error
	GetByID(ctx context.Context, id int) (*models.Announcement, error)
	List(ctx context.Context, publishedOnly bool) ([]models.Announcement, error)
	Update(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id int) error
}

type postgresAnnouncementRepository struct {
	db *sql.DB
}

func NewPostgresAnnouncementRepository(db *sql.DB) AnnouncementRepository {
	return &postgresAnnouncementRepository{db: db}
}

const announcementColumns = `id, title, body, published, author_id, created_at, updated_at`

func scanAnnouncement(row rowScanner) (*models.Announcement, error) {
	var a models.Announcement
	var updatedAt sql.NullTime
	if err := row.Scan(&a.ID, &a.Title, &a.Body, &a.Published, &a.AuthorID, &a.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}
	return &a, nil
}

func (r *postgresAnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	query := `
		INSERT INTO announcements (title, body, published, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, a.Title, a.Body, a.Published, a.AuthorID).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (r *postgresAnnouncementRepository) GetByID(ctx context.Context, id int) (*models.Announcement, error) {
	a, err := scanAnnouncement(r.db.QueryRowContext(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("failed to scan announcement: %w", err)
	}
	return a, nil
}

func (r *postgresAnnouncementRepository) List(ctx context.Context, publishedOnly bool) ([]models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements`
	if publishedOnly {
		query += ` WHERE published`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	list := make([]models.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		list = append(list, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *postgresAnnouncementRepository) Update(ctx context.Context, a *models.Announcement) error {
	query := `
		UPDATE announcements SET title = $1, body = $2, published = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`
	var updatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, a.Title, a.Body, a.Published, a.ID).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAnnouncementNotFound
		}
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}
	return nil
}

func (r *postgresAnnouncementRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	return checkAffectedRows(result, ErrAnnouncementNotFound)
}
