package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/gamejam/models"
)

var (
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrSubmissionTeamInvalid = errors.New("submission team conflict or invalid")
)

type SubmissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
	GetByID(ctx context.Context, id int) (*models.Submission, error)
	List(ctx context.Context, teamID *int) ([]models.Submission, error)
	Delete(ctx context.Context, id int) error
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

const submissionSelect = `
	SELECT s.id, s.team_id, s.title, s.description, s.link, s.artifact_key, s.created_by, s.created_at, t.name
	FROM submissions s
	JOIN teams t ON t.id = s.team_id`

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var s models.Submission
	var link, artifactKey sql.NullString
	if err := row.Scan(&s.ID, &s.TeamID, &s.Title, &s.Description, &link, &artifactKey, &s.CreatedBy, &s.CreatedAt, &s.TeamName); err != nil {
		return nil, err
	}
	if link.Valid {
		s.Link = &link.String
	}
	if artifactKey.Valid {
		s.ArtifactKey = &artifactKey.String
	}
	return &s, nil
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (team_id, title, description, link, artifact_key, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, s.TeamID, s.Title, s.Description, s.Link, s.ArtifactKey, s.CreatedBy).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if c, ok := pqConstraint(err, pqForeignKeyViolation); ok && c == "submissions_team_id_fkey" {
			return ErrSubmissionTeamInvalid
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *postgresSubmissionRepository) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	s, err := scanSubmission(r.db.QueryRowContext(ctx, submissionSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}
	return s, nil
}

func (r *postgresSubmissionRepository) List(ctx context.Context, teamID *int) ([]models.Submission, error) {
	var rows *sql.Rows
	var err error
	if teamID != nil {
		rows, err = r.db.QueryContext(ctx, submissionSelect+` WHERE s.team_id = $1 ORDER BY s.created_at DESC`, *teamID)
	} else {
		rows, err = r.db.QueryContext(ctx, submissionSelect+` ORDER BY s.created_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]models.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *postgresSubmissionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}
