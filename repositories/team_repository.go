package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/gamejam/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name conflict")
	ErrTeamInUse        = errors.New("team is referenced by submissions")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	UpdateName(ctx context.Context, id int, name string) error
	// LockByID takes a row lock on the team for the rest of the transaction.
	LockByID(ctx context.Context, exec SQLExecutor, id int) error
	CountSubmissions(ctx context.Context, exec SQLExecutor, id int) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamSelect = `
	SELECT t.id, t.name, t.created_at,
		(SELECT COUNT(*) FROM users u WHERE u.team_id = t.id) AS member_count,
		(SELECT COUNT(*) FROM submissions s WHERE s.team_id = t.id) AS submission_count
	FROM teams t`

func scanTeam(row rowScanner) (*models.Team, error) {
	var team models.Team
	if err := row.Scan(&team.ID, &team.Name, &team.CreatedAt, &team.MemberCount, &team.SubmissionCount); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `INSERT INTO teams (name) VALUES ($1) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, team.Name).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if c, ok := pqConstraint(err, pqUniqueViolation); ok && c == "teams_name_key" {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := scanTeam(r.db.QueryRowContext(ctx, teamSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, teamSelect+` ORDER BY t.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) UpdateName(ctx context.Context, id int, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		if c, ok := pqConstraint(err, pqUniqueViolation); ok && c == "teams_name_key" {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to rename team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) LockByID(ctx context.Context, exec SQLExecutor, id int) error {
	var lockedID int
	err := executor(exec, r.db).QueryRowContext(ctx, `SELECT id FROM teams WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to lock team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) CountSubmissions(ctx context.Context, exec SQLExecutor, id int) (int, error) {
	var count int
	err := executor(exec, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE team_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count team submissions: %w", err)
	}
	return count, nil
}

func (r *postgresTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := executor(exec, r.db).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
			return ErrTeamInUse
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
