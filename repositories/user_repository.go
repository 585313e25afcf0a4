package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/gamejam/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
	ErrUserTeamInvalid   = errors.New("user team conflict or invalid")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListByTeamID(ctx context.Context, teamID int) ([]models.User, error)
	ListUnassignedParticipants(ctx context.Context) ([]models.User, error)

	// CountByTeamID returns how many users currently reference the team.
	CountByTeamID(ctx context.Context, exec SQLExecutor, teamID int) (int, error)
	// AssignToTeam sets team_id for the listed users that have no team and
	// hold the participant role. It returns the ids actually updated.
	AssignToTeam(ctx context.Context, exec SQLExecutor, teamID int, userIDs []int) ([]int, error)
	// ClearTeam nulls team_id for the listed users that have one.
	ClearTeam(ctx context.Context, exec SQLExecutor, userIDs []int) (int64, error)
	// UnlinkTeam nulls team_id for every member of the team.
	UnlinkTeam(ctx context.Context, exec SQLExecutor, teamID int) (int64, error)
	// SetCredentials stores a new password hash and enables login.
	SetCredentials(ctx context.Context, exec SQLExecutor, userID int, passwordHash string) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, can_login, team_id, role, profile_role, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var name, passwordHash, profileRole sql.NullString
	var teamID sql.NullInt64
	err := row.Scan(
		&user.ID,
		&user.Email,
		&name,
		&passwordHash,
		&user.CanLogin,
		&teamID,
		&user.Role,
		&profileRole,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		user.Name = &name.String
	}
	if passwordHash.Valid {
		user.PasswordHash = &passwordHash.String
	}
	if teamID.Valid {
		id := int(teamID.Int64)
		user.TeamID = &id
	}
	if profileRole.Valid {
		pr := models.ProfileRole(profileRole.String)
		user.ProfileRole = &pr
	}
	return &user, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, can_login, team_id, role, profile_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor(exec, r.db).QueryRowContext(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.CanLogin,
		user.TeamID,
		user.Role,
		user.ProfileRole,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if c, ok := pqConstraint(err, pqUniqueViolation); ok && c == "users_email_key" {
			return ErrUserEmailConflict
		}
		if c, ok := pqConstraint(err, pqForeignKeyViolation); ok && c == "users_team_id_fkey" {
			return ErrUserTeamInvalid
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *postgresUserRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var where []string
	var args []interface{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		where = append(where, fmt.Sprintf("team_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit, page := filter.Limit, filter.Page
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY id ASC LIMIT $%d OFFSET $%d`,
		userColumns, whereSQL, len(args)-1, len(args))

	users, err := r.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *postgresUserRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 ORDER BY id ASC`
	return r.queryUsers(ctx, query, teamID)
}

func (r *postgresUserRepository) ListUnassignedParticipants(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE team_id IS NULL AND role = $1 ORDER BY id ASC`
	return r.queryUsers(ctx, query, models.RoleParticipant)
}

func (r *postgresUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) CountByTeamID(ctx context.Context, exec SQLExecutor, teamID int) (int, error) {
	var count int
	err := executor(exec, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE team_id = $1`, teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count team members: %w", err)
	}
	return count, nil
}

func (r *postgresUserRepository) AssignToTeam(ctx context.Context, exec SQLExecutor, teamID int, userIDs []int) ([]int, error) {
	query := `
		UPDATE users SET team_id = $1
		WHERE id = ANY($2) AND team_id IS NULL AND role = $3
		RETURNING id`

	rows, err := executor(exec, r.db).QueryContext(ctx, query, teamID, pq.Array(int64s(userIDs)), models.RoleParticipant)
	if err != nil {
		if c, ok := pqConstraint(err, pqForeignKeyViolation); ok && c == "users_team_id_fkey" {
			return nil, ErrUserTeamInvalid
		}
		return nil, fmt.Errorf("failed to assign users to team: %w", err)
	}
	defer rows.Close()

	updated := make([]int, 0, len(userIDs))
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan assigned user id: %w", err)
		}
		updated = append(updated, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *postgresUserRepository) ClearTeam(ctx context.Context, exec SQLExecutor, userIDs []int) (int64, error) {
	query := `UPDATE users SET team_id = NULL WHERE id = ANY($1) AND team_id IS NOT NULL`
	result, err := executor(exec, r.db).ExecContext(ctx, query, pq.Array(int64s(userIDs)))
	if err != nil {
		return 0, fmt.Errorf("failed to remove users from teams: %w", err)
	}
	return affectedRows(result)
}

func (r *postgresUserRepository) UnlinkTeam(ctx context.Context, exec SQLExecutor, teamID int) (int64, error) {
	result, err := executor(exec, r.db).ExecContext(ctx, `UPDATE users SET team_id = NULL WHERE team_id = $1`, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to unlink team members: %w", err)
	}
	return affectedRows(result)
}

func (r *postgresUserRepository) SetCredentials(ctx context.Context, exec SQLExecutor, userID int, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, can_login = TRUE WHERE id = $2`
	result, err := executor(exec, r.db).ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
