package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/gamejam/models"
)

var (
	ErrResetTokenNotFound = errors.New("password reset token not found")
	ErrResetTokenConflict = errors.New("password reset token hash conflict")
)

// ResetTokenRepository stores hashed password reset tokens. Raw secrets never
// reach this layer.
type ResetTokenRepository interface {
	Create(ctx context.Context, exec SQLExecutor, token *models.PasswordResetToken) error
	DeleteByUserID(ctx context.Context, exec SQLExecutor, userID int) (int64, error)
	// GetByHashForUpdate loads the token with its owner and locks the token
	// row until the transaction ends.
	GetByHashForUpdate(ctx context.Context, exec SQLExecutor, tokenHash string) (*models.PasswordResetToken, error)
	// MarkUsed stamps used_at only if it is still null.
	MarkUsed(ctx context.Context, exec SQLExecutor, id int, usedAt time.Time) error
	DeleteUsedByUserID(ctx context.Context, exec SQLExecutor, userID int, exceptID int) (int64, error)
	// DeleteExpired removes tokens that expired before the cutoff, used or not.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type postgresResetTokenRepository struct {
	db *sql.DB
}

func NewPostgresResetTokenRepository(db *sql.DB) ResetTokenRepository {
	return &postgresResetTokenRepository{db: db}
}

func (r *postgresResetTokenRepository) Create(ctx context.Context, exec SQLExecutor, token *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor(exec, r.db).QueryRowContext(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		if c, ok := pqConstraint(err, pqUniqueViolation); ok && c == "password_reset_tokens_token_hash_key" {
			return ErrResetTokenConflict
		}
		if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create password reset token: %w", err)
	}
	return nil
}

func (r *postgresResetTokenRepository) DeleteByUserID(ctx context.Context, exec SQLExecutor, userID int) (int64, error) {
	result, err := executor(exec, r.db).ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete password reset tokens: %w", err)
	}
	return affectedRows(result)
}

func (r *postgresResetTokenRepository) GetByHashForUpdate(ctx context.Context, exec SQLExecutor, tokenHash string) (*models.PasswordResetToken, error) {
	query := `
		SELECT t.id, t.user_id, t.token_hash, t.expires_at, t.used_at, t.created_at,
			u.id, u.email, u.name, u.password_hash, u.can_login, u.team_id, u.role, u.profile_role, u.created_at
		FROM password_reset_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1
		FOR UPDATE OF t`

	row := executor(exec, r.db).QueryRowContext(ctx, query, tokenHash)

	var token models.PasswordResetToken
	var usedAt sql.NullTime
	var user models.User
	var name, passwordHash, profileRole sql.NullString
	var teamID sql.NullInt64

	err := row.Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &usedAt, &token.CreatedAt,
		&user.ID, &user.Email, &name, &passwordHash, &user.CanLogin, &teamID, &user.Role, &profileRole, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to scan password reset token: %w", err)
	}

	if usedAt.Valid {
		token.UsedAt = &usedAt.Time
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
	token.User = &user

	return &token, nil
}

func (r *postgresResetTokenRepository) MarkUsed(ctx context.Context, exec SQLExecutor, id int, usedAt time.Time) error {
	query := `UPDATE password_reset_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`
	result, err := executor(exec, r.db).ExecContext(ctx, query, usedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark password reset token used: %w", err)
	}
	return checkAffectedRows(result, ErrResetTokenNotFound)
}

func (r *postgresResetTokenRepository) DeleteUsedByUserID(ctx context.Context, exec SQLExecutor, userID int, exceptID int) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE user_id = $1 AND used_at IS NOT NULL AND id <> $2`
	result, err := executor(exec, r.db).ExecContext(ctx, query, userID, exceptID)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep used password reset tokens: %w", err)
	}
	return affectedRows(result)
}

func (r *postgresResetTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password reset tokens: %w", err)
	}
	return affectedRows(result)
}
