package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// StatsRepository answers the single-number questions behind the admin
// dashboard. Each method is one query so callers can run them concurrently.
type StatsRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountParticipants(ctx context.Context) (int, error)
	CountActivatedUsers(ctx context.Context) (int, error)
	CountTeams(ctx context.Context) (int, error)
	CountFullTeams(ctx context.Context, capacity int) (int, error)
	CountSubmissions(ctx context.Context) (int, error)
	CountUnreadMessages(ctx context.Context) (int, error)
}

type postgresStatsRepository struct {
	db *sql.DB
}

func NewPostgresStatsRepository(db *sql.DB) StatsRepository {
	return &postgresStatsRepository{db: db}
}

func (r *postgresStatsRepository) count(ctx context.Context, what, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return n, nil
}

func (r *postgresStatsRepository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, "users", `SELECT COUNT(*) FROM users`)
}

func (r *postgresStatsRepository) CountParticipants(ctx context.Context) (int, error) {
	return r.count(ctx, "participants", `SELECT COUNT(*) FROM users WHERE role = 'participant'`)
}

func (r *postgresStatsRepository) CountActivatedUsers(ctx context.Context) (int, error) {
	return r.count(ctx, "activated users", `SELECT COUNT(*) FROM users WHERE can_login`)
}

func (r *postgresStatsRepository) CountTeams(ctx context.Context) (int, error) {
	return r.count(ctx, "teams", `SELECT COUNT(*) FROM teams`)
}

func (r *postgresStatsRepository) CountFullTeams(ctx context.Context, capacity int) (int, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT team_id FROM users WHERE team_id IS NOT NULL
			GROUP BY team_id HAVING COUNT(*) >= $1
		) full_teams`
	return r.count(ctx, "full teams", query, capacity)
}

func (r *postgresStatsRepository) CountSubmissions(ctx context.Context) (int, error) {
	return r.count(ctx, "submissions", `SELECT COUNT(*) FROM submissions`)
}

func (r *postgresStatsRepository) CountUnreadMessages(ctx context.Context) (int, error) {
	return r.count(ctx, "unread messages", `SELECT COUNT(*) FROM messages WHERE read_at IS NULL`)
}
