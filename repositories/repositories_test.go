package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/gamejam/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestUserRepository_CreateMapsConstraints(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"email taken", &pq.Error{Code: pqUniqueViolation, Constraint: "users_email_key"}, ErrUserEmailConflict},
		{"missing team", &pq.Error{Code: pqForeignKeyViolation, Constraint: "users_team_id_fkey"}, ErrUserTeamInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(`^INSERT INTO users`).WillReturnError(tc.err)

			err := NewPostgresUserRepository(db).Create(ctx, nil, &models.User{Email: "a@jam.dev", Role: models.RoleParticipant})
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("other errors are wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`^INSERT INTO users`).WillReturnError(errors.New("db down"))

		err := NewPostgresUserRepository(db).Create(ctx, nil, &models.User{Email: "a@jam.dev"})
		assert.ErrorContains(t, err, "failed to create user: db down")
	})
}

func TestUserRepository_AssignToTeam(t *testing.T) {
	ctx := context.Background()
	query := `UPDATE users SET team_id = \$1 WHERE id = ANY\(\$2\) AND team_id IS NULL AND role = \$3 RETURNING id$`

	t.Run("returns updated ids", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).
			WithArgs(3, pq.Array([]int64{1, 2, 5}), "participant").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5).AddRow(1))

		ids, err := NewPostgresUserRepository(db).AssignToTeam(ctx, nil, 3, []int{1, 2, 5})
		require.NoError(t, err)
		assert.Equal(t, []int{5, 1}, ids)
	})

	t.Run("team vanished", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "users_team_id_fkey"})

		_, err := NewPostgresUserRepository(db).AssignToTeam(ctx, nil, 3, []int{1})
		assert.ErrorIs(t, err, ErrUserTeamInvalid)
	})

	t.Run("runs on the given transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		tx, err := db.Begin()
		require.NoError(t, err)
		ids, err := NewPostgresUserRepository(db).AssignToTeam(ctx, tx, 3, []int{1})
		require.NoError(t, err)
		assert.Empty(t, ids)
		require.NoError(t, tx.Rollback())
	})
}

func TestUserRepository_ListBuildsFilter(t *testing.T) {
	db, mock := newMockDB(t)
	role := models.RoleMentor

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM users WHERE role = \$1 AND \(email ILIKE \$2 OR name ILIKE \$2\)$`).
		WithArgs("mentor", "%ada%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(`FROM users WHERE role = \$1 AND \(email ILIKE \$2 OR name ILIKE \$2\) ORDER BY id ASC LIMIT \$3 OFFSET \$4$`).
		WithArgs("mentor", "%ada%", 20, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "can_login", "team_id", "role", "profile_role", "created_at"}).
			AddRow(21, "ada@jam.dev", nil, nil, false, nil, "mentor", "audio", time.Now()))

	users, total, err := NewPostgresUserRepository(db).List(context.Background(), models.UserFilter{Role: &role, Search: " ada ", Page: 2, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, users, 1)
	assert.Nil(t, users[0].Name)
	require.NotNil(t, users[0].ProfileRole)
	assert.Equal(t, models.ProfileAudio, *users[0].ProfileRole)
}

func TestUserRepository_SetCredentials(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE users SET password_hash = \$1, can_login = TRUE WHERE id = \$2`).
		WithArgs("hash", 9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewPostgresUserRepository(db).SetCredentials(context.Background(), nil, 9, "hash")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetTokenRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("missing hash", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FOR UPDATE OF t$`).WithArgs("deadbeef").WillReturnRows(sqlmock.NewRows(nil))

		_, err := NewPostgresResetTokenRepository(db).GetByHashForUpdate(ctx, nil, "deadbeef")
		assert.ErrorIs(t, err, ErrResetTokenNotFound)
	})

	t.Run("loads token with owner", func(t *testing.T) {
		db, mock := newMockDB(t)
		exp := time.Now().Add(time.Hour)
		mock.ExpectQuery(`WHERE t.token_hash = \$1 FOR UPDATE OF t$`).WithArgs("deadbeef").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "token_hash", "expires_at", "used_at", "created_at",
				"uid", "email", "name", "password_hash", "can_login", "team_id", "role", "profile_role", "ucreated",
			}).AddRow(4, 7, "deadbeef", exp, nil, time.Now(), 7, "a@jam.dev", "Ada", nil, false, 2, "participant", nil, time.Now()))

		tok, err := NewPostgresResetTokenRepository(db).GetByHashForUpdate(ctx, nil, "deadbeef")
		require.NoError(t, err)
		assert.Equal(t, 4, tok.ID)
		assert.Nil(t, tok.UsedAt)
		require.NotNil(t, tok.User)
		assert.Equal(t, "a@jam.dev", tok.User.Email)
		require.NotNil(t, tok.User.TeamID)
		assert.Equal(t, 2, *tok.User.TeamID)
		assert.True(t, tok.Redeemable(time.Now()))
	})

	t.Run("mark used only once", func(t *testing.T) {
		db, mock := newMockDB(t)
		at := time.Now()
		mock.ExpectExec(`UPDATE password_reset_tokens SET used_at = \$1 WHERE id = \$2 AND used_at IS NULL`).
			WithArgs(at, 4).WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgresResetTokenRepository(db).MarkUsed(ctx, nil, 4, at)
		assert.ErrorIs(t, err, ErrResetTokenNotFound)
	})

	t.Run("hash collision", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`INSERT INTO password_reset_tokens`).
			WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "password_reset_tokens_token_hash_key"})

		err := NewPostgresResetTokenRepository(db).Create(ctx, nil, &models.PasswordResetToken{UserID: 1, TokenHash: "x", ExpiresAt: time.Now()})
		assert.ErrorIs(t, err, ErrResetTokenConflict)
	})

	t.Run("sweep keeps the current token", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM password_reset_tokens WHERE user_id = \$1 AND used_at IS NOT NULL AND id <> \$2`).
			WithArgs(7, 4).WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := NewPostgresResetTokenRepository(db).DeleteUsedByUserID(ctx, nil, 7, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("delete expired", func(t *testing.T) {
		db, mock := newMockDB(t)
		cutoff := time.Now()
		mock.ExpectExec(`^DELETE FROM password_reset_tokens WHERE expires_at < \$1$`).
			WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 5))

		n, err := NewPostgresResetTokenRepository(db).DeleteExpired(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})
}

func TestTeamRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("lock missing team", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT id FROM teams WHERE id = \$1 FOR UPDATE`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := NewPostgresTeamRepository(db).LockByID(ctx, nil, 3)
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})

	t.Run("delete blocked by submissions", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM teams WHERE id = \$1`).WithArgs(3).
			WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "submissions_team_id_fkey"})

		err := NewPostgresTeamRepository(db).Delete(ctx, nil, 3)
		assert.ErrorIs(t, err, ErrTeamInUse)
	})

	t.Run("rename conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE teams SET name = \$1 WHERE id = \$2`).WithArgs("Taken", 3).
			WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "teams_name_key"})

		err := NewPostgresTeamRepository(db).UpdateName(ctx, 3, "Taken")
		assert.ErrorIs(t, err, ErrTeamNameConflict)
	})
}

func TestStatsRepository_CountFullTeams(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`HAVING COUNT\(\*\) >= \$1`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := NewPostgresStatsRepository(db).CountFullTeams(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMessageRepository_InboxNewestConversationFirst(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	cols := []string{"counterpart", "counterpart_name", "id", "sender_id", "recipient_id", "body", "read_at", "created_at", "unread"}

	mock.ExpectQuery(`\) latest ORDER BY created_at DESC, id DESC$`).WithArgs(10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(30, "Mentor", 9, 30, 10, "ping", nil, now, 2).
			AddRow(5, "admin@jam.dev", 4, 10, 5, "hi", now.Add(-time.Minute), now.Add(-time.Hour), 0))

	inbox, err := NewPostgresMessageRepository(db).Inbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, 30, inbox[0].CounterpartID)
	assert.Equal(t, 2, inbox[0].UnreadCount)
	assert.Nil(t, inbox[0].LastMessage.ReadAt)
	assert.Equal(t, 5, inbox[1].CounterpartID)
	require.NotNil(t, inbox[1].LastMessage.ReadAt)
}
