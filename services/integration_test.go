//go:build integration

package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/gamejam/config"
	"github.com/Dosada05/gamejam/db"
	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *sql.DB {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("jam_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	opts := db.DefaultPoolOptions()
	opts.PingTimeout = 10 * time.Second
	conn, err := db.Connect(ctx, dsn, opts)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, conn))

	t.Cleanup(func() {
		conn.Close()
		require.NoError(t, container.Terminate(ctx))
	})
	return conn
}

func seedParticipants(t *testing.T, repo repositories.UserRepository, n int) []int {
	t.Helper()
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		u := &models.User{Email: fmt.Sprintf("p%d@jam.dev", i), Role: models.RoleParticipant}
		require.NoError(t, repo.Create(context.Background(), nil, u))
		ids = append(ids, u.ID)
	}
	return ids
}

func TestIntegration_ConcurrentAssignNeverExceedsCapacity(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	userRepo := repositories.NewPostgresUserRepository(conn)
	teamRepo := repositories.NewPostgresTeamRepository(conn)
	svc := NewTeamService(conn, teamRepo, userRepo, nil)

	team, err := svc.CreateTeam(ctx, admin, CreateTeamInput{Name: "Race"})
	require.NoError(t, err)
	ids := seedParticipants(t, userRepo, 12)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned []int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			res, err := svc.Assign(ctx, admin, team.ID, []int{id})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			assigned = append(assigned, res.Assigned...)
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	assert.Len(t, assigned, models.MaxTeamMembers)
	count, err := userRepo.CountByTeamID(ctx, nil, team.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaxTeamMembers, count)

	res, err := svc.Assign(ctx, admin, team.ID, ids)
	require.NoError(t, err)
	assert.Empty(t, res.Assigned)
	assert.Equal(t, ids, res.Skipped)
}

func TestIntegration_DeleteTeamWithSubmissionsIsRefused(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	userRepo := repositories.NewPostgresUserRepository(conn)
	teamRepo := repositories.NewPostgresTeamRepository(conn)
	subRepo := repositories.NewPostgresSubmissionRepository(conn)
	svc := NewTeamService(conn, teamRepo, userRepo, nil)

	team, err := svc.CreateTeam(ctx, admin, CreateTeamInput{Name: "Shipped"})
	require.NoError(t, err)
	ids := seedParticipants(t, userRepo, 2)
	_, err = svc.Assign(ctx, admin, team.ID, ids)
	require.NoError(t, err)

	link := "https://itch.io/shipped"
	require.NoError(t, subRepo.Create(ctx, &models.Submission{TeamID: team.ID, Title: "Shipped", Link: &link, CreatedBy: ids[0]}))

	_, err = svc.DeleteTeam(ctx, admin, team.ID)
	require.ErrorIs(t, err, ErrTeamHasSubmissions)

	count, err := userRepo.CountByTeamID(ctx, nil, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "members stay linked")
}

func TestIntegration_ResetTokenIsSingleUse(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	userRepo := repositories.NewPostgresUserRepository(conn)
	ids := seedParticipants(t, userRepo, 1)
	email := "p0@jam.dev"

	links := make(chan string, 2)
	notifier := new(MockNotifier)
	notifier.On("SendPasswordReset", mock.Anything, email, mock.Anything).
		Run(func(args mock.Arguments) { links <- args.String(2) }).
		Return(nil)

	cfg := &config.Config{PublicURL: "http://localhost:8080", ResetTokenTTL: time.Hour}
	sessions := NewSessionManager("integration", time.Hour, false)
	svc := NewAuthService(conn, userRepo, repositories.NewPostgresResetTokenRepository(conn), sessions, notifier, cfg, nil)

	require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordInput{Email: email}))
	first := <-links
	require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordInput{Email: email}))
	second := <-links

	token := func(link string) string {
		u, err := url.Parse(link)
		require.NoError(t, err)
		return u.Query().Get("token")
	}

	firstToken, secondToken := token(first), token(second)

	_, err := svc.ResetPassword(ctx, ResetPasswordInput{Token: firstToken, Password: "hunter22"})
	require.ErrorIs(t, err, ErrResetTokenInvalid, "superseded by the second request")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ResetPassword(ctx, ResetPasswordInput{Token: secondToken, Password: "hunter22"})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrResetTokenInvalid)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)

	user, err := userRepo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, user.CanLogin)

	res, err := svc.Login(ctx, LoginInput{Email: email, Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, ids[0], res.User.ID)
}
