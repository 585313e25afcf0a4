package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/gamejam/handlers"
	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubSessions struct{}

func (stubSessions) Parse(string) (models.Identity, error) {
	return models.Identity{UserID: 10, Email: "ada@jam.dev", Role: models.RoleParticipant}, nil
}

type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Create(ctx context.Context, actor models.Identity, teamID int, input services.CreateSubmissionInput, artifact *services.Artifact) (*models.Submission, error) {
	args := m.Called(ctx, actor, teamID, input, artifact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionService) List(ctx context.Context, actor models.Identity, teamID *int) ([]models.Submission, error) {
	args := m.Called(ctx, actor, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Submission), args.Error(1)
}

func (m *MockSubmissionService) Delete(ctx context.Context, actor models.Identity, id int) error {
	return m.Called(ctx, actor, id).Error(0)
}

// remaining reports how much time the handler's context had left.
func remaining(dst *time.Duration) func(mock.Arguments) {
	return func(args mock.Arguments) {
		deadline, ok := args.Get(0).(context.Context).Deadline()
		if ok {
			*dst = time.Until(deadline)
		}
	}
}

func newRouter(svc services.SubmissionService) http.Handler {
	router := chi.NewRouter()
	SetupRoutes(router, stubSessions{}, []string{"http://localhost:8080"}, Handlers{
		Submission: handlers.NewSubmissionHandler(svc),
	})
	return router
}

func TestSetupRoutes_UploadsGetLongerDeadline(t *testing.T) {
	svc := new(MockSubmissionService)

	var uploadLeft, listLeft time.Duration
	svc.On("Create", mock.Anything, mock.Anything, 7, mock.Anything, (*services.Artifact)(nil)).
		Run(remaining(&uploadLeft)).
		Return(&models.Submission{ID: 1, TeamID: 7, Title: "Game"}, nil).Once()
	svc.On("List", mock.Anything, mock.Anything, (*int)(nil)).
		Run(remaining(&listLeft)).
		Return([]models.Submission{}, nil).Once()

	router := newRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/teams/7/submissions", strings.NewReader(`{"title":"Game","link":"https://itch.io/game"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer anything")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/submissions", nil)
	req.Header.Set("Authorization", "Bearer anything")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Greater(t, uploadLeft, RequestTimeout)
	assert.LessOrEqual(t, uploadLeft, UploadTimeout)
	assert.Greater(t, listLeft, time.Duration(0))
	assert.LessOrEqual(t, listLeft, RequestTimeout)
	svc.AssertExpectations(t)
}

func TestSetupRoutes_UploadRequiresSession(t *testing.T) {
	router := chi.NewRouter()
	SetupRoutes(router, rejectSessions{}, nil, Handlers{Submission: handlers.NewSubmissionHandler(new(MockSubmissionService))})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/teams/7/submissions", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type rejectSessions struct{}

func (rejectSessions) Parse(string) (models.Identity, error) {
	return models.Identity{}, services.ErrInvalidCredentials
}
