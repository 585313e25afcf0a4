package handlers

import (
	"context"

	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/services"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuthService) InviteUser(ctx context.Context, actor models.Identity, input services.InviteUserInput) (*models.User, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, input services.ForgotPasswordInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, input services.ResetPasswordInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Profile(ctx context.Context, actor models.Identity) (*models.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) CreateTeam(ctx context.Context, actor models.Identity, input services.CreateTeamInput) (*models.Team, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) GetTeam(ctx context.Context, actor models.Identity, id int) (*models.Team, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) ListTeams(ctx context.Context, actor models.Identity) ([]models.Team, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamService) ListUnassigned(ctx context.Context, actor models.Identity) ([]models.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockTeamService) RenameTeam(ctx context.Context, actor models.Identity, id int, input services.CreateTeamInput) (*models.Team, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) Assign(ctx context.Context, actor models.Identity, teamID int, userIDs []int) (*models.AssignResult, error) {
	args := m.Called(ctx, actor, teamID, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssignResult), args.Error(1)
}

func (m *MockTeamService) Remove(ctx context.Context, actor models.Identity, userIDs []int) (int64, error) {
	args := m.Called(ctx, actor, userIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTeamService) DeleteTeam(ctx context.Context, actor models.Identity, id int) (int64, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(int64), args.Error(1)
}

type MockAdminUserService struct {
	mock.Mock
}

func (m *MockAdminUserService) ListUsers(ctx context.Context, actor models.Identity, filter models.UserFilter) (models.UserListResponse, error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(models.UserListResponse), args.Error(1)
}
