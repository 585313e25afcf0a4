package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/repositories"
)

type AdminUserService interface {
	ListUsers(ctx context.Context, actor models.Identity, filter models.UserFilter) (models.UserListResponse, error)
}

type adminUserService struct {
	userRepo repositories.UserRepository
}

func NewAdminUserService(userRepo repositories.UserRepository) AdminUserService {
	return &adminUserService{userRepo: userRepo}
}

func (s *adminUserService) ListUsers(ctx context.Context, actor models.Identity, filter models.UserFilter) (models.UserListResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return models.UserListResponse{}, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return models.UserListResponse{}, ErrInvalidRole
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return models.UserListResponse{}, fmt.Errorf("failed to list users: %w", err)
	}
	stripCredentials(users)

	return models.UserListResponse{
		Users:      users,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}
