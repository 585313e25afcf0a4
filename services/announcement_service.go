package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/repositories"
)

type AnnouncementService interface {
	ListPublished(ctx context.Context) ([]models.Announcement, error)
	ListAll(ctx context.Context, actor models.Identity) ([]models.Announcement, error)
	Create(ctx context.Context, actor models.Identity, input AnnouncementInput) (*models.Announcement, error)
	Update(ctx context.Context, actor models.Identity, id int, input AnnouncementInput) (*models.Announcement, error)
	Delete(ctx context.Context, actor models.Identity, id int) error
}

type AnnouncementInput struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

func (in *AnnouncementInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if in.Title == "" || in.Body == "" {
		return fmt.Errorf("%w: title and body are required", ErrValidationFailed)
	}
	if len(in.Title) > 200 {
		return fmt.Errorf("%w: title must be at most 200 characters", ErrValidationFailed)
	}
	return nil
}

type announcementService struct {
	repo   repositories.AnnouncementRepository
	logger *slog.Logger
}

func NewAnnouncementService(repo repositories.AnnouncementRepository, logger *slog.Logger) AnnouncementService {
	return &announcementService{repo: repo, logger: loggerOrDefault(logger)}
}

func (s *announcementService) ListPublished(ctx context.Context) ([]models.Announcement, error) {
	list, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return list, nil
}

func (s *announcementService) ListAll(ctx context.Context, actor models.Identity) ([]models.Announcement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return list, nil
}

func (s *announcementService) Create(ctx context.Context, actor models.Identity, input AnnouncementInput) (*models.Announcement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	a := &models.Announcement{
		Title:     input.Title,
		Body:      input.Body,
		Published: input.Published,
		AuthorID:  actor.UserID,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "announcement created", slog.Int("announcement_id", a.ID), slog.Bool("published", a.Published))
	return a, nil
}

func (s *announcementService) Update(ctx context.Context, actor models.Identity, id int, input AnnouncementInput) (*models.Announcement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapAnnouncementError(err)
	}
	a.Title, a.Body, a.Published = input.Title, input.Body, input.Published
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, mapAnnouncementError(err)
	}
	return a, nil
}

func (s *announcementService) Delete(ctx context.Context, actor models.Identity, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapAnnouncementError(err)
	}
	s.logger.InfoContext(ctx, "announcement deleted", slog.Int("announcement_id", id))
	return nil
}

func mapAnnouncementError(err error) error {
	if errors.Is(err, repositories.ErrAnnouncementNotFound) {
		return ErrAnnouncementNotFound
	}
	return err
}
