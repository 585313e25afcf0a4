package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/repositories"
	"github.com/Dosada05/gamejam/storage"
)

const MaxArtifactSize = 200 << 20

type SubmissionService interface {
	Create(ctx context.Context, actor models.Identity, teamID int, input CreateSubmissionInput, artifact *Artifact) (*models.Submission, error)
	List(ctx context.Context, actor models.Identity, teamID *int) ([]models.Submission, error)
	Delete(ctx context.Context, actor models.Identity, id int) error
}

type CreateSubmissionInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Link        *string `json:"link"`
}

func (in *CreateSubmissionInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if len(in.Title) > 200 {
		return fmt.Errorf("%w: title must be at most 200 characters", ErrValidationFailed)
	}
	if in.Link != nil {
		link := strings.TrimSpace(*in.Link)
		if link == "" {
			in.Link = nil
			return nil
		}
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: link must be an http or https URL", ErrValidationFailed)
		}
		in.Link = &link
	}
	return nil
}

// Artifact is an uploaded build attached to a submission.
type Artifact struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type submissionService struct {
	submissionRepo repositories.SubmissionRepository
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

// NewSubmissionService accepts a nil uploader; submissions are then
// link-only.
func NewSubmissionService(
	submissionRepo repositories.SubmissionRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		uploader:       uploader,
		logger:         loggerOrDefault(logger),
	}
}

func (s *submissionService) teamOf(ctx context.Context, userID int) (*int, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user.TeamID, nil
}

func (s *submissionService) Create(ctx context.Context, actor models.Identity, teamID int, input CreateSubmissionInput, artifact *Artifact) (*models.Submission, error) {
	if teamID <= 0 {
		return nil, ErrInvalidID
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if artifact != nil {
		if s.uploader == nil {
			return nil, ErrUploadsDisabled
		}
		if artifact.Size > MaxArtifactSize {
			return nil, fmt.Errorf("%w: artifact exceeds %d MB", ErrValidationFailed, MaxArtifactSize>>20)
		}
	} else if input.Link == nil {
		return nil, fmt.Errorf("%w: a link or an uploaded file is required", ErrValidationFailed)
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleParticipant:
		own, err := s.teamOf(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if own == nil || *own != teamID {
			return nil, ErrNotTeamMember
		}
	default:
		return nil, ErrForbiddenOperation
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}

	sub := &models.Submission{
		TeamID:      teamID,
		Title:       input.Title,
		Description: input.Description,
		Link:        input.Link,
		CreatedBy:   actor.UserID,
		TeamName:    team.Name,
	}

	if artifact != nil {
		contentType := artifact.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		key := storage.SubmissionArtifactKey(teamID, artifact.Filename)
		res, err := s.uploader.Upload(ctx, key, contentType, artifact.Size, artifact.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to store submission artifact: %w", err)
		}
		sub.ArtifactKey = &res.Key
	}

	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		if sub.ArtifactKey != nil {
			s.removeArtifact(ctx, *sub.ArtifactKey)
		}
		if errors.Is(err, repositories.ErrSubmissionTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	s.decorate(sub)

	s.logger.InfoContext(ctx, "submission created",
		slog.Int("submission_id", sub.ID), slog.Int("team_id", teamID), slog.Int("actor_id", actor.UserID))
	return sub, nil
}

func (s *submissionService) List(ctx context.Context, actor models.Identity, teamID *int) ([]models.Submission, error) {
	if teamID != nil && *teamID <= 0 {
		return nil, ErrInvalidID
	}
	if actor.Role == models.RoleParticipant {
		own, err := s.teamOf(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if own == nil {
			if teamID != nil {
				return nil, ErrNotTeamMember
			}
			return []models.Submission{}, nil
		}
		if teamID != nil && *teamID != *own {
			return nil, ErrNotTeamMember
		}
		teamID = own
	}

	list, err := s.submissionRepo.List(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	for i := range list {
		s.decorate(&list[i])
	}
	return list, nil
}

func (s *submissionService) Delete(ctx context.Context, actor models.Identity, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id <= 0 {
		return ErrInvalidID
	}

	sub, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to get submission %d: %w", id, err)
	}
	if err := s.submissionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to delete submission %d: %w", id, err)
	}
	if sub.ArtifactKey != nil {
		s.removeArtifact(ctx, *sub.ArtifactKey)
	}

	s.logger.InfoContext(ctx, "submission deleted", slog.Int("submission_id", id), slog.Int("actor_id", actor.UserID))
	return nil
}

func (s *submissionService) decorate(sub *models.Submission) {
	if sub.ArtifactKey == nil || s.uploader == nil {
		return
	}
	if u := s.uploader.GetPublicURL(*sub.ArtifactKey); u != "" {
		sub.ArtifactURL = &u
	}
}

func (s *submissionService) removeArtifact(ctx context.Context, key string) {
	if s.uploader == nil {
		return
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete submission artifact", slog.String("key", key), slog.String("error", err.Error()))
	}
}
