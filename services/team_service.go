package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, actor models.Identity, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, actor models.Identity, id int) (*models.Team, error)
	ListTeams(ctx context.Context, actor models.Identity) ([]models.Team, error)
	ListUnassigned(ctx context.Context, actor models.Identity) ([]models.User, error)
	RenameTeam(ctx context.Context, actor models.Identity, id int, input CreateTeamInput) (*models.Team, error)

	// Assign moves up to the team's free capacity of candidates into the
	// team. A full team is not an error: every candidate comes back skipped.
	Assign(ctx context.Context, actor models.Identity, teamID int, userIDs []int) (*models.AssignResult, error)
	Remove(ctx context.Context, actor models.Identity, userIDs []int) (int64, error)
	DeleteTeam(ctx context.Context, actor models.Identity, id int) (int64, error)
}

type CreateTeamInput struct {
	Name string `json:"name"`
}

func (in *CreateTeamInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrTeamNameRequired
	}
	if len(in.Name) > 80 {
		return fmt.Errorf("%w: team name must be at most 80 characters", ErrValidationFailed)
	}
	return nil
}

// TeamMembersInput lists users to assign or remove. Duplicates are dropped,
// keeping the first occurrence.
type TeamMembersInput struct {
	UserIDs []int `json:"user_ids"`
}

func (in *TeamMembersInput) Validate() error {
	ids, err := dedupeIDs(in.UserIDs)
	if err != nil {
		return err
	}
	in.UserIDs = ids
	return nil
}

type teamService struct {
	db       *sql.DB
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		db:       db,
		teamRepo: teamRepo,
		userRepo: userRepo,
		logger:   loggerOrDefault(logger),
	}
}

func mapTeamRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound), errors.Is(err, repositories.ErrUserTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamInUse):
		return ErrTeamHasSubmissions
	default:
		return err
	}
}

func (s *teamService) CreateTeam(ctx context.Context, actor models.Identity, input CreateTeamInput) (*models.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	team := &models.Team{Name: input.Name}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, mapTeamRepoError(err)
	}
	team.Members = []models.User{}

	s.logger.InfoContext(ctx, "team created", slog.Int("team_id", team.ID), slog.Int("actor_id", actor.UserID))
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, actor models.Identity, id int) (*models.Team, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if actor.Role == models.RoleParticipant {
		member, err := s.isMember(ctx, actor.UserID, id)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, ErrNotTeamMember
		}
	}

	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}

	members, err := s.userRepo.ListByTeamID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", id, err)
	}
	stripCredentials(members)
	team.Members = members
	team.MemberCount = len(members)

	return team, nil
}

func (s *teamService) isMember(ctx context.Context, userID, teamID int) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user.TeamID != nil && *user.TeamID == teamID, nil
}

func (s *teamService) ListTeams(ctx context.Context, actor models.Identity) ([]models.Team, error) {
	if actor.Role == models.RoleParticipant {
		return nil, ErrForbiddenOperation
	}
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *teamService) ListUnassigned(ctx context.Context, actor models.Identity) ([]models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListUnassignedParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned participants: %w", err)
	}
	stripCredentials(users)
	return users, nil
}

func (s *teamService) RenameTeam(ctx context.Context, actor models.Identity, id int, input CreateTeamInput) (*models.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.teamRepo.UpdateName(ctx, id, input.Name); err != nil {
		return nil, mapTeamRepoError(err)
	}
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	return team, nil
}

func (s *teamService) Assign(ctx context.Context, actor models.Identity, teamID int, userIDs []int) (*models.AssignResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if teamID <= 0 {
		return nil, ErrInvalidID
	}
	candidates, err := dedupeIDs(userIDs)
	if err != nil {
		return nil, err
	}

	result := &models.AssignResult{TeamID: teamID, Assigned: []int{}, Skipped: []int{}}

	err = withTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		// The row lock serialises assignments to the same team, so the count
		// below cannot go stale before the update commits.
		if err := s.teamRepo.LockByID(ctx, tx, teamID); err != nil {
			return err
		}

		count, err := s.userRepo.CountByTeamID(ctx, tx, teamID)
		if err != nil {
			return err
		}
		capacity := max(0, models.MaxTeamMembers-count)
		if capacity == 0 {
			result.Skipped = append(result.Skipped, candidates...)
			return nil
		}

		window := candidates[:min(capacity, len(candidates))]
		updated, err := s.userRepo.AssignToTeam(ctx, tx, teamID, window)
		if err != nil {
			return err
		}

		assigned := make(map[int]struct{}, len(updated))
		for _, id := range updated {
			assigned[id] = struct{}{}
		}
		for _, id := range candidates {
			if _, ok := assigned[id]; ok {
				result.Assigned = append(result.Assigned, id)
			} else {
				result.Skipped = append(result.Skipped, id)
			}
		}
		result.CapacityLeft = capacity - len(result.Assigned)
		return nil
	})
	if err != nil {
		if mapped := mapTeamRepoError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to assign users to team %d: %w", teamID, err)
	}

	s.logger.InfoContext(ctx, "team assignment",
		slog.Int("team_id", teamID),
		slog.Int("actor_id", actor.UserID),
		slog.Int("assigned", len(result.Assigned)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("capacity_left", result.CapacityLeft),
	)
	return result, nil
}

func (s *teamService) Remove(ctx context.Context, actor models.Identity, userIDs []int) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	ids, err := dedupeIDs(userIDs)
	if err != nil {
		return 0, err
	}

	removed, err := s.userRepo.ClearTeam(ctx, nil, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to remove users from teams: %w", err)
	}

	s.logger.InfoContext(ctx, "team members removed", slog.Int("actor_id", actor.UserID), slog.Int64("removed", removed))
	return removed, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, actor models.Identity, id int) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, ErrInvalidID
	}

	var unlinked int64
	err := withTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.teamRepo.LockByID(ctx, tx, id); err != nil {
			return err
		}
		submissions, err := s.teamRepo.CountSubmissions(ctx, tx, id)
		if err != nil {
			return err
		}
		if submissions > 0 {
			return ErrTeamHasSubmissions
		}
		if unlinked, err = s.userRepo.UnlinkTeam(ctx, tx, id); err != nil {
			return err
		}
		return s.teamRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, ErrTeamHasSubmissions) {
			return 0, ErrTeamHasSubmissions
		}
		if mapped := mapTeamRepoError(err); mapped != err {
			return 0, mapped
		}
		return 0, fmt.Errorf("failed to delete team %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "team deleted", slog.Int("team_id", id), slog.Int("actor_id", actor.UserID), slog.Int64("unlinked", unlinked))
	return unlinked, nil
}
