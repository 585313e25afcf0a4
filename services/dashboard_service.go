package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/gamejam/models"
	"github.com/Dosada05/gamejam/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context, actor models.Identity) (*models.DashboardStats, error)
}

type dashboardService struct {
	statsRepo repositories.StatsRepository
}

func NewDashboardService(statsRepo repositories.StatsRepository) DashboardService {
	return &dashboardService{statsRepo: statsRepo}
}

func (s *dashboardService) GetStats(ctx context.Context, actor models.Identity) (*models.DashboardStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var stats models.DashboardStats
	g, gCtx := errgroup.WithContext(ctx)

	count := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gCtx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&stats.UsersTotal, s.statsRepo.CountUsers)
	count(&stats.Participants, s.statsRepo.CountParticipants)
	count(&stats.ActivatedUsers, s.statsRepo.CountActivatedUsers)
	count(&stats.TeamsTotal, s.statsRepo.CountTeams)
	count(&stats.FullTeams, func(ctx context.Context) (int, error) {
		return s.statsRepo.CountFullTeams(ctx, models.MaxTeamMembers)
	})
	count(&stats.SubmissionsTotal, s.statsRepo.CountSubmissions)
	count(&stats.UnreadMessages, s.statsRepo.CountUnreadMessages)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return &stats, nil
}
