package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/island-troll-tribes/stats-service/models"
	"github.com/island-troll-tribes/stats-service/repositories"
)

// StandingsFilter selects and pages the leaderboard. Zero Page/Limit fall
// back to the configured defaults; negative values and limits beyond the
// configured maximum are rejected.
type StandingsFilter struct {
	Category *string
	MinGames int
	Page     int
	Limit    int
}

type StandingsPage struct {
	Page         int                     `json:"page"`
	Limit        int                     `json:"limit"`
	TotalEntries int                     `json:"total_entries"`
	TotalPages   int                     `json:"total_pages"`
	Entries      []models.StandingsEntry `json:"entries"`
}

type StandingsService interface {
	GetStandings(ctx context.Context, filter StandingsFilter) (*StandingsPage, error)
}

type standingsService struct {
	games        repositories.GameRepository
	players      repositories.PlayerRepository
	defaultLimit int
	maxLimit     int
}

func NewStandingsService(games repositories.GameRepository, players repositories.PlayerRepository, defaultLimit, maxLimit int) StandingsService {
	return &standingsService{
		games:        games,
		players:      players,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

func (s *standingsService) GetStandings(ctx context.Context, filter StandingsFilter) (*StandingsPage, error) {
	if filter.Page < 0 {
		return nil, ErrStandingsPageInvalid
	}
	if filter.Limit < 0 {
		return nil, ErrStandingsLimitInvalid
	}
	if filter.Limit > s.maxLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrStandingsLimitTooLarge, filter.Limit, s.maxLimit)
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}
	limit := filter.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}

	var entries []models.StandingsEntry
	var err error
	if filter.Category != nil && *filter.Category != "" {
		entries, err = s.categoryEntries(ctx, *filter.Category)
	} else {
		entries, err = s.globalEntries(ctx)
	}
	if err != nil {
		return nil, err
	}

	filtered := entries[:0]
	for _, e := range entries {
		if e.TotalGames >= filter.MinGames {
			filtered = append(filtered, e)
		}
	}
	entries = filtered

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.TotalGames != b.TotalGames {
			return a.TotalGames > b.TotalGames
		}
		return a.Name < b.Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	total := len(entries)
	totalPages := (total + limit - 1) / limit
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &StandingsPage{
		Page:         page,
		Limit:        limit,
		TotalEntries: total,
		TotalPages:   totalPages,
		Entries:      entries[offset:end],
	}, nil
}

// globalEntries builds the leaderboard straight from the player aggregate
// records.
func (s *standingsService) globalEntries(ctx context.Context) ([]models.StandingsEntry, error) {
	players, err := s.players.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlayersListFailed, err)
	}
	entries := make([]models.StandingsEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, models.StandingsEntry{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Rating:      p.Rating,
			TotalGames:  p.TotalGames,
			Wins:        p.Wins,
			Losses:      p.Losses,
			Draws:       p.Draws,
			WinRate:     p.WinRate(),
		})
	}
	return entries, nil
}

// categoryEntries folds category-filtered games per player and joins the
// stored global ratings; per-category ratings are not tracked separately.
func (s *standingsService) categoryEntries(ctx context.Context, category string) ([]models.StandingsEntry, error) {
	games, err := s.games.List(ctx, repositories.GameFilter{Category: &category})
	if err != nil {
		return nil, fmt.Errorf("%w: category %s: %w", ErrGamesListFailed, category, err)
	}
	players, err := s.players.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlayersListFailed, err)
	}
	byName := make(map[string]*models.Player, len(players))
	for _, p := range players {
		byName[p.Name] = p
	}

	agg := make(map[string]*models.StandingsEntry)
	for _, g := range games {
		for _, p := range g.Participants {
			if p.Outcome == "" {
				continue
			}
			e, ok := agg[p.Name]
			if !ok {
				e = &models.StandingsEntry{Name: p.Name, DisplayName: p.DisplayName}
				if pl, known := byName[p.Name]; known {
					e.Rating = pl.Rating
					if e.DisplayName == "" {
						e.DisplayName = pl.DisplayName
					}
				}
				agg[p.Name] = e
			}
			e.TotalGames++
			w, l, d := outcomeCounters(p.Outcome)
			e.Wins += w
			e.Losses += l
			e.Draws += d
		}
	}

	entries := make([]models.StandingsEntry, 0, len(agg))
	for _, e := range agg {
		e.WinRate = winRate(e.Wins, e.TotalGames)
		entries = append(entries, *e)
	}
	return entries, nil
}
