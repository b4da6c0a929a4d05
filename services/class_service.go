package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/island-troll-tribes/stats-service/models"
	"github.com/island-troll-tribes/stats-service/repositories"
)

type ClassService interface {
	// ListClassStats aggregates per-class pick and win statistics across
	// all (optionally category-filtered) games.
	ListClassStats(ctx context.Context, category *string) ([]*models.ClassStat, error)
	// GetClassStats matches className case-insensitively against the
	// computed class id.
	GetClassStats(ctx context.Context, className string, category *string) (*models.ClassStat, error)
}

type classService struct {
	games      repositories.GameRepository
	players    repositories.PlayerRepository
	topPlayers int
}

func NewClassService(games repositories.GameRepository, players repositories.PlayerRepository, topPlayers int) ClassService {
	return &classService{
		games:      games,
		players:    players,
		topPlayers: topPlayers,
	}
}

type classPlayerAgg struct {
	name  string
	games int
	wins  int
}

func (s *classService) ListClassStats(ctx context.Context, category *string) ([]*models.ClassStat, error) {
	games, err := s.games.List(ctx, repositories.GameFilter{Category: category})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGamesListFailed, err)
	}

	allPlayers, err := s.players.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlayersListFailed, err)
	}
	ratings := make(map[string]float64, len(allPlayers))
	for _, p := range allPlayers {
		ratings[p.Name] = p.Rating
	}

	stats := make(map[string]*models.ClassStat)
	perPlayer := make(map[string]map[string]*classPlayerAgg)

	for _, g := range games {
		for _, p := range g.Participants {
			if p.Class == "" || p.Outcome == "" {
				continue
			}
			id := strings.ToLower(strings.TrimSpace(p.Class))
			cs, ok := stats[id]
			if !ok {
				cs = &models.ClassStat{ID: id, Name: p.Class}
				stats[id] = cs
				perPlayer[id] = make(map[string]*classPlayerAgg)
			}
			cs.TotalGames++
			switch p.Outcome {
			case models.OutcomeWinner:
				cs.Wins++
			case models.OutcomeLoser:
				cs.Losses++
			}

			agg, ok := perPlayer[id][p.Name]
			if !ok {
				agg = &classPlayerAgg{name: p.Name}
				perPlayer[id][p.Name] = agg
			}
			agg.games++
			if p.Outcome == models.OutcomeWinner {
				agg.wins++
			}
		}
	}

	result := make([]*models.ClassStat, 0, len(stats))
	for id, cs := range stats {
		cs.WinRate = winRate(cs.Wins, cs.TotalGames)
		cs.TopPlayers = s.topPlayersFor(perPlayer[id], ratings)
		result = append(result, cs)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *classService) GetClassStats(ctx context.Context, className string, category *string) (*models.ClassStat, error) {
	all, err := s.ListClassStats(ctx, category)
	if err != nil {
		return nil, err
	}
	id := strings.ToLower(strings.TrimSpace(className))
	for _, cs := range all {
		if cs.ID == id {
			return cs, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrClassNotFound, className)
}

// topPlayersFor ranks a class's players by win rate, then rating, with
// total games as the tie breaker: more games is a more reliable signal,
// so it ranks higher on an otherwise equal footing.
func (s *classService) topPlayersFor(aggs map[string]*classPlayerAgg, ratings map[string]float64) []models.ClassTopPlayer {
	entries := make([]models.ClassTopPlayer, 0, len(aggs))
	for _, agg := range aggs {
		entries = append(entries, models.ClassTopPlayer{
			Name:       agg.name,
			Rating:     ratings[agg.name],
			TotalGames: agg.games,
			Wins:       agg.wins,
			WinRate:    winRate(agg.wins, agg.games),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.TotalGames != b.TotalGames {
			return a.TotalGames > b.TotalGames
		}
		return a.Name < b.Name
	})
	if len(entries) > s.topPlayers {
		entries = entries[:s.topPlayers]
	}
	return entries
}
