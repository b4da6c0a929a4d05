package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/island-troll-tribes/stats-service/models"
	"github.com/island-troll-tribes/stats-service/repositories"
)

// PlayerStatsFilter narrows which games feed a player's summary. Nil
// fields are not applied.
type PlayerStatsFilter struct {
	Category     *string
	StartDate    *time.Time
	EndDate      *time.Time
	IncludeGames bool
}

type RatingPoint struct {
	GameID string    `json:"game_id"`
	At     time.Time `json:"at"`
	Rating float64   `json:"rating"`
}

type PlayerStats struct {
	Name          string         `json:"name"`
	DisplayName   string         `json:"display_name,omitempty"`
	Rating        float64        `json:"rating"`
	TotalGames    int            `json:"total_games"`
	Wins          int            `json:"wins"`
	Losses        int            `json:"losses"`
	Draws         int            `json:"draws"`
	WinRate       float64        `json:"win_rate"`
	RatingHistory []RatingPoint  `json:"rating_history"`
	Games         []*models.Game `json:"games,omitempty"`
}

type PlayerService interface {
	GetPlayerStats(ctx context.Context, name string, filter PlayerStatsFilter) (*PlayerStats, error)
	ListPlayers(ctx context.Context, limit int) ([]*models.Player, error)
	SearchPlayers(ctx context.Context, query string) ([]*models.Player, error)
	ComparePlayers(ctx context.Context, names []string) ([]*PlayerStats, error)
}

type playerService struct {
	games        repositories.GameRepository
	players      repositories.PlayerRepository
	defaultLimit int
	searchLimit  int
	minQueryLen  int
}

func NewPlayerService(
	games repositories.GameRepository,
	players repositories.PlayerRepository,
	defaultLimit int,
	searchLimit int,
	minQueryLen int,
) PlayerService {
	return &playerService{
		games:        games,
		players:      players,
		defaultLimit: defaultLimit,
		searchLimit:  searchLimit,
		minQueryLen:  minQueryLen,
	}
}

func (s *playerService) GetPlayerStats(ctx context.Context, name string, filter PlayerStatsFilter) (*PlayerStats, error) {
	key := models.NormalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}

	player, err := s.players.Get(ctx, key)
	if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
		return nil, fmt.Errorf("failed to load player %s: %w", key, err)
	}

	games, err := s.games.List(ctx, repositories.GameFilter{
		Player:    &key,
		Category:  filter.Category,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: for player %s: %w", ErrGamesListFailed, key, err)
	}

	// Unknown player: no stored record and no game ever referenced them.
	// A stored record with zero games is a player who simply has not
	// played yet, which is not an error.
	if player == nil && len(games) == 0 {
		return nil, ErrPlayerNotFound
	}

	stats := &PlayerStats{
		Name:          key,
		RatingHistory: make([]RatingPoint, 0),
	}
	if player != nil {
		stats.DisplayName = player.DisplayName
		stats.Rating = player.Rating
	}

	// Fold the (already chronologically ordered) game list.
	for _, g := range games {
		for _, p := range g.Participants {
			if p.Name != key {
				continue
			}
			if p.Outcome != "" {
				stats.TotalGames++
				w, l, d := outcomeCounters(p.Outcome)
				stats.Wins += w
				stats.Losses += l
				stats.Draws += d
			}
			if g.Rated && g.RatingsApplied {
				stats.RatingHistory = append(stats.RatingHistory, RatingPoint{
					GameID: g.ID,
					At:     g.EffectiveTime(),
					Rating: p.RatingAfter,
				})
			}
			if stats.DisplayName == "" && p.DisplayName != "" {
				stats.DisplayName = p.DisplayName
			}
		}
	}
	stats.WinRate = winRate(stats.Wins, stats.TotalGames)
	if filter.IncludeGames {
		stats.Games = games
	}
	return stats, nil
}

func (s *playerService) ListPlayers(ctx context.Context, limit int) ([]*models.Player, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	players, err := s.players.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlayersListFailed, err)
	}
	return players, nil
}

func (s *playerService) SearchPlayers(ctx context.Context, query string) ([]*models.Player, error) {
	q := models.NormalizeName(query)
	if utf8.RuneCountInString(q) < s.minQueryLen {
		return nil, ErrSearchQueryTooShort
	}
	players, err := s.players.SearchByPrefix(ctx, q, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: query %q: %w", ErrPlayersListFailed, q, err)
	}
	return players, nil
}

func (s *playerService) ComparePlayers(ctx context.Context, names []string) ([]*PlayerStats, error) {
	distinct := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := models.NormalizeName(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		distinct = append(distinct, name)
	}
	if len(distinct) < 2 {
		return nil, ErrCompareTooFewNames
	}

	stats := make([]*PlayerStats, 0, len(distinct))
	for _, name := range distinct {
		ps, err := s.GetPlayerStats(ctx, name, PlayerStatsFilter{})
		if err != nil {
			if errors.Is(err, ErrPlayerNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
			}
			return nil, err
		}
		stats = append(stats, ps)
	}
	return stats, nil
}
