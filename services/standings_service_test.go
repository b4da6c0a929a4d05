package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/island-troll-tribes/stats-service/models"
	"github.com/island-troll-tribes/stats-service/repositories"
)

func newTestStandingsService(games *fakeGameRepo, players *fakePlayerRepo) StandingsService {
	return NewStandingsService(games, players, 25, 100)
}

func TestGetStandings_Validation(t *testing.T) {
	svc := newTestStandingsService(&fakeGameRepo{}, newFakePlayerRepo())

	tests := []struct {
		name    string
		filter  StandingsFilter
		wantErr error
	}{
		{"negative page", StandingsFilter{Page: -1}, ErrStandingsPageInvalid},
		{"negative limit", StandingsFilter{Limit: -5}, ErrStandingsLimitInvalid},
		{"limit beyond maximum", StandingsFilter{Limit: 101}, ErrStandingsLimitTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetStandings(context.Background(), tt.filter)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetStandings_SortAndRank(t *testing.T) {
	players := newFakePlayerRepo(
		&models.Player{Name: "alice", Rating: 1200, TotalGames: 10, Wins: 7, Losses: 3},
		// bob and carol share a rating; bob's win rate is higher.
		&models.Player{Name: "bob", Rating: 1100, TotalGames: 10, Wins: 6, Losses: 4},
		&models.Player{Name: "carol", Rating: 1100, TotalGames: 10, Wins: 5, Losses: 5},
		// dave and erin are fully tied; name breaks the tie.
		&models.Player{Name: "erin", Rating: 1000, TotalGames: 4, Wins: 2, Losses: 2},
		&models.Player{Name: "dave", Rating: 1000, TotalGames: 4, Wins: 2, Losses: 2},
	)
	svc := newTestStandingsService(&fakeGameRepo{}, players)

	page, err := svc.GetStandings(context.Background(), StandingsFilter{})
	require.NoError(t, err)

	names := make([]string, 0, len(page.Entries))
	for _, e := range page.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"alice", "bob", "carol", "dave", "erin"}, names)
	for i, e := range page.Entries {
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 25, page.Limit)
	assert.Equal(t, 5, page.TotalEntries)
	assert.Equal(t, 1, page.TotalPages)
}

func TestGetStandings_PaginationCoversEveryEntryOnce(t *testing.T) {
	seed := make([]*models.Player, 0, 23)
	for i := 0; i < 23; i++ {
		seed = append(seed, &models.Player{
			Name:       fmt.Sprintf("player%02d", i),
			Rating:     1000 + float64(i),
			TotalGames: 5,
		})
	}
	svc := newTestStandingsService(&fakeGameRepo{}, newFakePlayerRepo(seed...))

	seen := make(map[string]int)
	limit := 5
	for p := 1; ; p++ {
		page, err := svc.GetStandings(context.Background(), StandingsFilter{Page: p, Limit: limit})
		require.NoError(t, err)
		assert.Equal(t, 23, page.TotalEntries)
		assert.Equal(t, 5, page.TotalPages)
		if len(page.Entries) == 0 {
			break
		}
		for _, e := range page.Entries {
			seen[e.Name]++
		}
		if p > page.TotalPages {
			t.Fatalf("pagination never drained: page %d still returned entries", p)
		}
	}
	assert.Len(t, seen, 23)
	for name, count := range seen {
		assert.Equal(t, 1, count, "entry %s appeared on more than one page", name)
	}
}

func TestGetStandings_PageBeyondEndIsEmpty(t *testing.T) {
	players := newFakePlayerRepo(
		&models.Player{Name: "alice", Rating: 1200, TotalGames: 1},
	)
	svc := newTestStandingsService(&fakeGameRepo{}, players)

	page, err := svc.GetStandings(context.Background(), StandingsFilter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Equal(t, 1, page.TotalEntries)
}

func TestGetStandings_MinGamesFilter(t *testing.T) {
	players := newFakePlayerRepo(
		&models.Player{Name: "veteran", Rating: 1100, TotalGames: 20, Wins: 12, Losses: 8},
		&models.Player{Name: "rookie", Rating: 1300, TotalGames: 2, Wins: 2},
	)
	svc := newTestStandingsService(&fakeGameRepo{}, players)

	page, err := svc.GetStandings(context.Background(), StandingsFilter{MinGames: 10})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "veteran", page.Entries[0].Name)
}

func TestGetStandings_CategoryFoldsGames(t *testing.T) {
	category := "2v2"
	at := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	games := &fakeGameRepo{
		ListFunc: func(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
			require.NotNil(t, filter.Category)
			assert.Equal(t, category, *filter.Category)
			return []*models.Game{
				{
					ID: "g1", Category: category, ScheduledAt: at,
					Participants: []models.Participant{
						{Name: "alice", Outcome: models.OutcomeWinner},
						{Name: "bob", Outcome: models.OutcomeLoser},
					},
				},
				{
					ID: "g2", Category: category, ScheduledAt: at.Add(time.Hour),
					Participants: []models.Participant{
						{Name: "alice", Outcome: models.OutcomeWinner},
						{Name: "bob", Outcome: models.OutcomeLoser},
					},
				},
			}, nil
		},
	}
	players := newFakePlayerRepo(
		&models.Player{Name: "alice", Rating: 1050, TotalGames: 30},
		&models.Player{Name: "bob", Rating: 990, TotalGames: 28},
	)
	svc := newTestStandingsService(games, players)

	page, err := svc.GetStandings(context.Background(), StandingsFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)

	// Category standings count only the category's games, but ratings come
	// from the stored global record.
	alice := page.Entries[0]
	assert.Equal(t, "alice", alice.Name)
	assert.Equal(t, 2, alice.TotalGames)
	assert.Equal(t, 2, alice.Wins)
	assert.Equal(t, 1050.0, alice.Rating)
	assert.InDelta(t, 1.0, alice.WinRate, 1e-9)
}
