package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/island-troll-tribes/stats-service/models"
	"github.com/island-troll-tribes/stats-service/repositories"
)

func classTestGames() []*models.Game {
	at := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	return []*models.Game{
		{
			ID: "g1", Rated: true, ScheduledAt: at,
			Participants: []models.Participant{
				{Name: "alice", Class: "Hunter", Outcome: models.OutcomeWinner},
				{Name: "bob", Class: "Mage", Outcome: models.OutcomeLoser},
			},
		},
		{
			ID: "g2", Rated: true, ScheduledAt: at.Add(time.Hour),
			Participants: []models.Participant{
				{Name: "carol", Class: "hunter", Outcome: models.OutcomeLoser},
				{Name: "bob", Class: "mage", Outcome: models.OutcomeWinner},
			},
		},
		{
			// No outcome yet: ignored by class aggregation.
			ID: "g3", ScheduledAt: at.Add(2 * time.Hour),
			Participants: []models.Participant{
				{Name: "alice", Class: "hunter"},
				{Name: "bob", Class: "mage"},
			},
		},
	}
}

func newTestClassService(gameList []*models.Game, players *fakePlayerRepo, topN int) ClassService {
	games := &fakeGameRepo{
		ListFunc: func(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
			return gameList, nil
		},
	}
	return NewClassService(games, players, topN)
}

func TestListClassStats_GroupsCaseInsensitively(t *testing.T) {
	players := newFakePlayerRepo(
		&models.Player{Name: "alice", Rating: 1100},
		&models.Player{Name: "bob", Rating: 1050},
		&models.Player{Name: "carol", Rating: 950},
	)
	svc := newTestClassService(classTestGames(), players, 5)

	stats, err := svc.ListClassStats(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Sorted by class id.
	hunter, mage := stats[0], stats[1]
	assert.Equal(t, "hunter", hunter.ID)
	assert.Equal(t, "mage", mage.ID)

	assert.Equal(t, 2, hunter.TotalGames)
	assert.Equal(t, 1, hunter.Wins)
	assert.Equal(t, 1, hunter.Losses)
	assert.InDelta(t, 0.5, hunter.WinRate, 1e-9)

	assert.Equal(t, 2, mage.TotalGames)
	assert.Equal(t, 1, mage.Wins)
	assert.Equal(t, 1, mage.Losses)
}

func TestListClassStats_TopPlayersTieBreaks(t *testing.T) {
	at := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	// alice and dave both 100% win rate; dave has the higher rating and must
	// rank first. carol and erin are on equal footing everywhere, so the
	// name decides.
	gameList := []*models.Game{
		{
			ID: "g1", ScheduledAt: at,
			Participants: []models.Participant{
				{Name: "alice", Class: "hunter", Outcome: models.OutcomeWinner},
				{Name: "dave", Class: "hunter", Outcome: models.OutcomeWinner},
				{Name: "carol", Class: "hunter", Outcome: models.OutcomeLoser},
				{Name: "erin", Class: "hunter", Outcome: models.OutcomeLoser},
			},
		},
	}
	players := newFakePlayerRepo(
		&models.Player{Name: "alice", Rating: 1000},
		&models.Player{Name: "dave", Rating: 1200},
		&models.Player{Name: "carol", Rating: 900},
		&models.Player{Name: "erin", Rating: 900},
	)
	svc := newTestClassService(gameList, players, 3)

	stats, err := svc.ListClassStats(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	top := stats[0].TopPlayers
	require.Len(t, top, 3, "list is capped at the configured top-N")
	assert.Equal(t, "dave", top[0].Name)
	assert.Equal(t, "alice", top[1].Name)
	assert.Equal(t, "carol", top[2].Name, "equal win rate, rating and games fall back to name order")
}

func TestGetClassStats_CaseInsensitiveMatch(t *testing.T) {
	players := newFakePlayerRepo()
	svc := newTestClassService(classTestGames(), players, 5)

	stat, err := svc.GetClassStats(context.Background(), "  HUNTER ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter", stat.ID)
}

func TestGetClassStats_UnknownClass(t *testing.T) {
	players := newFakePlayerRepo()
	svc := newTestClassService(classTestGames(), players, 5)

	_, err := svc.GetClassStats(context.Background(), "priest", nil)
	assert.ErrorIs(t, err, ErrClassNotFound)
}
