package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/island-troll-tribes/stats-service/models"
)

func ratedGame(participants ...models.Participant) *models.Game {
	return &models.Game{ID: "g1", Rated: true, Participants: participants}
}

func TestCalculateRatings_EqualTeamsSwingHalfK(t *testing.T) {
	cfg := testRatingConfig()
	game := ratedGame(
		models.Participant{Name: "alice", Outcome: models.OutcomeWinner},
		models.Participant{Name: "bob", Outcome: models.OutcomeLoser},
	)
	ratings := map[string]float64{"alice": 1000, "bob": 1000}

	changes, err := CalculateRatings(cfg, game, ratings)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	// Equal ratings: expected score is 0.5, so the swing is K/2.
	byName := changesByName(changes)
	assert.InDelta(t, 16, byName["alice"].Delta, 1e-9)
	assert.InDelta(t, -16, byName["bob"].Delta, 1e-9)
	assert.InDelta(t, 1016, byName["alice"].After, 1e-9)
	assert.InDelta(t, 984, byName["bob"].After, 1e-9)
}

func TestCalculateRatings_ZeroSumAcrossTeams(t *testing.T) {
	cfg := testRatingConfig()
	game := ratedGame(
		models.Participant{Name: "a", Outcome: models.OutcomeWinner},
		models.Participant{Name: "b", Outcome: models.OutcomeWinner},
		models.Participant{Name: "c", Outcome: models.OutcomeLoser},
		models.Participant{Name: "d", Outcome: models.OutcomeLoser},
		models.Participant{Name: "e", Outcome: models.OutcomeLoser},
	)
	ratings := map[string]float64{"a": 1200, "b": 900, "c": 1100, "d": 1000, "e": 950}

	changes, err := CalculateRatings(cfg, game, ratings)
	require.NoError(t, err)

	total := 0.0
	for _, c := range changes {
		total += c.Delta
		if c.Outcome == models.OutcomeWinner {
			assert.Positive(t, c.Delta)
		} else {
			assert.Negative(t, c.Delta)
		}
	}
	assert.InDelta(t, 0, total, 1e-9)
}

func TestCalculateRatings_CapNeverExceededAndStaysZeroSum(t *testing.T) {
	cfg := RatingConfig{Default: 1000, KFactor: 400, MaxSwing: 10}
	game := ratedGame(
		models.Participant{Name: "underdog", Outcome: models.OutcomeWinner},
		models.Participant{Name: "fav1", Outcome: models.OutcomeLoser},
		models.Participant{Name: "fav2", Outcome: models.OutcomeLoser},
		models.Participant{Name: "fav3", Outcome: models.OutcomeLoser},
	)
	ratings := map[string]float64{"underdog": 800, "fav1": 2000, "fav2": 2000, "fav3": 2000}

	changes, err := CalculateRatings(cfg, game, ratings)
	require.NoError(t, err)

	total := 0.0
	for _, c := range changes {
		total += c.Delta
		assert.LessOrEqual(t, absFloat(c.Delta), cfg.MaxSwing+1e-9,
			"delta for %s exceeds the cap", c.Player)
	}
	assert.InDelta(t, 0, total, 1e-9)

	// The sole winner absorbs the capped swing; the three losers split it.
	byName := changesByName(changes)
	assert.InDelta(t, 10, byName["underdog"].Delta, 1e-9)
	assert.InDelta(t, -10.0/3.0, byName["fav1"].Delta, 1e-9)
}

func TestCalculateRatings_DrawLeavesRatingsUntouched(t *testing.T) {
	cfg := testRatingConfig()
	game := ratedGame(
		models.Participant{Name: "alice", Outcome: models.OutcomeDraw},
		models.Participant{Name: "bob", Outcome: models.OutcomeDraw},
	)
	ratings := map[string]float64{"alice": 1400, "bob": 900}

	changes, err := CalculateRatings(cfg, game, ratings)
	require.NoError(t, err)
	for _, c := range changes {
		assert.Zero(t, c.Delta)
		assert.Equal(t, c.Before, c.After)
	}
}

func TestCalculateRatings_UnratedGameLeavesRatingsUntouched(t *testing.T) {
	cfg := testRatingConfig()
	game := &models.Game{
		ID:    "g1",
		Rated: false,
		Participants: []models.Participant{
			{Name: "alice", Outcome: models.OutcomeWinner},
			{Name: "bob", Outcome: models.OutcomeLoser},
		},
	}
	ratings := map[string]float64{"alice": 1000, "bob": 1200}

	changes, err := CalculateRatings(cfg, game, ratings)
	require.NoError(t, err)
	for _, c := range changes {
		assert.Zero(t, c.Delta)
		assert.Equal(t, c.Before, c.After)
	}
}

func TestCalculateRatings_Validation(t *testing.T) {
	cfg := testRatingConfig()

	tests := []struct {
		name    string
		game    *models.Game
		wantErr error
	}{
		{
			name: "missing outcome",
			game: ratedGame(
				models.Participant{Name: "alice", Outcome: models.OutcomeWinner},
				models.Participant{Name: "bob"},
			),
			wantErr: ErrResultMissing,
		},
		{
			name: "single distinct player",
			game: ratedGame(
				models.Participant{Name: "alice", Outcome: models.OutcomeWinner},
				models.Participant{Name: "alice", Outcome: models.OutcomeLoser},
			),
			wantErr: ErrNotEnoughPlayers,
		},
		{
			name: "all winners",
			game: ratedGame(
				models.Participant{Name: "alice", Outcome: models.OutcomeWinner},
				models.Participant{Name: "bob", Outcome: models.OutcomeWinner},
			),
			wantErr: ErrOutcomesInvalid,
		},
		{
			name: "all losers",
			game: ratedGame(
				models.Participant{Name: "alice", Outcome: models.OutcomeLoser},
				models.Participant{Name: "bob", Outcome: models.OutcomeLoser},
			),
			wantErr: ErrOutcomesInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateRatings(cfg, tt.game, map[string]float64{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func changesByName(changes []RatingChange) map[string]RatingChange {
	m := make(map[string]RatingChange, len(changes))
	for _, c := range changes {
		m[c.Player] = c
	}
	return m
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
