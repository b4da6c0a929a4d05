package services

import (
	"math"

	"github.com/island-troll-tribes/stats-service/models"
)

// RatingConfig is injected into the services that need it at construction
// time so tests can run against fixtures instead of shared constants.
type RatingConfig struct {
	// Default is the rating assigned to a player on first participation.
	Default float64
	// KFactor scales how far a single game can move a rating before the cap.
	KFactor float64
	// MaxSwing bounds the absolute rating delta any single game can apply
	// to one player, so anomalous data cannot cause runaway swings.
	MaxSwing float64
}

// RatingChange is the outcome of the calculator for one participant.
// Persistence is entirely the caller's responsibility.
type RatingChange struct {
	Player  string
	Outcome models.Outcome
	Before  float64
	After   float64
	Delta   float64
}

// CalculateRatings produces the new rating for every participant of a
// just-completed game, given each participant's prior rating.
//
// Rules, in order:
//   - every participant must carry a result, and the game must have at
//     least two distinct players;
//   - unrated games leave every rating untouched (zero deltas);
//   - a drawn game leaves every rating untouched as an explicit policy,
//     not as a side effect of the formula;
//   - a decisive game applies a zero-sum ELO adjustment proportional to
//     the rating gap between the winning and losing sides, with no single
//     delta exceeding cfg.MaxSwing.
func CalculateRatings(cfg RatingConfig, game *models.Game, ratings map[string]float64) ([]RatingChange, error) {
	distinct := make(map[string]bool, len(game.Participants))
	for _, p := range game.Participants {
		if p.Outcome == "" {
			return nil, ErrResultMissing
		}
		distinct[p.Name] = true
	}
	if len(distinct) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	changes := make([]RatingChange, 0, len(game.Participants))
	unchanged := func() []RatingChange {
		for _, p := range game.Participants {
			before := ratings[p.Name]
			changes = append(changes, RatingChange{
				Player:  p.Name,
				Outcome: p.Outcome,
				Before:  before,
				After:   before,
			})
		}
		return changes
	}

	if !game.Rated || isDraw(game.Participants) {
		return unchanged(), nil
	}

	var winners, losers []models.Participant
	for _, p := range game.Participants {
		switch p.Outcome {
		case models.OutcomeWinner:
			winners = append(winners, p)
		case models.OutcomeLoser:
			losers = append(losers, p)
		}
	}
	if len(winners) == 0 || len(losers) == 0 {
		return nil, ErrOutcomesInvalid
	}

	winnerAvg := averageRating(winners, ratings)
	loserAvg := averageRating(losers, ratings)

	base := cfg.KFactor * (1 - expectedScore(winnerAvg, loserAvg))

	// Per-side deltas keep the total zero-sum: what all winners gain is
	// exactly what all losers lose. Capping one side rescales the other.
	perLoser := math.Min(base, cfg.MaxSwing)
	perWinner := perLoser * float64(len(losers)) / float64(len(winners))
	if perWinner > cfg.MaxSwing {
		perWinner = cfg.MaxSwing
		perLoser = perWinner * float64(len(winners)) / float64(len(losers))
	}

	for _, p := range game.Participants {
		before := ratings[p.Name]
		var delta float64
		if p.Outcome == models.OutcomeWinner {
			delta = perWinner
		} else {
			delta = -perLoser
		}
		changes = append(changes, RatingChange{
			Player:  p.Name,
			Outcome: p.Outcome,
			Before:  before,
			After:   before + delta,
			Delta:   delta,
		})
	}
	return changes, nil
}

// expectedScore is the standard ELO win probability of a against b.
func expectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/400.0))
}

func averageRating(participants []models.Participant, ratings map[string]float64) float64 {
	sum := 0.0
	for _, p := range participants {
		sum += ratings[p.Name]
	}
	return sum / float64(len(participants))
}

// isDraw treats any game carrying a draw outcome as drawn.
func isDraw(participants []models.Participant) bool {
	for _, p := range participants {
		if p.Outcome == models.OutcomeDraw {
			return true
		}
	}
	return false
}
