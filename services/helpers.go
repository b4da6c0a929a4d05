package services

import "github.com/island-troll-tribes/stats-service/models"

// winRate is wins over total, defined as 0 for zero totals so the
// division can never produce NaN.
func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func isValidGameStatus(status models.GameStatus) bool {
	switch status {
	case models.GameStatusScheduled, models.GameStatusOngoing, models.GameStatusAwaitingResult,
		models.GameStatusCompleted, models.GameStatusArchived, models.GameStatusCancelled:
		return true
	}
	return false
}

func isValidStatusTransition(current, next models.GameStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.GameStatus][]models.GameStatus{
		models.GameStatusScheduled:      {models.GameStatusOngoing, models.GameStatusAwaitingResult, models.GameStatusCancelled},
		models.GameStatusOngoing:        {models.GameStatusAwaitingResult, models.GameStatusCompleted, models.GameStatusCancelled},
		models.GameStatusAwaitingResult: {models.GameStatusCompleted, models.GameStatusCancelled},
		models.GameStatusCompleted:      {models.GameStatusArchived},
		models.GameStatusArchived:       {},
		models.GameStatusCancelled:      {},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

// outcomeCounters returns the win/loss/draw increments a single outcome
// contributes to a player's aggregate record.
func outcomeCounters(outcome models.Outcome) (wins, losses, draws int) {
	switch outcome {
	case models.OutcomeWinner:
		return 1, 0, 0
	case models.OutcomeLoser:
		return 0, 1, 0
	case models.OutcomeDraw:
		return 0, 0, 1
	}
	return 0, 0, 0
}
