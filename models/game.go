package models

import "time"

type GameStatus string

const (
	GameStatusScheduled      GameStatus = "scheduled"
	GameStatusOngoing        GameStatus = "ongoing"
	GameStatusAwaitingResult GameStatus = "awaiting_result"
	GameStatusCompleted      GameStatus = "completed"
	GameStatusArchived       GameStatus = "archived"
	GameStatusCancelled      GameStatus = "cancelled"
)

type Outcome string

const (
	OutcomeWinner Outcome = "winner"
	OutcomeLoser  Outcome = "loser"
	OutcomeDraw   Outcome = "draw"
)

// Participant is a player's entry within a specific game, stored in the
// "players" subcollection of the game document. AppliedDelta records the
// rating change this game actually applied to the player; it stays zero
// until ratings are applied and is what makes recomputation and delete
// rollback exact rather than approximate.
type Participant struct {
	Name         string  `json:"name" firestore:"name"`
	DisplayName  string  `json:"display_name,omitempty" firestore:"displayName"`
	Class        string  `json:"class,omitempty" firestore:"class"`
	Outcome      Outcome `json:"outcome,omitempty" firestore:"outcome"`
	RatingBefore float64 `json:"rating_before,omitempty" firestore:"ratingBefore"`
	RatingAfter  float64 `json:"rating_after,omitempty" firestore:"ratingAfter"`
	AppliedDelta float64 `json:"applied_delta,omitempty" firestore:"appliedDelta"`
}

type Game struct {
	ID          string     `json:"id" firestore:"-"`
	Category    string     `json:"category,omitempty" firestore:"category"`
	TeamSize    int        `json:"team_size" firestore:"teamSize"`
	Rated       bool       `json:"rated" firestore:"rated"`
	Status      GameStatus `json:"status" firestore:"status"`
	ScheduledAt time.Time  `json:"scheduled_at" firestore:"scheduledAt"`
	PlayedAt    *time.Time `json:"played_at,omitempty" firestore:"playedAt"`
	// PlayerNames duplicates the subcollection keys so games can be queried
	// with array-contains without a collection group index.
	PlayerNames    []string  `json:"-" firestore:"playerNames"`
	RatingsApplied bool      `json:"ratings_applied" firestore:"ratingsApplied"`
	ReplayKey      string    `json:"replay_key,omitempty" firestore:"replayKey"`
	Deleted        bool      `json:"-" firestore:"deleted"`
	Revision       int64     `json:"revision" firestore:"revision"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt"`

	// Loaded from the subcollection, not part of the game document itself.
	Participants []Participant `json:"participants" firestore:"-"`
}

// EffectiveTime is the timestamp used to order games chronologically:
// the actual play time when known, otherwise the scheduled time.
func (g *Game) EffectiveTime() time.Time {
	if g.PlayedAt != nil && !g.PlayedAt.IsZero() {
		return *g.PlayedAt
	}
	return g.ScheduledAt
}

// HasCompleteResults reports whether every participant carries an outcome.
func (g *Game) HasCompleteResults() bool {
	if len(g.Participants) == 0 {
		return false
	}
	for _, p := range g.Participants {
		if p.Outcome == "" {
			return false
		}
	}
	return true
}
