package models

import "time"

type IntentStatus string

const (
	IntentStatusPending IntentStatus = "pending"
	IntentStatusApplied IntentStatus = "applied"
)

// RatingIntent is an intent-log entry written before any player record is
// mutated. A game update and the N player rating writes it fans out to are
// not atomic in the store; the reconciliation sweep replays pending intents
// so a crash between steps cannot strand ratings half-updated forever.
type RatingIntent struct {
	ID      string              `json:"id" firestore:"-"`
	GameID  string              `json:"game_id" firestore:"gameId"`
	Entries []RatingIntentEntry `json:"entries" firestore:"entries"`
	// Reverses marks intents that undo previously applied effects
	// (result reassignment, game deletion).
	Reverses  bool         `json:"reverses" firestore:"reverses"`
	Status    IntentStatus `json:"status" firestore:"status"`
	CreatedAt time.Time    `json:"created_at" firestore:"createdAt"`
}

// RatingIntentEntry captures the complete aggregate record the apply pass
// intends to write for one player. Replaying an entry is therefore a plain
// idempotent upsert, whether it runs first time, as a crash-recovery
// replay, or as part of a rollback.
type RatingIntentEntry struct {
	Player      string  `json:"player" firestore:"player"`
	DisplayName string  `json:"display_name,omitempty" firestore:"displayName"`
	Before      float64 `json:"before" firestore:"before"`
	After       float64 `json:"after" firestore:"after"`
	Delta       float64 `json:"delta" firestore:"delta"`
	Outcome     Outcome `json:"outcome,omitempty" firestore:"outcome"`
	TotalGames  int     `json:"total_games" firestore:"totalGames"`
	Wins        int     `json:"wins" firestore:"wins"`
	Losses      int     `json:"losses" firestore:"losses"`
	Draws       int     `json:"draws" firestore:"draws"`
}
