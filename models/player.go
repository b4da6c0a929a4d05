package models

import (
	"strings"
	"time"
)

// Player is the per-player aggregate record, keyed by normalized name.
// Rating is only ever mutated through the rating pipeline; it is never
// accepted from client input. Players are created implicitly on first
// game participation and never hard-deleted.
type Player struct {
	Name        string    `json:"name" firestore:"name"`
	DisplayName string    `json:"display_name,omitempty" firestore:"displayName"`
	Rating      float64   `json:"rating" firestore:"rating"`
	TotalGames  int       `json:"total_games" firestore:"totalGames"`
	Wins        int       `json:"wins" firestore:"wins"`
	Losses      int       `json:"losses" firestore:"losses"`
	Draws       int       `json:"draws" firestore:"draws"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

// WinRate is wins over total games, defined as 0 for a player with no games.
func (p *Player) WinRate() float64 {
	if p.TotalGames == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.TotalGames)
}

// NormalizeName maps a display name to the stable document key used for
// player records and participant subcollection entries.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
