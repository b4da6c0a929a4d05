package models

// StandingsEntry is a single leaderboard row, recomputed from player
// records (or category-filtered games) on each query.
type StandingsEntry struct {
	Rank        int     `json:"rank"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name,omitempty"`
	Rating      float64 `json:"rating"`
	TotalGames  int     `json:"total_games"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
	WinRate     float64 `json:"win_rate"`
}
