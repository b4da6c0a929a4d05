package models

// ClassStat is a derived per-class aggregate. It is recomputed from the
// game corpus on demand and never stored as a source of truth.
type ClassStat struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	TotalGames int              `json:"total_games"`
	Wins       int              `json:"wins"`
	Losses     int              `json:"losses"`
	WinRate    float64          `json:"win_rate"`
	TopPlayers []ClassTopPlayer `json:"top_players"`
}

type ClassTopPlayer struct {
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	TotalGames int     `json:"total_games"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}
