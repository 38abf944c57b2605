package match

// RosterEntry is a player's squad classification for one match.
// Status is fixed once the match is in progress; Appeared and MinutesPlayed
// are written only by the minutes recalculation.
type RosterEntry struct {
	MatchID       string
	PlayerID      string
	Status        SquadStatus
	Appeared      bool
	MinutesPlayed int
}

// PlayerStats are the per-player derived statistics for one match.
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Minutes  int    `json:"minutes"`
	Goals    int    `json:"goals"`
	Assists  int    `json:"assists"`
	Appeared bool   `json:"appeared"`
}
