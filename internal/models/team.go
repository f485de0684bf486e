package models

import (
	"github.com/dwlarson10/basketball-stats/internal/league"
)

// TeamRecord is one team's aggregated statistics for a single season.
// Unique key: (League, Season, TeamID).
type TeamRecord struct {
	League league.League `json:"league_id"`
	Season int           `json:"season"`
	TeamID int64         `json:"team_id"`

	TeamName    string  `json:"team_name"`
	GamesPlayed int64   `json:"gp"`
	Wins        int64   `json:"wins"`
	Losses      int64   `json:"losses"`
	WinPct      float64 `json:"win_pct"`

	// Base measure (per-game by default)
	Points    float64 `json:"pts"`
	Rebounds  float64 `json:"reb"`
	Assists   float64 `json:"ast"`
	Steals    float64 `json:"stl"`
	Blocks    float64 `json:"blk"`
	Turnovers float64 `json:"tov"`
	FGPct     float64 `json:"fg_pct"`
	FG3Pct    float64 `json:"fg3_pct"`
	FTPct     float64 `json:"ft_pct"`
	PlusMinus float64 `json:"plus_minus"`

	// Advanced measure
	OffRating float64 `json:"off_rating"`
	DefRating float64 `json:"def_rating"`
	NetRating float64 `json:"net_rating"`
	TSPct     float64 `json:"ts_pct"`
	Pace      float64 `json:"pace"`
	PIE       float64 `json:"pie"`
}

// TeamRecordsFromResultSets merges the Base and Advanced LeagueDash tables
// for one (league, season) into normalized records. Rows without a team id
// fail with a ValidationError; a missing advanced row leaves the advanced
// metrics zeroed rather than dropping the team.
func TeamRecordsFromResultSets(lg league.League, season int, base, advanced *ResultSet) ([]*TeamRecord, error) {
	adv := make(map[int64]Row)
	if advanced != nil {
		for _, row := range advanced.Rows() {
			if id, ok := row.Int("TEAM_ID"); ok {
				adv[id] = row
			}
		}
	}

	rows := base.Rows()
	records := make([]*TeamRecord, 0, len(rows))
	for i, row := range rows {
		teamID, ok := row.Int("TEAM_ID")
		if !ok || teamID == 0 {
			return nil, &ValidationError{Entity: "team", Field: "TEAM_ID", Row: i}
		}

		rec := &TeamRecord{
			League:   lg,
			Season:   season,
			TeamID:   teamID,
			TeamName: row.Str("TEAM_NAME"),
			WinPct:   row.FloatOr("W_PCT", 0),

			Points:    row.FloatOr("PTS", 0),
			Rebounds:  row.FloatOr("REB", 0),
			Assists:   row.FloatOr("AST", 0),
			Steals:    row.FloatOr("STL", 0),
			Blocks:    row.FloatOr("BLK", 0),
			Turnovers: row.FloatOr("TOV", 0),
			FGPct:     row.FloatOr("FG_PCT", 0),
			FG3Pct:    row.FloatOr("FG3_PCT", 0),
			FTPct:     row.FloatOr("FT_PCT", 0),
			PlusMinus: row.FloatOr("PLUS_MINUS", 0),
		}
		rec.GamesPlayed, _ = row.Int("GP")
		rec.Wins, _ = row.Int("W")
		rec.Losses, _ = row.Int("L")

		if a, ok := adv[teamID]; ok {
			rec.OffRating = a.FloatOr("OFF_RATING", 0)
			rec.DefRating = a.FloatOr("DEF_RATING", 0)
			rec.NetRating = a.FloatOr("NET_RATING", 0)
			rec.TSPct = a.FloatOr("TS_PCT", 0)
			rec.Pace = a.FloatOr("PACE", 0)
			rec.PIE = a.FloatOr("PIE", 0)
		}

		records = append(records, rec)
	}
	return records, nil
}
