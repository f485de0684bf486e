package models

import (
	"github.com/dwlarson10/basketball-stats/internal/league"
)

// PlayerRecord is one player's aggregated statistics for a single season
// with a single team. Unique key: (League, Season, PlayerID, TeamID); a
// traded player appears once per team they suited up for.
type PlayerRecord struct {
	League   league.League `json:"league_id"`
	Season   int           `json:"season"`
	PlayerID int64         `json:"player_id"`
	TeamID   int64         `json:"team_id"`

	PlayerName  string  `json:"player_name"`
	TeamAbbr    string  `json:"team_abbreviation"`
	Age         float64 `json:"age"`
	GamesPlayed int64   `json:"gp"`
	Minutes     float64 `json:"min"`

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

	// Advanced measure
	OffRating float64 `json:"off_rating"`
	DefRating float64 `json:"def_rating"`
	NetRating float64 `json:"net_rating"`
	TSPct     float64 `json:"ts_pct"`
	UsgPct    float64 `json:"usg_pct"`
	PIE       float64 `json:"pie"`
}

type playerKey struct {
	playerID int64
	teamID   int64
}

// PlayerRecordsFromResultSets merges the Base and Advanced LeagueDash player
// tables for one (league, season) into normalized records.
func PlayerRecordsFromResultSets(lg league.League, season int, base, advanced *ResultSet) ([]*PlayerRecord, error) {
	adv := make(map[playerKey]Row)
	if advanced != nil {
		for _, row := range advanced.Rows() {
			pid, pok := row.Int("PLAYER_ID")
			tid, tok := row.Int("TEAM_ID")
			if pok && tok {
				adv[playerKey{pid, tid}] = row
			}
		}
	}

	rows := base.Rows()
	records := make([]*PlayerRecord, 0, len(rows))
	for i, row := range rows {
		playerID, ok := row.Int("PLAYER_ID")
		if !ok || playerID == 0 {
			return nil, &ValidationError{Entity: "player", Field: "PLAYER_ID", Row: i}
		}
		teamID, ok := row.Int("TEAM_ID")
		if !ok || teamID == 0 {
			return nil, &ValidationError{Entity: "player", Field: "TEAM_ID", Row: i}
		}

		rec := &PlayerRecord{
			League:     lg,
			Season:     season,
			PlayerID:   playerID,
			TeamID:     teamID,
			PlayerName: row.Str("PLAYER_NAME"),
			TeamAbbr:   row.Str("TEAM_ABBREVIATION"),
			Age:        row.FloatOr("AGE", 0),
			Minutes:    row.FloatOr("MIN", 0),

			Points:    row.FloatOr("PTS", 0),
			Rebounds:  row.FloatOr("REB", 0),
			Assists:   row.FloatOr("AST", 0),
			Steals:    row.FloatOr("STL", 0),
			Blocks:    row.FloatOr("BLK", 0),
			Turnovers: row.FloatOr("TOV", 0),
			FGPct:     row.FloatOr("FG_PCT", 0),
			FG3Pct:    row.FloatOr("FG3_PCT", 0),
			FTPct:     row.FloatOr("FT_PCT", 0),
		}
		rec.GamesPlayed, _ = row.Int("GP")

		if a, ok := adv[playerKey{playerID, teamID}]; ok {
			rec.OffRating = a.FloatOr("OFF_RATING", 0)
			rec.DefRating = a.FloatOr("DEF_RATING", 0)
			rec.NetRating = a.FloatOr("NET_RATING", 0)
			rec.TSPct = a.FloatOr("TS_PCT", 0)
			rec.UsgPct = a.FloatOr("USG_PCT", 0)
			rec.PIE = a.FloatOr("PIE", 0)
		}

		records = append(records, rec)
	}
	return records, nil
}
