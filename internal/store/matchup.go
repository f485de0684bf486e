package store

import (
	"context"

	"github.com/dwlarson10/basketball-stats/internal/league"
	"github.com/dwlarson10/basketball-stats/internal/models"
)

// Matchup is a head-to-head comparison of two team records from the same
// (league, season), with a differential for the designated metrics.
type Matchup struct {
	Home *models.TeamRecord `json:"home"`
	Away *models.TeamRecord `json:"away"`
	Edge MatchupEdge        `json:"edge"`
}

// MatchupEdge holds home-minus-away differentials. Positive values favor
// the home side, except DefRating where lower is better.
type MatchupEdge struct {
	WinPct    float64 `json:"win_pct"`
	Points    float64 `json:"pts"`
	Rebounds  float64 `json:"reb"`
	Assists   float64 `json:"ast"`
	FGPct     float64 `json:"fg_pct"`
	FG3Pct    float64 `json:"fg3_pct"`
	OffRating float64 `json:"off_rating"`
	DefRating float64 `json:"def_rating"`
	NetRating float64 `json:"net_rating"`
	TSPct     float64 `json:"ts_pct"`
	Pace      float64 `json:"pace"`
}

// GetMatchup fetches both team records and derives the differential.
// Either side missing from storage surfaces as ErrNotFound.
func (r *TeamRepository) GetMatchup(ctx context.Context, lg league.League, season int, homeID, awayID int64) (*Matchup, error) {
	home, err := r.GetByTeamID(ctx, lg, season, homeID)
	if err != nil {
		return nil, err
	}
	away, err := r.GetByTeamID(ctx, lg, season, awayID)
	if err != nil {
		return nil, err
	}

	return &Matchup{
		Home: home,
		Away: away,
		Edge: MatchupEdge{
			WinPct:    home.WinPct - away.WinPct,
			Points:    home.Points - away.Points,
			Rebounds:  home.Rebounds - away.Rebounds,
			Assists:   home.Assists - away.Assists,
			FGPct:     home.FGPct - away.FGPct,
			FG3Pct:    home.FG3Pct - away.FG3Pct,
			OffRating: home.OffRating - away.OffRating,
			DefRating: home.DefRating - away.DefRating,
			NetRating: home.NetRating - away.NetRating,
			TSPct:     home.TSPct - away.TSPct,
			Pace:      home.Pace - away.Pace,
		},
	}, nil
}
