package league

import (
	"fmt"
	"time"
)

// League identifies a basketball competition context. The identifiers match
// the LeagueID values the NBA Stats API expects.
type League string

const (
	NBA  League = "00"
	WNBA League = "10"
)

// Supported returns the leagues this service harvests.
func Supported() []League {
	return []League{NBA, WNBA}
}

// Name returns the human-readable league name.
func (l League) Name() string {
	switch l {
	case NBA:
		return "NBA"
	case WNBA:
		return "WNBA"
	default:
		return string(l)
	}
}

// Valid reports whether the league is one of the supported leagues.
func (l League) Valid() bool {
	switch l {
	case NBA, WNBA:
		return true
	}
	return false
}

// Parse converts a league identifier or name into a League.
// Accepts "00"/"10" as well as "NBA"/"WNBA".
func Parse(s string) (League, error) {
	switch s {
	case "00", "NBA", "nba":
		return NBA, nil
	case "10", "WNBA", "wnba":
		return WNBA, nil
	}
	return "", fmt.Errorf("unknown league %q (supported: 00=NBA, 10=WNBA): %w", s, ErrUnknownLeague)
}

// SeasonString formats a season start year the way the stats API expects,
// e.g. 2023 -> "2023-24".
func SeasonString(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// SeasonType selects regular season or playoff statistics.
type SeasonType string

const (
	RegularSeason SeasonType = "Regular Season"
	Playoffs      SeasonType = "Playoffs"
)

// PerMode selects per-game averages or season totals.
type PerMode string

const (
	PerGame PerMode = "PerGame"
	Totals  PerMode = "Totals"
)

// Range is an inclusive span of season start years for one league.
type Range struct {
	League    League
	StartYear int
	EndYear   int
}

// Validate checks the range before any network or storage work is done.
func (r Range) Validate() error {
	if !r.League.Valid() {
		return fmt.Errorf("league %q: %w", string(r.League), ErrUnknownLeague)
	}
	if r.StartYear > r.EndYear {
		return fmt.Errorf("start year %d after end year %d: %w", r.StartYear, r.EndYear, ErrInvalidRange)
	}
	if r.StartYear < 1946 {
		return fmt.Errorf("start year %d predates organized play: %w", r.StartYear, ErrInvalidRange)
	}
	return nil
}

// CurrentSeasonYear returns the start year of the season in progress at t.
// New seasons tip off in October; before that the prior season is current.
func CurrentSeasonYear(t time.Time) int {
	if t.Month() >= time.October {
		return t.Year()
	}
	return t.Year() - 1
}

// Seasons enumerates the season start years covered by the range.
func (r Range) Seasons() []int {
	seasons := make([]int, 0, r.EndYear-r.StartYear+1)
	for y := r.StartYear; y <= r.EndYear; y++ {
		seasons = append(seasons, y)
	}
	return seasons
}
