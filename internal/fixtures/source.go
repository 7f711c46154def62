// Package fixtures reads the fixture list the alert cycle evaluates.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hamed0406/matchalert/internal/domain"
)

// ErrMalformed marks fixture data that was readable but could not be decoded.
var ErrMalformed = errors.New("malformed fixture source")

// Source yields the current fixture list, in the order the producer wrote it.
type Source interface {
	Load(ctx context.Context) ([]domain.Fixture, error)
}

// FileSource reads a JSON array of fixtures from disk on every Load.
type FileSource struct {
	Path     string
	Location *time.Location // zone for timestamps without an offset
}

func NewFileSource(path string, loc *time.Location) *FileSource {
	return &FileSource{Path: path, Location: loc}
}

func (s *FileSource) Load(ctx context.Context) ([]domain.Fixture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	out, err := Decode(b, s.Location)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return out, nil
}

type rawFixture struct {
	MatchID       *domain.MatchID `json:"match_id"`
	HomeTeam      string          `json:"home_team"`
	AwayTeam      string          `json:"away_team"`
	LeagueName    string          `json:"league_name"`
	AlertDatetime string          `json:"alert_datetime"`
}

// Decode parses a fixture array. Any bad element fails the whole document.
func Decode(b []byte, loc *time.Location) ([]domain.Fixture, error) {
	var raw []rawFixture
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make([]domain.Fixture, 0, len(raw))
	for i, r := range raw {
		if r.MatchID == nil {
			return nil, fmt.Errorf("%w: fixture %d: match_id missing", ErrMalformed, i)
		}
		at, err := domain.ParseTimestamp(r.AlertDatetime, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: fixture %s: alert_datetime: %v", ErrMalformed, r.MatchID, err)
		}
		out = append(out, domain.Fixture{
			MatchID:    *r.MatchID,
			HomeTeam:   r.HomeTeam,
			AwayTeam:   r.AwayTeam,
			LeagueName: r.LeagueName,
			AlertAt:    at,
		})
	}
	return out, nil
}
