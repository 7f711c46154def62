package fixtures

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hamed0406/matchalert/internal/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "fixtures.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestFileSource_LoadKeepsOrder(t *testing.T) {
	p := writeFile(t, `[
	  {"match_id": 42, "home_team": "Inter", "away_team": "Milan", "league_name": "Serie A",
	   "alert_datetime": "2025-03-01T20:45:00Z"},
	  {"match_id": "x-7", "home_team": "Ajax", "away_team": "PSV", "league_name": "Eredivisie",
	   "alert_datetime": "2025-03-01T18:30:00"}
	]`)

	src := NewFileSource(p, time.UTC)
	got, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 fixtures, got %d", len(got))
	}
	if got[0].MatchID != domain.NumericID(42) || got[1].MatchID != domain.StringID("x-7") {
		t.Fatalf("order or ids wrong: %+v", got)
	}
	if got[0].HomeTeam != "Inter" || got[0].LeagueName != "Serie A" {
		t.Fatalf("fields wrong: %+v", got[0])
	}
	if !got[1].AlertAt.Equal(time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)) {
		t.Fatalf("zone-less timestamp not read in configured location: %s", got[1].AlertAt)
	}
}

func TestFileSource_Errors(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		malformed bool
	}{
		{"not json", `[{"match_id": 1,`, true},
		{"object not array", `{"match_id": 1}`, true},
		{"missing id", `[{"home_team": "A", "alert_datetime": "2025-03-01T20:45:00Z"}]`, true},
		{"bad timestamp", `[{"match_id": 1, "alert_datetime": "soon"}]`, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			src := NewFileSource(writeFile(t, c.body), time.UTC)
			_, err := src.Load(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, ErrMalformed) != c.malformed {
				t.Fatalf("ErrMalformed mismatch: %v", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		src := NewFileSource(filepath.Join(t.TempDir(), "nope.json"), time.UTC)
		_, err := src.Load(context.Background())
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("want ErrNotExist, got %v", err)
		}
	})
}

func TestDecode_EmptyArray(t *testing.T) {
	got, err := Decode([]byte(`[]`), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("want empty, got %v err=%v", got, err)
	}
}
