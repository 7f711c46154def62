package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MatchID identifies a fixture. Producers emit it either as a JSON string or
// as a JSON number; the original form is kept so that "7" and 7 stay distinct
// and re-encode exactly as they were read.
type MatchID struct {
	value   string
	numeric bool
}

// NewMatchID builds an id from its textual value. numeric marks ids that were
// (or should be) encoded as JSON numbers.
func NewMatchID(value string, numeric bool) MatchID {
	return MatchID{value: value, numeric: numeric}
}

func StringID(s string) MatchID { return MatchID{value: s} }

func NumericID(n int64) MatchID { return MatchID{value: fmt.Sprint(n), numeric: true} }

func (id MatchID) String() string { return id.value }

func (id MatchID) IsNumeric() bool { return id.numeric }

func (id MatchID) IsZero() bool { return id.value == "" }

func (id MatchID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *MatchID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return errors.New("match_id: missing value")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("match_id: %w", err)
		}
		if s == "" {
			return errors.New("match_id: empty string")
		}
		*id = MatchID{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("match_id: want string or number, got %s", b)
	}
	*id = MatchID{value: n.String(), numeric: true}
	return nil
}
