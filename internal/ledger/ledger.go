// Package ledger persists the set of fixtures that have already been
// announced. Ids are only ever added; nothing here removes one.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"github.com/hamed0406/matchalert/internal/domain"
)

// ErrCorrupt marks a persisted ledger that exists but cannot be decoded.
var ErrCorrupt = errors.New("corrupt ledger")

// Store is implemented by a persistence layer holding the sent-alert set.
type Store interface {
	// Load returns an empty set, not an error, when nothing was persisted yet.
	Load(ctx context.Context) (Set, error)
	// Save replaces the persisted state with s.
	Save(ctx context.Context, s Set) error
}

// Set is the in-memory form of the ledger.
type Set map[domain.MatchID]struct{}

func NewSet(ids ...domain.MatchID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Has(id domain.MatchID) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id domain.MatchID) { s[id] = struct{}{} }

func (s Set) Len() int { return len(s) }

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the members in a stable order: numeric ids by value, then
// string ids lexically.
func (s Set) IDs() []domain.MatchID {
	out := make([]domain.MatchID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i], out[j]) })
	return out
}

func lessID(a, b domain.MatchID) bool {
	if a.IsNumeric() != b.IsNumeric() {
		return a.IsNumeric()
	}
	if a.IsNumeric() {
		fa, errA := strconv.ParseFloat(a.String(), 64)
		fb, errB := strconv.ParseFloat(b.String(), 64)
		if errA == nil && errB == nil && fa != fb {
			return fa < fb
		}
	}
	return a.String() < b.String()
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON reads a JSON array; duplicates collapse.
func (s *Set) UnmarshalJSON(b []byte) error {
	var ids []domain.MatchID
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewSet(ids...)
	return nil
}
