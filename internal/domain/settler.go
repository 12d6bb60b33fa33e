package domain

import (
	"sort"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// SettlerSet
// ──────────────────────────────────────────────────────────────────────────────

// SettlerSet is the capacity-bounded, sorted set of identities authorized to
// finalize bets.  The slice stays sorted after every mutation so membership
// checks are a binary search.  Once the set is non-empty it can never be
// emptied: the last settler cannot be removed.
type SettlerSet struct {
	members  []uuid.UUID
	capacity int
}

// NewSettlerSet builds a set from the given members (any order, duplicates
// collapsed) with the given capacity.  Members beyond capacity are dropped
// deterministically from the tail of the sorted order.
func NewSettlerSet(capacity int, members []uuid.UUID) *SettlerSet {
	s := &SettlerSet{capacity: capacity}
	sorted := make([]uuid.UUID, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		return CompareIdentity(sorted[i], sorted[j]) < 0
	})
	for _, m := range sorted {
		if len(s.members) > 0 && s.members[len(s.members)-1] == m {
			continue
		}
		if len(s.members) == capacity {
			break
		}
		s.members = append(s.members, m)
	}
	return s
}

// search returns the insertion position for id and whether it is present.
func (s *SettlerSet) search(id uuid.UUID) (int, bool) {
	pos := sort.Search(len(s.members), func(i int) bool {
		return CompareIdentity(s.members[i], id) >= 0
	})
	return pos, pos < len(s.members) && s.members[pos] == id
}

// Contains reports membership via binary search.
func (s *SettlerSet) Contains(id uuid.UUID) bool {
	_, ok := s.search(id)
	return ok
}

// Add inserts id keeping sort order.  Fails with ErrAlreadySettler when the
// identity is present and ErrSettlerLimit when the set is at capacity.
func (s *SettlerSet) Add(id uuid.UUID) error {
	if len(s.members) >= s.capacity {
		return ErrSettlerLimit
	}
	pos, ok := s.search(id)
	if ok {
		return ErrAlreadySettler
	}
	s.members = append(s.members, uuid.UUID{})
	copy(s.members[pos+1:], s.members[pos:])
	s.members[pos] = id
	return nil
}

// Remove deletes id from the set.  Fails with ErrLastSettler when the set has
// exactly one member and ErrNotSettler when the identity is absent.
func (s *SettlerSet) Remove(id uuid.UUID) error {
	if len(s.members) == 1 {
		return ErrLastSettler
	}
	pos, ok := s.search(id)
	if !ok {
		return ErrNotSettler
	}
	s.members = append(s.members[:pos], s.members[pos+1:]...)
	return nil
}

// Len returns the number of settlers.
func (s *SettlerSet) Len() int { return len(s.members) }

// Members returns the settlers in sorted order.  The returned slice is a copy.
func (s *SettlerSet) Members() []uuid.UUID {
	out := make([]uuid.UUID, len(s.members))
	copy(out, s.members)
	return out
}
