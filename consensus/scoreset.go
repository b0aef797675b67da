package consensus

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// ScoreSet is the canonical, comparable representation of a reward
// submission: an unordered set of per-peer ScoreRecords, at most one per
// PeerId. Equality is set-equality on verbatim field values (I4).
type ScoreSet struct {
	set mapset.Set[scoreRecordKey]
}

// NewScoreSet builds a ScoreSet from records, deduplicating by PeerId (last
// write wins, matching a chain response that is itself already deduplicated).
func NewScoreSet(records []ScoreRecord) ScoreSet {
	byPeer := make(map[PeerId]ScoreRecord, len(records))
	for _, r := range records {
		byPeer[r.PeerId] = r
	}
	s := mapset.NewThreadUnsafeSet[scoreRecordKey]()
	for _, r := range byPeer {
		s.Add(r.key())
	}
	return ScoreSet{set: s}
}

// Empty reports whether the set has no records.
func (s ScoreSet) Empty() bool {
	return s.set == nil || s.set.Cardinality() == 0
}

// Equal reports strict set-equality (spec §4.4 rule 2).
func (s ScoreSet) Equal(other ScoreSet) bool {
	a, b := s.normalized(), other.normalized()
	return a.Equal(b)
}

// SymmetricDifference returns the records present in exactly one of s, other.
func (s ScoreSet) SymmetricDifference(other ScoreSet) ScoreSet {
	a, b := s.normalized(), other.normalized()
	return ScoreSet{set: a.SymmetricDifference(b)}
}

// Subset reports whether every element of s is also an element of other.
func (s ScoreSet) Subset(other ScoreSet) bool {
	a, b := s.normalized(), other.normalized()
	return a.IsSubset(b)
}

// Records returns the set's contents as a slice, in unspecified order.
func (s ScoreSet) Records() []ScoreRecord {
	if s.set == nil {
		return nil
	}
	out := make([]ScoreRecord, 0, s.set.Cardinality())
	for _, k := range s.set.ToSlice() {
		out = append(out, ScoreRecord{PeerId: k.PeerId, Score: k.Score, Class: k.Class})
	}
	return out
}

func (s ScoreSet) normalized() mapset.Set[scoreRecordKey] {
	if s.set == nil {
		return mapset.NewThreadUnsafeSet[scoreRecordKey]()
	}
	return s.set
}

// AttestableEquivalent implements spec §4.4: A and B are attestably
// equivalent for an epoch given previous P iff both are empty, or A == B, or
// every discrepancy between A and B is explainable by a record present in P.
//
// Both the previous-epoch in-memory scores and the previous-epoch on-chain
// submission are normalized through NewScoreSet before this call -- there is
// no asymmetry between the two fallback sources (see DESIGN.md, Open
// Question resolution for the source's normalization bug).
func AttestableEquivalent(a, b, previous ScoreSet) bool {
	if a.Empty() && b.Empty() {
		return true
	}
	if a.Equal(b) {
		return true
	}
	diff := a.SymmetricDifference(b)
	return diff.Subset(previous)
}
