package consensus

import "sync"

// AgentState is the only durable-in-memory state of the core (§3). It is
// owned exclusively by the ConsensusLoop's worker goroutine; nothing else
// mutates it. Every accessor still takes the mutex so that an operator
// status endpoint can read it from another goroutine (see Snapshot).
type AgentState struct {
	mu sync.RWMutex

	subnetID                  uint64
	subnetIDSet               bool
	subnetAcceptingConsensus  bool
	subnetNodeEligible        bool
	lastCompletedEpoch        Epoch
	previousEpochScores       ScoreSet
	havePreviousEpochScores   bool
}

// SubnetID returns the resolved subnet id and whether it has been set yet
// (I5: only valid once SubnetAcceptingConsensus is true).
func (s *AgentState) SubnetID() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subnetID, s.subnetIDSet
}

func (s *AgentState) setSubnetID(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subnetID = id
	s.subnetIDSet = true
}

// AcceptingConsensus reports the activation gate (I5, once true never false).
func (s *AgentState) AcceptingConsensus() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subnetAcceptingConsensus
}

func (s *AgentState) setAcceptingConsensus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subnetAcceptingConsensus = true
}

// NodeEligible reports whether this account has been observed in the
// submittable-nodes set (monotonic false->true).
func (s *AgentState) NodeEligible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subnetNodeEligible
}

func (s *AgentState) setNodeEligible() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subnetNodeEligible = true
}

// LastCompletedEpoch returns the highest epoch validated or attested (I1:
// monotonic non-decreasing).
func (s *AgentState) LastCompletedEpoch() Epoch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCompletedEpoch
}

// advanceLastCompletedEpoch sets lastCompletedEpoch to epoch if it is higher
// than the current value, preserving I1 even if called out of order.
func (s *AgentState) advanceLastCompletedEpoch(epoch Epoch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch > s.lastCompletedEpoch {
		s.lastCompletedEpoch = epoch
	}
}

// PreviousEpochScores returns the node's own ScoreSet from the most recently
// attempted attestation (or as seeded from the score cache), and whether one
// has been recorded yet. Validation does not update it.
func (s *AgentState) PreviousEpochScores() (ScoreSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previousEpochScores, s.havePreviousEpochScores
}

func (s *AgentState) setPreviousEpochScores(scores ScoreSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previousEpochScores = scores
	s.havePreviousEpochScores = true
}

// SeedPreviousEpochScores primes PreviousEpochScores from a restart-time
// cache (§4.11). Purely an optimization: if this is never called, the loop
// falls back to fetching the previous epoch's on-chain submission per §4.4.
func (s *AgentState) SeedPreviousEpochScores(scores ScoreSet) {
	s.setPreviousEpochScores(scores)
}

// Snapshot is a read-only copy of AgentState for status reporting.
type Snapshot struct {
	SubnetID                 uint64
	SubnetIDSet              bool
	SubnetAcceptingConsensus bool
	SubnetNodeEligible       bool
	LastCompletedEpoch       Epoch
}

// Snapshot returns a consistent point-in-time copy of the state's exported
// fields, safe to call from any goroutine.
func (s *AgentState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		SubnetID:                 s.subnetID,
		SubnetIDSet:              s.subnetIDSet,
		SubnetAcceptingConsensus: s.subnetAcceptingConsensus,
		SubnetNodeEligible:       s.subnetNodeEligible,
		LastCompletedEpoch:       s.lastCompletedEpoch,
	}
}
