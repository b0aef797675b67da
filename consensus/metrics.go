package consensus

// Metrics receives point-in-time observations from the consensus loop
// (D6). The core depends only on this narrow interface, never on a
// concrete Prometheus package, so it stays free of any ambient-stack
// import; internal/metrics.Metrics satisfies it structurally.
type Metrics interface {
	IncEpochsCompleted()
	IncValidateSubmitted()
	IncAttestsSubmitted()
	IncIterationError(kind string)
	SetLastCompletedEpoch(epoch uint64)
	SetCurrentBlock(block uint64)
}

// noopMetrics is the default until SetMetrics is called; every observation
// is discarded rather than requiring every caller to nil-check.
type noopMetrics struct{}

func (noopMetrics) IncEpochsCompleted()          {}
func (noopMetrics) IncValidateSubmitted()        {}
func (noopMetrics) IncAttestsSubmitted()         {}
func (noopMetrics) IncIterationError(string)     {}
func (noopMetrics) SetLastCompletedEpoch(uint64) {}
func (noopMetrics) SetCurrentBlock(uint64)       {}

// ScoreCache is the optional on-disk previous_epoch_scores store (D7,
// §4.11). A nil/unset ScoreCache is a valid no-op: the cache is strictly a
// restart-time optimization, never a correctness dependency -- the §4.4
// previous-epoch fallback always goes to the chain directly.
type ScoreCache interface {
	Load(subnetID uint64) (ScoreSet, bool, error)
	Store(subnetID uint64, scores ScoreSet) error
}
