// Package scoring implements the concrete consensus.ScoringProbe (D3): it
// fans out to a subnet's known peers, collects raw samples, and reduces
// them into a deterministic consensus.ScoreSet via a fixed statistical rule
// so that two honest nodes sampling the same peer population converge on
// the same ScoreRecords.
package scoring

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/hayotensor/subnet-consensus-agent/consensus"
)

// maxConcurrentProbes bounds the peer fan-out so a large peer set cannot
// starve the single consensus worker goroutine (§5).
const maxConcurrentProbes = 16

// sample is one peer's raw measurement for the epoch.
type sample struct {
	peer       consensus.PeerId
	latencyMs  float64
	throughput float64
	uptime     float64 // fraction in [0,1]
	ok         bool
}

// Directory supplies the set of peers known for a subnet, the out-of-scope
// DHT layer's responsibility (§4.10). ScoringProbe only depends on this
// narrow interface, never on a concrete DHT client.
type Directory interface {
	Peers(ctx context.Context, subnetID uint64) ([]consensus.PeerId, error)
}

// Sampler takes one raw measurement of a peer. Implementations talk to the
// DHT/transport layer; ScoringProbe treats a non-nil error, or a context
// deadline, as "peer did not respond" -- an omission, never a zero score.
type Sampler interface {
	Sample(ctx context.Context, peer consensus.PeerId) (latencyMs, throughput, uptime float64, err error)
}

// Probe is the concrete consensus.ScoringProbe.
type Probe struct {
	directory Directory
	sampler   Sampler
	deadline  time.Duration
}

// New builds a Probe; deadline bounds each individual peer sample, not the
// whole fan-out (the fan-out's overall duration is bounded by the slowest
// peer that responds within deadline, since late responders are dropped).
func New(directory Directory, sampler Sampler, deadline time.Duration) *Probe {
	return &Probe{directory: directory, sampler: sampler, deadline: deadline}
}

// Score implements consensus.ScoringProbe.
func (p *Probe) Score(ctx context.Context, subnetID uint64) (consensus.ScoreSet, error) {
	peers, err := p.directory.Peers(ctx, subnetID)
	if err != nil {
		return consensus.ScoreSet{}, err
	}
	if len(peers) == 0 {
		return consensus.ScoreSet{}, nil
	}

	samples := make([]sample, len(peers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)

	for i, peer := range peers {
		i, peer := i, peer
		g.Go(func() error {
			samples[i] = p.sampleOne(gctx, peer)
			return nil // a single peer's failure never aborts the fan-out
		})
	}
	// Every goroutine returns nil (sampleOne swallows its own errors into
	// samples[i].ok), so g.Wait returns nil here; a peer whose sample fails
	// because ctx was cancelled is omitted like any other non-responder.
	if err := g.Wait(); err != nil {
		return consensus.ScoreSet{}, err
	}

	return reduce(samples), nil
}

func (p *Probe) sampleOne(ctx context.Context, peer consensus.PeerId) sample {
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	latency, throughput, uptime, err := p.sampler.Sample(ctx, peer)
	if err != nil {
		return sample{peer: peer, ok: false}
	}
	return sample{peer: peer, latencyMs: latency, throughput: throughput, uptime: uptime, ok: true}
}

// reduce turns raw per-peer samples into ScoreRecords via a fixed rule: a
// composite z-score (uptime and throughput positively weighted, latency
// negatively) against the responding population's mean/stddev for the
// epoch, clamped to [0, 100] and bucketed into one of four classes. Peers
// that never responded are omitted entirely, not zero-scored, preserving
// the "absence, not a zero score" rule of §4.10.
func reduce(samples []sample) consensus.ScoreSet {
	var throughputs, latencies, uptimes []float64
	responding := samples[:0]
	for _, s := range samples {
		if !s.ok {
			continue
		}
		responding = append(responding, s)
		throughputs = append(throughputs, s.throughput)
		latencies = append(latencies, s.latencyMs)
		uptimes = append(uptimes, s.uptime)
	}
	if len(responding) == 0 {
		return consensus.ScoreSet{}
	}

	tMean, tStd := meanStd(throughputs)
	lMean, lStd := meanStd(latencies)
	uMean, uStd := meanStd(uptimes)

	records := make([]consensus.ScoreRecord, 0, len(responding))
	for _, s := range responding {
		z := zscore(s.throughput, tMean, tStd) - zscore(s.latencyMs, lMean, lStd) + zscore(s.uptime, uMean, uStd)
		score := clamp(50+z*15, 0, 100)
		records = append(records, consensus.ScoreRecord{
			PeerId: s.peer,
			Score:  uint64(score),
			Class:  classOf(score),
		})
	}
	return consensus.NewScoreSet(records)
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean, std = stat.MeanStdDev(xs, nil)
	return mean, std
}

func zscore(x, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (x - mean) / std
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// classOf buckets a clamped [0,100] score into one of four classes,
// matching the small-integer classification ScoreRecord.Class carries
// on-chain.
func classOf(score float64) uint8 {
	switch {
	case score >= 75:
		return 3
	case score >= 50:
		return 2
	case score >= 25:
		return 1
	default:
		return 0
	}
}
