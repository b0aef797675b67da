package consensus

import (
	"context"

	"github.com/hayotensor/subnet-consensus-agent/internal/logging"
	"go.uber.org/zap"
)

// maxActivationSpins bounds the activation driver's flattened retry loop.
// The source expresses retries via self-recursion (unbounded call depth on
// a long registration wait); this port flattens that into a loop instead,
// per the Design Notes, but still needs a ceiling so a pathological chain
// (subnet never activates, never expires) can't spin forever between
// cancellation checks. In practice one Step() call advances by at most a
// handful of iterations before returning control to the ConsensusLoop.
const maxActivationSpins = 64

// ActivationDriver waits for subnet activation, computes this node's
// staggered activation window, and possibly submits activate_subnet (§4.5).
type ActivationDriver struct {
	path       string
	chain      ChainClient
	signer     Signer
	state      *AgentState
	log        logging.Logger
	metrics    Metrics
	scoreCache ScoreCache
}

// NewActivationDriver constructs a driver for the given subnet path.
func NewActivationDriver(path string, chain ChainClient, signer Signer, state *AgentState, log logging.Logger) *ActivationDriver {
	return &ActivationDriver{path: path, chain: chain, signer: signer, state: state, log: log, metrics: noopMetrics{}}
}

// SetMetrics wires the same Metrics sink as the owning ConsensusLoop.
func (d *ActivationDriver) SetMetrics(m Metrics) { d.metrics = m }

// SetScoreCache wires the same on-disk score cache as the owning
// ConsensusLoop, so the first commitActivated after a restart can seed
// AgentState.previous_epoch_scores from it.
func (d *ActivationDriver) SetScoreCache(c ScoreCache) { d.scoreCache = c }

// Step runs one bounded pass of the activation algorithm. It returns
// (activated=true) once the subnet is confirmed active and AgentState has
// been updated accordingly. A fatal error means the caller should shut the
// agent down (KindPathNotFound/KindSubnetDataMissing); any other error is
// non-fatal and the caller should retry next tick.
func (d *ActivationDriver) Step(ctx context.Context, stop <-chan struct{}) (activated bool, err error) {
	for spin := 0; spin < maxActivationSpins; spin++ {
		select {
		case <-stop:
			return false, nil
		default:
		}

		subnetID, found, err := d.chain.SubnetIDByPath(ctx, d.path)
		if err != nil {
			return false, d.chainError(KindTransport, "subnet_id_by_path", err)
		}
		if !found {
			d.log.Error("subnet path not found, shutting down", zap.String("path", d.path))
			return false, d.chainError(KindPathNotFound, "subnet_id_by_path", nil)
		}

		status, found, err := d.chain.SubnetData(ctx, subnetID)
		if err != nil {
			return false, d.chainError(KindTransport, "subnet_data", err)
		}
		if !found {
			d.log.Error("subnet data missing, shutting down", zap.Uint64("subnet_id", subnetID))
			return false, d.chainError(KindSubnetDataMissing, "subnet_data", nil)
		}

		if status.Activated() {
			d.commitActivated(subnetID)
			return true, nil
		}

		nodes, err := d.chain.SubmittableNodes(ctx, subnetID)
		if err != nil {
			return false, d.chainError(KindTransport, "submittable_nodes", err)
		}

		idx, inList := indexOf(nodes, d.signer.AccountID())
		if !inList {
			// Not yet in the submittable set: wait one block and retry.
			if !interruptibleSleep(d.chain.BlockSecs(), stop) {
				return false, nil
			}
			continue
		}

		// Slot width, in blocks, is 10*BLOCK_SECS (B3): the chain's
		// seconds-per-block constant doubles as the per-slot block
		// multiplier, matching the source's activation-stagger formula.
		slotWidth := BlockNumber(ActivationSlotBlocks) * BlockNumber(d.chain.BlockSecs().Seconds())
		base := status.ActivationWindowStart()
		lo := base + slotWidth*BlockNumber(idx)
		hi := base + slotWidth*BlockNumber(idx+1)

		cur, err := d.chain.BlockNumber(ctx)
		if err != nil {
			return false, d.chainError(KindTransport, "block_number", err)
		}
		d.metrics.SetCurrentBlock(uint64(cur))

		switch {
		case cur < lo:
			wait := SleepDuration(uint64(lo-cur), d.chain.BlockSecs())
			if !interruptibleSleep(wait, stop) {
				return false, nil
			}
			continue
		case cur >= hi:
			d.log.Warn("activation slot passed without activation, retrying",
				zap.Uint64("subnet_id", subnetID), zap.Uint64("node_index", uint64(idx)))
			if !interruptibleSleep(d.chain.BlockSecs(), stop) {
				return false, nil
			}
			continue
		default: // lo <= cur < hi: our slot
			status, found, err = d.chain.SubnetData(ctx, subnetID)
			if err != nil {
				return false, d.chainError(KindTransport, "subnet_data", err)
			}
			if !found {
				return false, d.chainError(KindSubnetDataMissing, "subnet_data", nil)
			}
			if status.Activated() {
				d.commitActivated(subnetID)
				return true, nil
			}

			receipt, err := d.chain.ActivateSubnet(ctx, d.signer, subnetID)
			if err != nil {
				return false, d.chainError(KindTransport, "activate_subnet", err)
			}
			if !receipt.IsSuccess {
				d.log.Warn("activate_subnet extrinsic failed", zap.String("error", receipt.Error))
				return false, nil
			}
			if receipt.HasEvent(SubnetActivatedEvent) {
				d.commitActivated(subnetID)
				return true, nil
			}
			d.log.Warn("activate_subnet succeeded without SubnetActivated event; subnet likely didn't meet requirements")
			return false, nil
		}
	}
	return false, nil
}

// chainError mirrors ConsensusLoop.chainError: every error this driver
// returns passes through here so IterationErrors counts activation failures
// too, not just steady-state ones.
func (d *ActivationDriver) chainError(kind ErrorKind, op string, err error) error {
	d.metrics.IncIterationError(kind.String())
	return NewChainError(kind, op, err)
}

func (d *ActivationDriver) commitActivated(subnetID uint64) {
	d.state.setSubnetID(subnetID)
	d.state.setAcceptingConsensus()
	d.log.Info("subnet activated", zap.Uint64("subnet_id", subnetID))

	if d.scoreCache == nil {
		return
	}
	scores, found, err := d.scoreCache.Load(subnetID)
	if err != nil {
		d.log.Warn("failed to load score cache", zap.Error(err))
		return
	}
	if found {
		d.state.SeedPreviousEpochScores(scores)
	}
}

// indexOf returns the 0-based index of account in nodes, by AccountId
// equality, and whether it was found. The chain's ordering (§4.1) is the
// source of truth for activation staggering.
func indexOf(nodes []SubmittableNode, account AccountId) (index int, found bool) {
	for i, n := range nodes {
		if n.AccountId == account {
			return i, true
		}
	}
	return 0, false
}
