package consensus

import (
	"context"

	"github.com/hayotensor/subnet-consensus-agent/internal/logging"
	"go.uber.org/zap"
)

// AttestReason explains the outcome of a single try_attest call (§4.6).
type AttestReason int

const (
	AttestWaiting AttestReason = iota
	AttestAttested
	AttestFailed
	AttestShouldNotAttest
)

func (r AttestReason) String() string {
	switch r {
	case AttestWaiting:
		return "waiting"
	case AttestAttested:
		return "attested"
	case AttestFailed:
		return "attest_failed"
	case AttestShouldNotAttest:
		return "should_not_attest"
	default:
		return "unknown"
	}
}

// ConsensusLoop is the single-worker epoch state machine described in §4.6:
// eligibility -> validator check -> validate-or-attest.
type ConsensusLoop struct {
	path       string
	chain      ChainClient
	probe      ScoringProbe
	signer     Signer
	state      *AgentState
	activation *ActivationDriver
	log        logging.Logger
	metrics    Metrics
	scoreCache ScoreCache

	epochLength uint64
}

// NewConsensusLoop wires the components described in §2's data-flow diagram.
func NewConsensusLoop(path string, chain ChainClient, probe ScoringProbe, signer Signer, log logging.Logger) *ConsensusLoop {
	state := &AgentState{}
	return &ConsensusLoop{
		path:       path,
		chain:      chain,
		probe:      probe,
		signer:     signer,
		state:      state,
		activation: NewActivationDriver(path, chain, signer, state, log),
		log:        log,
		metrics:    noopMetrics{},
	}
}

// State exposes the loop's AgentState for status reporting.
func (l *ConsensusLoop) State() *AgentState { return l.state }

// SetMetrics wires an operator-facing Metrics sink (D6). Must be called
// before Supervisor.Start; the field is read from the single worker
// goroutine the Supervisor drives and is not itself synchronized.
func (l *ConsensusLoop) SetMetrics(m Metrics) {
	l.metrics = m
	l.activation.SetMetrics(m)
}

// SetScoreCache wires the optional on-disk previous_epoch_scores cache
// (D7). Must be called before Supervisor.Start, for the same reason as
// SetMetrics. Seeding happens once activation completes (ActivationDriver
// knows the subnet id only at that point), not at construction time.
func (l *ConsensusLoop) SetScoreCache(c ScoreCache) {
	l.scoreCache = c
	l.activation.SetScoreCache(c)
}

// chainError records an iteration-error observation before wrapping err the
// same way NewChainError always has; every RunOnce-reachable error return
// goes through here so IterationErrors never undercounts a real failure.
func (l *ConsensusLoop) chainError(kind ErrorKind, op string, err error) error {
	l.metrics.IncIterationError(kind.String())
	return NewChainError(kind, op, err)
}

// RunOnce runs one iteration of the outer loop body (§4.6's pseudocode),
// returning when it has either made progress for the current epoch or
// determined there is nothing to do until a future block. The caller
// (Supervisor) is responsible for the outer `loop until stopped`.
func (l *ConsensusLoop) RunOnce(ctx context.Context, stop <-chan struct{}) error {
	epochLength, err := l.epochLen(ctx)
	if err != nil {
		return l.chainError(KindTransport, "epoch_length", err)
	}

	block, err := l.chain.BlockNumber(ctx)
	if err != nil {
		return l.chainError(KindTransport, "block_number", err)
	}
	l.metrics.SetCurrentBlock(uint64(block))
	epoch := EpochOf(block, epochLength)
	remaining := BlocksRemaining(block, epochLength)

	if epoch <= l.state.LastCompletedEpoch() && l.state.AcceptingConsensus() {
		l.log.Debug("already completed epoch, waiting for next", zap.Uint64("epoch", uint64(epoch)))
		interruptibleSleep(SleepDuration(remaining, l.chain.BlockSecs()), stop)
		return nil
	}

	if !l.state.AcceptingConsensus() {
		activated, err := l.activation.Step(ctx, stop)
		if err != nil {
			return err
		}
		if !activated {
			interruptibleSleep(l.chain.BlockSecs(), stop)
		}
		return nil
	}

	subnetID, _ := l.state.SubnetID()

	if !l.state.NodeEligible() {
		nodes, err := l.chain.SubmittableNodes(ctx, subnetID)
		if err != nil {
			return l.chainError(KindTransport, "submittable_nodes", err)
		}
		if _, found := indexOf(nodes, l.signer.AccountID()); found {
			l.state.setNodeEligible()
		} else {
			interruptibleSleep(SleepDuration(remaining, l.chain.BlockSecs()), stop)
			return nil
		}
	}

	validator, found, err := l.chain.RewardsValidator(ctx, subnetID, epoch)
	if err != nil {
		return l.chainError(KindTransport, "rewards_validator", err)
	}
	if !found {
		l.log.Debug("validator not chosen yet", zap.Uint64("epoch", uint64(epoch)))
		interruptibleSleep(l.chain.BlockSecs(), stop)
		return nil
	}

	if validator == l.signer.AccountID() {
		return l.runValidatorRole(ctx, stop, subnetID, epoch, remaining)
	}
	return l.runAttesterRole(ctx, stop, subnetID, epoch)
}

func (l *ConsensusLoop) epochLen(ctx context.Context) (uint64, error) {
	if l.epochLength != 0 {
		return l.epochLength, nil
	}
	n, err := l.chain.EpochLength(ctx)
	if err != nil {
		return 0, err
	}
	l.epochLength = n
	return n, nil
}

// runValidatorRole implements the is_validator branch of §4.6.
func (l *ConsensusLoop) runValidatorRole(ctx context.Context, stop <-chan struct{}, subnetID uint64, epoch Epoch, remaining uint64) error {
	l.log.Info("chosen validator for epoch", zap.Uint64("epoch", uint64(epoch)))

	_, submitted, err := l.chain.RewardsSubmission(ctx, subnetID, epoch)
	if err != nil {
		return l.chainError(KindTransport, "rewards_submission", err)
	}

	if !submitted {
		mine, err := l.probe.Score(ctx, subnetID)
		if err != nil {
			return l.chainError(KindProbeFailure, "score", err)
		}
		ok, err := l.doValidate(ctx, subnetID, mine)
		if err != nil {
			return err
		}
		if ok {
			l.state.advanceLastCompletedEpoch(epoch)
			l.metrics.IncValidateSubmitted()
			l.metrics.IncEpochsCompleted()
			l.metrics.SetLastCompletedEpoch(uint64(epoch))
		} else {
			l.log.Warn("validate submission unsuccessful, retrying next block")
			interruptibleSleep(l.chain.BlockSecs(), stop)
			return nil
		}
	} else {
		// DuplicateSubmission: our own validate already landed (possibly
		// from a prior, restarted process) -- satisfied for I2, not an error.
		l.state.advanceLastCompletedEpoch(epoch)
		l.metrics.IncEpochsCompleted()
		l.metrics.SetLastCompletedEpoch(uint64(epoch))
	}

	interruptibleSleep(SleepDuration(remaining, l.chain.BlockSecs()), stop)
	return nil
}

func (l *ConsensusLoop) doValidate(ctx context.Context, subnetID uint64, data ScoreSet) (bool, error) {
	receipt, err := l.chain.Validate(ctx, l.signer, subnetID, data.Records())
	if err != nil {
		return false, l.chainError(KindTransport, "validate", err)
	}
	if !receipt.IsSuccess {
		return false, nil
	}
	return true, nil
}

// runAttesterRole implements the attester path of §4.6: poll every block
// until the validator submits, MAX_ATTEST_CHECKS is exceeded, or the epoch
// rolls over.
func (l *ConsensusLoop) runAttesterRole(ctx context.Context, stop <-chan struct{}, subnetID uint64, initialEpoch Epoch) error {
	checks := 0
	for {
		if !interruptibleSleep(l.chain.BlockSecs(), stop) {
			return nil
		}

		block, err := l.chain.BlockNumber(ctx)
		if err != nil {
			return l.chainError(KindTransport, "block_number", err)
		}
		l.metrics.SetCurrentBlock(uint64(block))
		epochLength, err := l.epochLen(ctx)
		if err != nil {
			return l.chainError(KindTransport, "epoch_length", err)
		}
		epoch := EpochOf(block, epochLength)
		remaining := BlocksRemaining(block, epochLength)

		if epoch > initialEpoch {
			l.log.Info("validator never submitted, moving to next epoch", zap.Uint64("epoch", uint64(initialEpoch)))
			return nil
		}
		if checks > MaxAttestChecks {
			l.log.Info("exceeded attest checks, moving to next epoch", zap.Uint64("epoch", uint64(initialEpoch)))
			return nil
		}

		attested, reason, err := l.tryAttest(ctx, subnetID, initialEpoch)
		if err != nil {
			return err
		}

		switch {
		case attested && reason == AttestAttested:
			l.state.advanceLastCompletedEpoch(initialEpoch)
			l.metrics.IncAttestsSubmitted()
			l.metrics.IncEpochsCompleted()
			l.metrics.SetLastCompletedEpoch(uint64(initialEpoch))
			return nil
		case !attested && reason == AttestAttested:
			// Already attested (restart-induced recheck); completion either way.
			l.state.advanceLastCompletedEpoch(initialEpoch)
			l.metrics.IncEpochsCompleted()
			l.metrics.SetLastCompletedEpoch(uint64(initialEpoch))
			return nil
		case reason == AttestWaiting, reason == AttestFailed:
			checks++
			continue
		case reason == AttestShouldNotAttest:
			checks++
			delta := remaining / 2
			if delta/2 < 2*uint64(l.chain.BlockSecs().Seconds()) {
				delta = 0
			}
			wait := SaturatingSub(SleepDuration(delta, l.chain.BlockSecs()), l.chain.BlockSecs())
			interruptibleSleep(wait, stop)
			continue
		}
	}
}

// tryAttest implements the try_attest procedure of §4.6.
func (l *ConsensusLoop) tryAttest(ctx context.Context, subnetID uint64, epoch Epoch) (bool, AttestReason, error) {
	submission, found, err := l.chain.RewardsSubmission(ctx, subnetID, epoch)
	if err != nil {
		return false, AttestFailed, l.chainError(KindTransport, "rewards_submission", err)
	}
	if !found {
		return false, AttestWaiting, nil
	}

	if submission.HasAttested(l.signer.AccountID()) {
		return false, AttestAttested, nil
	}

	mine, err := l.probe.Score(ctx, subnetID)
	if err != nil {
		return false, AttestFailed, l.chainError(KindProbeFailure, "score", err)
	}

	previous, haveOwn := l.state.PreviousEpochScores()
	if !haveOwn {
		previousSubmission, found, err := l.chain.RewardsSubmission(ctx, subnetID, epoch-1)
		if err != nil {
			return false, AttestFailed, l.chainError(KindTransport, "rewards_submission", err)
		}
		if found {
			previous = NewScoreSet(previousSubmission.Data)
		} else {
			previous = ScoreSet{}
		}
	}

	validatorSet := NewScoreSet(submission.Data)
	should := AttestableEquivalent(validatorSet, mine, previous)

	// Always update previous_epoch_scores, success or not (§4.6 step 5).
	l.state.setPreviousEpochScores(mine)
	if l.scoreCache != nil {
		if err := l.scoreCache.Store(subnetID, mine); err != nil {
			l.log.Warn("failed to persist score cache", zap.Error(err))
		}
	}

	if !should {
		return false, AttestShouldNotAttest, nil
	}

	receipt, err := l.chain.Attest(ctx, l.signer, subnetID)
	if err != nil {
		return false, AttestFailed, l.chainError(KindTransport, "attest", err)
	}
	if receipt.IsSuccess {
		return true, AttestAttested, nil
	}
	return false, AttestFailed, nil
}
