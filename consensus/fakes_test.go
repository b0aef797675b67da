package consensus

import (
	"context"
	"sync"
	"time"
)

// fakeSigner is a minimal Signer for tests.
type fakeSigner struct {
	account AccountId
}

func (s fakeSigner) AccountID() AccountId { return s.account }

// fakeChain is an in-memory ChainClient recording every extrinsic submitted,
// used by the property tests (P2) and scenario tests (§8).
type fakeChain struct {
	mu sync.Mutex

	block       BlockNumber
	epochLength uint64
	blockSecs   time.Duration

	subnetPath string
	subnetID   uint64
	subnetOK   bool
	status     SubnetStatus
	statusOK   bool

	nodes []SubmittableNode

	validators map[Epoch]AccountId
	submitted  map[Epoch]*ValidatorSubmission

	activateCalls []uint64
	validateCalls []validateCall
	attestCalls   []attestCall
	activateFail  bool
	validateFail  bool
	attestFail    bool
}

type validateCall struct {
	SubnetID uint64
	Account  AccountId
	Data     []ScoreRecord
}

type attestCall struct {
	SubnetID uint64
	Account  AccountId
}

func newFakeChain(epochLength uint64, blockSecs time.Duration) *fakeChain {
	return &fakeChain{
		epochLength: epochLength,
		blockSecs:   blockSecs,
		validators:  map[Epoch]AccountId{},
		submitted:   map[Epoch]*ValidatorSubmission{},
	}
}

func (c *fakeChain) BlockNumber(context.Context) (BlockNumber, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block, nil
}

func (c *fakeChain) setBlock(b BlockNumber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = b
}

func (c *fakeChain) EpochLength(context.Context) (uint64, error) { return c.epochLength, nil }
func (c *fakeChain) BlockSecs() time.Duration                    { return c.blockSecs }

func (c *fakeChain) SubnetIDByPath(_ context.Context, path string) (uint64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.subnetOK || path != c.subnetPath {
		return 0, false, nil
	}
	return c.subnetID, true, nil
}

func (c *fakeChain) SubnetData(_ context.Context, subnetID uint64) (SubnetStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.statusOK || subnetID != c.subnetID {
		return SubnetStatus{}, false, nil
	}
	return c.status, true, nil
}

func (c *fakeChain) SubmittableNodes(context.Context, uint64) ([]SubmittableNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SubmittableNode, len(c.nodes))
	copy(out, c.nodes)
	return out, nil
}

func (c *fakeChain) RewardsValidator(_ context.Context, _ uint64, epoch Epoch) (AccountId, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.validators[epoch]
	return v, ok, nil
}

func (c *fakeChain) RewardsSubmission(_ context.Context, _ uint64, epoch Epoch) (ValidatorSubmission, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.submitted[epoch]
	if !ok {
		return ValidatorSubmission{}, false, nil
	}
	return *s, true, nil
}

func (c *fakeChain) ActivateSubnet(_ context.Context, signer Signer, subnetID uint64) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activateCalls = append(c.activateCalls, subnetID)
	if c.activateFail {
		return Receipt{IsSuccess: false, Error: "rejected"}, nil
	}
	c.status.ActivatedBlock = c.block
	if c.status.ActivatedBlock == 0 {
		c.status.ActivatedBlock = 1
	}
	return Receipt{IsSuccess: true, Events: []Event{{EventID: SubnetActivatedEvent}}}, nil
}

func (c *fakeChain) Validate(_ context.Context, signer Signer, subnetID uint64, data []ScoreRecord) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validateCalls = append(c.validateCalls, validateCall{SubnetID: subnetID, Account: signer.AccountID(), Data: data})
	if c.validateFail {
		return Receipt{IsSuccess: false}, nil
	}
	epoch := EpochOf(c.block, c.epochLength)
	c.submitted[epoch] = &ValidatorSubmission{Data: data}
	return Receipt{IsSuccess: true}, nil
}

func (c *fakeChain) Attest(_ context.Context, signer Signer, subnetID uint64) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attestCalls = append(c.attestCalls, attestCall{SubnetID: subnetID, Account: signer.AccountID()})
	if c.attestFail {
		return Receipt{IsSuccess: false}, nil
	}
	epoch := EpochOf(c.block, c.epochLength)
	if sub, ok := c.submitted[epoch]; ok {
		sub.Attests = append(sub.Attests, signer.AccountID())
	}
	return Receipt{IsSuccess: true}, nil
}

func (c *fakeChain) validateCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.validateCalls)
}

func (c *fakeChain) attestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.attestCalls)
}

// fakeProbe returns a fixed ScoreSet (or a sequence of them) regardless of
// subnetID, simulating a deterministic local measurement.
type fakeProbe struct {
	mu      sync.Mutex
	results []ScoreSet
	calls   int
}

func newFakeProbe(results ...ScoreSet) *fakeProbe {
	return &fakeProbe{results: results}
}

func (p *fakeProbe) Score(context.Context, uint64) (ScoreSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.results) == 0 {
		return ScoreSet{}, nil
	}
	idx := p.calls
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	p.calls++
	return p.results[idx], nil
}
