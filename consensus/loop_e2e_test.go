package consensus

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hayotensor/subnet-consensus-agent/internal/logging"
)

// These mirror the six end-to-end scenarios of spec §8, with
// epoch_length = 10, BLOCK_SECS = 6.
var _ = Describe("ConsensusLoop end-to-end scenarios", func() {
	const (
		epochLength = 10
		blockSecs   = 6 * time.Millisecond // scaled down so tests run fast
		self        = AccountId("self")
		other       = AccountId("validator-b")
	)

	var (
		chain *fakeChain
		probe *fakeProbe
		loop  *ConsensusLoop
		stop  chan struct{}
	)

	newLoop := func(account AccountId, results ...ScoreSet) {
		chain = newFakeChain(epochLength, blockSecs)
		chain.subnetPath = "subnet-path"
		chain.subnetOK = true
		chain.subnetID = 1
		chain.statusOK = true
		chain.status = SubnetStatus{InitializedBlock: 0, RegistrationBlocks: 0, ActivatedBlock: 1}
		chain.nodes = []SubmittableNode{{AccountId: self}, {AccountId: other}}
		chain.setBlock(100) // epoch 10

		probe = newFakeProbe(results...)
		loop = NewConsensusLoop("subnet-path", chain, probe, fakeSigner{account: account}, logging.NoOp())
		loop.State().setSubnetID(1)
		loop.State().setAcceptingConsensus()
		loop.State().setNodeEligible()
		stop = make(chan struct{})
	})

	It("scenario 1: plain attest", func() {
		newLoop(self)
		s := NewScoreSet([]ScoreRecord{{PeerId: "p1", Score: 10, Class: 1}})
		probe.results = []ScoreSet{s}
		chain.validators[10] = other
		chain.submitted[10] = &ValidatorSubmission{Data: s.Records()}

		err := loop.RunOnce(context.Background(), stop)
		Expect(err).NotTo(HaveOccurred())
		Eventually(func() int { return chain.attestCount() }, time.Second).Should(Equal(1))
		Expect(loop.State().LastCompletedEpoch()).To(Equal(Epoch(10)))
	})

	It("scenario 2: already attested on restart", func() {
		newLoop(self)
		s := NewScoreSet([]ScoreRecord{{PeerId: "p1", Score: 10, Class: 1}})
		probe.results = []ScoreSet{s}
		chain.validators[10] = other
		chain.submitted[10] = &ValidatorSubmission{Data: s.Records(), Attests: []AccountId{self}}

		err := loop.RunOnce(context.Background(), stop)
		Expect(err).NotTo(HaveOccurred())
		Expect(chain.attestCount()).To(Equal(0), "must not submit a duplicate attest")
		Expect(loop.State().LastCompletedEpoch()).To(Equal(Epoch(10)))
	})

	It("scenario 3: disagreement tolerated by previous epoch scores", func() {
		newLoop(self)
		validatorData := NewScoreSet([]ScoreRecord{{PeerId: "p1", Score: 10, Class: 1}, {PeerId: "p2", Score: 5, Class: 0}})
		mine := NewScoreSet([]ScoreRecord{{PeerId: "p2", Score: 5, Class: 0}})
		previous := NewScoreSet([]ScoreRecord{{PeerId: "p1", Score: 10, Class: 1}})
		loop.State().SeedPreviousEpochScores(previous)

		probe.results = []ScoreSet{mine}
		chain.validators[10] = other
		chain.submitted[10] = &ValidatorSubmission{Data: validatorData.Records()}

		err := loop.RunOnce(context.Background(), stop)
		Expect(err).NotTo(HaveOccurred())
		Eventually(func() int { return chain.attestCount() }, time.Second).Should(Equal(1))
	})

	It("scenario 4: disagreement not tolerated", func() {
		newLoop(self)
		validatorData := NewScoreSet([]ScoreRecord{{PeerId: "p1", Score: 10, Class: 1}})
		mine := NewScoreSet([]ScoreRecord{{PeerId: "p1", Score: 11, Class: 1}})
		previous := NewScoreSet([]ScoreRecord{{PeerId: "p1", Score: 10, Class: 1}})
		loop.State().SeedPreviousEpochScores(previous)

		probe.results = []ScoreSet{mine}
		chain.validators[10] = other
		chain.submitted[10] = &ValidatorSubmission{Data: validatorData.Records()}

		attested, reason, err := loop.tryAttest(context.Background(), 1, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(attested).To(BeFalse())
		Expect(reason).To(Equal(AttestShouldNotAttest))
		Expect(chain.attestCount()).To(Equal(0))
	})

	It("scenario 5: validator role submits once", func() {
		newLoop(self)
		s := NewScoreSet([]ScoreRecord{{PeerId: "p1", Score: 10, Class: 1}})
		probe.results = []ScoreSet{s}
		chain.validators[10] = self

		err := loop.RunOnce(context.Background(), stop)
		Expect(err).NotTo(HaveOccurred())
		Expect(chain.validateCount()).To(Equal(1))
		Expect(loop.State().LastCompletedEpoch()).To(Equal(Epoch(10)))

		// A second iteration within the same epoch must not re-submit (I2).
		close(stop)
		stop = make(chan struct{})
		err = loop.RunOnce(context.Background(), stop)
		Expect(err).NotTo(HaveOccurred())
		Expect(chain.validateCount()).To(Equal(1))
	})

	It("scenario 6: validator never submits, attester exits via rollover", func() {
		newLoop(self)
		chain.validators[10] = other
		// no rewards_submission ever appears for epoch 10

		go func() {
			time.Sleep(4 * blockSecs)
			chain.setBlock(110) // roll over to epoch 11
		}()

		err := loop.RunOnce(context.Background(), stop)
		Expect(err).NotTo(HaveOccurred())
		Expect(chain.attestCount()).To(Equal(0))
		Expect(loop.State().LastCompletedEpoch()).To(Equal(Epoch(0)))
	})
})
