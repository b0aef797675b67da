package consensus

import (
	"context"
	"time"
)

// Signer produces signed extrinsics for a single account. Key material never
// crosses this boundary into the core.
type Signer interface {
	AccountID() AccountId
}

// ChainClient is the typed synchronous surface the core consumes from the
// chain. Every method either returns a value/Receipt or an error, which the
// core wraps into a *ChainError (§7); the core never retries inside a single
// call.
type ChainClient interface {
	BlockNumber(ctx context.Context) (BlockNumber, error)
	EpochLength(ctx context.Context) (uint64, error)
	BlockSecs() time.Duration

	SubnetIDByPath(ctx context.Context, path string) (subnetID uint64, found bool, err error)
	SubnetData(ctx context.Context, subnetID uint64) (SubnetStatus, bool, error)
	SubmittableNodes(ctx context.Context, subnetID uint64) ([]SubmittableNode, error)
	RewardsValidator(ctx context.Context, subnetID uint64, epoch Epoch) (AccountId, bool, error)
	RewardsSubmission(ctx context.Context, subnetID uint64, epoch Epoch) (ValidatorSubmission, bool, error)

	ActivateSubnet(ctx context.Context, signer Signer, subnetID uint64) (Receipt, error)
	Validate(ctx context.Context, signer Signer, subnetID uint64, data []ScoreRecord) (Receipt, error)
	Attest(ctx context.Context, signer Signer, subnetID uint64) (Receipt, error)
}

// ScoringProbe produces this node's independent peer-score snapshot for an
// epoch by querying live peers in the subnet's DHT.
type ScoringProbe interface {
	Score(ctx context.Context, subnetID uint64) (ScoreSet, error)
}
