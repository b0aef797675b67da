// Package consensus implements the per-node epoch-driven validator/attester
// state machine for a subnet anchored on a Substrate-style chain: waiting
// for subnet activation, determining eligibility, detecting the epoch's
// validator, and either submitting a freshly-measured score vector or
// verifying the validator's submission and attesting to it.
package consensus

import "fmt"

// PeerId identifies a peer in the DHT and on chain. Opaque outside of
// equality and hashing.
type PeerId string

// AccountId identifies a chain account. Each node owns exactly one and must
// stake under it.
type AccountId string

// Epoch is a non-negative epoch index. epoch = floor(block_number / epoch_length).
type Epoch uint64

// BlockNumber is a chain block height.
type BlockNumber uint64

// ScoreRecord is one peer's reward contribution for an epoch. Every field
// participates in equality and hashing with bit-exact semantics -- no lossy
// numeric conversions are performed anywhere on this type.
type ScoreRecord struct {
	PeerId PeerId  `mapstructure:"peer_id"`
	Score  uint64  `mapstructure:"score"`
	Class  uint8   `mapstructure:"class"`
}

// key returns the hashable, comparable representation of the record used as
// a golang-set element. Two records with identical field values produce
// identical keys regardless of the order they were decoded in.
func (r ScoreRecord) key() scoreRecordKey {
	return scoreRecordKey{PeerId: r.PeerId, Score: r.Score, Class: r.Class}
}

// scoreRecordKey is the comparable, hashable projection of ScoreRecord used
// as a map/set key. It must contain exactly the same fields as ScoreRecord;
// see NewScoreSet.
type scoreRecordKey struct {
	PeerId PeerId
	Score  uint64
	Class  uint8
}

func (k scoreRecordKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.PeerId, k.Score, k.Class)
}

// Event is one event emitted by a Receipt's triggered extrinsic.
type Event struct {
	EventID string
}

// SubnetActivatedEvent is the recognized literal signaling that activate_subnet
// succeeded in actually transitioning the subnet.
const SubnetActivatedEvent = "SubnetActivated"

// Receipt is the result of submitting a signed extrinsic.
type Receipt struct {
	IsSuccess bool
	Events    []Event
	Error     string
}

// HasEvent reports whether the receipt's triggered events contain eventID.
func (r Receipt) HasEvent(eventID string) bool {
	for _, e := range r.Events {
		if e.EventID == eventID {
			return true
		}
	}
	return false
}

// SubnetStatus is a snapshot of a subnet's on-chain lifecycle.
type SubnetStatus struct {
	InitializedBlock   BlockNumber
	RegistrationBlocks BlockNumber
	ActivatedBlock     BlockNumber // 0 if not yet activated
}

// ActivationWindowStart is initialized_block + registration_blocks.
func (s SubnetStatus) ActivationWindowStart() BlockNumber {
	return s.InitializedBlock + s.RegistrationBlocks
}

// Activated reports whether the subnet has completed activation.
func (s SubnetStatus) Activated() bool {
	return s.ActivatedBlock > 0
}

// SubmittableNode is one element of the chain's submittable-nodes list. The
// list's order is the source of truth for activation staggering (§4.5).
type SubmittableNode struct {
	AccountId      AccountId `mapstructure:"account_id"`
	PeerId         PeerId    `mapstructure:"peer_id"`
	Classification string    `mapstructure:"classification"`
}

// ValidatorSubmission is what the chain returns for (subnet_id, epoch) once
// the chosen validator has published. Absent until published; once present,
// Data is immutable and Attests only grows.
type ValidatorSubmission struct {
	Data    []ScoreRecord
	Attests []AccountId
}

// HasAttested reports whether account appears in the submission's attests list.
func (s ValidatorSubmission) HasAttested(account AccountId) bool {
	for _, a := range s.Attests {
		if a == account {
			return true
		}
	}
	return false
}
