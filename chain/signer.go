package chain

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/hayotensor/subnet-consensus-agent/consensus"
)

// derivationPath is fixed: one account per mnemonic, matching the original
// agent's single-account-per-process PHRASE model (no multi-account wallets).
var derivationPath = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild,
	bip32.FirstHardenedChild,
	0,
	0,
}

// MnemonicSigner is the concrete consensus.Signer (D2): a secp256k1 keypair
// derived from a BIP-39 mnemonic phrase via a fixed BIP-32 path. It never
// exposes key material beyond AccountID and Sign.
type MnemonicSigner struct {
	account    consensus.AccountId
	privateKey *secp256k1.PrivateKey
}

// NewMnemonicSigner derives a signer from phrase, the equivalent of the
// original agent's PHRASE environment variable.
func NewMnemonicSigner(phrase string) (*MnemonicSigner, error) {
	if !bip39.IsMnemonicValid(phrase) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}
	seed := bip39.NewSeed(phrase, "")

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}

	key := master
	for _, index := range derivationPath {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, fmt.Errorf("derive child key: %w", err)
		}
	}

	priv := secp256k1.PrivKeyFromBytes(key.Key)
	account := accountIDFromPubKey(priv.PubKey().SerializeCompressed())

	return &MnemonicSigner{account: account, privateKey: priv}, nil
}

// accountIDFromPubKey base58-encodes a sha256 digest of the compressed
// public key, the same representation family a Substrate SS58 address uses
// (hash-then-base58), without pulling in full SS58 checksum/network-prefix
// machinery this agent's chain interactions never need.
func accountIDFromPubKey(pubKey []byte) consensus.AccountId {
	digest := sha256.Sum256(pubKey)
	return consensus.AccountId(base58.Encode(digest[:]))
}

// AccountID returns the derived account, satisfying consensus.Signer.
func (s *MnemonicSigner) AccountID() consensus.AccountId { return s.account }

// Sign produces a deterministic ECDSA signature over payload, consumed by
// Client.submitExtrinsic before dispatching an extrinsic.
func (s *MnemonicSigner) Sign(payload []byte) ([]byte, error) {
	digest := sha256.Sum256(payload)
	sig := ecdsa.SignCompact(s.privateKey, digest[:], true)
	return sig, nil
}
