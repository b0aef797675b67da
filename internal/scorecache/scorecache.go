// Package scorecache implements the optional on-disk previous_epoch_scores
// cache (D7, §4.11): a tiny on-disk key-value store read once activation
// completes to seed consensus.AgentState and written after every attempted
// attestation (validation never writes it). It is strictly a restart-time optimization -- the previous-epoch
// fallback in §4.4 always goes to the chain directly and never consults
// this cache.
package scorecache

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/hayotensor/subnet-consensus-agent/consensus"
)

// Cache wraps a single-node LevelDB instance holding one key:
// "previous_epoch_scores/<subnet_id>" -> JSON-encoded []ScoreRecord.
type Cache struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a LevelDB instance rooted at dir.
func Open(dir string) (*Cache, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open score cache at %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

func key(subnetID uint64) []byte {
	return []byte(fmt.Sprintf("previous_epoch_scores/%d", subnetID))
}

// Load returns the cached ScoreSet for subnetID, and whether one was found.
// A missing entry is not an error -- it simply means AgentState.previous
// stays unseeded until the first attempted attestation (§4.11).
func (c *Cache) Load(subnetID uint64) (consensus.ScoreSet, bool, error) {
	raw, err := c.db.Get(key(subnetID), nil)
	if err == leveldb.ErrNotFound {
		return consensus.ScoreSet{}, false, nil
	}
	if err != nil {
		return consensus.ScoreSet{}, false, err
	}

	var records []consensus.ScoreRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return consensus.ScoreSet{}, false, fmt.Errorf("decode cached scores: %w", err)
	}
	return consensus.NewScoreSet(records), true, nil
}

// Store persists scores for subnetID, overwriting any previous entry.
func (c *Cache) Store(subnetID uint64, scores consensus.ScoreSet) error {
	raw, err := json.Marshal(scores.Records())
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	return c.db.Put(key(subnetID), raw, nil)
}
