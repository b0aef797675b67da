package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/time/rate"

	"github.com/hayotensor/subnet-consensus-agent/consensus"
)

// cacheSize bounds the LRU used for subnet lookups: one entry per distinct
// subnet path/id a single agent process will ever query, which in practice
// is exactly one, but a handful of spares costs nothing.
const cacheSize = 32

// Client is the concrete consensus.ChainClient over a JSON-RPC transport.
// It satisfies consensus.ChainClient in full; callers never see the
// transport, cache, or limiter.
type Client struct {
	t       transport
	limiter *rate.Limiter

	blockSecs time.Duration

	cache *lru.Cache // keyed by cacheKey, see below

	epochLength      uint64
	epochLengthKnown bool
}

type cacheKey struct {
	kind string
	arg  interface{}
}

// New dials endpoint (ws(s):// for a persistent connection, http(s):// for
// plain request/response) and returns a ready-to-use Client. blockSecs is
// the chain's fixed block time, needed by consensus.ChainClient.BlockSecs
// and not itself discoverable over RPC in the reference chain.
func New(ctx context.Context, endpoint string, blockSecs time.Duration, callsPerSecond float64) (*Client, error) {
	var t transport
	var err error
	switch {
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		t, err = dialWebsocket(ctx, endpoint)
	default:
		t = newHTTPTransport(endpoint)
	}
	if err != nil {
		return nil, err
	}

	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}

	return &Client{
		t:         t,
		limiter:   rate.NewLimiter(rate.Limit(callsPerSecond), 1),
		blockSecs: blockSecs,
		cache:     cache,
	}, nil
}

// Close releases the underlying transport.
func (c *Client) Close() error { return c.t.close() }

func (c *Client) call(ctx context.Context, method string, out interface{}, params ...interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	raw, err := c.t.call(ctx, method, params...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	// UseNumber keeps integers as json.Number so values above 2^53 (e.g. a
	// ScoreRecord.Score) reach mapstructure without a float64 round trip.
	var generic interface{}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: out, TagName: "mapstructure"})
	if err != nil {
		return err
	}
	return decoder.Decode(generic)
}

func (c *Client) BlockNumber(ctx context.Context) (consensus.BlockNumber, error) {
	var n uint64
	if err := c.call(ctx, "chain_getBlockNumber", &n); err != nil {
		return 0, err
	}
	return consensus.BlockNumber(n), nil
}

// EpochLength is an immutable chain constant: cached for the process
// lifetime once observed (§4.8 caching rule).
func (c *Client) EpochLength(ctx context.Context) (uint64, error) {
	if c.epochLengthKnown {
		return c.epochLength, nil
	}
	var n uint64
	if err := c.call(ctx, "subnet_epochLength", &n); err != nil {
		return 0, err
	}
	c.epochLength = n
	c.epochLengthKnown = true
	return n, nil
}

func (c *Client) BlockSecs() time.Duration { return c.blockSecs }

func (c *Client) SubnetIDByPath(ctx context.Context, path string) (uint64, bool, error) {
	key := cacheKey{kind: "subnet_id_by_path", arg: path}
	if v, ok := c.cache.Get(key); ok {
		id := v.(uint64)
		return id, true, nil
	}

	var result struct {
		SubnetID *uint64 `mapstructure:"subnet_id"`
	}
	if err := c.call(ctx, "subnet_idByPath", &result, path); err != nil {
		return 0, false, err
	}
	if result.SubnetID == nil {
		return 0, false, nil
	}
	c.cache.Add(key, *result.SubnetID)
	return *result.SubnetID, true, nil
}

func (c *Client) SubnetData(ctx context.Context, subnetID uint64) (consensus.SubnetStatus, bool, error) {
	var result struct {
		Found              bool   `mapstructure:"found"`
		InitializedBlock   uint64 `mapstructure:"initialized_block"`
		RegistrationBlocks uint64 `mapstructure:"registration_blocks"`
		ActivatedBlock     uint64 `mapstructure:"activated_block"`
	}
	if err := c.call(ctx, "subnet_data", &result, subnetID); err != nil {
		return consensus.SubnetStatus{}, false, err
	}
	if !result.Found {
		return consensus.SubnetStatus{}, false, nil
	}
	return consensus.SubnetStatus{
		InitializedBlock:   consensus.BlockNumber(result.InitializedBlock),
		RegistrationBlocks: consensus.BlockNumber(result.RegistrationBlocks),
		ActivatedBlock:     consensus.BlockNumber(result.ActivatedBlock),
	}, true, nil
}

func (c *Client) SubmittableNodes(ctx context.Context, subnetID uint64) ([]consensus.SubmittableNode, error) {
	var nodes []consensus.SubmittableNode
	if err := c.call(ctx, "subnet_submittableNodes", &nodes, subnetID); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (c *Client) RewardsValidator(ctx context.Context, subnetID uint64, epoch consensus.Epoch) (consensus.AccountId, bool, error) {
	var result struct {
		Found     bool   `mapstructure:"found"`
		AccountID string `mapstructure:"account_id"`
	}
	if err := c.call(ctx, "rewards_validator", &result, subnetID, uint64(epoch)); err != nil {
		return "", false, err
	}
	if !result.Found {
		return "", false, nil
	}
	return consensus.AccountId(result.AccountID), true, nil
}

func (c *Client) RewardsSubmission(ctx context.Context, subnetID uint64, epoch consensus.Epoch) (consensus.ValidatorSubmission, bool, error) {
	var result struct {
		Found   bool                    `mapstructure:"found"`
		Data    []consensus.ScoreRecord `mapstructure:"data"`
		Attests []string                `mapstructure:"attests"`
	}
	if err := c.call(ctx, "rewards_submission", &result, subnetID, uint64(epoch)); err != nil {
		return consensus.ValidatorSubmission{}, false, err
	}
	if !result.Found {
		return consensus.ValidatorSubmission{}, false, nil
	}
	attests := make([]consensus.AccountId, len(result.Attests))
	for i, a := range result.Attests {
		attests[i] = consensus.AccountId(a)
	}
	return consensus.ValidatorSubmission{Data: result.Data, Attests: attests}, true, nil
}

func (c *Client) ActivateSubnet(ctx context.Context, signer consensus.Signer, subnetID uint64) (consensus.Receipt, error) {
	return c.submitExtrinsic(ctx, signer, "subnet_activateSubnet", subnetID)
}

func (c *Client) Validate(ctx context.Context, signer consensus.Signer, subnetID uint64, data []consensus.ScoreRecord) (consensus.Receipt, error) {
	return c.submitExtrinsic(ctx, signer, "subnet_validate", subnetID, data)
}

func (c *Client) Attest(ctx context.Context, signer consensus.Signer, subnetID uint64) (consensus.Receipt, error) {
	return c.submitExtrinsic(ctx, signer, "subnet_attest", subnetID)
}

func (c *Client) submitExtrinsic(ctx context.Context, signer consensus.Signer, method string, params ...interface{}) (consensus.Receipt, error) {
	signed, ok := signer.(interface {
		Sign(payload []byte) ([]byte, error)
	})
	if !ok {
		return consensus.Receipt{}, fmt.Errorf("signer %T cannot sign extrinsics", signer)
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return consensus.Receipt{}, err
	}
	signature, err := signed.Sign(payload)
	if err != nil {
		return consensus.Receipt{}, err
	}

	var result struct {
		Success bool                `mapstructure:"success"`
		Events  []consensus.Event   `mapstructure:"events"`
		Error   string              `mapstructure:"error"`
	}
	fullParams := append(append([]interface{}{}, params...), string(signer.AccountID()), signature)
	if err := c.call(ctx, method, &result, fullParams...); err != nil {
		return consensus.Receipt{}, err
	}
	return consensus.Receipt{IsSuccess: result.Success, Events: result.Events, Error: result.Error}, nil
}
