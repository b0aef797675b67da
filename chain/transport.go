// Package chain implements the concrete consensus.ChainClient (D1) over a
// JSON-RPC 2.0 transport to a Substrate-style node, reachable either by
// plain HTTP or by a persistent websocket connection.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope. Result is left as a raw
// message so callers can mapstructure-decode it into their own shape, the
// way a SCALE-decoded Substrate response is first surfaced as an untyped map.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// transport sends a JSON-RPC call and decodes the raw result. Two
// implementations exist: httpTransport (request/response) and
// wsTransport (persistent connection, used when the endpoint is a ws(s):// URL).
type transport interface {
	call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
	close() error
}

// httpTransport posts one JSON-RPC request per call over a shared client.
type httpTransport struct {
	endpoint string
	client   *http.Client
}

func newHTTPTransport(endpoint string) *httpTransport {
	return &httpTransport{endpoint: endpoint, client: &http.Client{Timeout: 30 * time.Second}}
}

func (t *httpTransport) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != nil {
		return nil, decoded.Error
	}
	return decoded.Result, nil
}

func (t *httpTransport) close() error { return nil }

// wsTransport multiplexes JSON-RPC calls over one persistent websocket
// connection, matching how a long-lived Substrate client avoids
// reconnecting on every query (block_number and rewards_submission are each
// called every block by the attester poll loop of consensus.ConsensusLoop).
type wsTransport struct {
	endpoint string
	conn     *websocket.Conn
	pending  chan pendingCall
	closing  chan struct{}
	nextID   atomic.Uint64
	backoff  reconnectBackoff
}

type pendingCall struct {
	id     string
	result chan rpcResponse
}

func dialWebsocket(ctx context.Context, endpoint string) (*wsTransport, error) {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	t := &wsTransport{
		endpoint: endpoint,
		conn:     conn,
		pending:  make(chan pendingCall, 64),
		closing:  make(chan struct{}),
		backoff:  newReconnectBackoff(),
	}
	go t.readLoop()
	return t, nil
}

// readLoop owns the connection and reconnects with backoff on any read
// failure, so a transient disconnect from the chain node never surfaces as
// a permanent error to the consensus worker -- it simply sees slower calls
// while reconnectBackoff paces the retries.
func (t *wsTransport) readLoop() {
	waiting := map[string]chan rpcResponse{}
	attempt := 0
	for {
		select {
		case p := <-t.pending:
			waiting[p.id] = p.result
			continue
		case <-t.closing:
			return
		default:
		}

		var resp rpcResponse
		if err := t.conn.ReadJSON(&resp); err != nil {
			if t.reconnect(attempt) != nil {
				return // closing, or ctx cancelled during backoff
			}
			attempt++
			continue
		}
		attempt = 0
		// A call registers itself before writing its request, so any call
		// queued while ReadJSON was blocked is picked up before matching.
		for drained := false; !drained; {
			select {
			case p := <-t.pending:
				waiting[p.id] = p.result
			default:
				drained = true
			}
		}
		if ch, ok := waiting[resp.ID]; ok {
			ch <- resp
			delete(waiting, resp.ID)
		}
	}
}

func (t *wsTransport) reconnect(attempt int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-t.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := t.backoff.wait(ctx, attempt); err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return nil // keep retrying on the next readLoop iteration
	}
	t.conn = conn
	return nil
}

func (t *wsTransport) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	id := uuid.NewString()
	result := make(chan rpcResponse, 1)
	t.pending <- pendingCall{id: id, result: result}

	if err := t.conn.WriteJSON(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return nil, err
	}

	select {
	case resp := <-result:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *wsTransport) close() error {
	close(t.closing)
	return t.conn.Close()
}
