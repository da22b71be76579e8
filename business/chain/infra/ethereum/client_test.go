package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/internal/logger"
)

type rpcHandler func(params json.RawMessage) (any, error)

// newRPCServer serves single JSON-RPC requests from handlers.
func newRPCServer(t *testing.T, handlers map[string]rpcHandler) *httptest.Server {
	t.Helper()

	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}

		mu.Lock()
		h, ok := handlers[req.Method]
		mu.Unlock()

		if !ok {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found: " + req.Method}
		} else if result, err := h(req.Params); err != nil {
			resp["error"] = map[string]any{"code": -32000, "message": err.Error()}
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestClient_Calls(t *testing.T) {
	srv := newRPCServer(t, map[string]rpcHandler{
		"eth_chainId":  func(json.RawMessage) (any, error) { return "0x28c5f", nil },
		"eth_gasPrice": func(json.RawMessage) (any, error) { return "0x3b9aca00", nil },
		"txpool_status": func(json.RawMessage) (any, error) {
			return map[string]string{"pending": "0x10", "queued": "0x2"}, nil
		},
	})

	c, err := Dial(context.Background(), DefaultClientConfig("l2", srv.URL), testLogger())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	id, err := c.ChainID(context.Background())
	if err != nil {
		t.Fatalf("ChainID: %v", err)
	}
	if id.Uint64() != 0x28c5f {
		t.Errorf("chain id = %s", id)
	}

	price, err := c.SuggestGasPrice(context.Background())
	if err != nil {
		t.Fatalf("SuggestGasPrice: %v", err)
	}
	if price.Int64() != 1_000_000_000 {
		t.Errorf("gas price = %s", price)
	}

	var pool struct {
		Pending string `json:"pending"`
		Queued  string `json:"queued"`
	}
	if err := c.RawCall(context.Background(), &pool, "txpool_status"); err != nil {
		t.Fatalf("RawCall: %v", err)
	}
	if pool.Pending != "0x10" || pool.Queued != "0x2" {
		t.Errorf("txpool = %+v", pool)
	}

	status := c.Status()
	if status.State != domain.StateConnected || !status.UsingHTTP {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestClient_RPCErrorIsWrapped(t *testing.T) {
	srv := newRPCServer(t, map[string]rpcHandler{
		"eth_gasPrice": func(json.RawMessage) (any, error) { return nil, fmt.Errorf("node syncing") },
	})

	c, err := Dial(context.Background(), DefaultClientConfig("l1", srv.URL), testLogger())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if _, err := c.SuggestGasPrice(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.Status().LastError == "" {
		t.Error("expected last error to be recorded")
	}
}

func TestClient_PollingLogSubscription(t *testing.T) {
	var head atomic.Uint64
	head.Store(100)

	contract := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	srv := newRPCServer(t, map[string]rpcHandler{
		"eth_blockNumber": func(json.RawMessage) (any, error) {
			return fmt.Sprintf("0x%x", head.Add(1)), nil
		},
		"eth_getLogs": func(json.RawMessage) (any, error) {
			return []map[string]any{{
				"address":          contract.Hex(),
				"topics":           []string{common.HexToHash("0x01").Hex()},
				"data":             "0x",
				"blockNumber":      "0x65",
				"transactionHash":  common.HexToHash("0x02").Hex(),
				"transactionIndex": "0x0",
				"blockHash":        common.HexToHash("0x03").Hex(),
				"logIndex":         "0x0",
				"removed":          false,
			}}, nil
		},
	})

	cfg := DefaultClientConfig("l1", srv.URL)
	cfg.PollInterval = 10 * time.Millisecond

	c, err := Dial(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	logs := make(chan types.Log, 4)
	sub, err := c.SubscribeFilterLogs(context.Background(), ethereum.FilterQuery{Addresses: []common.Address{contract}}, logs)
	if err != nil {
		t.Fatalf("SubscribeFilterLogs: %v", err)
	}

	select {
	case l := <-logs:
		if l.Address != contract {
			t.Errorf("address = %s", l.Address)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no log delivered by polling subscription")
	}

	sub.Unsubscribe()
	select {
	case _, ok := <-sub.Err():
		if ok {
			t.Error("expected error channel to close without error")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop after Unsubscribe")
	}
}

func TestClient_ClosedRejectsCalls(t *testing.T) {
	srv := newRPCServer(t, map[string]rpcHandler{
		"eth_chainId": func(json.RawMessage) (any, error) { return "0x1", nil },
	})

	c, err := Dial(context.Background(), DefaultClientConfig("l1", srv.URL), testLogger())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	c.Close()
	c.Close()

	if _, err := c.ChainID(context.Background()); err == nil {
		t.Error("expected error after Close")
	}
	if c.Status().State != domain.StateDisconnected {
		t.Errorf("state = %s", c.Status().State)
	}
}

func TestPool_ReusesClients(t *testing.T) {
	srv := newRPCServer(t, map[string]rpcHandler{
		"eth_chainId": func(json.RawMessage) (any, error) { return "0x1", nil },
	})

	pool := NewPool(testLogger())
	defer pool.Close()

	n := domain.Network{Name: "l2", RPCURL: srv.URL}

	a, err := pool.Dial(context.Background(), n)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	b, err := pool.Dial(context.Background(), n)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if a != b {
		t.Error("expected the same client for the same network")
	}

	if ok, msg := pool.Check(context.Background()); !ok {
		t.Errorf("health check failed: %s", msg)
	}
	if got := pool.Statuses(); len(got) != 1 || got[0].Name != "l2" {
		t.Errorf("statuses = %+v", got)
	}
}

func TestPool_WSFallsBackToHTTP(t *testing.T) {
	srv := newRPCServer(t, map[string]rpcHandler{})

	pool := NewPool(testLogger())
	defer pool.Close()

	var dialed []string
	pool.dialFn = func(ctx context.Context, cfg ClientConfig) (*Client, error) {
		dialed = append(dialed, cfg.URL)
		if cfg.URL == "ws://unreachable" {
			return nil, fmt.Errorf("refused")
		}
		return Dial(ctx, cfg, testLogger())
	}

	if _, err := pool.Dial(context.Background(), domain.Network{Name: "l1", WSURL: "ws://unreachable", RPCURL: srv.URL}); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if len(dialed) != 2 || dialed[1] != srv.URL {
		t.Errorf("dialed = %v", dialed)
	}

	if _, err := pool.Dial(context.Background(), domain.Network{Name: "empty"}); err == nil {
		t.Error("expected error for a network with no endpoint")
	}
}
