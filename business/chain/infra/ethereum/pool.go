package ethereum

import (
	"context"
	"sort"
	"sync"

	"github.com/fd1az/bridge-status/business/chain/app"
	"github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
	"github.com/fd1az/bridge-status/internal/logger"
)

// Pool dials each network once and shares the client between layers. The L2
// network is the rollup of layer two and the base of layer three, so a layer
// switch reuses its connection.
type Pool struct {
	logger  logger.LoggerInterface
	mu      sync.Mutex
	clients map[string]*Client
	dialFn  func(ctx context.Context, cfg ClientConfig) (*Client, error)
}

// NewPool creates an empty client pool.
func NewPool(log logger.LoggerInterface) *Pool {
	p := &Pool{
		logger:  log,
		clients: make(map[string]*Client),
	}
	p.dialFn = func(ctx context.Context, cfg ClientConfig) (*Client, error) {
		return Dial(ctx, cfg, log)
	}
	return p
}

var _ app.Dialer = (*Pool)(nil)

// Dial returns the shared client for network, connecting on first use.
// WebSocket is tried first with the HTTP endpoint as fallback.
func (p *Pool) Dial(ctx context.Context, network domain.Network) (app.Backend, error) {
	key := network.WSURL + "|" + network.RPCURL

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c, nil
	}

	var (
		client *Client
		err    error
	)
	if network.WSURL != "" {
		client, err = p.dialFn(ctx, DefaultClientConfig(network.Name, network.WSURL))
		if err != nil && network.RPCURL != "" {
			p.logger.Warn(ctx, "ws dial failed, trying http fallback", "name", network.Name, "error", err)
		}
	}
	if client == nil && network.RPCURL != "" {
		client, err = p.dialFn(ctx, DefaultClientConfig(network.Name, network.RPCURL))
	}
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithContext(network.Name+": no endpoint configured"))
	}

	p.clients[key] = client
	return client, nil
}

// Statuses reports every dialed client, sorted by name.
func (p *Pool) Statuses() []domain.ConnectionStatus {
	p.mu.Lock()
	out := make([]domain.ConnectionStatus, 0, len(p.clients))
	for _, c := range p.clients {
		out = append(out, c.Status())
	}
	p.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Check is a health check over every dialed client.
func (p *Pool) Check(ctx context.Context) (bool, string) {
	p.mu.Lock()
	clients := make([]*Client, 0, len(p.clients))
	for _, c := range p.clients {
		clients = append(clients, c)
	}
	p.mu.Unlock()

	if len(clients) == 0 {
		return false, "no chain clients dialed"
	}
	for _, c := range clients {
		if _, err := c.ChainID(ctx); err != nil {
			return false, c.Name() + ": " + err.Error()
		}
	}
	return true, "connected"
}

// Close closes every client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, c := range p.clients {
		c.Close()
		delete(p.clients, key)
	}
}
