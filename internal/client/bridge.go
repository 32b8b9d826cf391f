// Package client talks to a running bridge over its JSON lines protocol.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/port"

	"go.uber.org/zap"
)

const DIAL_TIMEOUT = 3 * time.Second

// BridgeClient keeps a single connection to the bridge and reuses it between calls.
// Calls are serialized; a failed call drops the connection and the next one re-dials.
type BridgeClient struct {
	address string
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewBridgeClient does not dial; the connection is opened on the first Apply.
// timeout bounds each request/response exchange.
func NewBridgeClient(address string, timeout time.Duration, logger *zap.Logger) *BridgeClient {
	return &BridgeClient{
		address: address,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "bridge_client")),
	}
}

func (c *BridgeClient) Apply(ctx context.Context, action domain.Action) domain.BridgeResult {
	// answered locally, exactly like the simulator
	if action.IsUnknown() {
		return domain.Rejected(domain.ErrParseUnrecognized)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.exchange(ctx, action)
	if err != nil {
		c.logger.Warn("bridge exchange failed", zap.String("address", c.address), zap.Error(err))
		c.drop()
		return domain.Rejected(fmt.Errorf("%w: %w", domain.ErrBridgeUnreachable, err))
	}
	return result
}

func (c *BridgeClient) exchange(ctx context.Context, action domain.Action) (domain.BridgeResult, error) {
	var result domain.BridgeResult

	if err := c.dial(ctx); err != nil {
		return result, err
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return result, err
	}

	data, err := json.Marshal(domain.BridgeRequest{Action: action})
	if err != nil {
		return result, err
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return result, err
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(line, &result); err != nil {
		return result, fmt.Errorf("decode bridge result: %w", err)
	}
	return result, nil
}

func (c *BridgeClient) dial(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	dialer := net.Dialer{Timeout: DIAL_TIMEOUT}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return err
	}
	c.logger.Debug("connected to bridge", zap.String("address", c.address))
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

func (c *BridgeClient) drop() {
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
	c.reader = nil
}

func (c *BridgeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
	return nil
}

// ensure interface compliance
var _ port.ActionSink = (*BridgeClient)(nil)
