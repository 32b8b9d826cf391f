package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBridge answers every request with an accepted result echoing the device line.
// With oneShot set it hangs up after the first answer on each connection.
type fakeBridge struct {
	listener net.Listener
	accepted atomic.Int32
	oneShot  bool
}

func startFakeBridge(t *testing.T, oneShot bool) *fakeBridge {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	fb := &fakeBridge{listener: listener, oneShot: oneShot}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			fb.accepted.Add(1)
			go fb.serve(conn)
		}
	}()
	return fb
}

func (fb *fakeBridge) serve(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)
	for scanner.Scan() {
		var req domain.BridgeRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(domain.Rejected(domain.ErrMalformedRequest))
			continue
		}
		encoder.Encode(domain.BridgeResult{
			Accepted:       true,
			DeviceLineEcho: "[arduino] " + string(req.Action.Intent) + " -> " + req.Action.Value.String(),
		})
		if fb.oneShot {
			return
		}
	}
}

func (fb *fakeBridge) address() string {
	return fb.listener.Addr().String()
}

func garageOpen() domain.Action {
	return domain.Action{Intent: domain.IntentGarage, Value: domain.StateValue(domain.StateOpen)}
}

func TestBridgeClientReusesConnection(t *testing.T) {

	fb := startFakeBridge(t, false)
	c := NewBridgeClient(fb.address(), time.Second, zap.NewNop())
	defer c.Close()

	for i := 0; i < 3; i++ {
		result := c.Apply(context.Background(), garageOpen())
		require.True(t, result.Accepted, result.Error)
		assert.Equal(t, "[arduino] GARAGE -> OPEN", result.DeviceLineEcho)
	}
	assert.Equal(t, int32(1), fb.accepted.Load())
}

func TestBridgeClientRedialsAfterHangup(t *testing.T) {

	fb := startFakeBridge(t, true)
	c := NewBridgeClient(fb.address(), time.Second, zap.NewNop())
	defer c.Close()

	first := c.Apply(context.Background(), garageOpen())
	require.True(t, first.Accepted, first.Error)

	// the bridge hung up; this call fails and drops the dead connection
	var recovered bool
	for i := 0; i < 3 && !recovered; i++ {
		result := c.Apply(context.Background(), garageOpen())
		if result.Accepted {
			recovered = true
			continue
		}
		assert.True(t, strings.HasPrefix(result.Error, "bridge unreachable"), result.Error)
	}
	assert.True(t, recovered)
	assert.GreaterOrEqual(t, fb.accepted.Load(), int32(2))
}

func TestBridgeClientUnknownStaysLocal(t *testing.T) {

	fb := startFakeBridge(t, false)
	c := NewBridgeClient(fb.address(), time.Second, zap.NewNop())
	defer c.Close()

	result := c.Apply(context.Background(), domain.Unknown("sing me a song"))

	assert.Equal(t, domain.BridgeResult{Accepted: false, Error: "unrecognized command"}, result)
	assert.Equal(t, int32(0), fb.accepted.Load(), "nothing dialled")
}

func TestBridgeClientUnreachable(t *testing.T) {

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	listener.Close()

	c := NewBridgeClient(address, time.Second, zap.NewNop())
	result := c.Apply(context.Background(), garageOpen())

	assert.False(t, result.Accepted)
	assert.True(t, strings.HasPrefix(result.Error, domain.ErrBridgeUnreachable.Error()), result.Error)
}

func TestBridgeClientTimeout(t *testing.T) {

	// accepts but never answers
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			defer conn.Close()
			time.Sleep(2 * time.Second)
		}
	}()

	c := NewBridgeClient(listener.Addr().String(), 200*time.Millisecond, zap.NewNop())
	defer c.Close()

	start := time.Now()
	result := c.Apply(context.Background(), garageOpen())
	assert.False(t, result.Accepted)
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, result.Error, "bridge unreachable")
}
