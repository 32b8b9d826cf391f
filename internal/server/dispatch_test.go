package server

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/pkg/arduino_serial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A silent device makes every transaction last the full ack timeout. With more
// requests queued than the request timeout can cover, the late ones must be
// refused without reaching the device, and every line the device did see must be
// reported as delivered.
func TestDispatcherQueueBehindSilentDevice(t *testing.T) {

	const requests = 14

	stack := newTestStack(t, arduino_serial.TestDeviceOptions{Mute: true})

	results := make([]domain.BridgeResult, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = stack.dispatcher.ExecuteAction(kitchenLight(domain.StateOn), domain.SOURCE_TCP)
		}(i)
	}
	wg.Wait()

	var delivered, refused int
	for _, result := range results {
		switch {
		case result.Accepted:
			assert.Equal(t, "no ack", result.Error)
			delivered++
		default:
			assert.True(t, strings.HasPrefix(result.Error, "request timed out"), result.Error)
			refused++
		}
	}

	assert.Equal(t, requests, delivered+refused)
	assert.Positive(t, delivered)
	assert.Positive(t, refused, "the queue outlasts the request timeout")
	require.Eventually(t, func() bool {
		return len(stack.device.Received()) == delivered
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, stack.device.Received(), delivered)
}
