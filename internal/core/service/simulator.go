package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/port"
	"go.uber.org/zap"
)

// DeviceKey identifies one simulated device.
type DeviceKey struct {
	Intent   domain.Intent
	Location string
}

func (k DeviceKey) String() string {
	return fmt.Sprintf("%s:%s", k.Intent, k.Location)
}

// Simulator is the in-memory device state store used when no hardware is attached.
type Simulator struct {
	mu     sync.Mutex
	state  map[DeviceKey]domain.Value
	logger *zap.Logger
}

func NewSimulator(logger *zap.Logger) *Simulator {
	return &Simulator{
		state:  make(map[DeviceKey]domain.Value),
		logger: logger.With(zap.String("sink", "simulator")),
	}
}

func (s *Simulator) Apply(_ context.Context, action domain.Action) domain.BridgeResult {
	if action.IsUnknown() {
		s.logger.Debug("simulator: unrecognized command", zap.String("raw", action.RawText))
		return domain.Rejected(domain.ErrParseUnrecognized)
	}
	if err := action.Validate(); err != nil {
		return domain.BridgeResult{Error: fmt.Sprintf("invalid action: %s", err)}
	}

	key := DeviceKey{Intent: action.Intent, Location: action.LocationOrGlobal()}

	s.mu.Lock()
	s.state[key] = action.Value
	s.mu.Unlock()

	s.logger.Debug("simulator: applied", zap.Stringer("device", key), zap.Stringer("value", action.Value))
	return domain.Accepted()
}

func (s *Simulator) Get(intent domain.Intent, location string) (domain.Value, bool) {
	if location == "" {
		location = domain.GlobalLocation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[DeviceKey{Intent: intent, Location: location}]
	return v, ok
}

// Snapshot returns a copy of the current device state.
func (s *Simulator) Snapshot() map[DeviceKey]domain.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[DeviceKey]domain.Value, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}

// ensure interface compliance
var _ port.ActionSink = (*Simulator)(nil)
