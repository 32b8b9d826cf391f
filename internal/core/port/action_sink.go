package port

import (
	"context"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
)

// ActionSink executes actions. The simulator and the bridge client both implement it,
// so callers switch modes without any change in interpretation or encoding.
type ActionSink interface {
	Apply(ctx context.Context, action domain.Action) domain.BridgeResult
}
