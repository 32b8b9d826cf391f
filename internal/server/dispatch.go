package server

import (
	"fmt"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/config"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
)

// Dispatcher turns blocking calls from connection goroutines into master actor requests.
type Dispatcher struct {
	rootContext    *actor.RootContext
	masterActor    *actor.PID
	requestTimeout time.Duration
}

// NewDispatcher waits requestTimeout plus config.REPLY_MARGIN so the master's own
// timeout result arrives first.
func NewDispatcher(rootContext *actor.RootContext, masterActor *actor.PID, requestTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		rootContext:    rootContext,
		masterActor:    masterActor,
		requestTimeout: requestTimeout + config.REPLY_MARGIN,
	}
}

func (d *Dispatcher) ExecuteAction(action domain.Action, source string) domain.BridgeResult {
	res, err := d.rootContext.RequestFuture(d.masterActor, domain.ExecuteActionRequest{Action: action, Source: source}, d.requestTimeout).Result()
	if err != nil {
		return domain.Rejected(fmt.Errorf("%w: %w", domain.ErrRequestTimeout, err))
	}
	resp, ok := res.(domain.ExecuteActionResponse)
	if !ok {
		return domain.Rejected(fmt.Errorf("unexpected response %T", res))
	}
	return resp.Result
}

func (d *Dispatcher) ExecuteCommand(text, source string) (domain.Action, domain.BridgeResult) {
	res, err := d.rootContext.RequestFuture(d.masterActor, domain.ExecuteCommandRequest{Text: text, Source: source}, d.requestTimeout).Result()
	if err != nil {
		return domain.Unknown(text), domain.Rejected(fmt.Errorf("%w: %w", domain.ErrRequestTimeout, err))
	}
	resp, ok := res.(domain.ExecuteCommandResponse)
	if !ok {
		return domain.Unknown(text), domain.Rejected(fmt.Errorf("unexpected response %T", res))
	}
	return resp.Action, resp.Result
}

func (d *Dispatcher) Health(timeout time.Duration) (domain.ActorHealthResponse, error) {
	res, err := d.rootContext.RequestFuture(d.masterActor, domain.ActorHealthRequest{}, timeout).Result()
	if err != nil {
		return domain.ActorHealthResponse{}, err
	}
	resp, ok := res.(domain.ActorHealthResponse)
	if !ok {
		return domain.ActorHealthResponse{}, fmt.Errorf("unexpected response %T", res)
	}
	return resp, nil
}
