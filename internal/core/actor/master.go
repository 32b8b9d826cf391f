package actor

import (
	"fmt"
	"log"
	"time"

	adactor "github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/adapter/actor"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/config"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/port"
	. "github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const HEALTH_CHECK_TIMEOUT = 1 * time.Second

// FORWARD_MARGIN covers message delivery after the serial actor's last possible reply.
const FORWARD_MARGIN = 500 * time.Millisecond

type SerialActorProvider func(*eventstream.EventStream) *adactor.SerialActor

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

// MasterActor supervises the device actors and routes every request to the serial
// actor in arrival order. Results are answered to the original requester and
// published as ActionAppliedEvent.
type MasterActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	interpreter         port.CommandInterpreter
	currentHealthCheck  healthCheckResult
	eventStream         *eventstream.EventStream
	serialActor         *actor.PID
	mqttActor           *actor.PID
	serialActorProvider SerialActorProvider
	mqttActorProvider   MQTTActorProvider
	logger              *zap.Logger
}

type healthCheckResult struct {
	expected  map[string]bool
	healthy   map[string]bool
	states    map[string]string
	respondTo *actor.PID
}

// NewMasterActor builds the root actor. mqttActorProvider may be nil when MQTT is disabled.
func NewMasterActor(config config.Config, interpreter port.CommandInterpreter, eventStream *eventstream.EventStream,
	serialActorProvider SerialActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterActor {
	act := &MasterActor{
		config:              config,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		interpreter:         interpreter,
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:         eventStream,
		serialActorProvider: serialActorProvider,
		mqttActorProvider:   mqttActorProvider,
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *MasterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@default started")

		// start serial child
		serialActorPID, err := state.startSerialActor(ctx)
		if err != nil {
			panic(err)
		}
		state.serialActor = serialActorPID

		// start MQTT child
		if state.mqttActorProvider != nil {
			mqttActorPID, err := state.startMQTTActor(ctx)
			if err != nil {
				panic(err)
			}
			state.mqttActor = mqttActorPID
		}
	case domain.ExecuteActionRequest:
		state.logger.Debug("master@default ExecuteActionRequest", zap.Stringer("action", msg.Action), zap.String("source", msg.Source))
		replyTo := ForRequest(msg).ReplyTo(ctx)
		state.forward(ctx, msg.Action, msg.Source, func(result domain.BridgeResult) {
			ctx.Send(replyTo, domain.ExecuteActionResponse{Result: result})
		})
	case domain.ExecuteCommandRequest:
		state.logger.Debug("master@default ExecuteCommandRequest", zap.String("text", msg.Text), zap.String("source", msg.Source))
		replyTo := ForRequest(msg).ReplyTo(ctx)
		action := state.interpreter.Interpret(msg.Text)
		if action.IsUnknown() {
			// never reaches the device
			result := domain.Rejected(domain.ErrParseUnrecognized)
			state.publishApplied(action, result, msg.Source)
			ctx.Send(replyTo, domain.ExecuteCommandResponse{Action: action, Result: result})
			return
		}
		state.forward(ctx, action, msg.Source, func(result domain.BridgeResult) {
			ctx.Send(replyTo, domain.ExecuteCommandResponse{Action: action, Result: result})
		})
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.startHealthCheck(ctx)
	case *actor.Terminated:
		if state.serialActor != nil && msg.Who.Equal(state.serialActor) {
			state.logger.Error("master@default serial actor terminated")
			state.serialActor = nil
		}
		if state.mqttActor != nil && msg.Who.Equal(state.mqttActor) {
			state.logger.Error("master@default mqtt actor terminated")
			state.mqttActor = nil
		}
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// forward hands the action to the serial actor. The request is enqueued right away,
// so arrival order at the master is the order of serial transactions.
func (state *MasterActor) forward(ctx actor.Context, action domain.Action, source string, respond func(domain.BridgeResult)) {
	if state.serialActor == nil {
		result := domain.Rejected(domain.ErrSerialUnavailable)
		state.publishApplied(action, result, source)
		respond(result)
		return
	}
	// the serial actor refuses to start a transaction it cannot finish by the deadline,
	// so a timed out future never hides a line that reached the device
	deadline := time.Now().Add(state.config.Bridge.RequestTimeout())
	future := ctx.RequestFuture(state.serialActor, domain.ExecuteActionRequest{
		Action:   action,
		Source:   source,
		Deadline: deadline,
	}, state.config.Bridge.RequestTimeout()+FORWARD_MARGIN)
	ctx.ReenterAfter(future, func(res any, err error) {
		var result domain.BridgeResult
		if err != nil {
			result = domain.Rejected(fmt.Errorf("%w: %w", domain.ErrRequestTimeout, err))
		} else if resp, ok := res.(domain.ExecuteActionResponse); ok {
			result = resp.Result
		} else {
			result = domain.Rejected(fmt.Errorf("unexpected response %T", res))
		}
		state.publishApplied(action, result, source)
		respond(result)
	})
}

func (state *MasterActor) publishApplied(action domain.Action, result domain.BridgeResult, source string) {
	if state.eventStream == nil {
		return
	}
	state.eventStream.Publish(domain.ActionAppliedEvent{
		Action: action,
		Result: result,
		Source: source,
		Time:   time.Now(),
	})
}

func (state *MasterActor) startHealthCheck(ctx actor.Context) {
	state.currentHealthCheck.reset()
	state.currentHealthCheck.respondTo = ctx.Sender()

	children := map[string]*actor.PID{
		domain.ACTOR_ID_SERIAL: state.serialActor,
	}
	if state.mqttActorProvider != nil {
		children[domain.ACTOR_ID_MQTT] = state.mqttActor
	}
	for id, pid := range children {
		state.currentHealthCheck.expected[id] = true
		if pid == nil {
			ctx.Send(ctx.Self(), domain.ActorHealthResponse{Id: id, Healthy: false, State: "terminated"})
			continue
		}
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, HEALTH_CHECK_TIMEOUT/2), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      id,
				Healthy: false,
				State:   err.Error(),
			}
		})
	}

	ctx.SetReceiveTimeout(HEALTH_CHECK_TIMEOUT)

	state.behavior.BecomeStacked(state.HealthCheckReceive)
}

func (state *MasterActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.finishHealthCheck(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.healthy[msg.Id] = msg.Healthy
		state.currentHealthCheck.states[msg.Id] = msg.State
		if state.currentHealthCheck.allReceived() {
			state.finishHealthCheck(ctx)
		}
	case domain.ActorHealthRequest:
		state.stash.Stash(ctx, msg)
	default:
		// requests keep flowing while a health check is running
		state.DefaultReceive(ctx)
	}
}

func (state *MasterActor) finishHealthCheck(ctx actor.Context) {
	ctx.CancelReceiveTimeout()
	state.currentHealthCheck.respond(ctx)
	state.behavior.UnbecomeStacked()
	state.stash.UnstashOldest(ctx)
}

func (state *MasterActor) startSerialActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(3, 10*time.Second, decider)

	serialProps := actor.PropsFromProducer(func() actor.Actor {
		return state.serialActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	serialActorPID, err := ctx.SpawnNamed(serialProps, domain.ACTOR_ID_SERIAL)
	if err != nil {
		return nil, err
	}

	return serialActorPID, nil
}

func (state *MasterActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.expected = map[string]bool{}
	state.healthy = map[string]bool{}
	state.states = map[string]string{}
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return len(state.healthy) >= len(state.expected)
}

func (state *healthCheckResult) allHealthy() bool {
	for id := range state.expected {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   fmt.Sprintf("%v", state.states),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
