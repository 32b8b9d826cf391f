package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/wire"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/util/actorutil"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/pkg/arduino_serial"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// TRANSACTION_GRACE is added to the ack timeout to bound a whole transaction,
// write included. Exceeding it means the port is wedged.
const TRANSACTION_GRACE = 500 * time.Millisecond

// SerialActor owns the serial link. Its mailbox is the only way to reach the
// device, and each request is handled to completion before the next is dequeued.
type SerialActor struct {
	behavior    actor.Behavior
	link        *arduino_serial.Link
	ackTimeout  time.Duration
	eventStream *eventstream.EventStream
	logger      *zap.Logger
	failure     error
}

func NewSerialActor(link *arduino_serial.Link, ackTimeout time.Duration, eventStream *eventstream.EventStream, logger *zap.Logger) *SerialActor {
	act := &SerialActor{
		link:        link,
		ackTimeout:  ackTimeout,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_SERIAL, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

// SerialLinkLogger reports link traffic through zap.
func SerialLinkLogger(logger *zap.Logger) arduino_serial.LinkInstrument {
	logger = logger.With(zap.String("link", "serial"))
	return arduino_serial.LinkInstrument{
		OnLine: func(line string) {
			logger.Debug("serial: received", zap.String("line", line))
		},
		OnDropped: func(line string) {
			logger.Warn("serial: line buffer full, dropping", zap.String("line", line))
		},
		OnFailure: func(err error) {
			logger.Error("serial: link failed", zap.Error(err))
		},
	}
}

func (state *SerialActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *SerialActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("serial@default started")
		if !state.link.Healthy() {
			state.degrade(state.link.Err())
			return
		}
		state.publishBridgeState(true, "")
	case domain.ActorHealthRequest:
		state.logger.Debug("serial@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SERIAL,
			Healthy: true,
			State:   "idle",
		})
	case domain.ExecuteActionRequest:
		state.logger.Debug("serial@default: ExecuteActionRequest", zap.Stringer("action", msg.Action))
		if state.expired(msg.Deadline) {
			state.logger.Warn("serial: request expired in queue, not sent", zap.Stringer("action", msg.Action))
			actorutil.ForRequest(msg).Respond(ctx, domain.ExecuteActionResponse{
				Result: domain.Rejected(fmt.Errorf("%w: expired before reaching the device", domain.ErrRequestTimeout)),
			})
			return
		}
		result := state.execute(msg.Action)
		actorutil.ForRequest(msg).Respond(ctx, domain.ExecuteActionResponse{Result: result})
	case *actor.Stopping:
		state.link.Close()
	default:
		state.logger.Debug("serial@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *SerialActor) DegradedReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SERIAL,
			Healthy: false,
			State:   fmt.Sprintf("degraded: %s", state.failure),
		})
	case domain.ExecuteActionRequest:
		state.logger.Debug("serial@degraded: ExecuteActionRequest", zap.Stringer("action", msg.Action))
		actorutil.ForRequest(msg).Respond(ctx, domain.ExecuteActionResponse{
			Result: domain.Rejected(domain.ErrSerialUnavailable),
		})
	default:
		state.logger.Debug("serial@degraded default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// expired reports whether a full transaction can no longer complete before the deadline.
func (state *SerialActor) expired(deadline time.Time) bool {
	if deadline.IsZero() {
		return false
	}
	return time.Until(deadline) < state.ackTimeout+TRANSACTION_GRACE
}

// execute runs one encode, write and ack transaction. Only link failures degrade the actor;
// every other outcome is a result.
func (state *SerialActor) execute(action domain.Action) domain.BridgeResult {
	line, err := wire.Encode(action)
	if err != nil {
		return domain.Rejected(err)
	}

	var result domain.BridgeResult
	actorutil.NewBackgroundTask(func() (*domain.BridgeResult, error) {
		r, err := state.transact(line)
		if err != nil {
			return nil, err
		}
		return &r, nil
	}).WithTimeout(state.ackTimeout + TRANSACTION_GRACE).Recover(func(err error) domain.BridgeResult {
		state.degrade(err)
		return domain.Rejected(domain.ErrSerialUnavailable)
	}).OnSuccess(func(r domain.BridgeResult) {
		result = r
	}).Run()
	return result
}

func (state *SerialActor) transact(line string) (domain.BridgeResult, error) {
	for _, stale := range state.link.Drain() {
		state.logger.Debug("serial: discarding stale line", zap.String("line", stale))
	}

	if err := state.link.WriteLine(line); err != nil {
		return domain.BridgeResult{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), state.ackTimeout)
	defer cancel()

	for {
		raw, err := state.link.NextLine(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			state.logger.Warn("serial: no ack", zap.String("sent", line), zap.Duration("timeout", state.ackTimeout))
			return domain.BridgeResult{Accepted: true, Error: domain.ErrAckTimeout.Error()}, nil
		}
		if err != nil {
			return domain.BridgeResult{}, err
		}

		ack := wire.DecodeAck(raw)
		switch {
		case ack.Ready:
			// the board reset while we were waiting; its reply is still to come
			state.logger.Info("serial: firmware ready")
			continue
		case ack.Rejected:
			return domain.BridgeResult{
				Accepted:       false,
				DeviceLineEcho: raw,
				Error:          domain.ErrDeviceRejected.Error(),
			}, nil
		case !ack.Recognized:
			state.logger.Warn("serial: unexpected status line", zap.String("line", raw))
		}
		return domain.BridgeResult{Accepted: true, DeviceLineEcho: raw}, nil
	}
}

func (state *SerialActor) degrade(err error) {
	if err == nil {
		err = arduino_serial.ErrLinkDown
	}
	state.failure = err
	state.logger.Error("serial: link unavailable, rejecting further requests", zap.Error(err))
	state.behavior.Become(state.DegradedReceive)
	state.link.Close()
	state.publishBridgeState(false, err.Error())
}

func (state *SerialActor) publishBridgeState(online bool, reason string) {
	if state.eventStream == nil {
		return
	}
	state.eventStream.Publish(domain.BridgeStateEvent{Online: online, Reason: reason})
}
