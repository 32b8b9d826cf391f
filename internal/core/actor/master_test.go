package actor

import (
	"testing"
	"time"

	adactor "github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/adapter/actor"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/service"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/util"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/pkg/arduino_serial"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type masterFixture struct {
	system *actor.ActorSystem
	pid    *actor.PID
	device *arduino_serial.TestDevice
	events chan domain.ActionAppliedEvent
}

func newMasterFixture(t *testing.T, withMQTT bool) *masterFixture {
	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	dev := arduino_serial.NewTestDevice(arduino_serial.TestDeviceOptions{})
	link := arduino_serial.NewLink(dev)

	es := &eventstream.EventStream{}
	events := make(chan domain.ActionAppliedEvent, 16)
	es.Subscribe(func(evt any) {
		if applied, ok := evt.(domain.ActionAppliedEvent); ok {
			select {
			case events <- applied:
			default:
			}
		}
	})

	var mqttProvider MQTTActorProvider
	if withMQTT {
		mqttProvider = func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterActor(cfg, service.NewKeywordInterpreter(service.DefaultVocabulary()), es,
			func(es *eventstream.EventStream) *adactor.SerialActor {
				return adactor.NewSerialActor(link, cfg.Serial.AckTimeout(), es, logger)
			}, mqttProvider, logger)
	})
	pid, err := context.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)

	t.Cleanup(func() {
		context.Stop(pid)
		as.Shutdown()
	})
	return &masterFixture{system: as, pid: pid, device: dev, events: events}
}

func TestMasterActorHealth(t *testing.T) {

	f := newMasterFixture(t, true)

	res, err := f.system.Root.RequestFuture(f.pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy, "healthy is true")
	assert.Equal(t, domain.ACTOR_ID_MASTER, healthResp.Id)
}

func TestMasterActorExecuteAction(t *testing.T) {

	f := newMasterFixture(t, false)

	action := domain.Action{Intent: domain.IntentGarage, Value: domain.StateValue(domain.StateOpen)}
	res, err := f.system.Root.RequestFuture(f.pid, domain.ExecuteActionRequest{Action: action, Source: domain.SOURCE_TCP}, 5*time.Second).Result()
	require.NoError(t, err)

	resp := res.(domain.ExecuteActionResponse)
	assert.True(t, resp.Result.Accepted)
	assert.Equal(t, "[arduino] GARAGE -> OPEN", resp.Result.DeviceLineEcho)
	assert.Equal(t, []string{"GARAGE:global:OPEN"}, f.device.Received())

	select {
	case evt := <-f.events:
		assert.Equal(t, action, evt.Action)
		assert.Equal(t, domain.SOURCE_TCP, evt.Source)
		assert.True(t, evt.Result.Accepted)
	case <-time.After(2 * time.Second):
		t.Error("no ActionAppliedEvent")
	}
}

func TestMasterActorExecuteCommand(t *testing.T) {

	f := newMasterFixture(t, false)

	res, err := f.system.Root.RequestFuture(f.pid, domain.ExecuteCommandRequest{Text: "Turn on the kitchen light", Source: domain.SOURCE_HTTP}, 5*time.Second).Result()
	require.NoError(t, err)

	resp := res.(domain.ExecuteCommandResponse)
	assert.Equal(t, domain.IntentLight, resp.Action.Intent)
	assert.Equal(t, "kitchen", resp.Action.Location)
	assert.True(t, resp.Result.Accepted)
	assert.Equal(t, []string{"LIGHT:kitchen:ON"}, f.device.Received())
}

func TestMasterActorUnknownCommandSkipsDevice(t *testing.T) {

	f := newMasterFixture(t, false)

	res, err := f.system.Root.RequestFuture(f.pid, domain.ExecuteCommandRequest{Text: "play some jazz", Source: domain.SOURCE_HTTP}, 5*time.Second).Result()
	require.NoError(t, err)

	resp := res.(domain.ExecuteCommandResponse)
	assert.True(t, resp.Action.IsUnknown())
	assert.Equal(t, "play some jazz", resp.Action.RawText)
	assert.Equal(t, domain.BridgeResult{Accepted: false, Error: "unrecognized command"}, resp.Result)
	assert.Empty(t, f.device.Received())
}

func TestMasterActorOrderingDuringHealthCheck(t *testing.T) {

	f := newMasterFixture(t, true)
	root := f.system.Root

	health := root.RequestFuture(f.pid, domain.ActorHealthRequest{}, 5*time.Second)
	var futures []*actor.Future
	for deg := 60; deg < 70; deg++ {
		futures = append(futures, root.RequestFuture(f.pid, domain.ExecuteActionRequest{
			Action: domain.Action{Intent: domain.IntentThermostat, Value: domain.TemperatureValue(deg)},
		}, 5*time.Second))
	}

	for _, future := range futures {
		_, err := future.Result()
		require.NoError(t, err)
	}
	_, err := health.Result()
	require.NoError(t, err)

	var expected []string
	for deg := 60; deg < 70; deg++ {
		expected = append(expected, "THERMOSTAT:global:"+domain.TemperatureValue(deg).String())
	}
	assert.Equal(t, expected, f.device.Received())
}
