package server

import (
	"testing"
	"time"

	adactor "github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/adapter/actor"
	coreactor "github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/actor"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/service"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/util"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/pkg/arduino_serial"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testStack struct {
	dispatcher  *Dispatcher
	device      *arduino_serial.TestDevice
	eventStream *eventstream.EventStream
	logger      *zap.Logger
}

// newTestStack wires master and serial actors to an emulated firmware.
func newTestStack(t *testing.T, opts arduino_serial.TestDeviceOptions) *testStack {
	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())

	as := actor.NewActorSystem()
	dev := arduino_serial.NewTestDevice(opts)
	link := arduino_serial.NewLink(dev)
	es := &eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor {
		return coreactor.NewMasterActor(cfg, service.NewKeywordInterpreter(service.DefaultVocabulary()), es,
			func(es *eventstream.EventStream) *adactor.SerialActor {
				return adactor.NewSerialActor(link, 500*time.Millisecond, es, logger)
			}, nil, logger)
	})
	pid, err := as.Root.SpawnNamed(props, "master")
	require.NoError(t, err)

	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})

	return &testStack{
		dispatcher:  NewDispatcher(as.Root, pid, cfg.Bridge.RequestTimeout()),
		device:      dev,
		eventStream: es,
		logger:      logger,
	}
}
