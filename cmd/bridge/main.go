package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/adapter/actor"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/config"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/actor"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/service"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/mqtt"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/server"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/util/actorutil"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/pkg/arduino_serial"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, bridge *server.BridgeServer, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// stop taking new requests first; in-flight serial transactions finish on their own
	if err := bridge.Close(); err != nil {
		log.Printf("bridge forced to shutdown with error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	slog.Info("Using", "config", cfg.Redacted())

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	logger.Info("zari bridge starting",
		zap.String("version", versioninfo.Short()),
		zap.String("serial_port", cfg.Serial.Port),
		zap.String("bridge_address", cfg.Bridge.Address()))

	// the serial port is opened exactly once; without it the bridge has nothing to do
	link, err := arduino_serial.OpenLink(arduino_serial.PortConfig{
		Address:     cfg.Serial.Port,
		BaudRate:    cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeout(),
	}, adactor.SerialLinkLogger(logger))
	if err != nil {
		logger.Fatal("cannot open serial port", zap.Error(err))
	}

	var broker *mqtt.EmbeddedBroker
	if cfg.MQTT.Enable && cfg.MQTT.EmbeddedBroker {
		broker, err = mqtt.NewEmbeddedBroker(cfg.MQTT, logger)
		if err != nil {
			logger.Fatal("cannot create embedded mqtt broker", zap.Error(err))
		}
		broker.Start()
		defer broker.Close()
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root
	eventStream := &eventstream.EventStream{}

	interpreter := service.NewKeywordInterpreter(service.VocabularyFromConfig(cfg.Interpreter))

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterActor(*cfg, interpreter, eventStream,
			serialActorProvider(cfg, link, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		logger.Fatal("cannot spawn master actor", zap.Error(err))
	}

	dispatcher := server.NewDispatcher(ctx, pid, cfg.Bridge.RequestTimeout())

	bridge := server.NewBridgeServer(cfg.Bridge.Address(), dispatcher, logger)
	if err := bridge.Listen(); err != nil {
		logger.Fatal("cannot start bridge", zap.Error(err))
	}
	go func() {
		if err := bridge.Serve(); err != nil {
			logger.Error("bridge stopped", zap.Error(err))
		}
	}()

	apiServer := server.NewServer(*cfg, dispatcher, eventStream, logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	go gracefulShutdown(apiServer, bridge, done)

	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func serialActorProvider(cfg *config.Config, link *arduino_serial.Link, logger *zap.Logger) actor.SerialActorProvider {
	return func(es *eventstream.EventStream) *adactor.SerialActor {
		return adactor.NewSerialActor(link, cfg.Serial.AckTimeout(), es, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	if !cfg.MQTT.Enable {
		return nil
	}
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}
