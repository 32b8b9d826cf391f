package mqtt

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/config"

	"github.com/lmittmann/tint"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"go.uber.org/zap"
)

const BROKER_LISTENER_ID = "zari"

// EmbeddedBroker is an in-process MQTT broker for installations without one.
type EmbeddedBroker struct {
	server *mochi.Server
	logger *zap.Logger
}

func NewEmbeddedBroker(cfg config.MQTTConfig, logger *zap.Logger) (*EmbeddedBroker, error) {
	logger = logger.With(zap.String("component", "broker"))

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger: slog.New(tint.NewHandler(zap.NewStdLog(logger).Writer(), &tint.Options{
			Level:      slog.LevelWarn,
			TimeFormat: time.DateTime,
		})),
	})

	var err error
	if cfg.Username != "" && cfg.Password != "" {
		err = server.AddHook(new(auth.Hook), &auth.Options{
			Ledger: &auth.Ledger{
				Auth: auth.AuthRules{
					{Username: auth.RString(cfg.Username), Password: auth.RString(cfg.Password), Allow: true},
				},
			},
		})
	} else {
		err = server.AddHook(new(auth.AllowHook), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("mqtt broker auth: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{ID: BROKER_LISTENER_ID, Address: fmt.Sprintf(":%d", cfg.Port)})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("mqtt broker listen on %d: %w", cfg.Port, err)
	}

	return &EmbeddedBroker{server: server, logger: logger}, nil
}

// Start serves in the background.
func (b *EmbeddedBroker) Start() {
	go func() {
		if err := b.server.Serve(); err != nil {
			b.logger.Error("mqtt broker stopped", zap.Error(err))
		}
	}()
}

func (b *EmbeddedBroker) Close() error {
	return b.server.Close()
}
