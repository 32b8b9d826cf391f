package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/config"

	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/gorilla/websocket"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

type Server struct {
	port        uint
	httpLog     bool
	dispatcher  *Dispatcher
	eventStream *eventstream.EventStream
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func newServer(cfg config.Config, dispatcher *Dispatcher, eventStream *eventstream.EventStream, logger *zap.Logger) *Server {
	return &Server{
		port:        cfg.Port,
		httpLog:     cfg.HttpLog,
		dispatcher:  dispatcher,
		eventStream: eventStream,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With(zap.String("component", "http")),
	}
}

func NewServer(cfg config.Config, dispatcher *Dispatcher, eventStream *eventstream.EventStream, logger *zap.Logger) *http.Server {
	NewServer := newServer(cfg, dispatcher, eventStream, logger)

	// Declare Server config
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", NewServer.port),
		Handler:     NewServer.RegisterRoutes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: /events connections are long lived
	}

	return server
}
