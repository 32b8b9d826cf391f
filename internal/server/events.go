package server

import (
	"time"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	EVENT_BUFFER      = 32
	EVENT_WRITE_WAIT  = 5 * time.Second
	EVENT_PING_PERIOD = 30 * time.Second
)

// EventsHandler streams every ActionAppliedEvent to a websocket client.
// Slow clients lose events rather than stall the actors publishing them.
func (s *Server) EventsHandler(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	events := make(chan domain.ActionAppliedEvent, EVENT_BUFFER)
	sub := s.eventStream.Subscribe(func(evt any) {
		applied, ok := evt.(domain.ActionAppliedEvent)
		if !ok {
			return
		}
		select {
		case events <- applied:
		default:
			s.logger.Warn("events: client too slow, dropping event")
		}
	})
	defer s.eventStream.Unsubscribe(sub)

	// the read side only exists to notice the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(EVENT_PING_PERIOD)
	defer ping.Stop()

	for {
		select {
		case evt := <-events:
			ws.SetWriteDeadline(time.Now().Add(EVENT_WRITE_WAIT))
			if err := ws.WriteJSON(evt); err != nil {
				s.logger.Debug("events: write failed", zap.Error(err))
				return nil
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(EVENT_WRITE_WAIT)); err != nil {
				return nil
			}
		case <-gone:
			return nil
		}
	}
}
