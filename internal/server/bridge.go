package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"

	"go.uber.org/zap"
)

const MAX_REQUEST_BYTES = 64 * 1024

// BridgeServer accepts newline delimited JSON requests over TCP. Each connection gets
// its own goroutine; all of them funnel into the master actor.
type BridgeServer struct {
	address    string
	dispatcher *Dispatcher
	logger     *zap.Logger

	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	closed   bool
}

type wireRequest struct {
	Action json.RawMessage `json:"action"`
}

func NewBridgeServer(address string, dispatcher *Dispatcher, logger *zap.Logger) *BridgeServer {
	return &BridgeServer{
		address:    address,
		dispatcher: dispatcher,
		logger:     logger.With(zap.String("component", "bridge")),
		conns:      make(map[net.Conn]struct{}),
	}
}

func (s *BridgeServer) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("bridge listen on %s: %w", s.address, err)
	}
	s.listener = listener
	s.logger.Info("bridge listening", zap.Stringer("address", listener.Addr()))
	return nil
}

func (s *BridgeServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until Close is called.
func (s *BridgeServer) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if !s.track(conn) {
			conn.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handle(conn)
		}()
	}
}

func (s *BridgeServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *BridgeServer) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *BridgeServer) handle(conn net.Conn) {
	logger := s.logger.With(zap.Stringer("remote", conn.RemoteAddr()))
	logger.Debug("bridge: client connected")
	defer logger.Debug("bridge: client disconnected")

	reader := bufio.NewReaderSize(conn, 4096)
	encoder := json.NewEncoder(conn)

	for {
		raw, tooLong, readErr := readRequestLine(reader)

		var result *domain.BridgeResult
		if tooLong {
			// the rest of the line was discarded, the connection stays usable
			rejected := domain.Rejected(fmt.Errorf("%w: request exceeds %d bytes", domain.ErrMalformedRequest, MAX_REQUEST_BYTES))
			result = &rejected
		} else if line := bytes.TrimSpace(raw); len(line) > 0 {
			executed := s.execute(line)
			result = &executed
		}

		if result != nil {
			if err := encoder.Encode(result); err != nil {
				// the client left while we were busy; the device already saw the command
				logger.Debug("bridge: dropping result", zap.Error(err))
				return
			}
		}
		if readErr != nil {
			return
		}
	}
}

// readRequestLine reads up to and including the next newline. Lines longer than
// MAX_REQUEST_BYTES are consumed entirely but reported as tooLong with no content.
func readRequestLine(reader *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := reader.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > MAX_REQUEST_BYTES {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

func (s *BridgeServer) execute(line []byte) domain.BridgeResult {
	action, err := DecodeRequest(line)
	if err != nil {
		s.logger.Debug("bridge: malformed request", zap.ByteString("line", line), zap.Error(err))
		return domain.Rejected(err)
	}
	return s.dispatcher.ExecuteAction(action, domain.SOURCE_TCP)
}

// DecodeRequest parses one request line. Errors wrap domain.ErrMalformedRequest.
func DecodeRequest(line []byte) (domain.Action, error) {
	var req wireRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return domain.Action{}, fmt.Errorf("%w: %w", domain.ErrMalformedRequest, err)
	}
	if len(req.Action) == 0 || bytes.Equal(req.Action, []byte("null")) {
		return domain.Action{}, fmt.Errorf("%w: missing action", domain.ErrMalformedRequest)
	}
	var action domain.Action
	if err := json.Unmarshal(req.Action, &action); err != nil {
		if errors.Is(err, domain.ErrMalformedRequest) {
			return domain.Action{}, err
		}
		return domain.Action{}, fmt.Errorf("%w: %w", domain.ErrMalformedRequest, err)
	}
	return action, nil
}

// Close stops accepting, closes live connections and waits for their goroutines.
func (s *BridgeServer) Close() error {
	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	return err
}
