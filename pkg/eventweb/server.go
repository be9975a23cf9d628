package eventweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	edibus "github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// Server is the HTTP server hosting the WebSocket forwarder endpoint.
type Server struct {
	addrWant string
	logger   *logger.Logger
	hub      *Hub
	server   *http.Server
	addr     string
	mu       sync.RWMutex
}

// NewServer creates a new event-forwarding server listening on addr
// (e.g. ":8080"); Start forwards the events of the bus it is given to
// connected clients.
func NewServer(addr string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &Server{
		addrWant: addr,
		logger:   log.WithComponent("eventweb.server"),
		hub:      NewHub(log),
	}
}

// Start runs the HTTP server and the hub's forwarding loop until ctx is
// canceled, or the listener/server fails.
func (s *Server) Start(ctx context.Context, b *edibus.Bus) error {
	go s.hub.RunWithBus(ctx, b)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/ws", s.hub.Handler())

	listener, err := net.Listen("tcp", s.addrWant)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting event forwarder", logger.String("address", s.addr))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down event forwarder")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Addr returns the address the server is listening on, once started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Hub returns the underlying event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "edi-webforward",
		"time":    time.Now().Unix(),
	}); err != nil {
		s.logger.Warn("failed to encode health response", logger.Error(err))
	}
}
