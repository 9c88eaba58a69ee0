package tap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/torvik/cloudlink/internal/logging"
	"github.com/torvik/cloudlink/internal/protocol"
)

// Config holds the tap server configuration
type Config struct {
	Listen   string // TCP address the serial-over-TCP bridge connects to
	WSListen string // HTTP address serving the WebSocket diagnostic stream
	Mode     protocol.OperatingMode
	LogLevel string
}

// Server accepts bridge connections, decodes device-cloud frames from them
// and publishes decoded packets to diagnostic clients.
type Server struct {
	config      *Config
	listener    net.Listener
	httpServer  *http.Server
	hub         *Hub
	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]net.Conn
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if config.Mode != protocol.ModeAPI && config.Mode != protocol.ModeEscapedAPI {
		return nil, fmt.Errorf("mode %s: %w", config.Mode, protocol.ErrUnsupportedMode)
	}

	return &Server{
		config:      config,
		hub:         NewHub(),
		activeConns: make(map[string]net.Conn),
	}, nil
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "ok clients=%d\n", s.hub.ClientCount())
	})
	s.httpServer = &http.Server{Addr: s.config.WSListen, Handler: mux}

	logging.Info("Starting cloudlink tap",
		zap.String("bridge_listen", s.config.Listen),
		zap.String("ws_listen", s.config.WSListen),
		zap.String("mode", s.config.Mode.String()),
	)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 2)
	go func() {
		errChan <- s.acceptConnections()
	}()
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping tap...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// acceptConnections accepts and handles incoming bridge connections
func (s *Server) acceptConnections() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if listener was closed (during shutdown)
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection decodes frames from a single bridge connection until it
// closes. A frame that fails envelope or codec validation is logged and
// skipped; the decoder resynchronizes at the next start delimiter.
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		logging.LogConnection(remoteAddr, "bridge_disconnected")
	}()

	logging.LogConnection(remoteAddr, "bridge_connected")

	dec, err := protocol.NewStreamDecoder(conn, s.config.Mode)
	if err != nil {
		logging.Error("Failed to create stream decoder",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	frameNum := 0
	for {
		body, err := dec.Next()
		if err != nil {
			if errors.Is(err, protocol.ErrInvalidFrame) {
				logging.Warn("Dropping corrupted frame",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				continue
			}
			if err == io.EOF {
				logging.Info("Bridge closed the connection",
					zap.String("remote_addr", remoteAddr),
				)
			} else {
				logging.Info("Connection closed or error reading frame",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		frameNum++
		logging.LogFrame("Frame body received", body)

		pkt, err := protocol.Decode(body[0], body)
		if err != nil {
			logging.Warn("Failed to decode frame body",
				zap.String("remote_addr", remoteAddr),
				zap.Int("frame_num", frameNum),
				zap.String("frame_type", protocol.FrameTypeName(body[0])),
				zap.Error(err),
			)
			continue
		}

		logging.Info("Packet decoded",
			zap.String("remote_addr", remoteAddr),
			zap.Int("frame_num", frameNum),
			zap.String("packet", pkt.String()),
		)

		s.hub.Broadcast(Event{
			ReceivedAt: time.Now().UTC(),
			Remote:     remoteAddr,
			FrameType:  protocol.FrameTypeName(pkt.FrameType()),
			Summary:    pkt.String(),
			Fields:     pkt.View(),
		})
	}
}

// Shutdown gracefully shuts down the tap
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down tap...")

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logging.Error("Error shutting down WebSocket server", zap.Error(err))
		}
	}

	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active bridge connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.hub.Close()

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	logging.Sync()

	return nil
}

// ActiveConnections returns the number of attached bridge connections.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}
