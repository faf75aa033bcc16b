package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 10 * time.Second

// Server is the HTTP server for the control surface
type Server struct {
	srv *http.Server
}

// NewEngine builds the gin engine with every route under /api
func NewEngine(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r.Group("/api"))
	return r
}

// NewServer creates a server on port. Request contexts are cancelled when
// Shutdown begins so open event streams end.
func NewServer(port int, h *Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewEngine(h),
		BaseContext:       func(net.Listener) context.Context { return base },
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// no WriteTimeout: /api/events streams indefinitely
		IdleTimeout: 60 * time.Second,
	}
	srv.RegisterOnShutdown(cancel)
	return &Server{srv: srv}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.srv.Addr
}

// ListenAndServe blocks until the server is shut down
func (s *Server) ListenAndServe() error {
	log.Printf("server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Serve accepts connections on l until the server is shut down
func (s *Server) Serve(l net.Listener) error {
	log.Printf("server listening on %s", l.Addr())
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for active ones, up to
// ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
		return err
	}
	log.Printf("server shut down successfully")
	return nil
}
