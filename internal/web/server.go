package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kazari/kazarid/internal/broker"
	"github.com/kazari/kazarid/internal/config"
	"github.com/kazari/kazarid/internal/logging"
	"github.com/kazari/kazarid/internal/recorder"
	"github.com/kazari/kazarid/internal/timer"
)

type Server struct {
	config  *config.Config
	handler *Handler
	server  *http.Server
}

func NewServer(cfg *config.Config, b *broker.Broker, rec *recorder.Recorder, customPort int) *Server {
	handler := NewHandler(cfg, b, rec)
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	port := cfg.Web.Port
	if customPort > 0 {
		port = customPort
	}

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		// No WriteTimeout: the event stream stays open for the life of
		// each consumer window.
		IdleTimeout: 60 * time.Second,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
	}
}

func (s *Server) Start() error {
	logging.Infof("Starting API server on http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Infof("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}

// OnConfigChange registers a hook run after each accepted config update.
func (s *Server) OnConfigChange(fn func(timer.Config)) {
	s.handler.OnConfigChange(fn)
}
