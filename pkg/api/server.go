// Package api exposes the HTTP surface of the gateway: the OneBot v11
// reverse websocket endpoint the bot client connects to, plus health
// probes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zifox666/MoviePilot/pkg/bus"
	"github.com/zifox666/MoviePilot/pkg/config"
	"github.com/zifox666/MoviePilot/pkg/logger"
	"github.com/zifox666/MoviePilot/pkg/onebot"
)

// Server is the gateway HTTP server.
type Server struct {
	config     *config.Config
	module     *onebot.Module
	messageBus *bus.MessageBus
	httpServer *http.Server
	startTime  time.Time
}

func NewServer(cfg *config.Config, module *onebot.Module, messageBus *bus.MessageBus) *Server {
	return &Server{
		config:     cfg,
		module:     module,
		messageBus: messageBus,
		startTime:  time.Now(),
	}
}

// Start begins listening on the configured host:port and blocks until ctx
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/v1/onebot/v11/http", s.handleProbe)
	mux.HandleFunc("/api/v1/onebot/v11/ws", s.handleWebSocket)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: authMiddleware(s.config.Server.APIToken, mux),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoCF("api", "Gateway listening", map[string]interface{}{
			"addr": addr,
		})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"onebot":         s.module.State(),
	})
}

// handleProbe is the legacy liveness route the bot client polls.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"code": 200,
		"msg":  "pong",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorCF("api", "Response encode failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
