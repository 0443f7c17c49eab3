// Copyright 2026 The go-todosync Authors
// SPDX-License-Identifier: Apache-2.0

package todosync

import (
	"log/slog"
	"net/http"

	"github.com/dotodo/go-todosync/todosync"
)

// Server wires the sync API routes. It is shared by the binary and the
// integration tests.
type Server struct {
	service *todosync.SyncService
	auth    *todosync.JWTAuth
	logger  *slog.Logger
	mux     *http.ServeMux
}

func NewServer(service *todosync.SyncService, jwtAuth *todosync.JWTAuth, logger *slog.Logger) *Server {
	server := &Server{
		service: service,
		auth:    jwtAuth,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	handlers := todosync.NewHTTPSyncHandlers(s.service, s.auth, s.logger)

	s.mux.Handle("POST /api/sync/upload", s.auth.Middleware(http.HandlerFunc(handlers.HandleUpload)))
	s.mux.Handle("GET /api/sync/download", s.auth.Middleware(http.HandlerFunc(handlers.HandleDownload)))
	s.mux.Handle("GET /api/sync/status", s.auth.Middleware(http.HandlerFunc(handlers.HandleStatus)))

	// Health check endpoint (no auth required)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
