package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ferrodb/ferro/pkg/controller"
	"github.com/ferrodb/ferro/pkg/log"
	"github.com/ferrodb/ferro/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// StatusProvider exposes the controller's post-message snapshot
type StatusProvider interface {
	Status() controller.Status
}

// QueueInspector exposes the main queue depth
type QueueInspector interface {
	Depth() int
}

// Server is the node's operational HTTP surface: health, status and
// metrics. The client-facing HTTP API lives elsewhere.
type Server struct {
	status StatusProvider
	queue  QueueInspector
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates the ops server
func NewServer(status StatusProvider, queue QueueInspector) *Server {
	s := &Server{
		status: status,
		queue:  queue,
		logger: log.WithComponent("ops-api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.healthHandler)
	r.Get("/statusz", s.statusHandler)
	r.Handle("/metrics", metrics.Handler())

	s.server = &http.Server{
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start serves on addr until Stop is called
func (s *Server) Start(addr string) error {
	s.server.Addr = addr
	s.logger.Info().Str("addr", addr).Msg("ops API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// StatusResponse is the statusz payload
type StatusResponse struct {
	NodeID     string    `json:"node_id"`
	Role       string    `json:"role"`
	Leader     string    `json:"leader,omitempty"`
	Ready      bool      `json:"ready"`
	QueueDepth int       `json:"queue_depth"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()

	code := http.StatusOK
	body := "ok"
	if st.Role == "Shutdown" || st.Role == "ShuttingDown" {
		code = http.StatusServiceUnavailable
		body = "shutting down"
	}

	w.WriteHeader(code)
	w.Write([]byte(body))
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()

	resp := StatusResponse{
		NodeID:    st.NodeID,
		Role:      st.Role,
		Leader:    st.Leader,
		Ready:     st.Ready,
		Timestamp: time.Now(),
	}
	if s.queue != nil {
		resp.QueueDepth = s.queue.Depth()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
