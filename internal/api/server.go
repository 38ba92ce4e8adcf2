// Package api serves the dashboard over HTTP and WebSocket.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/dashboard"
	"github.com/AstroAssist-core/server/internal/mission/feed"
	"github.com/AstroAssist-core/server/internal/mission/station"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

const maxCommandBytes = 4 << 10

type Config struct {
	Station  *station.Station
	Gatherer prometheus.Gatherer
	// Simulator backs /ws/sensors; nil disables the route.
	Simulator    *feed.Simulator
	FeedInterval time.Duration
	Location     *time.Location
}

type Server struct {
	station      *station.Station
	gatherer     prometheus.Gatherer
	simulator    *feed.Simulator
	feedInterval time.Duration
	loc          *time.Location
}

func NewServer(cfg Config) *Server {
	s := &Server{
		station:      cfg.Station,
		gatherer:     cfg.Gatherer,
		simulator:    cfg.Simulator,
		feedInterval: cfg.FeedInterval,
		loc:          cfg.Location,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// Router returns the routes without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", s.handleStatus).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/commands", s.handleSubmit).Methods(http.MethodPost)

	r.HandleFunc("/ws/dashboard", s.handleDashboardStream).Methods(http.MethodGet)
	if s.simulator != nil {
		r.Handle("/ws/sensors", feed.Handler(s.simulator, s.feedInterval)).Methods(http.MethodGet)
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// Handler wraps the router with CORS and access logging.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(logx.Writer(), handlers.RecoveryHandler()(cors(s.Router())))
}

type messageResponse struct {
	Message string `json:"message"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Model   string `json:"model,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type submitRequest struct {
	Text string `json:"text"`
}

type submitResponse struct {
	Outcome station.Outcome `json:"outcome"`
	View    dashboard.View  `json:"view"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "AstroAssist API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "online",
		Service: "AstroAssist Control System",
		Model:   "Intent + Emergency Detection Active",
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.station.Snapshot())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.Render(s.station.Snapshot(), s.loc))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.station.Snapshot().History)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	body := http.MaxBytesReader(w, r.Body, maxCommandBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, errx.InvalidInput(err))
		return
	}

	out, err := s.station.Submit(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Outcome: out,
		View:    dashboard.Render(s.station.Snapshot(), s.loc),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: errx.MessageOf(err), Kind: string(errx.KindOf(err))})
}
