// Package server is the control surface: start a session acquisition,
// poll its status, trigger a refresh, read the enriched artifact.
// Callers only ever see a small closed set of status strings; internal
// error text never crosses this boundary.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/exec"

	"postpulse/internal/artifact"
	"postpulse/internal/session"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("postpulse.server")

type Service struct {
	broker *session.Broker
	store  *artifact.Store

	// Harvest synchronously runs collection+enrichment out-of-process,
	// so a browser crash cannot take the control server with it.
	// Replaceable in tests.
	Harvest func(ctx context.Context) error
}

func New(broker *session.Broker, store *artifact.Store) *Service {
	s := &Service{
		broker: broker,
		store:  store,
	}
	s.Harvest = execHarvest
	return s
}

func execHarvest(ctx context.Context) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, exe, "harvest")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/session/start", s.handleSessionStart).Methods("POST")
	r.HandleFunc("/api/session/{id}", s.handleSessionStatus).Methods("GET")
	r.HandleFunc("/api/refresh", s.handleRefresh).Methods("POST")
	r.HandleFunc("/api/posts", s.handlePosts).Methods("GET")
	return r
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "SessionStart")
	defer span.End()

	id, err := s.broker.Start(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to start session acquisition", "err", err)
		writeJson(w, http.StatusInternalServerError, map[string]string{
			"error": "spawn_failure",
		})
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"sessionId": id})
}

func (s *Service) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "SessionStatus")
	defer span.End()

	id := mux.Vars(r)["id"]
	result, err := s.broker.Poll(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to poll session", "session_id", id, "err", err)
		writeJson(w, http.StatusInternalServerError, map[string]string{
			"status":  string(session.StatusError),
			"message": "internal failure",
		})
		return
	}

	body := map[string]string{"status": string(result.Status)}
	if result.Message != "" {
		body["message"] = result.Message
	}
	writeJson(w, http.StatusOK, body)
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Refresh")
	defer span.End()

	err := s.Harvest(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "refresh run failed", "err", err)
		writeJson(w, http.StatusInternalServerError, map[string]string{"status": "error"})
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handlePosts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Posts")
	defer span.End()

	posts, err := s.store.ReadEnriched()
	if err == artifact.ErrNoArtifact {
		writeJson(w, http.StatusNotFound, map[string]string{"error": "no_data"})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read enriched artifact", "err", err)
		writeJson(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}
	writeJson(w, http.StatusOK, posts)
}
