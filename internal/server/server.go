package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bowerhall/mediaqa/internal/ingest"
	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bowerhall/mediaqa/internal/proxy"
)

// StorageProbe reports whether media staging storage is reachable.
type StorageProbe interface {
	Healthy(ctx context.Context) bool
}

// Server is the HTTP surface of the proxy.
type Server struct {
	svc            *proxy.Service
	pipeline       *ingest.Pipeline
	storage        StorageProbe
	maxUploadBytes int64
	started        time.Time
}

func New(svc *proxy.Service, pipeline *ingest.Pipeline, maxUploadBytes int64) *Server {
	return &Server{
		svc:            svc,
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
		started:        time.Now(),
	}
}

// SetStorage adds staging storage reachability to GET /status.
func (s *Server) SetStorage(probe StorageProbe) {
	s.storage = probe
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/process-remote-video", s.handleProcessRemoteVideo)
	mux.HandleFunc("POST /api/process-youtube", s.handleProcessRemoteVideo)
	mux.HandleFunc("POST /api/upload-audio", s.handleUploadAudio)
	mux.HandleFunc("GET /api/interactions", s.handleInteractions)

	// server-side pipeline, one working item per session
	mux.HandleFunc("POST /api/sessions/{id}/files", s.handleSessionFile)
	mux.HandleFunc("POST /api/sessions/{id}/links", s.handleSessionLink)
	mux.HandleFunc("POST /api/sessions/{id}/query", s.handleSessionQuery)
	mux.HandleFunc("DELETE /api/sessions/{id}/files", s.handleSessionRemove)

	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("write json failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
