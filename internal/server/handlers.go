package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/ingest"
	"github.com/bowerhall/mediaqa/internal/llm"
	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bowerhall/mediaqa/internal/media"
	"github.com/bowerhall/mediaqa/internal/proxy"
	"github.com/bowerhall/mediaqa/internal/session"
	"github.com/bowerhall/mediaqa/internal/transcribe"
)

const (
	defaultInteractionLimit = 20
	maxInteractionLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "Server is running"})
}

type StatusResponse struct {
	Hostname   string  `json:"hostname"`
	OS         string  `json:"os"`
	Arch       string  `json:"arch"`
	Uptime     string  `json:"uptime"`
	Goroutines int     `json:"goroutines"`
	CPUUsage   float64 `json:"cpu_usage_percent"`
	MemTotal   uint64  `json:"mem_total_bytes"`
	MemUsed    uint64  `json:"mem_used_bytes"`
	MemUsage   float64 `json:"mem_usage_percent"`
	ProcessRSS uint64  `json:"process_rss_bytes"`
	Sessions   int     `json:"active_sessions"`
	Storage    string  `json:"storage"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	hostname, _ := os.Hostname()

	status := StatusResponse{
		Hostname:   hostname,
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Sessions:   s.pipeline.Sessions(),
		Storage:    "disabled",
	}

	if s.storage != nil {
		status.Storage = "unreachable"
		if s.storage.Healthy(r.Context()) {
			status.Storage = "ok"
		}
	}

	if cpuPercent, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(cpuPercent) > 0 {
		status.CPUUsage = cpuPercent[0]
	}

	if memInfo, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		status.MemTotal = memInfo.Total
		status.MemUsed = memInfo.Used
		status.MemUsage = memInfo.UsedPercent
	}

	if proc, err := process.NewProcessWithContext(r.Context(), int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfoWithContext(r.Context()); err == nil {
			status.ProcessRSS = memInfo.RSS
		}
	}

	writeJSON(w, http.StatusOK, status)
}

type queryResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req proxy.Request
	if !decodeJSON(w, r, s.maxUploadBytes, &req) {
		return
	}

	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	answer, err := s.svc.Query(r.Context(), req)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: answer})
}

func writeQueryError(w http.ResponseWriter, err error) {
	if upErr, ok := llm.AsUpstream(err); ok && upErr.Status != 0 {
		writeJSON(w, upErr.Status, errorResponse{Error: "Failed to get response from AI", Details: upErr.Body})
		return
	}

	logger.Error("query failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Message: err.Error()})
}

type remoteVideoRequest struct {
	URL        string `json:"url"`
	YoutubeURL string `json:"youtubeUrl"`
}

func (s *Server) handleProcessRemoteVideo(w http.ResponseWriter, r *http.Request) {
	var req remoteVideoRequest
	if !decodeJSON(w, r, 1<<20, &req) {
		return
	}

	link := req.URL
	if link == "" {
		link = req.YoutubeURL
	}
	if link == "" {
		writeError(w, http.StatusBadRequest, "Video URL is required")
		return
	}

	result, err := s.svc.ProcessRemoteVideo(r.Context(), link)
	if err != nil {
		writeTranscribeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	src, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := s.svc.UploadAudio(r.Context(), src.Name, src.Data)
	if err != nil {
		writeTranscribeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeTranscribeError(w http.ResponseWriter, err error) {
	var remoteErr *extract.RemoteProcessingError

	switch {
	case errors.Is(err, transcribe.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Transcription service is not configured")
	case errors.Is(err, extract.ErrInvalidLink):
		writeError(w, http.StatusBadRequest, "Invalid URL")
	case errors.As(err, &remoteErr):
		logger.Warn("transcription failed", "source", remoteErr.Source, "error", remoteErr.Err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to process media", Details: remoteErr.Err.Error()})
	default:
		logger.Error("transcription failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Message: err.Error()})
	}
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	limit := defaultInteractionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxInteractionLimit)
	}

	records, err := s.svc.Recent(r.Context(), limit)
	if err != nil {
		logger.Error("list interactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if records == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// readUpload reads the multipart "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (extract.Source, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return extract.Source{}, false
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return extract.Source{}, false
	}
	defer file.Close()

	if header.Size > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return extract.Source{}, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload")
		return extract.Source{}, false
	}

	return extract.Source{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, true
}

type itemResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type,omitempty"`
	Size        int64          `json:"size"`
	Category    media.Category `json:"category"`
	Transcribed bool           `json:"transcribed"`
	Summary     string         `json:"summary,omitempty"`
	IngestedAt  time.Time      `json:"ingestedAt"`
}

func toItemResponse(item media.Item) itemResponse {
	return itemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Type:        item.MimeType,
		Size:        item.SizeBytes,
		Category:    item.Category,
		Transcribed: item.Enrichment != nil,
		Summary:     item.Summary(),
		IngestedAt:  item.IngestedAt,
	}
}

func (s *Server) handleSessionFile(w http.ResponseWriter, r *http.Request) {
	src, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	item, err := s.pipeline.IngestFile(r.Context(), r.PathValue("id"), src)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

type linkRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleSessionLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !decodeJSON(w, r, 1<<20, &req) {
		return
	}

	item, err := s.pipeline.IngestLink(r.Context(), r.PathValue("id"), req.URL)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

type askRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSessionQuery(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSON(w, r, 1<<20, &req) {
		return
	}

	answer, err := s.pipeline.Ask(r.Context(), r.PathValue("id"), req.Query)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: answer})
}

func (s *Server) handleSessionRemove(w http.ResponseWriter, r *http.Request) {
	removed, err := s.pipeline.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func writePipelineError(w http.ResponseWriter, err error) {
	var extErr *extract.ExtractionError
	var remoteErr *extract.RemoteProcessingError

	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "Another request is already in progress")
	case errors.Is(err, ingest.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "Please enter a query")
	case errors.Is(err, ingest.ErrNoItem):
		writeError(w, http.StatusBadRequest, "Please upload at least one file")
	case errors.Is(err, extract.ErrInvalidLink):
		writeError(w, http.StatusBadRequest, "Please provide a valid file link or YouTube video link")
	case errors.Is(err, extract.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.As(err, &extErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "Failed to read " + extErr.Name, Details: extErr.Err.Error()})
	case errors.As(err, &remoteErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to process media", Details: remoteErr.Err.Error()})
	default:
		writeQueryError(w, err)
	}
}
