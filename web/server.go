// ABOUTME: HTTP API exposing the patch engine: apply, scan, and a run history.
// ABOUTME: Thin chi router over the patch package, with every run logged to patchlog.
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/patchwright/patch"
	"github.com/2389-research/patchwright/patchlog"
)

// Server is the patch HTTP API server.
type Server struct {
	router chi.Router
	addr   string
	log    *patchlog.Log
	now    func() time.Time
}

// ServerConfig holds the configuration for the patch HTTP API server.
type ServerConfig struct {
	Addr    string       // listen address (default: "127.0.0.1:2389")
	AuditDB string       // path to the patchlog audit database
	Now     func() time.Time
}

// NewServer creates a new Server, opening (or creating) the audit log at
// cfg.AuditDB.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:2389"
	}
	if cfg.AuditDB == "" {
		return nil, fmt.Errorf("audit database path must not be empty")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	auditLog, err := patchlog.Open(cfg.AuditDB)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	s := &Server{addr: cfg.Addr, log: auditLog, now: cfg.Now}
	s.router = s.buildRouter()
	return s, nil
}

// Close releases the server's resources (the audit log's database handle).
func (s *Server) Close() error {
	return s.log.Close()
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(webRequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/v1/patch", func(r chi.Router) {
		r.Post("/", s.handleApplyPatch)
		r.Post("/scan", s.handleScanPatch)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// ServeHTTP implements http.Handler by delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	log.Printf("component=patchapi action=listen addr=%s", s.addr)
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// applyPatchRequest is the body of a POST /v1/patch request.
type applyPatchRequest struct {
	Files map[string]string `json:"files"`
	Patch string            `json:"patch"`
}

// applyPatchResponse is the body of a successful POST /v1/patch response.
type applyPatchResponse struct {
	RunID string            `json:"run_id"`
	Files map[string]string `json:"files"`
	Fuzz  int               `json:"fuzz"`
}

func (s *Server) handleApplyPatch(w http.ResponseWriter, r *http.Request) {
	var req applyPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request body: %w", err))
		return
	}

	files := patch.Files(req.Files)
	result, fuzz, err := applyPatchText(req.Patch, files)

	now := s.now()
	outcome := "applied"
	if err != nil {
		outcome = err.Error()
	}
	runID, logErr := s.log.Record(now, fuzz, patch.FilesNeeded(req.Patch), outcome)
	if logErr != nil {
		log.Printf("component=patchapi action=record_run err=%q", logErr)
	}

	if err != nil {
		log.Printf("component=patchapi action=apply_patch run_id=%s outcome=error err=%q", runID, err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	log.Printf("component=patchapi action=apply_patch run_id=%s fuzz=%d paths=%d", runID, fuzz, len(result))

	writeJSON(w, http.StatusOK, applyPatchResponse{
		RunID: runID,
		Files: map[string]string(result),
		Fuzz:  fuzz,
	})
}

// applyPatchText runs the same parse/commit/apply pipeline as
// patch.ProcessPatch but keeps the fuzz total, which the audit log needs
// and ProcessPatch's single-Files-return signature discards.
func applyPatchText(text string, files patch.Files) (patch.Files, int, error) {
	p, fuzz, err := patch.TextToPatch(text, files)
	if err != nil {
		return nil, fuzz, err
	}

	commit, err := patch.PatchToCommit(p, files)
	if err != nil {
		return nil, fuzz, err
	}

	return patch.ApplyCommit(commit), fuzz, nil
}

// scanPatchRequest is the body of a POST /v1/patch/scan request.
type scanPatchRequest struct {
	Patch string `json:"patch"`
}

// scanPatchResponse reports which files a patch needs and will add, without
// applying it.
type scanPatchResponse struct {
	WellFormed bool     `json:"well_formed"`
	Needed     []string `json:"files_needed"`
	Added      []string `json:"files_added"`
}

func (s *Server) handleScanPatch(w http.ResponseWriter, r *http.Request) {
	var req scanPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request body: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, scanPatchResponse{
		WellFormed: patch.WellFormed(req.Patch),
		Needed:     patch.FilesNeeded(req.Patch),
		Added:      patch.FilesAdded(req.Patch),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	entries, err := s.log.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("component=patchapi action=write_response err=%q", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
