package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stylesync/internal/api"
	"stylesync/internal/config"
	"stylesync/internal/logging"
)

// maxJSONBodyBytes bounds every non-upload request body.
const maxJSONBodyBytes = 1 << 20

type apiServer struct {
	cfg    *config.Config
	logger *slog.Logger
	daemon *Daemon
	svc    *api.Service

	handler http.Handler
	server  *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		svc:    d.svc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("GET /api/albums", srv.handleAlbums)
	mux.HandleFunc("GET /api/uploads", srv.handleUploadHistory)
	mux.HandleFunc("POST /api/uploads", srv.handleUpload)
	mux.HandleFunc("GET /api/jobs", srv.handleListJobs)
	mux.HandleFunc("POST /api/jobs", srv.handleCreateJob)
	mux.HandleFunc("DELETE /api/jobs", srv.handleClearJobs)
	mux.HandleFunc("POST /api/jobs/{id}/regenerate", srv.handleRegenerate)
	mux.HandleFunc("POST /api/jobs/{id}/complete", srv.handleComplete)
	mux.HandleFunc("POST /api/jobs/{id}/completion", srv.handleCompletion)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", noDirectoryListing(http.FileServer(http.Dir(cfg.Paths.UploadsDir)))))

	root := http.NewServeMux()
	root.Handle("GET /metrics", d.metrics.Handler())
	root.Handle("/", authMiddleware(cfg.Paths.APIToken, mux))

	srv.handler = requestIDMiddleware(accessLogMiddleware(srv.logger, d.metrics.Middleware(root)))
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("api server shutdown incomplete", logging.Error(err))
		}
		<-errCh
		return nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleAlbums(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.ListAlbums(r.Context(), strings.TrimSpace(r.URL.Query().Get("album")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.UploadHistory(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status, err := api.ParseJobStatus(r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp, err := s.svc.ListJobs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp.Only(status))
}

func (s *apiServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.CreateJobRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Kind: api.KindValidation})
		return
	}
	result, err := s.svc.CreateJob(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJobResult(w, result)
}

func (s *apiServer) handleClearJobs(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.ClearJobs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req api.RegenerateRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Kind: api.KindValidation})
		return
	}
	result, err := s.svc.RegenerateJob(r.Context(), id, req.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJobResult(w, result)
}

func (s *apiServer) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	result, err := s.svc.MarkComplete(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJobResult(w, result)
}

func (s *apiServer) handleCompletion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req api.CompletionRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Kind: api.KindValidation})
		return
	}
	result, err := s.svc.SubmitCompletion(r.Context(), id, req.OutputPath)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJobResult(w, result)
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid job id", Kind: api.KindValidation, Field: "id"})
		return 0, false
	}
	return id, true
}

func (s *apiServer) writeJobResult(w http.ResponseWriter, result api.JobActionResult) {
	status := http.StatusOK
	switch result.Outcome {
	case api.JobCreated, api.JobRequeued:
		status = http.StatusCreated
	case api.JobAccepted:
		status = http.StatusAccepted
	case api.JobNotFound:
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, result)
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	resp := api.NewErrorResponse(err)
	status := statusForKind(resp.Kind)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed",
			logging.String("path", r.URL.Path),
			logging.String("kind", resp.Kind),
			logging.Error(err),
		)
	}
	s.writeError(w, status, resp)
}

func statusForKind(kind string) int {
	switch kind {
	case api.KindValidation:
		return http.StatusBadRequest
	case api.KindNotFound:
		return http.StatusNotFound
	case api.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, resp api.ErrorResponse) {
	s.writeJSON(w, status, resp)
}

// decodeJSON reads a bounded JSON body into dst. An empty body is accepted
// when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// noDirectoryListing hides directory indexes of the uploads tree.
func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
