package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/rajasatyajit/lifesaver/internal/errors"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	middlewares "github.com/rajasatyajit/lifesaver/internal/middleware"
	"github.com/rajasatyajit/lifesaver/internal/models"
	"github.com/rajasatyajit/lifesaver/internal/ratelimit"
	"github.com/rajasatyajit/lifesaver/internal/uploads"
)

// ReportService is the report lifecycle the handlers expose
type ReportService interface {
	Submit(ctx context.Context, sub models.Submission) (*models.Report, error)
	Patch(ctx context.Context, id string, upd models.ReportUpdate) (*models.Report, error)
	Get(ctx context.Context, id string) (*models.Report, error)
	Query(ctx context.Context, f models.ReportFilter) ([]models.Report, error)
	Health(ctx context.Context) error
}

// Options carries the optional collaborators of a Handler
type Options struct {
	Uploads       *uploads.Store
	Limiter       ratelimit.Limiter
	PublicBaseURL string
	BodyLimit     int64
	Version       string
	BuildTime     string
	GitCommit     string
}

// Handler handles HTTP requests for the API
type Handler struct {
	svc       ReportService
	uploads   *uploads.Store
	limiter   ratelimit.Limiter
	baseURL   string
	bodyLimit int64
	version   string
	buildTime string
	gitCommit string
	startTime time.Time
}

// NewHandler creates a new API handler
func NewHandler(svc ReportService, opts Options) *Handler {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	bodyLimit := opts.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 5 << 20
	}
	return &Handler{
		svc:       svc,
		uploads:   opts.Uploads,
		limiter:   limiter,
		baseURL:   strings.TrimRight(opts.PublicBaseURL, "/"),
		bodyLimit: bodyLimit,
		version:   opts.Version,
		buildTime: opts.BuildTime,
		gitCommit: opts.GitCommit,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		// Health check endpoints
		r.Get("/health", h.healthHandler)
		r.Get("/health/ready", h.readinessHandler)
		r.Get("/health/live", h.livenessHandler)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.listReportsHandler)
			r.With(middlewares.SubmitCooldown(h.limiter)).Post("/", h.createReportHandler)
			r.Get("/{id}", h.getReportHandler)
			r.Patch("/{id}", h.patchReportHandler)
		})

		// System info
		r.Get("/version", h.versionHandler)
	})

	if h.uploads != nil {
		r.Handle(uploads.URLPrefix+"*", http.StripPrefix(uploads.URLPrefix, servePhotos(h.uploads.Dir())))
	}

	// Root health check
	r.Get("/health", h.healthHandler)
}

// healthHandler provides basic health check
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"ok":        true,
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// readinessHandler checks if the application is ready to serve traffic
func (h *Handler) readinessHandler(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"store": "ok",
	}
	status := "ready"
	statusCode := http.StatusOK

	if err := h.svc.Health(r.Context()); err != nil {
		checks["store"] = "error: " + err.Error()
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	}

	h.writeJSONResponse(w, statusCode, response)
}

// livenessHandler checks if the application is alive
func (h *Handler) livenessHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// versionHandler returns version information
func (h *Handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"version":    h.version,
		"build_time": h.buildTime,
		"git_commit": h.gitCommit,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// listReportsHandler handles GET /v1/reports
func (h *Handler) listReportsHandler(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.Query(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"data":      reports,
		"count":     len(reports),
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Cache-Control", "no-store")
	h.writeJSONResponse(w, http.StatusOK, response)
}

// getReportHandler handles GET /v1/reports/{id}
func (h *Handler) getReportHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	h.writeJSONResponse(w, http.StatusOK, report)
}

// createReportHandler handles POST /v1/reports
func (h *Handler) createReportHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit)

	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sub, err := parseSubmission(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	photoURL, err := h.savePhoto(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if photoURL != "" {
		sub.PhotoURL = photoURL
	}

	report, err := h.svc.Submit(r.Context(), sub)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/reports/"+report.ID)
	h.writeJSONResponse(w, http.StatusCreated, report)
}

// patchReportHandler handles PATCH /v1/reports/{id}
func (h *Handler) patchReportHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit)

	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, bodyError(err))
		return
	}

	upd, err := parseUpdate(body)
	if err != nil {
		// An unknown id is reported before a malformed field
		if _, getErr := h.svc.Get(r.Context(), chi.URLParam(r, "id")); getErr != nil {
			h.writeError(w, r, getErr)
			return
		}
		h.writeError(w, r, err)
		return
	}

	report, err := h.svc.Patch(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, report)
}

// savePhoto stores the multipart "photo" file, if any, and returns its URL
func (h *Handler) savePhoto(r *http.Request) (string, error) {
	if h.uploads == nil || r.MultipartForm == nil {
		return "", nil
	}
	files := r.MultipartForm.File["photo"]
	if len(files) == 0 {
		return "", nil
	}

	f, err := files[0].Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	name, err := h.uploads.Save(f, files[0].Filename)
	if err != nil {
		return "", err
	}
	return uploads.PublicURL(h.publicBaseURL(r), name), nil
}

func (h *Handler) publicBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// servePhotos serves stored files but never directory listings or
// in-progress temp files.
func servePhotos(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if name == "" || strings.HasSuffix(name, "/") || strings.HasPrefix(name, ".") || strings.Contains(name, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	})
}

// writeJSONResponse writes a JSON response
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError maps service errors onto HTTP responses
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeErrorResponse(w, r, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeErrorResponse(w, r, http.StatusNotFound, apperrors.CodeNotFound, "report not found")
	case errors.Is(err, apperrors.ErrPayloadTooLarge):
		h.writeErrorResponse(w, r, http.StatusRequestEntityTooLarge, apperrors.CodePayloadTooLarge, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.writeErrorResponse(w, r, http.StatusBadRequest, apperrors.CodeInvalidBody, err.Error())
	default:
		logger.WithContext(r.Context()).Error("Request failed", "error", err, "path", r.URL.Path)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, apperrors.CodeInternal, "Internal server error")
	}
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetReqID(r.Context()),
	}

	h.writeJSONResponse(w, statusCode, response)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
