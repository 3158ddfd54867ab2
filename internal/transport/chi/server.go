package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/textdex/internal/domain"
	"github.com/kailas-cloud/textdex/internal/domain/search/page"
	logpkg "github.com/kailas-cloud/textdex/internal/logger"
	"github.com/kailas-cloud/textdex/internal/metrics"
	documentuc "github.com/kailas-cloud/textdex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/textdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/textdex/internal/usecase/search"
)

// Pagination defaults used when the server is built without WithPagination.
const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// Server serves the textdex HTTP API.
type Server struct {
	documents       *documentuc.Service
	search          *searchuc.Service
	health          *healthuc.Service
	logger          *zap.Logger
	errorHandlers   []errorHandler
	defaultPageSize int
	maxPageSize     int
}

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		documents:       documents,
		search:          search,
		health:          health,
		logger:          logger,
		errorHandlers:   defaultErrorHandlers(),
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
}

// WithPagination sets the page size applied when a request omits limit
// and the largest limit a request may ask for.
func (s *Server) WithPagination(defaultSize, maxSize int) *Server {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// Routes mounts the API endpoints on r.
func (s *Server) Routes(r gochi.Router) {
	r.Put("/documents", s.UpsertDocuments)
	r.Post("/search", s.SearchDocuments)
	r.Get("/search", s.SearchText)
	r.Post("/count", s.CountDocuments)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// NewRouter wraps the server routes with recovery, request ids,
// request logging, auth and metrics middleware.
func NewRouter(s *Server, apiKeys []string) http.Handler {
	r := gochi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	s.Routes(r)
	return r
}

// UpsertDocuments handles PUT /documents.
func (s *Server) UpsertDocuments(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "documents must not be empty")
		return
	}

	docs, err := documentsFromRequest(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.documents.Upsert(r.Context(), docs); err != nil {
		if documentuc.IsRetryable(err) {
			w.Header().Set("Retry-After", "1")
		}
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchDocuments handles POST /search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	spec, err := specFromRequest(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	p, err := s.page(req.Offset, req.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.search.Search(r.Context(), spec, p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse(res))
}

// SearchText handles GET /search?q=&offset=&limit=.
func (s *Server) SearchText(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	offset, err := intParam(params.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "offset: "+err.Error())
		return
	}
	var limit *int
	if raw := params.Get("limit"); raw != "" {
		n, err := intParam(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "limit: "+err.Error())
			return
		}
		limit = &n
	}
	p, err := s.page(offset, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.search.SearchText(r.Context(), params.Get("q"), p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse(res))
}

// CountDocuments handles POST /count. Pagination fields are ignored.
func (s *Server) CountDocuments(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	spec, err := specFromRequest(req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.search.Count(r.Context(), spec)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// A stale snapshot still serves reads, so only Unhealthy fails the probe.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:     string(report.Status),
		Checks:     checks,
		Generation: report.Generation,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) page(offset int, limit *int) (page.Page, error) {
	n := s.defaultPageSize
	if limit != nil {
		n = *limit
	}
	if n > s.maxPageSize {
		return page.Page{}, fmt.Errorf("%w: limit %d exceeds max %d", domain.ErrInvalidPage, n, s.maxPageSize)
	}
	return page.New(offset, n)
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	return n, nil
}
