package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	domusage "github.com/kailas-cloud/petmatch/internal/domain/usage"
	"github.com/kailas-cloud/petmatch/internal/logger"
	healthuc "github.com/kailas-cloud/petmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/petmatch/internal/usecase/match"
)

const (
	maxBodyBytes   = 64 << 10
	healthyMessage = "API is running"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the petmatch HTTP API.
type Server struct {
	match         MatchService
	random        RandomService
	usage         UsageService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. random and usage can be nil; their routes then answer 404.
func NewServer(
	match MatchService,
	random RandomService,
	usage UsageService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		match:  match,
		random: random,
		usage:  usage,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidLocation, http.StatusBadRequest, CodeInvalidLocation),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusPaymentRequired, CodeBudgetExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrDirectoryAuth, http.StatusBadGateway, CodeDirectoryAuthError),
		sentinelHandler(domain.ErrDirectory, http.StatusBadGateway, CodeDirectoryError),
		sentinelHandler(domain.ErrTraitExtraction, http.StatusBadGateway, CodeExtractionFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/api/health", s.APIHealth)
	r.Get("/metrics", s.Metrics)
	r.Get("/submitForm", s.SubmitForm)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/match", s.CreateMatch)
		r.Get("/match", s.GetMatch)
		if s.random != nil {
			r.Get("/pets/random", s.RandomPet)
		}
		if s.usage != nil {
			r.Get("/usage", s.GetUsage)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// CreateMatch handles POST /v1/match.
func (s *Server) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Location == nil {
		writeError(w, http.StatusBadRequest, CodeInvalidLocation, "location is required")
		return
	}

	mreq := matchuc.Request{Images: req.Images, Location: *req.Location}
	if req.RadiusKm != nil {
		mreq.RadiusKm = *req.RadiusKm
	}
	s.runMatch(w, r, mreq)
}

// GetMatch handles GET /v1/match.
func (s *Server) GetMatch(w http.ResponseWriter, r *http.Request) {
	params, err := bindMatchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	mreq := matchuc.Request{
		Images:   params.Image,
		Location: geo.Point{Lat: params.Lat, Lng: params.Lng},
	}
	if params.RadiusKm != nil {
		mreq.RadiusKm = *params.RadiusKm
	}
	s.runMatch(w, r, mreq)
}

func (s *Server) runMatch(w http.ResponseWriter, r *http.Request, req matchuc.Request) {
	res, err := s.match.Match(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchToResponse(&res))
}

// SubmitForm handles GET /submitForm, the query format of the first web frontend:
// urls is a JSON array of image URLs and location a JSON {"lat","lng"} object.
func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var urls []string
	if err := json.Unmarshal([]byte(q.Get("urls")), &urls); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "urls must be a JSON array of image URLs")
		return
	}
	var loc geo.Point
	if err := json.Unmarshal([]byte(q.Get("location")), &loc); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidLocation, "location must be a JSON object with lat and lng")
		return
	}

	res, err := s.match.Match(r.Context(), matchuc.Request{Images: urls, Location: loc})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := LegacyMatchResponse{Results: matchToResponse(&res).Listings, TotalCount: res.TotalCount}
	writeJSON(w, http.StatusOK, resp)
}

// RandomPet handles GET /v1/pets/random.
func (s *Server) RandomPet(w http.ResponseWriter, r *http.Request) {
	res, err := s.random.Pick(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, randomToResponse(&res))
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var params UsageParams
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &params.Period); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var raw string
	if params.Period != nil {
		raw = *params.Period
	}
	period, err := domusage.ParsePeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageToResponse(&report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeHealth(w, r, "")
}

// APIHealth handles GET /api/health, kept for the browser frontend.
func (s *Server) APIHealth(w http.ResponseWriter, r *http.Request) {
	s.writeHealth(w, r, healthyMessage)
}

func (s *Server) writeHealth(w http.ResponseWriter, r *http.Request, message string) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
		message = ""
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Message: message,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func bindMatchParams(r *http.Request) (MatchParams, error) {
	var params MatchParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "image", q, &params.Image); err != nil {
		return params, err
	}
	if err := runtime.BindQueryParameter("form", true, true, "lat", q, &params.Lat); err != nil {
		return params, err
	}
	if err := runtime.BindQueryParameter("form", true, true, "lng", q, &params.Lng); err != nil {
		return params, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "radius_km", q, &params.RadiusKm); err != nil {
		return params, err
	}
	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns the client-facing message for err without exposing internals.
// Validation errors keep their detail since it only echoes the caller's input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrInvalidLocation) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrBudgetExceeded,
		domain.ErrRateLimited,
		domain.ErrDirectoryAuth,
		domain.ErrDirectory,
		domain.ErrTraitExtraction,
		domain.ErrTraitParse,
		domain.ErrEnrichment,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
