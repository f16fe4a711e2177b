package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/domain"
	healthuc "github.com/kailas-cloud/policyqa/internal/usecase/health"
	qauc "github.com/kailas-cloud/policyqa/internal/usecase/qa"
	usageuc "github.com/kailas-cloud/policyqa/internal/usecase/usage"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the question answering API.
type Server struct {
	qa            QA
	retriever     ContextRetriever
	health        HealthChecker
	usage         UsageReporter
	previewChars  int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. usage can be nil.
func NewServer(
	qa QA,
	retriever ContextRetriever,
	health HealthChecker,
	usage UsageReporter,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		qa:           qa,
		retriever:    retriever,
		health:       health,
		usage:        usage,
		previewChars: domain.PreviewChars,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuestion, http.StatusBadRequest, ErrorCodeValidationFailed, "question is required"),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, ErrorCodeQuotaExceeded, "token budget exceeded"),
		retrievalHandler,
	}
	return s
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		writeValidationError(w, err)
		return
	}
	k := 0
	if req.K != nil {
		k = *req.K
	}

	ans, err := s.qa.Ask(r.Context(), req.Question, req.Country, k)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.askResponse(ans))
}

// GetContext handles GET /v1/context?q=&country=&k=.
func (s *Server) GetContext(w http.ResponseWriter, r *http.Request) {
	var (
		question string
		country  *string
		k        *int
	)
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", query, &question); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter q: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "country", query, &country); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter country: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "k", query, &k); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter k: "+err.Error())
		return
	}

	kv, ok := resolveK(w, k)
	if !ok {
		return
	}
	c := ""
	if country != nil {
		c = *country
	}

	bundle, err := s.retriever.Retrieve(r.Context(), question, c, kv)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, ContextResponse{
		Country: bundle.CountryFilter,
		Sources: s.sources(bundle),
	})
}

// ListCountries handles GET /v1/countries.
func (s *Server) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.qa.Countries(r.Context())
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountriesResponse{Countries: countries})
}

// HealthCheck handles GET /health. Degraded still answers 200: retrieval works.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter period: "+err.Error())
		return
	}
	p := ""
	if raw != nil {
		p = *raw
	}
	period, err := usageuc.ParsePeriod(p)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "period must be day or month")
		return
	}

	var report usageuc.Report
	if s.usage != nil {
		report = s.usage.GetReport(r.Context(), period)
	} else {
		report = usageuc.New().GetReport(r.Context(), period)
	}

	resp := UsageReportResponse{
		Period:      string(report.Period),
		PeriodStart: report.PeriodStart.UnixMilli(),
		PeriodEnd:   report.PeriodEnd.UnixMilli(),
		Providers:   make([]ProviderUsage, 0, len(report.Providers)),
	}
	for _, pr := range report.Providers {
		resp.Providers = append(resp.Providers, ProviderUsage{
			Provider:  pr.Provider,
			Limit:     pr.Limit,
			Used:      pr.Used,
			Remaining: pr.Remaining,
			Exhausted: pr.Exhausted,
			Action:    pr.Action,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func resolveK(w http.ResponseWriter, k *int) (int, bool) {
	if k == nil {
		return 0, true
	}
	if *k < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "k must not be negative")
		return 0, false
	}
	return *k, true
}

func (s *Server) askResponse(ans qauc.Answer) AskResponse {
	res := ans.Result
	resp := AskResponse{
		QueryID:   ans.QueryID,
		Question:  ans.Question,
		Country:   res.CitedSources.CountryFilter,
		Answer:    res.AnswerText,
		NoContext: res.NoContext,
		Model:     res.Model,
		Sources:   s.sources(res.CitedSources),
		Usage: UsageResponse{
			EmbeddingTokens:  ans.Usage.EmbeddingTokens,
			GenerationTokens: ans.Usage.GenerationTokens,
		},
	}
	if res.Failed() {
		resp.GenerationError = &GenerationFailure{
			Code:    generationErrorCode(res.GenerationError),
			Message: msgGenerationFailed,
		}
	}
	return resp
}

func (s *Server) sources(b domain.ContextBundle) []Source {
	out := make([]Source, 0, b.Len())
	for _, e := range b.Entries {
		md := e.Document.Metadata
		out = append(out, Source{
			Rank:       e.Rank,
			Score:      e.Score,
			Country:    md.Country,
			DocType:    md.DocType,
			SourceFile: md.SourceFile,
			Preview:    domain.Preview(e.Document.Text, s.previewChars),
		})
	}
	return out
}

func generationErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return ErrorCodeNotConfigured
	case errors.Is(err, domain.ErrQuotaExceeded):
		return ErrorCodeQuotaExceeded
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeGenerationTimeout
	default:
		return ErrorCodeGenerationError
	}
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

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// retrievalHandler maps embedding failures to 502 and store failures to 503.
func retrievalHandler(w http.ResponseWriter, err error) bool {
	var re *domain.RetrievalError
	if !errors.As(err, &re) {
		return false
	}
	if re.Stage == domain.StageEmbedding {
		writeError(w, http.StatusBadGateway, ErrorCodeEmbeddingError, msgRetrievalFailed)
		return true
	}
	writeError(w, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable, msgRetrievalFailed)
	return true
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := loggerFrom(ctx, s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
