package chi

// ErrorCode is a machine-readable error classifier returned to clients.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeQuotaExceeded     ErrorCode = "quota_exceeded"
	ErrorCodeEmbeddingError    ErrorCode = "embedding_provider_error"
	ErrorCodeStoreUnavailable  ErrorCode = "store_unavailable"
	ErrorCodeInternalError     ErrorCode = "internal_error"
	ErrorCodeNotConfigured     ErrorCode = "not_configured"
	ErrorCodeGenerationTimeout ErrorCode = "generation_timeout"
	ErrorCodeGenerationError   ErrorCode = "generation_error"
)

// User-facing failure messages.
const (
	msgRetrievalFailed  = "could not retrieve context"
	msgGenerationFailed = "could not generate answer"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"` // field -> problem
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question string `json:"question" validate:"notblank,max=4000"`
	Country  string `json:"country,omitempty" validate:"max=200"`
	K        *int   `json:"k,omitempty" validate:"omitempty,gte=0"`
}

// Source is a cited context document.
type Source struct {
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	Country    string  `json:"country"`
	DocType    string  `json:"doc_type,omitempty"`
	SourceFile string  `json:"source_file,omitempty"`
	Preview    string  `json:"preview"`
}

// GenerationFailure explains why no answer text was produced.
type GenerationFailure struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// UsageResponse reports tokens consumed by a request.
type UsageResponse struct {
	EmbeddingTokens  int `json:"embedding_tokens"`
	GenerationTokens int `json:"generation_tokens"`
}

// AskResponse is the body of a successful POST /v1/ask.
// The context is returned even when generation failed.
type AskResponse struct {
	QueryID         string             `json:"query_id"`
	Question        string             `json:"question"`
	Country         string             `json:"country,omitempty"`
	Answer          string             `json:"answer"`
	GenerationError *GenerationFailure `json:"generation_error,omitempty"`
	NoContext       bool               `json:"no_context"`
	Model           string             `json:"model,omitempty"`
	Sources         []Source           `json:"sources"`
	Usage           UsageResponse      `json:"usage"`
}

// ContextResponse is the body of GET /v1/context.
type ContextResponse struct {
	Country string   `json:"country,omitempty"`
	Sources []Source `json:"sources"`
}

// CountriesResponse is the body of GET /v1/countries.
type CountriesResponse struct {
	Countries []string `json:"countries"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ProviderUsage is one provider's budget in a usage report. Limit 0 means unlimited.
type ProviderUsage struct {
	Provider  string `json:"provider"`
	Limit     int64  `json:"tokens_limit"`
	Used      int64  `json:"tokens_used"`
	Remaining int64  `json:"tokens_remaining"`
	Exhausted bool   `json:"exhausted"`
	Action    string `json:"action"`
}

// UsageReportResponse is the body of GET /v1/usage. Times are Unix milliseconds.
type UsageReportResponse struct {
	Period      string          `json:"period"`
	PeriodStart int64           `json:"period_start"`
	PeriodEnd   int64           `json:"period_end"`
	Providers   []ProviderUsage `json:"providers"`
}
