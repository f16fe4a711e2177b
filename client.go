package policyqa

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/app"
	"github.com/kailas-cloud/policyqa/internal/domain"
	healthuc "github.com/kailas-cloud/policyqa/internal/usecase/health"
	qauc "github.com/kailas-cloud/policyqa/internal/usecase/qa"
)

type retrievalUseCase interface {
	Retrieve(ctx context.Context, question, country string, k int) (domain.ContextBundle, error)
	CountryMenu(ctx context.Context) ([]string, error)
}

type synthesisUseCase interface {
	Synthesize(ctx context.Context, question string, bundle domain.ContextBundle) domain.AnswerResult
}

type qaUseCase interface {
	Ask(ctx context.Context, question, country string, k int) (qauc.Answer, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the policyqa entry point. It is safe for concurrent use.
type Client struct {
	retrieval retrievalUseCase
	synth     synthesisUseCase
	qa        qaUseCase
	health    healthUseCase
	obs       *observer
	close     func()
}

// New connects to the store and wires the pipeline.
// A store address is required; a missing generation key is not an error.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	cfg := cc.cfg
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("policyqa: %w: %w", domain.ErrConfiguration, err)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	logger := cc.zapLogger
	if logger == nil {
		logger = zap.NewNop()
	}

	var ov app.Overrides
	if cc.embedder != nil {
		ov.Embedder = embedderAdapter{inner: cc.embedder}
	}
	if cc.generator != nil {
		ov.Generator = generatorAdapter{inner: cc.generator}
	}

	a, err := app.Build(ctx, cfg, logger, ov)
	if err != nil {
		return nil, fmt.Errorf("policyqa: %w", err)
	}

	c := newClient(a.Retrieval, a.Answer, a.QA, a.Health, obs)
	c.close = a.Close
	return c, nil
}

func newClient(r retrievalUseCase, s synthesisUseCase, q qaUseCase, h healthUseCase, obs *observer) *Client {
	return &Client{retrieval: r, synth: s, qa: q, health: h, obs: obs}
}

// Close releases the store connection.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}

// Retrieve returns up to k documents most similar to the question, best first.
// country "" or GeneralAnalogy means no filter; k <= 0 uses the default.
func (c *Client) Retrieve(ctx context.Context, question, country string, k int) (Bundle, error) {
	start := time.Now()
	b, err := c.retrieval.Retrieve(ctx, question, country, k)
	c.obs.observe("retrieve", statusOf(err), start, err)
	if err != nil {
		return Bundle{}, err
	}
	return bundleFromDomain(b), nil
}

// Synthesize asks the model to answer from the given context. It does not return an error:
// failures are reported in Answer.GenerationError.
func (c *Client) Synthesize(ctx context.Context, question string, bundle Bundle) Answer {
	start := time.Now()
	res := c.synth.Synthesize(ctx, question, bundleToDomain(bundle))
	ans := answerFromResult(res)
	ans.Question = question
	ans.Duration = time.Since(start)
	c.observeAnswer("synthesize", start, ans.GenerationError)
	return ans
}

// Ask runs retrieval then synthesis. The error is set only when retrieval failed
// (see IsRetrievalError) or the question is blank.
func (c *Client) Ask(ctx context.Context, question, country string, k int) (Answer, error) {
	start := time.Now()
	a, err := c.qa.Ask(ctx, question, country, k)
	if err != nil {
		c.obs.observe("ask", "error", start, err)
		return Answer{QueryID: a.QueryID, Question: question}, err
	}
	ans := answerFromQA(a)
	c.observeAnswer("ask", start, ans.GenerationError)
	return ans, nil
}

func (c *Client) observeAnswer(op string, start time.Time, genErr error) {
	status := "ok"
	if genErr != nil {
		status = "degraded"
	}
	c.obs.observe(op, status, start, genErr)
}

// Countries returns the selector entries: GeneralAnalogy first, then every country
// present in the store, sorted.
func (c *Client) Countries(ctx context.Context) ([]string, error) {
	start := time.Now()
	menu, err := c.retrieval.CountryMenu(ctx)
	c.obs.observe("countries", statusOf(err), start, err)
	return menu, err
}

// Health checks the store, the index and both models.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}
