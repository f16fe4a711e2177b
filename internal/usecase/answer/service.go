package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/domain"
)

// DefaultTimeout bounds one synthesis, retries included.
const DefaultTimeout = 60 * time.Second

// Options tunes synthesis.
type Options struct {
	Timeout      time.Duration
	MaxRetries   int           // extra attempts after the first; 0 disables retry
	RetryBackoff time.Duration // doubled after each failed attempt
}

// Service turns a question and a context bundle into an answer. It never returns an error:
// failures are reported through AnswerResult.GenerationError.
type Service struct {
	gen    domain.Generator
	model  string
	opts   Options
	budget BudgetChecker
	logger *zap.Logger
}

// New creates a synthesizer. A nil generator means the API key is missing:
// every call short-circuits with domain.ErrConfiguration. budget can be nil.
func New(gen domain.Generator, model string, opts Options, budget BudgetChecker, logger *zap.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gen: gen, model: model, opts: opts, budget: budget, logger: logger}
}

// Configured reports whether a generator is wired.
func (s *Service) Configured() bool { return s.gen != nil }

// Synthesize builds the prompt and asks the model. An empty bundle still goes to the model
// and sets NoContext.
func (s *Service) Synthesize(ctx context.Context, question string, bundle domain.ContextBundle) domain.AnswerResult {
	res := domain.AnswerResult{
		CitedSources: bundle,
		NoContext:    bundle.IsEmpty(),
		Model:        s.model,
	}

	if s.gen == nil {
		res.GenerationError = fmt.Errorf("%w: generation API key is not set", domain.ErrConfiguration)
		return res
	}

	if s.budget != nil {
		if err := s.budget.Check(ctx); err != nil {
			res.GenerationError = fmt.Errorf("%w: %w", domain.ErrGeneration, err)
			return res
		}
	}

	prompt := BuildPrompt(question, bundle)

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	gen, err := s.generateWithRetry(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		s.logger.Warn("Answer generation failed",
			zap.String("model", s.model),
			zap.Int("sources", bundle.Len()),
			zap.Error(err),
		)
		res.GenerationError = domain.NewGenerationFailure(err)
		return res
	}

	res.AnswerText = gen.Text
	if gen.Model != "" {
		res.Model = gen.Model
	}
	res.PromptTokens = gen.PromptTokens
	res.TotalTokens = gen.TotalTokens

	if s.budget != nil {
		s.budget.Record(int64(gen.TotalTokens))
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(gen.TotalTokens)

	return res
}

func (s *Service) generateWithRetry(ctx context.Context, prompt string) (domain.Generation, error) {
	backoff := s.opts.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Debug("Retrying generation", zap.Int("attempt", attempt), zap.Duration("backoff", backoff))
			if err := sleep(ctx, backoff); err != nil {
				return domain.Generation{}, fmt.Errorf("%w (last error: %w)", err, lastErr)
			}
			backoff *= 2
		}

		gen, err := s.safeGenerate(ctx, prompt)
		if err == nil {
			return gen, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, domain.ErrConfiguration) {
			break
		}
	}

	return domain.Generation{}, lastErr
}

// safeGenerate converts a generator panic into an error.
func (s *Service) safeGenerate(ctx context.Context, prompt string) (gen domain.Generation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: generator panic: %v", domain.ErrGeneration, r)
		}
	}()

	gen, err = s.gen.Generate(ctx, prompt)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("generate: %w", err)
	}
	if gen.Text == "" {
		return domain.Generation{}, fmt.Errorf("%w: empty answer", domain.ErrGeneration)
	}
	return gen, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
