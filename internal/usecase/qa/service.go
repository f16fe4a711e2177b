package qa

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/domain"
	"github.com/kailas-cloud/policyqa/internal/logger"
)

// Answer is the outcome of one question.
type Answer struct {
	QueryID  string
	Question string
	Result   domain.AnswerResult
	Usage    domain.Usage
	Duration time.Duration
}

// Service runs the sequential pipeline: embed, retrieve, synthesize.
type Service struct {
	retriever   Retriever
	synthesizer Synthesizer
}

// New creates a question answering service.
func New(r Retriever, s Synthesizer) *Service {
	return &Service{retriever: r, synthesizer: s}
}

// Ask answers a question. Retrieval failures abort and are returned as errors;
// generation failures are reported inside Answer.Result.
func (s *Service) Ask(ctx context.Context, question, country string, k int) (Answer, error) {
	start := time.Now()
	queryID := uuid.NewString()
	ctx = logger.WithFields(ctx, zap.String("query_id", queryID))
	log := logger.FromContext(ctx)

	ctx, usage := domain.NewContextWithUsage(ctx)

	bundle, err := s.retriever.Retrieve(ctx, question, country, k)
	if err != nil {
		log.Warn("Retrieval failed", zap.String("country", country), zap.Error(err))
		return Answer{QueryID: queryID, Question: question}, fmt.Errorf("retrieve: %w", err)
	}

	result := s.synthesizer.Synthesize(ctx, question, bundle)

	ans := Answer{
		QueryID:  queryID,
		Question: question,
		Result:   result,
		Usage:    *usage,
		Duration: time.Since(start),
	}

	fields := []zap.Field{
		zap.String("country", bundle.CountryFilter),
		zap.Int("sources", bundle.Len()),
		zap.Bool("no_context", result.NoContext),
		zap.Int("embedding_tokens", usage.EmbeddingTokens),
		zap.Int("generation_tokens", usage.GenerationTokens),
		zap.Duration("duration", ans.Duration),
	}
	if result.Failed() {
		log.Warn("Question answered without generation", append(fields, zap.Error(result.GenerationError))...)
	} else {
		log.Info("Question answered", fields...)
	}

	return ans, nil
}

// Countries returns the country selector entries.
func (s *Service) Countries(ctx context.Context) ([]string, error) {
	menu, err := s.retriever.CountryMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("countries: %w", err)
	}
	return menu, nil
}
