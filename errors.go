package policyqa

import "github.com/kailas-cloud/policyqa/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfiguration = domain.ErrConfiguration
	ErrEmbedding     = domain.ErrEmbedding
	ErrStoreQuery    = domain.ErrStoreQuery
	ErrGeneration    = domain.ErrGeneration
	ErrQuotaExceeded = domain.ErrQuotaExceeded
	ErrEmptyQuestion = domain.ErrEmptyQuestion
)

// GeneralAnalogy is the country menu entry that means "no country filter".
const GeneralAnalogy = domain.GeneralAnalogyLabel

// IsRetrievalError reports whether err aborted the pipeline before synthesis.
func IsRetrievalError(err error) bool {
	return domain.IsRetrievalError(err)
}
