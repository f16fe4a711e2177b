package answer

import "context"

// BudgetChecker is the local interface for generation budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}
