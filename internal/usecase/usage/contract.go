package usage

import budgetuc "github.com/kailas-cloud/policyqa/internal/usecase/budget"

// BudgetReader provides read-only access to one provider's token budget.
type BudgetReader interface {
	Snapshot() budgetuc.Snapshot
}
