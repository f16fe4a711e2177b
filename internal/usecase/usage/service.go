package usage

import (
	"context"
	"fmt"
	"time"

	budgetuc "github.com/kailas-cloud/policyqa/internal/usecase/budget"
)

// Period selects the budget window.
type Period string

const (
	// PeriodDay is the current UTC day.
	PeriodDay Period = "day"
	// PeriodMonth is the current UTC month.
	PeriodMonth Period = "month"
)

// ParsePeriod accepts "day", "month" or "" (day).
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// ProviderReport is the token budget state of one provider for one period.
// Limit 0 means unlimited, in which case Remaining is -1.
type ProviderReport struct {
	Provider  string
	Limit     int64
	Used      int64
	Remaining int64
	Exhausted bool
	Action    string
}

// Report covers every tracked provider.
type Report struct {
	Period      Period
	PeriodStart time.Time
	PeriodEnd   time.Time
	Providers   []ProviderReport
}

// Service handles usage reporting.
type Service struct {
	readers []BudgetReader
	now     func() time.Time
}

// New creates a Service. Providers without a budget are simply not passed in.
func New(readers ...BudgetReader) *Service {
	return &Service{readers: readers, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := s.now().UTC()
	r := Report{Period: period, Providers: make([]ProviderReport, 0, len(s.readers))}

	switch period {
	case PeriodMonth:
		r.PeriodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.AddDate(0, 1, 0)
	default:
		r.Period = PeriodDay
		r.PeriodStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.Add(24 * time.Hour)
	}

	for _, br := range s.readers {
		snap := br.Snapshot()
		limit, used := snap.DailyLimit, snap.DailyUsed
		if r.Period == PeriodMonth {
			limit, used = snap.MonthlyLimit, snap.MonthlyUsed
		}
		r.Providers = append(r.Providers, ProviderReport{
			Provider:  snap.Provider,
			Limit:     limit,
			Used:      used,
			Remaining: remaining(limit, used),
			Exhausted: limit > 0 && used >= limit,
			Action:    string(snap.Action),
		})
	}
	return r
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

var _ BudgetReader = (*budgetuc.Tracker)(nil)
