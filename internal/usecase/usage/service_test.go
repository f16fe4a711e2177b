package usage

import (
	"context"
	"testing"
	"time"

	budgetuc "github.com/kailas-cloud/policyqa/internal/usecase/budget"
)

// --- Mock ---

type mockBudgetReader struct {
	snap budgetuc.Snapshot
}

func (m *mockBudgetReader) Snapshot() budgetuc.Snapshot { return m.snap }

func fixedNow() time.Time {
	return time.Date(2026, 10, 16, 13, 45, 0, 0, time.UTC)
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	svc := New(&mockBudgetReader{snap: budgetuc.Snapshot{
		Provider:     "gemini",
		DailyLimit:   10000,
		DailyUsed:    3000,
		MonthlyLimit: 100000,
		MonthlyUsed:  50000,
		Action:       budgetuc.ActionReject,
	}})
	svc.now = fixedNow

	r := svc.GetReport(context.Background(), PeriodDay)

	if r.Period != PeriodDay {
		t.Errorf("expected period %q, got %q", PeriodDay, r.Period)
	}
	wantStart := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	if !r.PeriodStart.Equal(wantStart) || !r.PeriodEnd.Equal(wantStart.Add(24*time.Hour)) {
		t.Errorf("unexpected window %v - %v", r.PeriodStart, r.PeriodEnd)
	}
	if len(r.Providers) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(r.Providers))
	}
	p := r.Providers[0]
	if p.Limit != 10000 || p.Used != 3000 || p.Remaining != 7000 || p.Exhausted || p.Action != "reject" {
		t.Errorf("unexpected provider report: %+v", p)
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	svc := New(&mockBudgetReader{snap: budgetuc.Snapshot{
		Provider:     "embeddings",
		MonthlyLimit: 50000,
		MonthlyUsed:  60000,
	}})
	svc.now = fixedNow

	r := svc.GetReport(context.Background(), PeriodMonth)

	wantStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	if !r.PeriodStart.Equal(wantStart) || !r.PeriodEnd.Equal(wantEnd) {
		t.Errorf("unexpected window %v - %v", r.PeriodStart, r.PeriodEnd)
	}
	p := r.Providers[0]
	if p.Remaining != 0 || !p.Exhausted {
		t.Errorf("expected exhausted budget, got %+v", p)
	}
}

func TestGetReport_Unlimited(t *testing.T) {
	svc := New(&mockBudgetReader{snap: budgetuc.Snapshot{Provider: "gemini", DailyUsed: 42}})

	p := svc.GetReport(context.Background(), PeriodDay).Providers[0]
	if p.Limit != 0 || p.Remaining != -1 || p.Exhausted || p.Used != 42 {
		t.Errorf("unexpected unlimited report: %+v", p)
	}
}

func TestGetReport_NoProviders(t *testing.T) {
	r := New().GetReport(context.Background(), "")
	if r.Period != PeriodDay || len(r.Providers) != 0 {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodDay, "day": PeriodDay, "month": PeriodMonth} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePeriod("week"); err == nil {
		t.Error("expected error for unknown period")
	}
}
