package usage

import "testing"

func TestNewReport(t *testing.T) {
	b := NewBudget(1000, 250, 750, 1700000000000)
	r := NewReport(PeriodMonth, 1700000000, 1702600000, "gemini", b)

	if r.Period() != PeriodMonth {
		t.Errorf("Period() = %q", r.Period())
	}
	if r.PeriodStart() != 1700000000 || r.PeriodEnd() != 1702600000 {
		t.Errorf("period bounds = %d..%d", r.PeriodStart(), r.PeriodEnd())
	}
	if r.Provider() != "gemini" {
		t.Errorf("Provider() = %q", r.Provider())
	}
	if r.Budget().CallsLimit() != 1000 || r.Budget().CallsUsed() != 250 || r.Budget().CallsRemaining() != 750 {
		t.Errorf("Budget() = %+v", r.Budget())
	}
	if r.Budget().IsExhausted() {
		t.Error("budget should not be exhausted")
	}
}

func TestBudget_IsExhausted(t *testing.T) {
	tests := []struct {
		name string
		b    Budget
		want bool
	}{
		{"unlimited", NewBudget(0, 500, -1, 0), false},
		{"spent", NewBudget(10, 10, 0, 0), true},
		{"left", NewBudget(10, 9, 1, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.IsExhausted(); got != tt.want {
				t.Errorf("IsExhausted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodDay, "day": PeriodDay, "month": PeriodMonth} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePeriod("year"); err == nil {
		t.Error("expected error for unknown period")
	}
}
