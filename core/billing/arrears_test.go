package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q) failed: %v", raw, err)
	}
	return d
}

func TestMonthsActive(t *testing.T) {
	tests := []struct {
		name         string
		registeredAt time.Time
		asOf         time.Time
		want         int
	}{
		{name: "no registration date", asOf: date(2025, time.May, 10), want: 0},
		{name: "registered this month", registeredAt: date(2025, time.May, 28), asOf: date(2025, time.May, 30), want: 1},
		{name: "registered mid-month counts the month", registeredAt: date(2025, time.January, 31), asOf: date(2025, time.May, 1), want: 5},
		{name: "across years", registeredAt: date(2023, time.November, 5), asOf: date(2024, time.February, 20), want: 4},
		{name: "registered in the future", registeredAt: date(2026, time.January, 1), asOf: date(2025, time.May, 1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsActive(tt.registeredAt, tt.asOf); got != tt.want {
				t.Errorf("MonthsActive() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMonthsCovered(t *testing.T) {
	tests := []struct {
		name string
		paid string
		fee  string
		want int
	}{
		{name: "nothing paid", paid: "0", fee: "100000", want: 0},
		{name: "zero fee covers nothing", paid: "500000", fee: "0", want: 0},
		{name: "exact months", paid: "300000", fee: "100000", want: 3},
		{name: "partial month absorbed", paid: "250000", fee: "100000", want: 2},
		{name: "less than one month", paid: "99999", fee: "100000", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsCovered(amount(t, tt.paid), amount(t, tt.fee)); got != tt.want {
				t.Errorf("MonthsCovered() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeAccrual(t *testing.T) {
	fee := amount(t, "100000")
	registeredAt := date(2025, time.January, 15)
	asOf := date(2025, time.May, 10) // 5 active months

	txns := []Transaction{
		{Type: PaymentSPP, Amount: amount(t, "200000"), Status: StatusPaid},
		{Type: PaymentSPP, Amount: amount(t, "50000"), Status: StatusPaid},
		{Type: PaymentSPP, Amount: amount(t, "100000"), Status: StatusPending}, // pending does not count
		{Type: PaymentINFAQ, Amount: amount(t, "100000"), Status: StatusPaid},  // other category does not count
	}

	got := ComputeAccrual(registeredAt, fee, txns, PaymentSPP, asOf)

	if got.MonthsActive != 5 {
		t.Errorf("MonthsActive = %d, want 5", got.MonthsActive)
	}
	if got.MonthsPaid != 2 {
		t.Errorf("MonthsPaid = %d, want 2", got.MonthsPaid)
	}
	if got.MonthsUnpaid != 3 {
		t.Errorf("MonthsUnpaid = %d, want 3", got.MonthsUnpaid)
	}
	if want := amount(t, "300000"); !got.TotalArrears.Equal(want) {
		t.Errorf("TotalArrears = %s, want %s", got.TotalArrears, want)
	}
	if !got.IsDue {
		t.Error("IsDue = false, want true")
	}
	if !got.IsCritical {
		t.Error("IsCritical = false, want true (3 unpaid months)")
	}
}

func TestComputeAccrual_edges(t *testing.T) {
	fee := amount(t, "100000")
	asOf := date(2025, time.May, 10)

	t.Run("no registration date accrues nothing", func(t *testing.T) {
		got := ComputeAccrual(time.Time{}, fee, nil, PaymentSPP, asOf)
		if got.MonthsActive != 0 || got.MonthsUnpaid != 0 || got.IsDue {
			t.Errorf("zero registration accrued: %+v", got)
		}
	})

	t.Run("overpayment clamps unpaid at zero", func(t *testing.T) {
		txns := []Transaction{{Type: PaymentSPP, Amount: amount(t, "1200000"), Status: StatusPaid}}
		got := ComputeAccrual(date(2025, time.March, 1), fee, txns, PaymentSPP, asOf)
		if got.MonthsUnpaid != 0 {
			t.Errorf("MonthsUnpaid = %d, want 0", got.MonthsUnpaid)
		}
		if !got.TotalArrears.IsZero() {
			t.Errorf("TotalArrears = %s, want 0", got.TotalArrears)
		}
		if got.IsDue {
			t.Error("IsDue = true, want false")
		}
	})

	t.Run("unconfigured fee reports no arrears", func(t *testing.T) {
		got := ComputeAccrual(date(2025, time.January, 1), decimal.Zero, nil, PaymentSPP, asOf)
		if got.MonthsPaid != 0 || !got.TotalArrears.IsZero() {
			t.Errorf("zero fee produced arrears: %+v", got)
		}
		if !got.IsDue {
			t.Error("IsDue = false, want true (active months with no coverage)")
		}
	})

	t.Run("below critical threshold", func(t *testing.T) {
		got := ComputeAccrual(date(2025, time.April, 1), fee, nil, PaymentSPP, asOf) // 2 active
		if got.IsCritical {
			t.Error("IsCritical = true, want false (2 unpaid months)")
		}
	})
}

func TestMonthsThrough(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want []string
	}{
		{
			name: "same month",
			from: date(2025, time.March, 10), to: date(2025, time.March, 25),
			want: []string{"2025-03"},
		},
		{
			name: "across a year boundary",
			from: date(2024, time.November, 20), to: date(2025, time.February, 1),
			want: []string{"2024-11", "2024-12", "2025-01", "2025-02"},
		},
		{name: "from after to", from: date(2025, time.May, 1), to: date(2025, time.April, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			months := MonthsThrough(tt.from, tt.to)
			got := make([]string, 0, len(months))
			for _, m := range months {
				got = append(got, MonthKey(m))
			}
			if len(got) != len(tt.want) {
				t.Fatalf("MonthsThrough() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("MonthsThrough()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}
