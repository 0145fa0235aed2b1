package analytics

import "testing"

func checkVal(t *testing.T, name string, got *float64, want, eps float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s is nil, want %v", name, want)
	}
	if !almostEqual(*got, want, eps) {
		t.Fatalf("%s=%v want=%v", name, *got, want)
	}
}

func checkNil(t *testing.T, name string, got *float64) {
	t.Helper()
	if got != nil {
		t.Fatalf("%s=%v, want nil", name, *got)
	}
}

func TestComputeProfit(t *testing.T) {
	res := ComputeProfit(ProfitInputs{
		SpreadPercent:       0.5,
		FairSpreadPercent:   0.4109589041,
		DaysUntilExpiration: 30,
		ShortWindowRate:     ptrFloat(0.0001),
		LongWindowRate:      ptrFloat(0.0001),
		CapitalUSDT:         10000,
	})

	checkVal(t, "funding", res.FundingUntilExpiration, 0.9, 1e-9)
	checkVal(t, "net", res.NetProfitCurrentFR, 0.284, 1e-9)
	checkVal(t, "net_usdt", res.NetProfitUSDT, 28.40, 1e-9)
	checkVal(t, "roc", res.ReturnOnCapital, 3.4553333333, 1e-6)
	checkVal(t, "funding_365", res.FundingUntilExpiration365, 0.9, 1e-9)
	checkVal(t, "net_365", res.NetProfit365DaysFR, 0.284, 1e-9)
	checkVal(t, "roc_365", res.ReturnOnCapital365Days, 3.4553333333, 1e-6)

	// The 0.5 spread sits above its 0.411 fair value, so no highlight even
	// though funding more than covers it.
	if res.Highlight {
		t.Fatalf("highlight=true, want false when spread exceeds fair value")
	}
}

func TestComputeProfitHighlight(t *testing.T) {
	res := ComputeProfit(ProfitInputs{
		SpreadPercent:       0.2,
		FairSpreadPercent:   0.41,
		DaysUntilExpiration: 30,
		ShortWindowRate:     ptrFloat(0.0001),
		CapitalUSDT:         10000,
	})
	if !res.Highlight {
		t.Fatalf("highlight=false, want true: spread below funding and fair, net positive")
	}
}

func TestComputeProfitHighlightBoundaries(t *testing.T) {
	// 2^-12 keeps every funding product exact, so the equalities below are
	// exact float comparisons rather than near-misses.
	const dyadicRate = 0.000244140625

	// spread == funding: 2^-12 * 3 * 10 * 100 = 0.732421875 exactly.
	res := ComputeProfit(ProfitInputs{
		SpreadPercent:       0.732421875,
		FairSpreadPercent:   2.0,
		DaysUntilExpiration: 10,
		ShortWindowRate:     ptrFloat(dyadicRate),
		CapitalUSDT:         10000,
	})
	checkVal(t, "funding", res.FundingUntilExpiration, 0.732421875, 0)
	if res.Highlight {
		t.Fatalf("highlight=true, want false when spread equals funding")
	}

	// spread == fair spread.
	res = ComputeProfit(ProfitInputs{
		SpreadPercent:       0.2,
		FairSpreadPercent:   0.2,
		DaysUntilExpiration: 30,
		ShortWindowRate:     ptrFloat(0.0001),
		CapitalUSDT:         10000,
	})
	if res.Highlight {
		t.Fatalf("highlight=true, want false when spread equals fair spread")
	}

	// net == 0: funding = 2^-12 * 900 = 0.2197265625 exactly, and the
	// spread is chosen so the subtraction chain cancels to exactly zero.
	funding := 0.2197265625
	res = ComputeProfit(ProfitInputs{
		SpreadPercent:       funding - RoundTripCommissionPercent,
		FairSpreadPercent:   1.0,
		DaysUntilExpiration: 3,
		ShortWindowRate:     ptrFloat(dyadicRate),
		CapitalUSDT:         10000,
	})
	checkVal(t, "net", res.NetProfitCurrentFR, 0, 0)
	if res.Highlight {
		t.Fatalf("highlight=true, want false at exactly zero net")
	}
}

func TestComputeProfitMissingWindows(t *testing.T) {
	// No short-window data: every current-FR field stays nil and the row
	// can never highlight, while the 365d projection still fills in.
	res := ComputeProfit(ProfitInputs{
		SpreadPercent:       0.2,
		FairSpreadPercent:   0.41,
		DaysUntilExpiration: 30,
		LongWindowRate:      ptrFloat(0.0002),
		CapitalUSDT:         10000,
	})
	checkNil(t, "funding", res.FundingUntilExpiration)
	checkNil(t, "net", res.NetProfitCurrentFR)
	checkNil(t, "net_usdt", res.NetProfitUSDT)
	checkNil(t, "roc", res.ReturnOnCapital)
	checkVal(t, "funding_365", res.FundingUntilExpiration365, 1.8, 1e-9)
	if res.Highlight {
		t.Fatalf("highlight=true, want false without a short-window average")
	}

	// Nothing at all: every projection field stays nil.
	res = ComputeProfit(ProfitInputs{
		SpreadPercent:       0.2,
		FairSpreadPercent:   0.41,
		DaysUntilExpiration: 30,
		CapitalUSDT:         10000,
	})
	checkNil(t, "funding", res.FundingUntilExpiration)
	checkNil(t, "funding_365", res.FundingUntilExpiration365)
	checkNil(t, "net_365", res.NetProfit365DaysFR)
	checkNil(t, "net_usdt_365", res.NetProfitUSDT365Days)
	checkNil(t, "roc_365", res.ReturnOnCapital365Days)
	if res.Highlight {
		t.Fatalf("highlight=true, want false with no funding data")
	}
}

func TestComputeProfitAtExpiry(t *testing.T) {
	res := ComputeProfit(ProfitInputs{
		SpreadPercent:       0.1,
		FairSpreadPercent:   0.0,
		DaysUntilExpiration: 0,
		ShortWindowRate:     ptrFloat(0.0001),
		LongWindowRate:      ptrFloat(0.0001),
		CapitalUSDT:         10000,
	})

	// Zero days collapse funding to zero but the fields stay present;
	// only the annualizations disappear.
	checkVal(t, "funding", res.FundingUntilExpiration, 0, 0)
	checkVal(t, "net", res.NetProfitCurrentFR, -0.216, 1e-9)
	checkNil(t, "roc", res.ReturnOnCapital)
	checkNil(t, "roc_365", res.ReturnOnCapital365Days)
}

func TestComputeProfitIdempotent(t *testing.T) {
	in := ProfitInputs{
		SpreadPercent:       0.31,
		FairSpreadPercent:   0.44,
		DaysUntilExpiration: 45,
		ShortWindowRate:     ptrFloat(0.00013),
		LongWindowRate:      ptrFloat(0.00009),
		CapitalUSDT:         25000,
	}
	a := ComputeProfit(in)
	b := ComputeProfit(in)

	pairs := []struct {
		name string
		x, y *float64
	}{
		{"funding", a.FundingUntilExpiration, b.FundingUntilExpiration},
		{"funding_365", a.FundingUntilExpiration365, b.FundingUntilExpiration365},
		{"net", a.NetProfitCurrentFR, b.NetProfitCurrentFR},
		{"net_365", a.NetProfit365DaysFR, b.NetProfit365DaysFR},
		{"net_usdt", a.NetProfitUSDT, b.NetProfitUSDT},
		{"net_usdt_365", a.NetProfitUSDT365Days, b.NetProfitUSDT365Days},
		{"roc", a.ReturnOnCapital, b.ReturnOnCapital},
		{"roc_365", a.ReturnOnCapital365Days, b.ReturnOnCapital365Days},
	}
	for _, p := range pairs {
		if (p.x == nil) != (p.y == nil) {
			t.Fatalf("%s: nilness differs between runs", p.name)
		}
		if p.x != nil && *p.x != *p.y {
			t.Fatalf("%s: %v != %v across identical runs", p.name, *p.x, *p.y)
		}
	}
	if a.Highlight != b.Highlight {
		t.Fatalf("highlight differs across identical runs")
	}
}

func TestNetProfitUSDTRounding(t *testing.T) {
	if got := netProfitUSDT(0.28456, 10000); *got != 28.46 {
		t.Fatalf("usdt=%v want=28.46", *got)
	}
	if got := netProfitUSDT(-0.5, 10000); *got != -50 {
		t.Fatalf("usdt=%v want=-50", *got)
	}
	if got := netProfitUSDT(0, 10000); *got != 0 {
		t.Fatalf("usdt=%v want=0", *got)
	}
}

func TestContractsPerSide(t *testing.T) {
	if got := ContractsPerSide(10000, 1, 3000); got.String() != "1.6667" {
		t.Fatalf("contracts=%s want=1.6667", got)
	}
	if got := ContractsPerSide(10000, 2, 3000); got.String() != "3.3333" {
		t.Fatalf("levered contracts=%s want=3.3333", got)
	}
	if got := ContractsPerSide(10000, 1, 0); !got.IsZero() {
		t.Fatalf("contracts with zero mark=%s want=0", got)
	}
	if got := ContractsPerSide(10000, 0, 3000); !got.IsZero() {
		t.Fatalf("contracts with zero leverage=%s want=0", got)
	}
}
