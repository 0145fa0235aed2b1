package analytics

import (
	"github.com/shopspring/decimal"
)

// Funding settles three times a day on 8-hour intervals.
const FundingIntervalsPerDay = 3

// Four taker legs at 0.0290% each: open and close on both sides of the
// pair. Fixed by the venue's fee schedule, not derived.
const RoundTripCommissionPercent = 0.1160

// ProfitInputs carries everything the per-future profit math needs. The
// windowed funding averages are nil when their window held no samples;
// nil is "no data", never zero.
type ProfitInputs struct {
	SpreadPercent       float64
	FairSpreadPercent   float64
	DaysUntilExpiration float64
	ShortWindowRate     *float64 // avg per-interval funding over the operator window
	LongWindowRate      *float64 // avg per-interval funding over the 365d window
	CapitalUSDT         float64
}

// ProfitResult mirrors ProfitInputs availability: any field depending on a
// missing average stays nil, and both ROC fields stay nil at zero days to
// expiration. No field is ever NaN or Inf.
type ProfitResult struct {
	FundingUntilExpiration    *float64
	FundingUntilExpiration365 *float64
	NetProfitCurrentFR        *float64
	NetProfit365DaysFR        *float64
	NetProfitUSDT             *float64
	NetProfitUSDT365Days      *float64
	ReturnOnCapital           *float64
	ReturnOnCapital365Days    *float64
	Highlight                 bool
}

// ComputeProfit is a pure function of its inputs; recomputing from the same
// frozen snapshot yields identical results.
func ComputeProfit(in ProfitInputs) ProfitResult {
	var out ProfitResult

	if in.ShortWindowRate != nil {
		funding := *in.ShortWindowRate * FundingIntervalsPerDay * in.DaysUntilExpiration * 100
		net := funding - in.SpreadPercent - RoundTripCommissionPercent
		out.FundingUntilExpiration = &funding
		out.NetProfitCurrentFR = &net
		out.NetProfitUSDT = netProfitUSDT(net, in.CapitalUSDT)
		if in.DaysUntilExpiration > 0 {
			roc := net * (DaysPerYear / in.DaysUntilExpiration)
			out.ReturnOnCapital = &roc
		}
	}

	if in.LongWindowRate != nil {
		funding := *in.LongWindowRate * FundingIntervalsPerDay * in.DaysUntilExpiration * 100
		net := funding - in.SpreadPercent - RoundTripCommissionPercent
		out.FundingUntilExpiration365 = &funding
		out.NetProfit365DaysFR = &net
		out.NetProfitUSDT365Days = netProfitUSDT(net, in.CapitalUSDT)
		if in.DaysUntilExpiration > 0 {
			roc := net * (DaysPerYear / in.DaysUntilExpiration)
			out.ReturnOnCapital365Days = &roc
		}
	}

	// All three legs must hold, strictly: a spread exactly equal to its
	// funding income or fair value earns nothing extra.
	if out.FundingUntilExpiration != nil && out.NetProfitCurrentFR != nil {
		out.Highlight = in.SpreadPercent < *out.FundingUntilExpiration &&
			in.SpreadPercent < in.FairSpreadPercent &&
			*out.NetProfitCurrentFR > 0
	}

	return out
}

// netProfitUSDT converts a net percentage into a capital-denominated USDT
// amount, rounded to cents.
func netProfitUSDT(netPercent, capitalUSDT float64) *float64 {
	amount := decimal.NewFromFloat(netPercent).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromFloat(capitalUSDT)).
		Round(2).
		InexactFloat64()
	return &amount
}

// ContractsPerSide sizes one leg of the pair trade: half the capital,
// levered, divided by the perpetual mark.
func ContractsPerSide(capitalUSDT, leverage, perpMark float64) decimal.Decimal {
	if perpMark <= 0 || leverage <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(capitalUSDT).
		Div(decimal.NewFromInt(2)).
		Mul(decimal.NewFromFloat(leverage)).
		Div(decimal.NewFromFloat(perpMark)).
		Round(4)
}
