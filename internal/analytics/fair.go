package analytics

// DaysPerYear is the annualization basis shared by carry and ROC math.
const DaysPerYear = 365.0

// SpreadPercent is the realized market spread of a dated contract over the
// perpetual: (future - perp) / perp * 100. Every consumer shares this sign
// convention.
func SpreadPercent(futurePrice, perpPrice float64) float64 {
	if perpPrice == 0 {
		return 0
	}
	return (futurePrice - perpPrice) / perpPrice * 100
}

// FairPrice is the simple cost-of-carry forward of the perpetual mark:
// P * (1 + r * d/365), no compounding. At d=0 it collapses to P.
func FairPrice(perpPrice, annualRate, days float64) float64 {
	return perpPrice * (1 + annualRate*days/DaysPerYear)
}

// FairSpreadPercent is the premium the fair price carries over the
// perpetual, the reference point against which the realized spread is
// judged cheap or expensive.
func FairSpreadPercent(perpPrice, annualRate, days float64) float64 {
	if perpPrice == 0 {
		return 0
	}
	return (FairPrice(perpPrice, annualRate, days) - perpPrice) / perpPrice * 100
}
