// Package pricing derives one representative price from a set of observations.
package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// DefaultVarianceThreshold is the spread, in percent, above which a warning is attached.
const DefaultVarianceThreshold = 25.0

// Price kinds used in warnings.
const (
	KindMaterial = "material"
	KindWork     = "work"
)

// Aggregation methods.
const (
	MethodNoPrices      = "no_prices"
	MethodSinglePrice   = "single_price"
	MethodAverage2      = "average_2"
	MethodAverage3      = "average_3"
	methodTrimmedAvgFmt = "trimmed_average_%d"
)

// Aggregate computes the representative price of strictly positive observations.
// Callers filter non-positive prices first; see ValidatePrices.
func Aggregate(prices []float64, kind string, thresholdPercent float64) entity.PriceAggregationResult {
	original := append([]float64{}, prices...)
	s := append([]float64{}, prices...)
	sort.Float64s(s)

	n := len(s)
	switch n {
	case 0:
		return entity.PriceAggregationResult{
			Method:         MethodNoPrices,
			OriginalPrices: original,
			UsedPrices:     []float64{},
		}
	case 1:
		return entity.PriceAggregationResult{
			FinalPrice:     round(s[0], 2),
			OriginalPrices: original,
			UsedPrices:     s,
			Method:         MethodSinglePrice,
		}
	}

	res := entity.PriceAggregationResult{OriginalPrices: original}
	var variance float64
	switch {
	case n == 2:
		res.Method = MethodAverage2
		res.UsedPrices = s
		variance = spreadPercent(s[0], s[1])
	case n == 3:
		res.Method = MethodAverage3
		res.UsedPrices = s
		variance = spreadPercent(s[0], s[2])
	default:
		trimmed := append([]float64{}, s[1:n-1]...)
		res.Method = fmt.Sprintf(methodTrimmedAvgFmt, n)
		res.UsedPrices = trimmed
		res.ExcludedPrices = []float64{s[0], s[n-1]}
		variance = spreadPercent(trimmed[0], trimmed[len(trimmed)-1])
	}

	res.FinalPrice = mean2(res.UsedPrices)
	res.VariancePercent = round(variance, 1)
	if variance > thresholdPercent {
		w := WarningText(kind)
		res.Warning = &w
	}
	return res
}

// WarningText is the warning attached when observations disagree beyond the threshold.
func WarningText(kind string) string {
	return fmt.Sprintf("Recheck the %s price!", kind)
}

// ValidatePrices rejects non-positive or non-finite observations before aggregation.
func ValidatePrices(prices []float64) error {
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return fmt.Errorf("%w: price #%d is %v, must be > 0", common.ErrInvalidInput, i+1, p)
		}
	}
	return nil
}

// PositivePrices keeps the observations that are strictly positive, in order.
func PositivePrices(prices []float64) []float64 {
	out := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p > 0 && !math.IsInf(p, 0) {
			out = append(out, p)
		}
	}
	return out
}

// spreadPercent is (hi-lo)/lo*100; lo must be positive.
func spreadPercent(lo, hi float64) float64 {
	return (hi - lo) / lo * 100
}

func mean2(values []float64) float64 {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2).InexactFloat64()
}

// round rounds half away from zero.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
