// Package trend labels the latest month of a search-volume series as
// peak, off-peak or normal season.
package trend

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Season labels.
const (
	Peak    = "성수기"
	OffPeak = "비수기"
	Normal  = "보통"
)

const (
	PeakFactor    = 1.3
	OffPeakFactor = 0.7
)

// Season is the classification of a monthly ratio series.
type Season struct {
	Label        string    `json:"season"`
	Icon         string    `json:"season_icon"`
	Description  string    `json:"season_desc"`
	CurrentRatio float64   `json:"current_ratio"`
	AvgRatio     float64   `json:"avg_ratio"`
	Ratios       []float64 `json:"monthly_data"`
}

// Classify compares the last ratio with the series mean. An empty series
// has current and mean 0.
func Classify(ratios []float64) Season {
	var current float64
	if len(ratios) > 0 {
		current = ratios[len(ratios)-1]
	}
	avg := Mean(ratios)

	label, icon, desc := Label(current, avg)
	if ratios == nil {
		ratios = []float64{}
	}
	return Season{
		Label:        label,
		Icon:         icon,
		Description:  desc,
		CurrentRatio: current,
		AvgRatio:     Round(avg, 1),
		Ratios:       ratios,
	}
}

// Label classifies current against avg. Peak wins at exactly 1.3x and
// off-peak at exactly 0.7x; off-peak needs a positive average.
func Label(current, avg float64) (label, icon, desc string) {
	switch {
	case current >= avg*PeakFactor:
		if avg == 0 {
			return Peak, "🟢", "상승"
		}
		return Peak, "🟢", fmt.Sprintf("평균 대비 +%s%%", percent(current/avg-1))
	case current <= avg*OffPeakFactor && avg > 0:
		return OffPeak, "🔴", fmt.Sprintf("평균 대비 -%s%%", percent(1-current/avg))
	default:
		return Normal, "🟡", "평균 수준"
	}
}

// Mean returns the arithmetic mean, 0 for an empty series.
func Mean(ratios []float64) float64 {
	if len(ratios) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratios {
		sum += r
	}
	return sum / float64(len(ratios))
}

// Round rounds half to even at the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return f
}

func percent(fraction float64) string {
	return decimal.NewFromFloat(fraction * 100).RoundBank(0).String()
}
