package analysis

import (
	"fmt"
	"math"
)

// Band classifies a metric value against its thresholds.
type Band string

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandRed    Band = "red"
)

// Metric names, used as keys into the Thresholds table.
const (
	MetricLoadBalance  = "loadBalanceScore"
	MetricBusiestPct   = "busiestWindowPct"
	MetricUtilization  = "utilization"
	MetricPeakAvgRatio = "peakAvgRatio"
)

// BandSpec holds the green/yellow cutoffs for one metric. For
// higher-is-better metrics a value at or above Green is green, at or above
// Yellow is yellow; for lower-is-better metrics the comparisons flip.
type BandSpec struct {
	Green          float64 `json:"green"`
	Yellow         float64 `json:"yellow"`
	HigherIsBetter bool    `json:"higherIsBetter"`
}

func (b BandSpec) Classify(v float64) Band {
	if b.HigherIsBetter {
		switch {
		case v >= b.Green:
			return BandGreen
		case v >= b.Yellow:
			return BandYellow
		default:
			return BandRed
		}
	}
	switch {
	case v <= b.Green:
		return BandGreen
	case v <= b.Yellow:
		return BandYellow
	default:
		return BandRed
	}
}

// Thresholds is the banding lookup table, keyed by metric name. It is
// configuration, not logic; callers may override individual entries.
type Thresholds map[string]BandSpec

// DefaultThresholds returns the stock banding table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MetricLoadBalance:  {Green: 75, Yellow: 50, HigherIsBetter: true},
		MetricBusiestPct:   {Green: 20, Yellow: 35, HigherIsBetter: false},
		MetricUtilization:  {Green: 60, Yellow: 40, HigherIsBetter: true},
		MetricPeakAvgRatio: {Green: 1.8, Yellow: 3.0, HigherIsBetter: false},
	}
}

// Metric is one banded KPI value.
type Metric struct {
	Value float64 `json:"value"`
	Band  Band    `json:"band"`
}

// BusiestWindow is the heaviest 3-hour window of a distribution.
type BusiestWindow struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
	Band  Band    `json:"band"`
}

// HealthMetrics are the four banded KPIs derived from a 24-hour
// distribution. They carry no identity and are recomputed on demand.
type HealthMetrics struct {
	LoadBalance  Metric        `json:"loadBalanceScore"`
	Busiest      BusiestWindow `json:"busiestWindow"`
	Utilization  Metric        `json:"utilization"`
	PeakAvgRatio Metric        `json:"peakAvgRatio"`
}

// WorstBand returns the most severe band across the four KPIs.
func (h HealthMetrics) WorstBand() Band {
	worst := BandGreen
	for _, b := range []Band{h.LoadBalance.Band, h.Busiest.Band, h.Utilization.Band, h.PeakAvgRatio.Band} {
		if rank(b) > rank(worst) {
			worst = b
		}
	}
	return worst
}

func rank(b Band) int {
	switch b {
	case BandRed:
		return 2
	case BandYellow:
		return 1
	default:
		return 0
	}
}

// ComputeHealth derives the KPIs from a distribution. An all-zero
// distribution yields the documented no-load defaults (score 100, zero
// utilization and ratio, "N/A" window), all green.
func ComputeHealth(dist HourlyDistribution, th Thresholds) HealthMetrics {
	total := dist.Total()
	if total == 0 {
		return HealthMetrics{
			LoadBalance:  Metric{Value: 100, Band: BandGreen},
			Busiest:      BusiestWindow{Label: "N/A", Band: BandGreen},
			Utilization:  Metric{Value: 0, Band: BandGreen},
			PeakAvgRatio: Metric{Value: 0, Band: BandGreen},
		}
	}

	mean := float64(total) / 24

	variance := 0.0
	peak := 0
	busy := 0
	for _, c := range dist {
		d := float64(c) - mean
		variance += d * d
		if c > peak {
			peak = c
		}
		if c > 0 {
			busy++
		}
	}
	variance /= 24
	cv := math.Sqrt(variance) / mean

	score := math.Round(100 / (1 + cv))
	if score < 0 {
		score = 0
	}

	bestStart, bestSum := 0, -1
	for s := 0; s < 24; s++ {
		sum := dist[s] + dist[(s+1)%24] + dist[(s+2)%24]
		if sum > bestSum {
			bestStart, bestSum = s, sum
		}
	}
	pct := float64(bestSum) / float64(total) * 100

	utilization := math.Round(100 * float64(busy) / 24)
	ratio := math.Round(float64(peak)/mean*10) / 10

	return HealthMetrics{
		LoadBalance: Metric{Value: score, Band: th[MetricLoadBalance].Classify(score)},
		Busiest: BusiestWindow{
			Label: windowLabel(bestStart),
			Count: bestSum,
			Pct:   pct,
			Band:  th[MetricBusiestPct].Classify(pct),
		},
		Utilization:  Metric{Value: utilization, Band: th[MetricUtilization].Classify(utilization)},
		PeakAvgRatio: Metric{Value: ratio, Band: th[MetricPeakAvgRatio].Classify(ratio)},
	}
}

// windowLabel names the 3-hour window starting at hour s, wrapping past
// midnight ("22:00-01:00").
func windowLabel(s int) string {
	return fmt.Sprintf("%02d:00-%02d:00", s, (s+3)%24)
}
