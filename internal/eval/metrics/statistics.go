package metrics

import (
	"errors"
	"math"
)

// z is the two-sided 95% normal quantile used by every interval here.
const z = 1.96

// ErrEmptyInput is returned by statistics that are undefined on no data.
var ErrEmptyInput = errors.New("statistics require at least one value")

// Interval is a closed [Low, High] range.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Width returns High - Low.
func (i Interval) Width() float64 {
	return i.High - i.Low
}

// Summary describes a column of scores.
type Summary struct {
	Mean     float64  `json:"mean"`
	StdDev   float64  `json:"std_dev"`
	Interval Interval `json:"interval"`
}

// CountCorrectIncorrect counts true and false indicators.
func CountCorrectIncorrect(indicators []bool) (correct, incorrect int) {
	for _, ok := range indicators {
		if ok {
			correct++
		} else {
			incorrect++
		}
	}
	return correct, incorrect
}

// ComputeStatistics returns the population mean, population standard
// deviation and the band mean ± 1.96·std.
//
// The band is not a confidence interval for the mean (there is no division
// by sqrt(n)). Existing charts are built on this exact formula.
func ComputeStatistics(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmptyInput
	}

	mean := calculateAverage(values)

	var squares float64
	for _, v := range values {
		d := v - mean
		squares += d * d
	}
	std := math.Sqrt(squares / float64(len(values)))

	return Summary{
		Mean:   mean,
		StdDev: std,
		Interval: Interval{
			Low:  mean - z*std,
			High: mean + z*std,
		},
	}, nil
}

// WaldInterval returns p ± 1.96·sqrt(p(1-p)/n) for the proportion of true
// indicators. When every indicator agrees (p is 0 or 1) the interval has
// zero width.
func WaldInterval(indicators []bool) (Interval, error) {
	n := len(indicators)
	if n == 0 {
		return Interval{}, ErrEmptyInput
	}

	correct, _ := CountCorrectIncorrect(indicators)
	p := float64(correct) / float64(n)
	margin := z * math.Sqrt(p*(1-p)/float64(n))

	return Interval{Low: p - margin, High: p + margin}, nil
}

// AverageCorrectPosition weighs each rank code k in 1..n by (n+1-k), which
// turns the stored rank back into the 1-indexed candidate position. Code 0
// (no match) weighs 0 but still counts in the denominator. Codes outside
// 0..n are left out of the average. count is always len(positions).
func AverageCorrectPosition(positions []int, n int) (avg float64, count int, err error) {
	count = len(positions)

	var weighted, denominator int
	for _, k := range positions {
		if k < 0 || k > n {
			continue
		}
		denominator++
		if k > 0 {
			weighted += n + 1 - k
		}
	}

	if denominator == 0 {
		return 0, count, ErrEmptyInput
	}
	return float64(weighted) / float64(denominator), count, nil
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}

	return sum / float64(len(scores))
}
