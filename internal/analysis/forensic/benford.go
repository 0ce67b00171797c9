package forensic

import (
	"fmt"
	"math"

	"github.com/seenimoa/fraudscope/pkg/models"
)

// Benford first-digit probabilities for digits 1 through 9.
var firstDigitExpected = [9]float64{
	0.301, 0.176, 0.125, 0.097, 0.079, 0.067, 0.058, 0.051, 0.046,
}

// Benford second-digit probabilities for digits 0 through 9.
var secondDigitExpected = [10]float64{
	0.1197, 0.1139, 0.1088, 0.1043, 0.1003,
	0.0967, 0.0934, 0.0904, 0.0876, 0.0850,
}

// MAD conformity bands (Nigrini) for the first-digit test.
const (
	madClose      = 0.006
	madAcceptable = 0.012
	madMarginal   = 0.015

	secondDigitSuspicious = 0.012

	// zCritical is the two-tailed z value for alpha = 0.01.
	zCritical = 2.576
)

// FirstDigitExpected returns a copy of the first-digit distribution.
func FirstDigitExpected() []float64 {
	return append([]float64(nil), firstDigitExpected[:]...)
}

// FirstDigit tests the leading digits of values against Benford's law.
// Only finite values with |v| >= 1 enter the sample.
func FirstDigit(values []float64) models.DigitResult {
	var counts [9]int
	n := 0
	for _, v := range values {
		if d := leadingDigit(v); d > 0 {
			counts[d-1]++
			n++
		}
	}

	r := models.DigitResult{
		Test:     models.DigitFirst,
		Sample:   n,
		Expected: FirstDigitExpected(),
		Actual:   make([]float64, 9),
	}
	if n == 0 {
		r.Conformity = "Insufficient Data"
		return r
	}

	total := float64(n)
	var absDev float64
	for i, c := range counts {
		p := firstDigitExpected[i]
		pHat := float64(c) / total
		r.Actual[i] = pHat

		expCount := p * total
		if expCount > 0 {
			diff := float64(c) - expCount
			r.ChiSquare += diff * diff / expCount
		}
		absDev += math.Abs(pHat - p)

		if se := math.Sqrt(p * (1 - p) / total); se > 0 && math.Abs(pHat-p)/se > zCritical {
			r.SuspiciousDigits = append(r.SuspiciousDigits, i+1)
			r.Anomalies = append(r.Anomalies, fmt.Sprintf("Digit %d significantly deviates from expected", i+1))
		}
	}

	r.MAD = absDev / 9
	r.DeviationPercent = r.MAD * 100
	r.Conformity = conformity(r.MAD)
	r.Suspicious = r.MAD > madMarginal
	r.RiskScore = clamp(r.MAD/0.02, 0, 1)
	return r
}

// SecondDigit tests the second digits of values with |v| >= 10. It is
// reported on its own and never feeds the composite score.
func SecondDigit(values []float64) models.DigitResult {
	var counts [10]int
	n := 0
	for _, v := range values {
		if d := secondDigit(v); d >= 0 {
			counts[d]++
			n++
		}
	}

	r := models.DigitResult{
		Test:     models.DigitSecond,
		Sample:   n,
		Expected: append([]float64(nil), secondDigitExpected[:]...),
		Actual:   make([]float64, 10),
	}
	if n == 0 {
		r.Conformity = "Insufficient Data"
		return r
	}

	var absDev float64
	for i, c := range counts {
		r.Actual[i] = float64(c) / float64(n)
		absDev += math.Abs(r.Actual[i] - secondDigitExpected[i])
	}
	r.MAD = absDev / 10
	r.DeviationPercent = r.MAD * 100
	r.Suspicious = r.MAD > secondDigitSuspicious
	if r.Suspicious {
		r.Conformity = "Nonconformity"
	} else {
		r.Conformity = "Conformity"
	}
	r.RiskScore = clamp(r.MAD/0.02, 0, 1)
	return r
}

func conformity(mad float64) string {
	switch {
	case mad <= madClose:
		return "Close Conformity"
	case mad <= madAcceptable:
		return "Acceptable Conformity"
	case mad <= madMarginal:
		return "Marginally Acceptable"
	default:
		return "Nonconformity"
	}
}

// leadingDigit returns 1-9, or 0 when v is excluded from the sample.
func leadingDigit(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Abs(v)
	if v < 1 {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	d := int(v)
	if d < 1 || d > 9 {
		return 0
	}
	return d
}

// secondDigit returns 0-9, or -1 when v is excluded from the sample.
func secondDigit(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return -1
	}
	v = math.Abs(v)
	if v < 10 {
		return -1
	}
	for v >= 100 {
		v /= 10
	}
	return int(v) % 10
}
