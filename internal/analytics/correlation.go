package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/vcscsvcscs/medadherence/pkg/model"
)

// PairedSeries holds day-aligned samples: X is 1 when the medication was taken that
// day and 0 otherwise, Y is the metric value recorded that day
type PairedSeries struct {
	Dates []string
	X     []float64
	Y     []float64
}

// Len returns the number of paired data points
func (p PairedSeries) Len() int {
	return len(p.X)
}

// PairTakenWithMetric aligns a medication's daily taken indicator with a metric's
// daily values over window. Days without a metric sample are dropped; days with no
// due dose count as not taken.
func PairTakenWithMetric(doses []ProjectedDose, samples []model.MetricSample, window model.DateRange, loc *time.Location) PairedSeries {
	loc = orUTC(loc)

	takenDays := make(map[string]bool)
	for _, dose := range doses {
		if dose.Status == model.DoseStatusTaken && window.Contains(dose.ScheduledTime) {
			takenDays[DayKey(dose.ScheduledTime, loc)] = true
		}
	}

	values := make(map[string]float64, len(samples))
	for _, sample := range samples {
		values[CalendarDate(sample.Date, loc).Format(dayLayout)] = sample.Value
	}

	var series PairedSeries
	y, m, d := window.Start.In(loc).Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if !day.Before(window.End) {
			break
		}
		key := day.Format(dayLayout)
		value, ok := values[key]
		if !ok {
			continue
		}
		taken := 0.0
		if takenDays[key] {
			taken = 1
		}
		series.Dates = append(series.Dates, key)
		series.X = append(series.X, taken)
		series.Y = append(series.Y, value)
	}
	return series
}

// varianceTolerance is the share of Σv² below which a centred variance counts as zero
const varianceTolerance = 1e-12

// PearsonCorrelation computes r = Σ(x−x̄)(y−ȳ) / sqrt[Σ(x−x̄)² Σ(y−ȳ)²].
// Mismatched lengths, fewer than two points, or a series without variance yield 0.
func PearsonCorrelation(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}
	if isConstant(x) || isConstant(y) {
		return 0
	}

	fn := float64(n)
	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= fn
	meanY /= fn

	var cov, varX, varY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	if varX <= varianceTolerance*sumX2 || varY <= varianceTolerance*sumY2 {
		return 0
	}

	r := cov / math.Sqrt(varX*varY)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// DetermineDirection classifies the sign of r
func DetermineDirection(r float64, th Thresholds) model.ImpactDirection {
	switch {
	case r > th.DirectionEpsilon:
		return model.ImpactPositive
	case r < -th.DirectionEpsilon:
		return model.ImpactNegative
	default:
		return model.ImpactNone
	}
}

// DetermineConfidence classifies a result; both sample size and strength must clear a
// tier's bar
func DetermineConfidence(n int, r float64, th Thresholds) model.ConfidenceLevel {
	absR := math.Abs(r)
	if n >= th.HighConfidencePoints && absR >= th.HighConfidenceStrength {
		return model.ConfidenceHigh
	}
	if n >= th.MediumConfidencePoints && absR >= th.MediumConfidenceStrength {
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}

// strengthLabel describes |r| using the confidence strength cutoffs
func strengthLabel(r float64, th Thresholds) string {
	switch absR := math.Abs(r); {
	case absR >= th.HighConfidenceStrength:
		return "strong"
	case absR >= th.MediumConfidenceStrength:
		return "moderate"
	case absR >= th.WeakStrength:
		return "weak"
	default:
		return "negligible"
	}
}

// BuildObservations describes a correlation result in a few short sentences.
// It always returns at least one observation.
func BuildObservations(series PairedSeries, metric model.MetricType, r float64, confidence model.ConfidenceLevel, th Thresholds) []string {
	n := series.Len()
	metricName := humanMetric(metric)

	takenDays := 0
	var takenSum, otherSum float64
	for i := range series.X {
		if series.X[i] == 1 {
			takenDays++
			takenSum += series.Y[i]
		} else {
			otherSum += series.Y[i]
		}
	}

	observations := []string{
		fmt.Sprintf("Medication was taken on %d of %d days with a %s reading (%d%%).",
			takenDays, n, metricName, Percentage(takenDays, n)),
	}

	switch DetermineDirection(r, th) {
	case model.ImpactPositive:
		observations = append(observations, fmt.Sprintf(
			"%s tends to be higher on days the medication is taken (%s positive correlation, r=%.2f).",
			capitalize(metricName), strengthLabel(r, th), r))
	case model.ImpactNegative:
		observations = append(observations, fmt.Sprintf(
			"%s tends to be lower on days the medication is taken (%s negative correlation, r=%.2f).",
			capitalize(metricName), strengthLabel(r, th), r))
	default:
		observations = append(observations, fmt.Sprintf(
			"No linear relationship between taking the medication and %s was found.", metricName))
	}

	if takenDays > 0 && takenDays < n {
		observations = append(observations, fmt.Sprintf(
			"Average %s was %.1f on taken days versus %.1f on other days.",
			metricName, takenSum/float64(takenDays), otherSum/float64(n-takenDays)))
	}

	if confidence != model.ConfidenceHigh && n < th.HighConfidencePoints {
		observations = append(observations, fmt.Sprintf(
			"Confidence is %s and limited by sample size (%d days); keep logging to strengthen the result.",
			confidence, n))
	}

	return observations
}

func humanMetric(metric model.MetricType) string {
	switch metric {
	case model.MetricWeight:
		return "weight"
	case model.MetricHeartRate:
		return "heart rate"
	case model.MetricBloodPressureSystolic:
		return "systolic blood pressure"
	case model.MetricBloodPressureDiastolic:
		return "diastolic blood pressure"
	case model.MetricSteps:
		return "step count"
	case model.MetricSleepHours:
		return "sleep duration"
	}
	return string(metric)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
