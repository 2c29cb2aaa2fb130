package analytics

import (
	"fmt"
	"math"
	"sync"

	"lab-orchestrator/core/models"
)

// HistoricalRecord pairs an estimated duration with how long the test
// actually took. Records feed the variability factor of TAT prediction.
type HistoricalRecord struct {
	EstimatedDuration float64 `json:"estimated_duration"`
	ActualDuration    float64 `json:"actual_duration"`
}

// TATPrediction is the turnaround-time estimate for one test request
type TATPrediction struct {
	PredictedTATHours  float64            `json:"predicted_tat_hours"`
	ConfidenceScore    float64            `json:"confidence_score"`
	PredictionInterval PredictionInterval `json:"prediction_interval"`
	Factors            TATFactors         `json:"factors"`
	Recommendations    []string           `json:"recommendations"`
}

// PredictionInterval bounds a prediction
type PredictionInterval struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// TATFactors exposes the multiplicative terms behind a prediction
type TATFactors struct {
	BaseDuration       float64 `json:"base_duration"`
	PriorityFactor     float64 `json:"priority_factor"`
	QueueFactor        float64 `json:"queue_factor"`
	AvailabilityFactor float64 `json:"availability_factor"`
	VariabilityFactor  float64 `json:"variability_factor"`
}

// Anomaly is one statistically outlying measurement
type Anomaly struct {
	Index       int     `json:"index"`
	Value       float64 `json:"value"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	ZScore      float64 `json:"z_score"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

// IVParameters are the electrical parameters extracted from an IV curve
type IVParameters struct {
	Voc  float64 `json:"Voc"`
	Isc  float64 `json:"Isc"`
	Vmp  float64 `json:"Vmp"`
	Imp  float64 `json:"Imp"`
	Pmax float64 `json:"Pmax"`
	FF   float64 `json:"FF"`
}

// IVAnalysis is the quality assessment of one IV curve
type IVAnalysis struct {
	Parameters      IVParameters `json:"parameters"`
	DataPoints      int          `json:"data_points"`
	IsMonotonic     bool         `json:"is_monotonic"`
	QualityScore    int          `json:"quality_score"`
	QualityIssues   []string     `json:"quality_issues"`
	Recommendations []string     `json:"recommendations"`
}

// IVPoint is one voltage-current pair on an IV curve
type IVPoint struct {
	Voltage float64 `json:"voltage"`
	Current float64 `json:"current"`
}

// Engine provides the lab's statistical predictions: turnaround-time
// estimates, measurement anomaly detection, and IV-curve quality analysis.
// The models are closed-form; no training loop runs inside the service.
type Engine struct {
	mu          sync.RWMutex
	predictions int
	analyses    int
}

// NewEngine creates a new analytics engine
func NewEngine() *Engine {
	return &Engine{}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// PredictTAT estimates turnaround time in hours for a test request.
// The estimate is the protocol's base duration scaled by priority, queue
// pressure, equipment availability, and the historical estimate error.
func (e *Engine) PredictTAT(durationMinutes int, priority models.Priority,
	queueLength int, equipmentAvailability float64, history []HistoricalRecord) TATPrediction {

	baseDurationHours := float64(durationMinutes) / 60

	priorityFactor := 1.5
	switch priority {
	case models.PriorityCritical:
		priorityFactor = 1.0
	case models.PriorityHigh:
		priorityFactor = 1.2
	case models.PriorityMedium:
		priorityFactor = 1.5
	case models.PriorityLow:
		priorityFactor = 2.0
	}

	queueFactor := 1 + float64(queueLength)*0.15

	availabilityFactor := 2.0
	if equipmentAvailability > 0 {
		availabilityFactor = 1 / equipmentAvailability
	}

	variabilityFactor := 1.0
	if len(history) > 5 {
		var deviations []float64
		for _, r := range history {
			if r.EstimatedDuration > 0 {
				deviations = append(deviations, math.Abs(r.ActualDuration-r.EstimatedDuration)/r.EstimatedDuration)
			}
		}
		if len(deviations) > 0 {
			sum := 0.0
			for _, d := range deviations {
				sum += d
			}
			variabilityFactor = 1 + sum/float64(len(deviations))
		}
	}

	predicted := baseDurationHours * priorityFactor * queueFactor * availabilityFactor * variabilityFactor

	confidence := 0.65
	if len(history) > 0 {
		confidence = math.Min(0.95, 0.6+float64(len(history))*0.01)
	}

	e.mu.Lock()
	e.predictions++
	e.mu.Unlock()

	return TATPrediction{
		PredictedTATHours: round1(predicted),
		ConfidenceScore:   round2(confidence),
		PredictionInterval: PredictionInterval{
			LowerBound: round1(predicted * 0.8),
			UpperBound: round1(predicted * 1.3),
		},
		Factors: TATFactors{
			BaseDuration:       baseDurationHours,
			PriorityFactor:     priorityFactor,
			QueueFactor:        queueFactor,
			AvailabilityFactor: availabilityFactor,
			VariabilityFactor:  variabilityFactor,
		},
		Recommendations: tatRecommendations(predicted, priority, queueLength),
	}
}

func tatRecommendations(predictedTAT float64, priority models.Priority, queueLength int) []string {
	recommendations := []string{}

	if predictedTAT > 48 {
		recommendations = append(recommendations, "TAT exceeds 48 hours - consider prioritizing this test")
	}
	if queueLength > 10 {
		recommendations = append(recommendations, "High queue length - consider adding parallel testing capacity")
	}
	if priority == models.PriorityLow && predictedTAT > 168 {
		recommendations = append(recommendations, "Low priority test may take over 1 week - inform stakeholders")
	}

	return recommendations
}

// DetectMeasurementAnomalies flags values whose z-score against the
// series' own mean exceeds 3. Series shorter than 3 values yield nothing.
func (e *Engine) DetectMeasurementAnomalies(values []float64, measurementType string) []Anomaly {
	if len(values) < 3 {
		return []Anomaly{}
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(values)))
	if stdDev == 0 {
		return []Anomaly{}
	}

	anomalies := []Anomaly{}
	for i, v := range values {
		zScore := math.Abs((v - mean) / stdDev)
		if zScore > 3 {
			severity := "Medium"
			if zScore > 4 {
				severity = "High"
			}
			anomalies = append(anomalies, Anomaly{
				Index:    i,
				Value:    v,
				Mean:     mean,
				StdDev:   stdDev,
				ZScore:   zScore,
				Severity: severity,
				Description: fmt.Sprintf("%s value %g deviates %.2f standard deviations from mean %.2f",
					measurementType, v, zScore, mean),
			})
		}
	}

	return anomalies
}

// ErrInsufficientData is returned when a curve carries too few points to
// analyze
var ErrInsufficientData = fmt.Errorf("insufficient data points")

// AnalyzeIVCurve extracts the electrical parameters of an IV curve and
// scores its quality. Curves with fewer than 5 points are rejected.
func (e *Engine) AnalyzeIVCurve(points []IVPoint) (IVAnalysis, error) {
	if len(points) < 5 {
		return IVAnalysis{}, ErrInsufficientData
	}

	isMonotonic := true
	for i := 0; i < len(points)-1; i++ {
		if points[i].Current < points[i+1].Current {
			isMonotonic = false
			break
		}
	}

	voc := points[0].Voltage
	isc := points[0].Current
	for _, p := range points {
		if p.Voltage > voc {
			voc = p.Voltage
		}
		if p.Current > isc {
			isc = p.Current
		}
	}

	var pmax, vmp, imp float64
	for _, p := range points {
		power := p.Voltage * p.Current
		if power > pmax {
			pmax = power
			vmp = p.Voltage
			imp = p.Current
		}
	}

	ff := 0.0
	if voc*isc > 0 {
		ff = pmax / (voc * isc)
	}

	qualityIssues := []string{}
	if !isMonotonic {
		qualityIssues = append(qualityIssues, "IV curve is not monotonic - possible measurement error")
	}
	if ff < 0.6 {
		qualityIssues = append(qualityIssues, fmt.Sprintf("Low fill factor (%.3f) - possible shading or series resistance issues", ff))
	}
	if len(points) < 20 {
		qualityIssues = append(qualityIssues, "Low data point count - may affect accuracy")
	}

	score := 100 - len(qualityIssues)*20
	if score < 0 {
		score = 0
	}

	e.mu.Lock()
	e.analyses++
	e.mu.Unlock()

	return IVAnalysis{
		Parameters: IVParameters{
			Voc:  voc,
			Isc:  isc,
			Vmp:  vmp,
			Imp:  imp,
			Pmax: pmax,
			FF:   ff,
		},
		DataPoints:      len(points),
		IsMonotonic:     isMonotonic,
		QualityScore:    score,
		QualityIssues:   qualityIssues,
		Recommendations: ivRecommendations(ff, isMonotonic, len(points)),
	}, nil
}

func ivRecommendations(fillFactor float64, isMonotonic bool, dataPoints int) []string {
	recommendations := []string{}

	if fillFactor < 0.65 {
		recommendations = append(recommendations, "Investigate for series resistance or shading issues")
	}
	if !isMonotonic {
		recommendations = append(recommendations, "Repeat measurement - ensure stable irradiance and temperature")
	}
	if dataPoints < 20 {
		recommendations = append(recommendations, "Increase IV curve resolution for better accuracy")
	}

	return recommendations
}

// Statistics summarizes engine usage
type Statistics struct {
	PredictionsServed int `json:"predictions_served"`
	CurvesAnalyzed    int `json:"curves_analyzed"`
}

// GetStatistics returns usage counters
func (e *Engine) GetStatistics() Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Statistics{PredictionsServed: e.predictions, CurvesAnalyzed: e.analyses}
}
