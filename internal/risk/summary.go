package risk

import (
	"math"

	"mindquest/internal/models"
)

const (
	// summaryMinValue is the condition value above which an indicator is reported
	summaryMinValue = 30
	// displayScale and displayCap compress condition values for presentation
	displayScale = 0.8125
	displayCap   = 65
)

// IndicatorKind tells where a summary item came from
type IndicatorKind string

const (
	IndicatorDetected    IndicatorKind = "ai-detected"
	IndicatorPerformance IndicatorKind = "performance"
	IndicatorScreening   IndicatorKind = "screening"
)

// Indicator is one line of the parent/teacher risk summary
type Indicator struct {
	Area         string        `json:"area"`
	Condition    string        `json:"condition"`
	Kind         IndicatorKind `json:"kind"`
	DisplayScore *float64      `json:"displayScore,omitempty"`
	Confidence   string        `json:"confidence,omitempty"`
}

var detectedIndicators = []struct {
	condition models.Condition
	area      string
	label     string
}{
	{models.ConditionDyslexia, "Reading & Language Processing", "Dyslexia Indicators (Performance + Emotion)"},
	{models.ConditionDyscalculia, "Numerical Processing", "Dyscalculia Indicators (Performance + Emotion)"},
	{models.ConditionDysgraphia, "Writing & Motor Skills", "Dysgraphia Indicators"},
	{models.ConditionADHD, "Attention & Focus", "ADHD Indicators (Rapid Emotion Shifts)"},
}

var performanceIndicators = []struct {
	game  models.GameID
	area  string
	label string
}{
	{models.GameNumberNinja, "Numerical Proficiency", "Dyscalculia Indicators (High Error Rate)"},
	{models.GameMatrixReasoning, "Abstract Reasoning", "Non-Verbal Learning Difficulty"},
	{models.GameSpatialRecall, "Visual Memory", "Visual-Motor Deficit"},
}

// DisplayScore compresses a condition value to the confidence ceiling shown on dashboards
func DisplayScore(value float64) float64 {
	return math.Min(value*displayScale, displayCap)
}

// Summarize lists the indicators a dashboard should show for the given state.
// ADHD is not reported while either attention game shows a high score.
func Summarize(state models.ConditionRiskState, stats models.GameStats, baseline *models.QuestionnaireScores) []Indicator {
	indicators := []Indicator{}

	for _, d := range detectedIndicators {
		value := state.Get(d.condition)
		if value <= summaryMinValue {
			continue
		}
		if d.condition == models.ConditionADHD && hasHighAttention(stats) {
			continue
		}
		score := DisplayScore(value)
		indicators = append(indicators, Indicator{
			Area:         d.area,
			Condition:    d.label,
			Kind:         IndicatorDetected,
			DisplayScore: &score,
			Confidence:   "Moderate",
		})
	}

	for _, p := range performanceIndicators {
		stat, ok := stats[p.game]
		if !ok || !stat.Played {
			continue
		}
		if stat.Grade == models.GradeC || stat.Grade == models.GradeF {
			indicators = append(indicators, Indicator{Area: p.area, Condition: p.label, Kind: IndicatorPerformance})
		}
	}

	if baseline != nil {
		if baseline.DyslexiaScore >= 1 {
			indicators = append(indicators, Indicator{Area: "Reading & Language", Condition: "Reported Dyslexia Symptoms", Kind: IndicatorScreening})
		}
		if baseline.DyscalculiaScore >= 1 {
			indicators = append(indicators, Indicator{Area: "Mathematical Concepts", Condition: "Reported Dyscalculia Symptoms", Kind: IndicatorScreening})
		}
		if baseline.ADHDScore >= 1 {
			indicators = append(indicators, Indicator{Area: "Attention & Focus", Condition: "Reported ADHD Symptoms", Kind: IndicatorScreening})
		}
	}

	return indicators
}
