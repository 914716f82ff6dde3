package risk

import (
	"math"

	"mindquest/internal/models"
)

const (
	// RecomputeCap bounds condition values on the total-recompute path
	RecomputeCap = 95
	// questionnairePointWeight converts one "yes" answer into a risk contribution
	questionnairePointWeight = 25
)

// RecomputeThresholds derive the overall level on the total-recompute path
var RecomputeThresholds = models.RiskThresholds{Medium: 20, High: 45}

// Recompute derives condition risk from scratch: each condition is the average of
// its questionnaire contribution and the weighted stored risk of every played game
// routed to it. The result depends only on stats and baseline, not on update order.
func Recompute(stats models.GameStats, baseline *models.QuestionnaireScores) models.ConditionRiskState {
	contributions := make(map[models.Condition][]float64, len(models.AllConditions))

	if baseline != nil {
		for condition, score := range map[models.Condition]int{
			models.ConditionDyslexia:    baseline.DyslexiaScore,
			models.ConditionDyscalculia: baseline.DyscalculiaScore,
			models.ConditionADHD:        baseline.ADHDScore,
		} {
			if score > 0 {
				contributions[condition] = append(contributions[condition], float64(score*questionnairePointWeight))
			}
		}
	}

	for _, id := range models.AllGames {
		stat, ok := stats[id]
		if !ok || !stat.Played {
			continue
		}
		for _, r := range gameRoutes[id] {
			contributions[r.condition] = append(contributions[r.condition], float64(stat.RiskScore)*r.weight)
		}
	}

	var state models.ConditionRiskState
	for _, c := range models.AllConditions {
		state.Set(c, math.Min(average(contributions[c]), RecomputeCap))
	}
	state.Clamp(RecomputeCap)
	state.Overall = RecomputeThresholds.LevelFor(state.MaxValue())
	return state
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
