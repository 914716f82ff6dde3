package risk

import (
	"fmt"

	"mindquest/internal/models"
)

// SessionRiskThresholds label a single play-through's risk
var SessionRiskThresholds = models.RiskThresholds{Medium: 20, High: 50}

// gradeRisk is the base session risk for each letter grade; D and absent grades contribute nothing
var gradeRisk = map[models.Grade]int{
	models.GradeF: 85,
	models.GradeC: 55,
	models.GradeB: 30,
	models.GradeA: 10,
	models.GradeS: 0,
}

// ScoreSession computes the 0-100 risk of one completed game.
// The result depends only on its input.
func ScoreSession(result models.GameResult) int {
	risk := gradeRisk[result.Grade]

	if result.Correct != nil && result.Incorrect != nil {
		total := *result.Correct + *result.Incorrect
		if total > 0 {
			accuracy := float64(*result.Correct) / float64(total)
			if accuracy < 0.4 {
				risk += 15
			} else if accuracy < 0.6 {
				risk += 10
			}
		}
	}

	if result.GameID.IsAttentionGame() {
		// attention games score much higher on a normal run
		if result.Score < 150 {
			risk += 10
		}
	} else if result.Score < 50 {
		risk += 10
	}

	return min(max(risk, 0), 100)
}

// SessionRiskLevel labels a session risk value
func SessionRiskLevel(sessionRisk int) models.RiskLevel {
	return SessionRiskThresholds.LevelFor(float64(sessionRisk))
}

// ValidateResult checks a game result before it is scored or stored
func ValidateResult(result models.GameResult) error {
	if !result.GameID.IsValid() {
		return fmt.Errorf("%w: game %q", models.ErrUnknownEntity, result.GameID)
	}
	if result.Score < 0 {
		return fmt.Errorf("%w: score cannot be negative", models.ErrInvalidInput)
	}
	if !result.Grade.IsValid() {
		return fmt.Errorf("%w: unknown grade %q", models.ErrInvalidInput, result.Grade)
	}
	if result.Correct != nil && *result.Correct < 0 {
		return fmt.Errorf("%w: correct count cannot be negative", models.ErrInvalidInput)
	}
	if result.Incorrect != nil && *result.Incorrect < 0 {
		return fmt.Errorf("%w: incorrect count cannot be negative", models.ErrInvalidInput)
	}
	return nil
}
