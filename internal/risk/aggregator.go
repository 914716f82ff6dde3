package risk

import (
	"fmt"
	"math"
	"time"

	"mindquest/internal/logger"
	"mindquest/internal/models"
)

const (
	// ConditionCap bounds every condition value on the incremental path
	ConditionCap = 80
	// AttentionSuppressedCap bounds ADHD once high sustained attention has been shown
	AttentionSuppressedCap = 20
)

// OverallThresholds derive the overall level from the highest condition value
var OverallThresholds = models.RiskThresholds{Medium: 25, High: 50}

// attentionScoreThresholds are the scores above which a game proves sustained attention
var attentionScoreThresholds = map[models.GameID]int{
	models.GameFocusFlight:   300,
	models.GameVoidChallenge: 200,
}

type route struct {
	condition models.Condition
	weight    float64
}

// gameRoutes maps each game to the condition its session risk feeds
var gameRoutes = map[models.GameID][]route{
	models.GameLexicalLegends:    {{models.ConditionDyslexia, 1}},
	models.GameTreasureHunter:    {{models.ConditionDyslexia, 1}},
	models.GameNumberNinja:       {{models.ConditionDyscalculia, 1}},
	models.GameDefenderChallenge: {{models.ConditionDyscalculia, 1}},
	models.GameMatrixReasoning:   {{models.ConditionDyscalculia, 0.5}},
	models.GameSpatialRecall:     {{models.ConditionDysgraphia, 1}},
	models.GameMemoryQuest:       {{models.ConditionDysgraphia, 1}},
	models.GameFocusFlight:       {{models.ConditionADHD, 1}},
	models.GameVoidChallenge:     {{models.ConditionADHD, 1}},
	models.GameBridgeGame:        {{models.ConditionDyspraxia, 1}},
	models.GameWarpExplorer:      {{models.ConditionDyspraxia, 0.5}},
}

// taskConditions maps task types to the condition attempt risk feeds; attention
// tasks only contribute through the ADHD branch
var taskConditions = map[models.TaskType]models.Condition{
	models.TaskReading: models.ConditionDyslexia,
	models.TaskNumber:  models.ConditionDyscalculia,
	models.TaskWriting: models.ConditionDysgraphia,
}

// Aggregator owns the cumulative per-condition risk and the game stats of one session.
// Every mutation is a complete read-modify-write; it is not safe for concurrent use.
type Aggregator struct {
	state    models.ConditionRiskState
	stats    models.GameStats
	baseline *models.QuestionnaireScores
	log      *logger.Logger
	now      func() time.Time
}

// NewAggregator creates an aggregator with zero risk and no games played
func NewAggregator(log *logger.Logger) *Aggregator {
	a := &Aggregator{
		stats: models.NewGameStats(),
		log:   logger.OrNop(log),
		now:   time.Now,
	}
	a.recomputeOverall()
	return a
}

// ApplyBaseline seeds condition risk from questionnaire scores
func (a *Aggregator) ApplyBaseline(scores models.QuestionnaireScores) {
	for condition, inc := range BaselineIncrements(scores) {
		a.add(condition, inc, a.capFor(condition))
	}
	b := scores
	a.baseline = &b
	a.recomputeOverall()
	a.log.Debug("Applied questionnaire baseline", "scores", scores, "overall", a.state.Overall)
}

// ApplyAttemptRisk folds one answered item's risk into the state
func (a *Aggregator) ApplyAttemptRisk(gameID models.GameID, taskType models.TaskType, risk models.AttemptRisk) error {
	if !gameID.IsValid() {
		a.log.Warn("Ignoring attempt for unknown game", "game", gameID)
		return fmt.Errorf("%w: game %q", models.ErrUnknownEntity, gameID)
	}
	if !taskType.IsValid() {
		return fmt.Errorf("%w: unknown task type %q", models.ErrInvalidInput, taskType)
	}
	if risk.TotalRisk < 0 || risk.ADHDRisk < 0 {
		return fmt.Errorf("%w: attempt risk cannot be negative", models.ErrInvalidInput)
	}

	a.add(models.ConditionADHD, float64(risk.ADHDRisk), a.capFor(models.ConditionADHD))

	if condition, ok := taskConditions[taskType]; ok {
		a.add(condition, float64(risk.TotalRisk), a.capFor(condition))
	}

	a.recomputeOverall()
	return nil
}

// ApplySessionResult records a completed game and routes its session risk to conditions.
// The emotion snapshot, when present, is kept with the history entry.
func (a *Aggregator) ApplySessionResult(result models.GameResult, sessionRisk int, emotion *models.EmotionMetrics) error {
	if err := ValidateResult(result); err != nil {
		a.log.Warn("Ignoring game result", "game", result.GameID, "error", err)
		return err
	}
	if sessionRisk < 0 || sessionRisk > 100 {
		return fmt.Errorf("%w: session risk %d outside 0-100", models.ErrInvalidInput, sessionRisk)
	}

	stat := a.stats[result.GameID]
	stat.Played = true
	stat.Score = result.Score
	stat.Grade = result.Grade
	stat.Correct = derefOrZero(result.Correct)
	stat.Incorrect = derefOrZero(result.Incorrect)
	stat.RiskScore = sessionRisk
	stat.RiskLevel = SessionRiskLevel(sessionRisk)
	stat.History = append(stat.History, models.GameHistoryEntry{
		PlayedAt:  a.now(),
		Result:    result.Clone(),
		RiskScore: sessionRisk,
		Emotion:   emotion.Clone(),
	})

	for _, r := range gameRoutes[result.GameID] {
		a.add(r.condition, float64(sessionRisk)*r.weight, a.capFor(r.condition))
	}

	if threshold, ok := attentionScoreThresholds[result.GameID]; ok && result.Score > threshold {
		a.state.ADHD = math.Min(a.state.ADHD, AttentionSuppressedCap)
	}

	a.recomputeOverall()
	a.log.Debug("Applied game result", "game", result.GameID, "sessionRisk", sessionRisk, "overall", a.state.Overall)
	return nil
}

// HasHighAttention reports whether either attention game shows a high score
func (a *Aggregator) HasHighAttention() bool {
	return hasHighAttention(a.stats)
}

// State returns the current risk values, re-clamped, with overall derived from them
func (a *Aggregator) State() models.ConditionRiskState {
	s := a.state
	s.Clamp(ConditionCap)
	s.Overall = OverallThresholds.LevelFor(s.MaxValue())
	return s
}

// Stats returns a deep copy of the game stats
func (a *Aggregator) Stats() models.GameStats {
	return a.stats.Clone()
}

// Baseline returns the questionnaire scores applied so far, if any
func (a *Aggregator) Baseline() *models.QuestionnaireScores {
	if a.baseline == nil {
		return nil
	}
	b := *a.baseline
	return &b
}

// Restore replaces the aggregator contents with previously persisted values.
// Games missing from stats start unplayed; unknown games are dropped.
func (a *Aggregator) Restore(state models.ConditionRiskState, stats models.GameStats, baseline *models.QuestionnaireScores) {
	a.stats = models.NewGameStats()
	for id, stat := range stats.Clone() {
		if id.IsValid() && stat != nil {
			a.stats[id] = stat
		}
	}
	a.state = state
	a.baseline = nil
	if baseline != nil {
		b := *baseline
		a.baseline = &b
	}
	if a.HasHighAttention() {
		a.state.ADHD = math.Min(a.state.ADHD, AttentionSuppressedCap)
	}
	a.recomputeOverall()
}

// Recompute projects the current stats and baseline through the total-recompute formula
func (a *Aggregator) Recompute() models.ConditionRiskState {
	return Recompute(a.stats, a.baseline)
}

// capFor is the ceiling an update may raise the condition to
func (a *Aggregator) capFor(c models.Condition) float64 {
	if c == models.ConditionADHD && a.HasHighAttention() {
		return AttentionSuppressedCap
	}
	return ConditionCap
}

func (a *Aggregator) add(c models.Condition, delta, limit float64) {
	a.state.Set(c, math.Min(a.state.Get(c)+delta, limit))
}

func (a *Aggregator) recomputeOverall() {
	a.state.Clamp(ConditionCap)
	a.state.Overall = OverallThresholds.LevelFor(a.state.MaxValue())
}

func hasHighAttention(stats models.GameStats) bool {
	for id, threshold := range attentionScoreThresholds {
		if stats.ScoreOf(id) > threshold {
			return true
		}
	}
	return false
}

func derefOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
