package emotion

import (
	"fmt"
	"math"
	"time"

	"mindquest/internal/logger"
	"mindquest/internal/models"
)

const (
	// HistoryCapacity is the size of the rolling observation window
	HistoryCapacity = 20
	// RapidChangeWindow is the maximum gap between two differing observations counted as a rapid change
	RapidChangeWindow = 3000 * time.Millisecond

	// MaxAttemptRisk is 65% of the 80-point condition cap
	MaxAttemptRisk = 52
	// MaxAttemptADHDRisk is 80% of the 80-point condition cap
	MaxAttemptADHDRisk = 64
)

// ChangeListener receives a snapshot after every accepted observation
type ChangeListener func(label models.EmotionLabel, metrics models.EmotionMetrics)

// Tracker keeps a bounded emotion history and derives pattern counters from it.
// It is not safe for concurrent use; callers serialize access per session.
type Tracker struct {
	history         []models.EmotionObservation
	counters        models.PatternCounters
	currentEmotion  models.EmotionLabel
	previousEmotion models.EmotionLabel
	sensorAvailable bool
	listener        ChangeListener
	log             *logger.Logger
}

// NewTracker creates a tracker in the neutral state
func NewTracker(log *logger.Logger) *Tracker {
	return &Tracker{
		history:         make([]models.EmotionObservation, 0, HistoryCapacity),
		currentEmotion:  models.EmotionNeutral,
		previousEmotion: models.EmotionNeutral,
		sensorAvailable: true,
		log:             logger.OrNop(log),
	}
}

// OnChange registers the listener notified after each observation
func (t *Tracker) OnChange(listener ChangeListener) {
	t.listener = listener
}

// RecordObservation appends an observation and updates the pattern counters
func (t *Tracker) RecordObservation(label models.EmotionLabel, timestamp time.Time) error {
	if !label.IsValid() {
		t.log.Warn("Rejected emotion observation", "label", label)
		return fmt.Errorf("%w: unknown emotion label %q", models.ErrInvalidInput, label)
	}

	if n := len(t.history); n > 0 {
		prior := t.history[n-1]
		if timestamp.Sub(prior.Timestamp) < RapidChangeWindow && label != t.currentEmotion {
			t.counters.RapidChanges++
		}
	}

	if t.currentEmotion.IsPositive() && label.IsNegative() {
		t.counters.NegativeTransitions++
	}

	if label.IsConfusion() {
		t.counters.ConfusionStates++
	}

	t.previousEmotion = t.currentEmotion
	t.currentEmotion = label

	t.history = append(t.history, models.EmotionObservation{Label: label, Timestamp: timestamp})
	if len(t.history) > HistoryCapacity {
		t.history = append(t.history[:0], t.history[len(t.history)-HistoryCapacity:]...)
	}

	if t.listener != nil {
		t.listener(label, t.Metrics())
	}
	return nil
}

// RiskForAttempt converts one attempt plus the current pattern counters into a bounded risk contribution.
// It does not modify the tracker.
func (t *Tracker) RiskForAttempt(attempt models.TaskAttempt) (models.AttemptRisk, error) {
	if err := validateAttempt(attempt); err != nil {
		return models.AttemptRisk{}, err
	}

	emotion := t.currentEmotion
	if !t.sensorAvailable {
		emotion = models.EmotionNeutral
	}

	base, adhd := 0, 0

	if !attempt.IsCorrect && emotion.IsNegative() {
		base += 6
		// struggling on easy items weighs more
		switch attempt.Difficulty {
		case 1:
			base += 9
		case 2:
			base += 6
		default:
			base += 3
		}
	}

	if t.counters.RapidChanges >= 5 {
		adhd += 12
		base += 6
	}
	if t.counters.RapidChanges >= 6 && !attempt.IsCorrect {
		adhd += 8
	}

	if t.counters.NegativeTransitions > 3 {
		base += 7
	}

	if t.counters.ConfusionStates > 3 {
		base += 5
	}

	if attempt.TimeSpentSeconds > 10 && !attempt.IsCorrect {
		base += 3
	}

	return models.AttemptRisk{
		TotalRisk: min(base, MaxAttemptRisk),
		ADHDRisk:  min(adhd, MaxAttemptADHDRisk),
	}, nil
}

// Reset clears the history and all counters
func (t *Tracker) Reset() {
	t.history = t.history[:0]
	t.counters = models.PatternCounters{}
	t.currentEmotion = models.EmotionNeutral
	t.previousEmotion = models.EmotionNeutral
}

// Metrics returns a copy of the current tracker state
func (t *Tracker) Metrics() models.EmotionMetrics {
	history := make([]models.EmotionLabel, len(t.history))
	for i, obs := range t.history {
		history[i] = obs.Label
	}
	return models.EmotionMetrics{
		PatternCounters: t.counters,
		CurrentEmotion:  t.currentEmotion,
		PreviousEmotion: t.previousEmotion,
		History:         history,
		SensorAvailable: t.sensorAvailable,
	}
}

// SetSensorAvailable switches between emotion-aware and emotion-agnostic attempt scoring
func (t *Tracker) SetSensorAvailable(available bool) {
	t.sensorAvailable = available
}

// SensorAvailable reports whether emotion readings are trusted for scoring
func (t *Tracker) SensorAvailable() bool {
	return t.sensorAvailable
}

func validateAttempt(a models.TaskAttempt) error {
	if !a.TaskType.IsValid() {
		return fmt.Errorf("%w: unknown task type %q", models.ErrInvalidInput, a.TaskType)
	}
	if a.Difficulty < 1 || a.Difficulty > 3 {
		return fmt.Errorf("%w: difficulty must be 1-3, got %d", models.ErrInvalidInput, a.Difficulty)
	}
	if a.TimeSpentSeconds < 0 || math.IsNaN(a.TimeSpentSeconds) {
		return fmt.Errorf("%w: time spent cannot be negative", models.ErrInvalidInput)
	}
	return nil
}
