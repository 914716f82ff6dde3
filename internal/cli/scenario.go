package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mindquest/internal/assessment"
	"mindquest/internal/logger"
	"mindquest/internal/models"
)

// Scenario is a scripted assessment: a child profile, an optional questionnaire
// and the ordered events a play-through produced.
type Scenario struct {
	Profile       models.UserProfile `yaml:"profile"`
	Start         time.Time          `yaml:"start"`
	Questionnaire map[string]string  `yaml:"questionnaire"`
	Events        []Event            `yaml:"events"`
}

// Event is one step of a scenario. Exactly one of Observation, Attempt or Result is set.
type Event struct {
	OffsetMs    int64               `yaml:"offsetMs"`
	Observation models.EmotionLabel `yaml:"observation"`
	Attempt     *AttemptEvent       `yaml:"attempt"`
	Result      *ResultEvent        `yaml:"result"`
}

type AttemptEvent struct {
	GameID           models.GameID   `yaml:"gameId"`
	TaskType         models.TaskType `yaml:"taskType"`
	Difficulty       int             `yaml:"difficulty"`
	IsCorrect        bool            `yaml:"isCorrect"`
	TimeSpentSeconds float64         `yaml:"timeSpentSeconds"`
}

type ResultEvent struct {
	GameID    models.GameID `yaml:"gameId"`
	Score     int           `yaml:"score"`
	Grade     models.Grade  `yaml:"grade"`
	Correct   *int          `yaml:"correct"`
	Incorrect *int          `yaml:"incorrect"`
}

// LoadScenario reads a scenario file, rejecting unknown keys
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("scenario is empty")
		}
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	for i, ev := range sc.Events {
		set := 0
		if ev.Observation != "" {
			set++
		}
		if ev.Attempt != nil {
			set++
		}
		if ev.Result != nil {
			set++
		}
		if set != 1 {
			return nil, fmt.Errorf("event %d: exactly one of observation, attempt or result is required", i)
		}
		if ev.OffsetMs < 0 {
			return nil, fmt.Errorf("event %d: offsetMs cannot be negative", i)
		}
	}
	if sc.Start.IsZero() {
		sc.Start = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	return &sc, nil
}

// Replay runs the scenario through a fresh assessment session.
// Events naming an unknown game are skipped with a warning; any other error aborts.
func (sc *Scenario) Replay(log *logger.Logger) (*assessment.Session, error) {
	log = logger.OrNop(log)

	sess, err := assessment.New("replay", sc.Profile, log)
	if err != nil {
		return nil, err
	}

	if sc.Questionnaire != nil {
		if _, err := sess.SubmitQuestionnaire(sc.Questionnaire); err != nil {
			return nil, fmt.Errorf("questionnaire: %w", err)
		}
	}

	for i, ev := range sc.Events {
		err := sc.apply(sess, ev)
		if errors.Is(err, models.ErrUnknownEntity) {
			log.Warn("Skipping event", "event", i, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return sess, nil
}

func (sc *Scenario) apply(sess *assessment.Session, ev Event) error {
	switch {
	case ev.Observation != "":
		ts := sc.Start.Add(time.Duration(ev.OffsetMs) * time.Millisecond)
		return sess.RecordObservation(ev.Observation, ts)
	case ev.Attempt != nil:
		a := ev.Attempt
		_, err := sess.RecordAttempt(a.GameID, models.TaskAttempt{
			TaskType:         a.TaskType,
			Difficulty:       a.Difficulty,
			IsCorrect:        a.IsCorrect,
			TimeSpentSeconds: a.TimeSpentSeconds,
		})
		return err
	default:
		r := ev.Result
		_, err := sess.RecordGameResult(models.GameResult{
			GameID:    r.GameID,
			Score:     r.Score,
			Grade:     r.Grade,
			Correct:   r.Correct,
			Incorrect: r.Incorrect,
		})
		return err
	}
}
