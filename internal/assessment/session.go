package assessment

import (
	"fmt"
	"time"

	"mindquest/internal/emotion"
	"mindquest/internal/logger"
	"mindquest/internal/models"
	"mindquest/internal/risk"
)

// Dashboard is the read-only view of a session handed to reporting
type Dashboard struct {
	ID            string                      `json:"id"`
	Profile       models.UserProfile          `json:"profile"`
	Risk          models.ConditionRiskState   `json:"risk"`
	Projection    models.ConditionRiskState   `json:"projection"`
	Games         models.GameStats            `json:"games"`
	Emotion       models.EmotionMetrics       `json:"emotion"`
	Questionnaire *models.QuestionnaireRecord `json:"questionnaire,omitempty"`
	HighAttention bool                        `json:"highAttention"`
	Summary       []risk.Indicator            `json:"summary"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

// Session is one child's assessment: profile, emotion tracker and risk aggregator.
// It owns its state explicitly and is not safe for concurrent use.
type Session struct {
	id            string
	profile       models.UserProfile
	tracker       *emotion.Tracker
	aggregator    *risk.Aggregator
	questionnaire *models.QuestionnaireRecord
	createdAt     time.Time
	updatedAt     time.Time
	log           *logger.Logger
	now           func() time.Time
}

// New starts a session for a validated profile
func New(id string, profile models.UserProfile, log *logger.Logger) (*Session, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	log = logger.OrNop(log).With("session", id)
	now := time.Now().UTC()
	return &Session{
		id:         id,
		profile:    profile,
		tracker:    emotion.NewTracker(log),
		aggregator: risk.NewAggregator(log),
		createdAt:  now,
		updatedAt:  now,
		log:        log,
		now:        time.Now,
	}, nil
}

// Restore rebuilds a session from persisted values. The emotion tracker starts empty.
func Restore(header models.AssessmentSession, questionnaire *models.QuestionnaireRecord, state models.ConditionRiskState, stats models.GameStats, log *logger.Logger) *Session {
	log = logger.OrNop(log).With("session", header.ID)
	s := &Session{
		id:         header.ID,
		profile:    header.Profile,
		tracker:    emotion.NewTracker(log),
		aggregator: risk.NewAggregator(log),
		createdAt:  header.CreatedAt,
		updatedAt:  header.UpdatedAt,
		log:        log,
		now:        time.Now,
	}
	var baseline *models.QuestionnaireScores
	if questionnaire != nil {
		q := *questionnaire
		s.questionnaire = &q
		baseline = &q.Scores
	}
	s.aggregator.Restore(state, stats, baseline)
	return s
}

func (s *Session) ID() string                  { return s.id }
func (s *Session) Profile() models.UserProfile { return s.profile }

// Header returns the persisted identity of the session
func (s *Session) Header() models.AssessmentSession {
	return models.AssessmentSession{
		ID:        s.id,
		Profile:   s.profile,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// UpdateProfile replaces the child's profile
func (s *Session) UpdateProfile(profile models.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	s.profile = profile
	s.touch()
	return nil
}

// SubmitQuestionnaire scores the screening answers and seeds the baseline.
// A session accepts one questionnaire.
func (s *Session) SubmitQuestionnaire(answers map[string]string) (models.QuestionnaireScores, error) {
	if s.questionnaire != nil {
		return models.QuestionnaireScores{}, fmt.Errorf("%w: questionnaire already submitted", models.ErrInvalidInput)
	}
	scores, err := risk.ScoreQuestionnaire(answers)
	if err != nil {
		return models.QuestionnaireScores{}, err
	}

	copied := make(map[string]string, len(answers))
	for k, v := range answers {
		copied[k] = v
	}
	s.questionnaire = &models.QuestionnaireRecord{
		Answers:     copied,
		Scores:      scores,
		SubmittedAt: s.now().UTC(),
	}
	s.aggregator.ApplyBaseline(scores)
	s.touch()
	s.log.Info("Questionnaire submitted", "scores", scores)
	return scores, nil
}

// RecordObservation feeds one classified emotion into the tracker
func (s *Session) RecordObservation(label models.EmotionLabel, timestamp time.Time) error {
	if err := s.tracker.RecordObservation(label, timestamp); err != nil {
		return err
	}
	s.touch()
	return nil
}

// SetSensorAvailable switches attempt scoring between emotion-aware and emotion-agnostic
func (s *Session) SetSensorAvailable(available bool) {
	if s.tracker.SensorAvailable() != available {
		s.log.Info("Emotion sensor availability changed", "available", available)
	}
	s.tracker.SetSensorAvailable(available)
}

// ResetEmotions clears the emotion history and counters
func (s *Session) ResetEmotions() {
	s.tracker.Reset()
	s.touch()
}

// OnEmotionChange registers the reporting listener for emotion updates
func (s *Session) OnEmotionChange(listener emotion.ChangeListener) {
	s.tracker.OnChange(listener)
}

// RecordAttempt scores one answered item against the current emotion pattern and folds it into the risk state
func (s *Session) RecordAttempt(gameID models.GameID, attempt models.TaskAttempt) (models.AttemptRisk, error) {
	if !gameID.IsValid() {
		s.log.Warn("Ignoring attempt for unknown game", "game", gameID)
		return models.AttemptRisk{}, fmt.Errorf("%w: game %q", models.ErrUnknownEntity, gameID)
	}
	attemptRisk, err := s.tracker.RiskForAttempt(attempt)
	if err != nil {
		return models.AttemptRisk{}, err
	}
	if err := s.aggregator.ApplyAttemptRisk(gameID, attempt.TaskType, attemptRisk); err != nil {
		return models.AttemptRisk{}, err
	}
	s.touch()
	return attemptRisk, nil
}

// RecordGameResult scores a finished game and routes its session risk into the state
func (s *Session) RecordGameResult(result models.GameResult) (int, error) {
	if err := risk.ValidateResult(result); err != nil {
		return 0, err
	}
	sessionRisk := risk.ScoreSession(result)
	snapshot := s.tracker.Metrics()
	if err := s.aggregator.ApplySessionResult(result, sessionRisk, &snapshot); err != nil {
		return 0, err
	}
	s.touch()
	s.log.Info("Game result recorded", "game", result.GameID, "score", result.Score, "sessionRisk", sessionRisk)
	return sessionRisk, nil
}

// RiskState returns the current cumulative risk
func (s *Session) RiskState() models.ConditionRiskState {
	return s.aggregator.State()
}

// GameStat returns a copy of one game's stats
func (s *Session) GameStat(gameID models.GameID) (*models.GameStat, error) {
	if !gameID.IsValid() {
		return nil, fmt.Errorf("%w: game %q", models.ErrUnknownEntity, gameID)
	}
	return s.aggregator.Stats()[gameID], nil
}

// Dashboard returns a snapshot of everything a results page shows
func (s *Session) Dashboard() Dashboard {
	stats := s.aggregator.Stats()
	state := s.aggregator.State()
	baseline := s.aggregator.Baseline()

	var questionnaire *models.QuestionnaireRecord
	if s.questionnaire != nil {
		q := *s.questionnaire
		q.Answers = make(map[string]string, len(s.questionnaire.Answers))
		for k, v := range s.questionnaire.Answers {
			q.Answers[k] = v
		}
		questionnaire = &q
	}

	return Dashboard{
		ID:            s.id,
		Profile:       s.profile,
		Risk:          state,
		Projection:    s.aggregator.Recompute(),
		Games:         stats,
		Emotion:       s.tracker.Metrics(),
		Questionnaire: questionnaire,
		HighAttention: s.aggregator.HasHighAttention(),
		Summary:       risk.Summarize(state, stats, baseline),
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
}

func (s *Session) touch() {
	s.updatedAt = s.now().UTC()
}
