package service

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"sync"
	"time"

	"mindquest/internal/assessment"
	"mindquest/internal/emotion"
	"mindquest/internal/logger"
	"mindquest/internal/models"
	"mindquest/internal/risk"
	"mindquest/internal/security"
)

// Store persists sessions and their events. A nil Store keeps everything in memory.
type Store interface {
	CreateSession(s models.AssessmentSession) error
	UpdateProfile(id string, profile models.UserProfile, updatedAt time.Time) error
	Touch(id string, updatedAt time.Time) error
	GetSession(id string) (*models.AssessmentSession, error)
	ListSessions(limit int) ([]models.AssessmentSession, error)
	SaveAnswers(sessionID string, answers map[string]string, submittedAt time.Time) error
	GetAnswers(sessionID string) (map[string]string, time.Time, bool, error)
	InsertResult(sessionID string, entry models.GameHistoryEntry, level models.RiskLevel) (int64, error)
	ListHistory(sessionID string, gameID models.GameID) ([]models.GameHistoryEntry, error)
	ListAll(sessionID string) ([]models.GameHistoryEntry, error)
	InsertSnapshot(snap models.RiskSnapshot) (int64, error)
	LatestSnapshot(sessionID string) (*models.RiskSnapshot, error)
	ListSnapshots(sessionID string, limit int) ([]models.RiskSnapshot, error)
}

// ReportSender delivers a session report to a parent
type ReportSender interface {
	IsEnabled() bool
	SendRiskReport(ctx context.Context, toEmail string, dashboard assessment.Dashboard, reportToken string) error
}

// Limits for roster and timeline listings
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Roster statuses by overall risk level
const (
	StatusOnTrack           = "On Track"
	StatusMonitor           = "Monitor"
	StatusAttentionRequired = "Attention Required"
)

// RosterEntry is one child on the practitioner roster
type RosterEntry struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Age          int              `json:"age"`
	Overall      models.RiskLevel `json:"overall"`
	TopCondition models.Condition `json:"topCondition,omitempty"`
	Status       string           `json:"status"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func newRosterEntry(header models.AssessmentSession, state models.ConditionRiskState) RosterEntry {
	e := RosterEntry{
		ID:        header.ID,
		Name:      header.Profile.Name,
		Age:       header.Profile.Age,
		Overall:   state.Overall,
		Status:    StatusOnTrack,
		UpdatedAt: header.UpdatedAt,
	}
	if e.Overall == "" {
		e.Overall = models.RiskLow
	}
	switch e.Overall {
	case models.RiskHigh:
		e.Status = StatusAttentionRequired
	case models.RiskMedium:
		e.Status = StatusMonitor
	}
	if e.Overall != models.RiskLow {
		e.TopCondition, _ = state.TopCondition()
	}
	return e
}

// Snapshot event kinds
const (
	EventCreated       = "created"
	EventQuestionnaire = "questionnaire"
	EventAttempt       = "attempt"
	EventResult        = "result"
)

// entry serializes every operation on one session
type entry struct {
	mu      sync.Mutex
	session *assessment.Session
	sampler *emotion.Sampler
}

// RecordObservation and SetSensorAvailable let a sampler feed the session under its lock
func (e *entry) RecordObservation(label models.EmotionLabel, ts time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.RecordObservation(label, ts)
}

func (e *entry) SetSensorAvailable(available bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.SetSensorAvailable(available)
}

// AssessmentService hosts live assessment sessions and persists their events
type AssessmentService struct {
	store    Store
	reports  ReportSender
	signer   *security.LinkSigner
	log      *logger.Logger
	interval time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewAssessmentService creates the service. store and reports may be nil.
func NewAssessmentService(store Store, reports ReportSender, signer *security.LinkSigner, sampleInterval time.Duration, log *logger.Logger) *AssessmentService {
	if signer == nil {
		signer = security.NewLinkSigner("")
	}
	if sampleInterval <= 0 {
		sampleInterval = emotion.DefaultSampleInterval
	}
	return &AssessmentService{
		store:    store,
		reports:  reports,
		signer:   signer,
		log:      logger.OrNop(log),
		interval: sampleInterval,
		sessions: make(map[string]*entry),
	}
}

// CreateSession starts a new assessment for a child
func (s *AssessmentService) CreateSession(profile models.UserProfile) (assessment.Dashboard, error) {
	id := security.GenerateSessionID()
	sess, err := assessment.New(id, profile, s.log)
	if err != nil {
		return assessment.Dashboard{}, err
	}

	if s.store != nil {
		if err := s.store.CreateSession(sess.Header()); err != nil {
			return assessment.Dashboard{}, err
		}
		s.snapshot(id, EventCreated, sess.RiskState())
	}

	s.watchEmotions(id, sess)
	s.mu.Lock()
	s.sessions[id] = &entry{session: sess}
	s.mu.Unlock()

	s.log.Info("Assessment session created", "session", id, "age", profile.Age)
	return sess.Dashboard(), nil
}

// Dashboard returns the current read-only view of a session
func (s *AssessmentService) Dashboard(id string) (assessment.Dashboard, error) {
	var d assessment.Dashboard
	err := s.with(id, func(sess *assessment.Session) error {
		d = sess.Dashboard()
		return nil
	})
	return d, err
}

// UpdateProfile replaces the child's profile
func (s *AssessmentService) UpdateProfile(id string, profile models.UserProfile) (assessment.Dashboard, error) {
	var d assessment.Dashboard
	err := s.with(id, func(sess *assessment.Session) error {
		if err := sess.UpdateProfile(profile); err != nil {
			return err
		}
		if s.store != nil {
			h := sess.Header()
			if err := s.store.UpdateProfile(id, h.Profile, h.UpdatedAt); err != nil {
				return err
			}
		}
		d = sess.Dashboard()
		return nil
	})
	return d, err
}

// SubmitQuestionnaire scores the screening answers and seeds the baseline risk
func (s *AssessmentService) SubmitQuestionnaire(id string, answers map[string]string) (models.QuestionnaireScores, error) {
	var scores models.QuestionnaireScores
	err := s.with(id, func(sess *assessment.Session) error {
		var err error
		scores, err = sess.SubmitQuestionnaire(answers)
		if err != nil {
			return err
		}
		if s.store != nil {
			record := sess.Dashboard().Questionnaire
			if err := s.store.SaveAnswers(id, record.Answers, record.SubmittedAt); err != nil {
				return err
			}
			s.snapshot(id, EventQuestionnaire, sess.RiskState())
		}
		return nil
	})
	return scores, err
}

// RecordObservation feeds one emotion observation into a session
func (s *AssessmentService) RecordObservation(id string, label models.EmotionLabel, ts time.Time) (models.EmotionMetrics, error) {
	var metrics models.EmotionMetrics
	err := s.with(id, func(sess *assessment.Session) error {
		if err := sess.RecordObservation(label, ts); err != nil {
			return err
		}
		metrics = sess.Dashboard().Emotion
		return nil
	})
	return metrics, err
}

// ResetEmotions clears a session's emotion history
func (s *AssessmentService) ResetEmotions(id string) error {
	return s.with(id, func(sess *assessment.Session) error {
		sess.ResetEmotions()
		return nil
	})
}

// RecordAttempt scores one answered item and folds it into the session risk
func (s *AssessmentService) RecordAttempt(id string, gameID models.GameID, attempt models.TaskAttempt) (models.AttemptRisk, models.ConditionRiskState, error) {
	var (
		attemptRisk models.AttemptRisk
		state       models.ConditionRiskState
	)
	err := s.with(id, func(sess *assessment.Session) error {
		var err error
		attemptRisk, err = sess.RecordAttempt(gameID, attempt)
		if err != nil {
			return err
		}
		state = sess.RiskState()
		if s.store != nil {
			s.snapshot(id, EventAttempt, state)
		}
		return nil
	})
	return attemptRisk, state, err
}

// RecordGameResult scores a finished game, updates the session and appends it to the stored history
func (s *AssessmentService) RecordGameResult(id string, result models.GameResult) (int, models.ConditionRiskState, error) {
	var (
		sessionRisk int
		state       models.ConditionRiskState
	)
	err := s.with(id, func(sess *assessment.Session) error {
		var err error
		sessionRisk, err = sess.RecordGameResult(result)
		if err != nil {
			return err
		}
		state = sess.RiskState()
		if s.store == nil {
			return nil
		}

		stat, err := sess.GameStat(result.GameID)
		if err != nil {
			return err
		}
		latest := stat.History[len(stat.History)-1]
		if _, err := s.store.InsertResult(id, latest, stat.RiskLevel); err != nil {
			return err
		}
		s.snapshot(id, EventResult, state)
		return nil
	})
	return sessionRisk, state, err
}

// GameHistory lists every play-through of one game, from storage when available
func (s *AssessmentService) GameHistory(id string, gameID models.GameID) ([]models.GameHistoryEntry, error) {
	var history []models.GameHistoryEntry
	err := s.with(id, func(sess *assessment.Session) error {
		if !gameID.IsValid() {
			return fmt.Errorf("%w: game %q", models.ErrUnknownEntity, gameID)
		}
		if s.store != nil {
			var err error
			history, err = s.store.ListHistory(id, gameID)
			return err
		}
		stat, err := sess.GameStat(gameID)
		if err != nil {
			return err
		}
		history = stat.History
		return nil
	})
	return history, err
}

// Roster lists up to limit sessions, most recently updated first, with their overall risk.
// Live sessions report their in-memory state; stored ones their latest snapshot.
func (s *AssessmentService) Roster(limit int) ([]RosterEntry, error) {
	if limit <= 0 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrInvalidInput, MaxListLimit)
	}

	s.mu.Lock()
	live := make(map[string]*entry, len(s.sessions))
	for id, e := range s.sessions {
		live[id] = e
	}
	s.mu.Unlock()

	if s.store == nil {
		roster := make([]RosterEntry, 0, len(live))
		for _, e := range live {
			roster = append(roster, e.rosterEntry())
		}
		sort.Slice(roster, func(i, j int) bool {
			if !roster[i].UpdatedAt.Equal(roster[j].UpdatedAt) {
				return roster[i].UpdatedAt.After(roster[j].UpdatedAt)
			}
			return roster[i].ID < roster[j].ID
		})
		if len(roster) > limit {
			roster = roster[:limit]
		}
		return roster, nil
	}

	headers, err := s.store.ListSessions(limit)
	if err != nil {
		return nil, err
	}
	roster := make([]RosterEntry, 0, len(headers))
	for _, h := range headers {
		if e, ok := live[h.ID]; ok {
			roster = append(roster, e.rosterEntry())
			continue
		}
		var state models.ConditionRiskState
		snap, err := s.store.LatestSnapshot(h.ID)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			state = snap.State
		}
		roster = append(roster, newRosterEntry(h, state))
	}
	return roster, nil
}

// RiskTimeline returns up to limit stored risk snapshots of a session, oldest first.
// Sessions without storage have no timeline.
func (s *AssessmentService) RiskTimeline(id string, limit int) ([]models.RiskSnapshot, error) {
	if limit <= 0 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrInvalidInput, MaxListLimit)
	}
	snaps := []models.RiskSnapshot{}
	err := s.with(id, func(sess *assessment.Session) error {
		if s.store == nil {
			return nil
		}
		var err error
		snaps, err = s.store.ListSnapshots(id, limit)
		return err
	})
	return snaps, err
}

// ReportToken returns the signed token for a session's read-only report link
func (s *AssessmentService) ReportToken(id string) (string, error) {
	return s.signer.Sign(id)
}

// SharedDashboard returns a dashboard for a signed report link
func (s *AssessmentService) SharedDashboard(id, token string) (assessment.Dashboard, error) {
	if !s.signer.Verify(id, token) {
		return assessment.Dashboard{}, models.ErrSessionNotFound
	}
	return s.Dashboard(id)
}

// SendReport emails the session summary to a parent
func (s *AssessmentService) SendReport(ctx context.Context, id, toEmail string) error {
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return fmt.Errorf("%w: invalid email address", models.ErrInvalidInput)
	}
	if s.reports == nil || !s.reports.IsEnabled() {
		return models.ErrReportsUnavailable
	}
	d, err := s.Dashboard(id)
	if err != nil {
		return err
	}
	token, err := s.signer.Sign(id)
	if err != nil {
		return err
	}
	return s.reports.SendRiskReport(ctx, toEmail, d, token)
}

// StartSampling attaches a sensor to a session and polls it periodically.
// If the sensor fails to initialize the session falls back to emotion-agnostic scoring.
func (s *AssessmentService) StartSampling(ctx context.Context, id string, sensor emotion.Sensor) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.sampler == nil {
		e.sampler = emotion.NewSampler(sensor, e, s.interval, s.log.With("session", id))
	}
	sampler := e.sampler
	e.mu.Unlock()

	// Start takes the entry lock through the sink, so it must run unlocked
	return sampler.Start(ctx)
}

// StopSampling pauses the sensor loop of a session
func (s *AssessmentService) StopSampling(id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	sampler := e.sampler
	e.mu.Unlock()
	if sampler != nil {
		sampler.Stop()
	}
	return nil
}

// Close stops every sampler and releases its sensor
func (s *AssessmentService) Close() {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		sampler := e.sampler
		e.mu.Unlock()
		if sampler == nil {
			continue
		}
		if err := sampler.Close(); err != nil {
			s.log.Warn("Failed to close emotion sensor", "session", e.session.ID(), "error", err)
		}
	}
}

func (e *entry) rosterEntry() RosterEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newRosterEntry(e.session.Header(), e.session.RiskState())
}

// watchEmotions logs every accepted observation of a session
func (s *AssessmentService) watchEmotions(id string, sess *assessment.Session) {
	log := s.log.With("session", id)
	sess.OnEmotionChange(func(label models.EmotionLabel, m models.EmotionMetrics) {
		log.Debug("Emotion observed",
			"emotion", string(label),
			"rapidChanges", m.RapidChanges,
			"negativeTransitions", m.NegativeTransitions,
			"confusionStates", m.ConfusionStates,
		)
	})
}

// with runs fn while holding the session's lock
func (s *AssessmentService) with(id string, fn func(sess *assessment.Session) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// lookup finds a live session, restoring it from storage when needed
func (s *AssessmentService) lookup(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		return e, nil
	}
	if s.store == nil || !security.ValidSessionID(id) {
		return nil, models.ErrSessionNotFound
	}

	sess, err := s.restore(id)
	if err != nil {
		return nil, err
	}
	s.watchEmotions(id, sess)
	e := &entry{session: sess}
	s.sessions[id] = e
	s.log.Info("Assessment session restored", "session", id)
	return e, nil
}

func (s *AssessmentService) restore(id string) (*assessment.Session, error) {
	header, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, models.ErrSessionNotFound
	}

	var questionnaire *models.QuestionnaireRecord
	answers, submittedAt, ok, err := s.store.GetAnswers(id)
	if err != nil {
		return nil, err
	}
	if ok {
		scores, err := risk.ScoreQuestionnaire(answers)
		if err != nil {
			return nil, fmt.Errorf("stored questionnaire for %s: %w", id, err)
		}
		questionnaire = &models.QuestionnaireRecord{Answers: answers, Scores: scores, SubmittedAt: submittedAt}
	}

	var state models.ConditionRiskState
	snap, err := s.store.LatestSnapshot(id)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		state = snap.State
	}

	history, err := s.store.ListAll(id)
	if err != nil {
		return nil, err
	}

	return assessment.Restore(*header, questionnaire, state, statsFromHistory(history), s.log), nil
}

// statsFromHistory rebuilds game stats from play-throughs in play order
func statsFromHistory(history []models.GameHistoryEntry) models.GameStats {
	stats := models.NewGameStats()
	for _, h := range history {
		stat, ok := stats[h.Result.GameID]
		if !ok {
			continue
		}
		stat.Played = true
		stat.Score = h.Result.Score
		stat.Grade = h.Result.Grade
		stat.Correct = derefOrZero(h.Result.Correct)
		stat.Incorrect = derefOrZero(h.Result.Incorrect)
		stat.RiskScore = h.RiskScore
		stat.RiskLevel = risk.SessionRiskLevel(h.RiskScore)
		stat.History = append(stat.History, h)
	}
	return stats
}

func derefOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// snapshot persists the risk state; failures are logged, the live session stays authoritative
func (s *AssessmentService) snapshot(id, event string, state models.ConditionRiskState) {
	now := time.Now().UTC()
	_, err := s.store.InsertSnapshot(models.RiskSnapshot{
		SessionID: id,
		Event:     event,
		State:     state,
		CreatedAt: now,
	})
	if err != nil {
		s.log.Error("Failed to store risk snapshot", "session", id, "event", event, "error", err)
		return
	}
	if err := s.store.Touch(id, now); err != nil {
		s.log.Warn("Failed to touch session", "session", id, "error", err)
	}
}
