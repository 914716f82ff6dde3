package assessment

import (
	"errors"
	"testing"
	"time"

	"mindquest/internal/models"
	"mindquest/internal/risk"
)

var t0 = time.Date(2026, 2, 10, 15, 30, 0, 0, time.UTC)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New("sess-1", models.UserProfile{Name: "Ada", Age: 9, Avatar: "fox"}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

// observeRapidChanges alternates two calm labels half a second apart so every step after the first counts as rapid
func observeRapidChanges(t *testing.T, s *Session, changes int) {
	t.Helper()
	labels := []models.EmotionLabel{models.EmotionHappy, models.EmotionNeutral}
	for i := 0; i <= changes; i++ {
		if err := s.RecordObservation(labels[i%2], t0.Add(time.Duration(i)*500*time.Millisecond)); err != nil {
			t.Fatal(err)
		}
	}
}

func wrongAttentionAttempt() models.TaskAttempt {
	return models.TaskAttempt{TaskType: models.TaskAttention, Difficulty: 2, IsCorrect: false, TimeSpentSeconds: 2}
}

func TestNewValidatesProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile models.UserProfile
	}{
		{"empty name", models.UserProfile{Name: "  ", Age: 8}},
		{"too young", models.UserProfile{Name: "Sam", Age: 2}},
		{"too old", models.UserProfile{Name: "Sam", Age: 19}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("x", tt.profile, nil); !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("New() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestQuestionnaireSeedsBaseline(t *testing.T) {
	s := newTestSession(t)
	scores, err := s.SubmitQuestionnaire(map[string]string{"q1": "yes", "q3": "yes", "q2": "no", "q4": "no", "q5": "yes", "q8": "no"})
	if err != nil {
		t.Fatal(err)
	}
	if scores != (models.QuestionnaireScores{DyslexiaScore: 2, ADHDScore: 1}) {
		t.Errorf("scores = %+v", scores)
	}
	state := s.RiskState()
	if state.Dyslexia != 25 || state.ADHD != 15 || state.Dyscalculia != 0 {
		t.Errorf("state = %+v", state)
	}

	if _, err := s.SubmitQuestionnaire(map[string]string{"q1": "yes"}); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("second submission error = %v, want ErrInvalidInput", err)
	}
	if s.RiskState().Dyslexia != 25 {
		t.Error("second submission changed the baseline")
	}
}

func TestRecordGameResultStoresEmotionSnapshot(t *testing.T) {
	s := newTestSession(t)
	if err := s.RecordObservation(models.EmotionSad, t0); err != nil {
		t.Fatal(err)
	}

	correct, incorrect := 2, 8
	sessionRisk, err := s.RecordGameResult(models.GameResult{
		GameID: models.GameNumberNinja, Score: 40, Grade: models.GradeF, Correct: &correct, Incorrect: &incorrect,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sessionRisk != 100 {
		t.Errorf("session risk = %d, want 100", sessionRisk)
	}
	if got := s.RiskState().Dyscalculia; got != risk.ConditionCap {
		t.Errorf("dyscalculia = %v, want %d", got, risk.ConditionCap)
	}

	stat, err := s.GameStat(models.GameNumberNinja)
	if err != nil {
		t.Fatal(err)
	}
	if len(stat.History) != 1 || stat.History[0].Emotion == nil {
		t.Fatalf("history = %+v", stat.History)
	}
	if stat.History[0].Emotion.CurrentEmotion != models.EmotionSad {
		t.Errorf("snapshot emotion = %s, want sad", stat.History[0].Emotion.CurrentEmotion)
	}
}

func TestRapidEmotionShiftsSaturateADHD(t *testing.T) {
	s := newTestSession(t)
	observeRapidChanges(t, s, 6)

	var adhd []float64
	for i := 0; i < 6; i++ {
		r, err := s.RecordAttempt(models.GameFocusFlight, wrongAttentionAttempt())
		if err != nil {
			t.Fatal(err)
		}
		if r.ADHDRisk > 64 {
			t.Fatalf("attempt %d adhd risk %d above per-attempt cap", i+1, r.ADHDRisk)
		}
		adhd = append(adhd, s.RiskState().ADHD)
	}
	if adhd[3] != risk.ConditionCap || adhd[5] != risk.ConditionCap {
		t.Errorf("adhd progression = %v, want cap from the 4th attempt on", adhd)
	}
	if s.RiskState().Overall != models.RiskHigh {
		t.Errorf("overall = %s, want High", s.RiskState().Overall)
	}
}

func TestHighAttentionSessionOverridesADHD(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.SubmitQuestionnaire(map[string]string{"q5": "yes"}); err != nil {
		t.Fatal(err)
	}
	observeRapidChanges(t, s, 6)
	for i := 0; i < 3; i++ {
		if _, err := s.RecordAttempt(models.GameLexicalLegends, wrongAttentionAttempt()); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.RiskState().ADHD; got != 75 {
		t.Fatalf("adhd before session = %v, want 75", got)
	}

	if _, err := s.RecordGameResult(models.GameResult{GameID: models.GameFocusFlight, Score: 320, Grade: models.GradeA}); err != nil {
		t.Fatal(err)
	}
	if got := s.RiskState().ADHD; got > risk.AttentionSuppressedCap {
		t.Errorf("adhd after high attention session = %v, want <= %d", got, risk.AttentionSuppressedCap)
	}

	if _, err := s.RecordAttempt(models.GameLexicalLegends, wrongAttentionAttempt()); err != nil {
		t.Fatal(err)
	}
	if got := s.RiskState().ADHD; got > risk.AttentionSuppressedCap {
		t.Errorf("adhd after later attempt = %v, want <= %d", got, risk.AttentionSuppressedCap)
	}
	if !s.Dashboard().HighAttention {
		t.Error("dashboard should report high attention")
	}
}

func TestRecordAttemptUnknownGame(t *testing.T) {
	s := newTestSession(t)
	before := s.RiskState()
	_, err := s.RecordAttempt("chess", wrongAttentionAttempt())
	if !errors.Is(err, models.ErrUnknownEntity) {
		t.Errorf("error = %v, want ErrUnknownEntity", err)
	}
	if s.RiskState() != before {
		t.Error("unknown game changed the state")
	}
}

func TestRecordAttemptWithoutSensor(t *testing.T) {
	attempt := models.TaskAttempt{TaskType: models.TaskReading, Difficulty: 1, IsCorrect: false, TimeSpentSeconds: 3}

	withSensor := newTestSession(t)
	if err := withSensor.RecordObservation(models.EmotionSad, t0); err != nil {
		t.Fatal(err)
	}
	r, err := withSensor.RecordAttempt(models.GameLexicalLegends, attempt)
	if err != nil {
		t.Fatal(err)
	}
	if r.TotalRisk != 15 {
		t.Errorf("risk with sensor = %d, want 15", r.TotalRisk)
	}

	degraded := newTestSession(t)
	if err := degraded.RecordObservation(models.EmotionSad, t0); err != nil {
		t.Fatal(err)
	}
	degraded.SetSensorAvailable(false)
	r, err = degraded.RecordAttempt(models.GameLexicalLegends, attempt)
	if err != nil {
		t.Fatal(err)
	}
	if r.TotalRisk != 0 {
		t.Errorf("risk without sensor = %d, want 0", r.TotalRisk)
	}
}

func TestInvalidObservationRejected(t *testing.T) {
	s := newTestSession(t)
	if err := s.RecordObservation("bored", t0); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
	if n := len(s.Dashboard().Emotion.History); n != 0 {
		t.Errorf("history length = %d, want 0", n)
	}
}

func TestResetEmotions(t *testing.T) {
	s := newTestSession(t)
	observeRapidChanges(t, s, 3)
	s.ResetEmotions()
	m := s.Dashboard().Emotion
	if m.RapidChanges != 0 || len(m.History) != 0 || m.CurrentEmotion != models.EmotionNeutral {
		t.Errorf("metrics after reset = %+v", m)
	}
}

func TestDashboardIsACopy(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.SubmitQuestionnaire(map[string]string{"q2": "yes", "q4": "yes"}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordObservation(models.EmotionHappy, t0); err != nil {
		t.Fatal(err)
	}
	correct, incorrect := 6, 4
	if _, err := s.RecordGameResult(models.GameResult{GameID: models.GameMatrixReasoning, Score: 30, Grade: models.GradeC, Correct: &correct, Incorrect: &incorrect}); err != nil {
		t.Fatal(err)
	}
	correct = 0

	d := s.Dashboard()
	d.Games[models.GameMatrixReasoning].Score = 9999
	d.Questionnaire.Answers["q2"] = "no"
	entry := d.Games[models.GameMatrixReasoning].History[0]
	entry.Emotion.RapidChanges = 999
	entry.Emotion.History[0] = models.EmotionSad
	*entry.Result.Correct = 777

	again := s.Dashboard()
	if again.Games[models.GameMatrixReasoning].Score != 30 {
		t.Error("dashboard games alias session state")
	}
	h := again.Games[models.GameMatrixReasoning].History[0]
	if h.Emotion.RapidChanges != 0 || h.Emotion.History[0] != models.EmotionHappy {
		t.Errorf("history emotion aliases session state: %+v", h.Emotion)
	}
	if *h.Result.Correct != 6 {
		t.Errorf("history result correct = %d, want 6", *h.Result.Correct)
	}
	if again.Questionnaire.Answers["q2"] != "yes" {
		t.Error("dashboard questionnaire aliases session state")
	}
	if len(again.Summary) == 0 {
		t.Error("expected summary indicators")
	}
	if again.Projection.Dyscalculia == 0 {
		t.Error("expected non-zero recompute projection")
	}
}

func TestRestore(t *testing.T) {
	original := newTestSession(t)
	if _, err := original.SubmitQuestionnaire(map[string]string{"q5": "yes", "q8": "yes"}); err != nil {
		t.Fatal(err)
	}
	if _, err := original.RecordGameResult(models.GameResult{GameID: models.GameBridgeGame, Score: 10, Grade: models.GradeB}); err != nil {
		t.Fatal(err)
	}
	d := original.Dashboard()

	restored := Restore(original.Header(), d.Questionnaire, d.Risk, d.Games, nil)
	r := restored.Dashboard()
	if r.Risk != d.Risk {
		t.Errorf("restored risk = %+v, want %+v", r.Risk, d.Risk)
	}
	if r.Projection != d.Projection {
		t.Errorf("restored projection = %+v, want %+v", r.Projection, d.Projection)
	}
	if !r.Games[models.GameBridgeGame].Played {
		t.Error("restored stats lost bridge game")
	}
	if _, err := restored.SubmitQuestionnaire(map[string]string{"q1": "yes"}); !errors.Is(err, models.ErrInvalidInput) {
		t.Error("restored session accepted a second questionnaire")
	}
}
