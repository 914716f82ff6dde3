package repository

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"mindquest/internal/database"
)

// QuestionnaireRepository stores screening answers
type QuestionnaireRepository struct {
	db *database.DB
}

// NewQuestionnaireRepository creates a new questionnaire repository
func NewQuestionnaireRepository(db *database.DB) *QuestionnaireRepository {
	return &QuestionnaireRepository{db: db}
}

// SaveAnswers stores every answer of a submitted questionnaire in one transaction;
// either all answers are written or none are.
func (r *QuestionnaireRepository) SaveAnswers(sessionID string, answers map[string]string, submittedAt time.Time) error {
	query := "INSERT INTO questionnaire_answers (session_id, question_id, answer, submitted_at) VALUES (?, ?, ?, ?)"
	return r.db.WithTx(func(tx *database.Tx) error {
		for _, questionID := range slices.Sorted(maps.Keys(answers)) {
			if _, err := tx.Exec(query, sessionID, questionID, answers[questionID], submittedAt); err != nil {
				return fmt.Errorf("failed to save answer %s: %w", questionID, err)
			}
		}
		return nil
	})
}

// GetAnswers returns the stored answers and submission time; ok is false when none were submitted.
func (r *QuestionnaireRepository) GetAnswers(sessionID string) (answers map[string]string, submittedAt time.Time, ok bool, err error) {
	rows, err := r.db.Query("SELECT question_id, answer, submitted_at FROM questionnaire_answers WHERE session_id = ?", sessionID)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	answers = map[string]string{}
	for rows.Next() {
		var questionID, answer string
		if err := rows.Scan(&questionID, &answer, &submittedAt); err != nil {
			return nil, time.Time{}, false, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers[questionID] = answer
		ok = true
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, false, err
	}
	return answers, submittedAt, ok, nil
}
