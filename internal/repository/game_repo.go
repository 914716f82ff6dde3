package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"mindquest/internal/database"
	"mindquest/internal/models"
)

// GameResultRepository stores the append-only game history
type GameResultRepository struct {
	db database.DBTX
}

// NewGameResultRepository creates a new game result repository
func NewGameResultRepository(db database.DBTX) *GameResultRepository {
	return &GameResultRepository{db: db}
}

// InsertResult appends one finished game to the history
func (r *GameResultRepository) InsertResult(sessionID string, entry models.GameHistoryEntry, level models.RiskLevel) (int64, error) {
	var emotionJSON sql.NullString
	if entry.Emotion != nil {
		data, err := json.Marshal(entry.Emotion)
		if err != nil {
			return 0, fmt.Errorf("failed to encode emotion snapshot: %w", err)
		}
		emotionJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO game_results
			(session_id, game_id, score, grade, correct, incorrect, risk_score, risk_level, emotion_json, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		sessionID,
		string(entry.Result.GameID),
		entry.Result.Score,
		string(entry.Result.Grade),
		nullInt(entry.Result.Correct),
		nullInt(entry.Result.Incorrect),
		entry.RiskScore,
		string(level),
		emotionJSON,
		entry.PlayedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert game result: %w", err)
	}
	return id, nil
}

// ListHistory returns the history of one game in play order
func (r *GameResultRepository) ListHistory(sessionID string, gameID models.GameID) ([]models.GameHistoryEntry, error) {
	query := `
		SELECT game_id, score, grade, correct, incorrect, risk_score, emotion_json, played_at
		FROM game_results
		WHERE session_id = ? AND game_id = ?
		ORDER BY id ASC
	`
	return r.list(query, sessionID, string(gameID))
}

// ListAll returns every game of a session in play order
func (r *GameResultRepository) ListAll(sessionID string) ([]models.GameHistoryEntry, error) {
	query := `
		SELECT game_id, score, grade, correct, incorrect, risk_score, emotion_json, played_at
		FROM game_results
		WHERE session_id = ?
		ORDER BY id ASC
	`
	return r.list(query, sessionID)
}

func (r *GameResultRepository) list(query string, args ...interface{}) ([]models.GameHistoryEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query game results: %w", err)
	}
	defer rows.Close()

	entries := []models.GameHistoryEntry{}
	for rows.Next() {
		var (
			entry              models.GameHistoryEntry
			gameID, grade      string
			correct, incorrect sql.NullInt64
			emotionJSON        sql.NullString
		)
		if err := rows.Scan(&gameID, &entry.Result.Score, &grade, &correct, &incorrect,
			&entry.RiskScore, &emotionJSON, &entry.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game result: %w", err)
		}
		entry.Result.GameID = models.GameID(gameID)
		entry.Result.Grade = models.Grade(grade)
		entry.Result.Correct = intFromNull(correct)
		entry.Result.Incorrect = intFromNull(incorrect)
		if emotionJSON.Valid {
			var metrics models.EmotionMetrics
			if err := json.Unmarshal([]byte(emotionJSON.String), &metrics); err != nil {
				return nil, fmt.Errorf("failed to decode emotion snapshot: %w", err)
			}
			entry.Emotion = &metrics
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
