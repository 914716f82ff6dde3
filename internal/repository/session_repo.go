package repository

import (
	"database/sql"
	"fmt"
	"time"

	"mindquest/internal/database"
	"mindquest/internal/models"
)

// SessionRepository handles database operations for assessment sessions
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession stores a new session header
func (r *SessionRepository) CreateSession(s models.AssessmentSession) error {
	query := `
		INSERT INTO assessment_sessions (id, name, age, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, s.ID, s.Profile.Name, s.Profile.Age, s.Profile.Avatar, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// UpdateProfile replaces the child's profile on a session
func (r *SessionRepository) UpdateProfile(id string, profile models.UserProfile, updatedAt time.Time) error {
	query := "UPDATE assessment_sessions SET name = ?, age = ?, avatar = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.Exec(query, profile.Name, profile.Age, profile.Avatar, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// Touch bumps the session's updated_at
func (r *SessionRepository) Touch(id string, updatedAt time.Time) error {
	if _, err := r.db.Exec("UPDATE assessment_sessions SET updated_at = ? WHERE id = ?", updatedAt, id); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// GetSession retrieves a session header by ID, nil when missing
func (r *SessionRepository) GetSession(id string) (*models.AssessmentSession, error) {
	query := "SELECT id, name, age, avatar, created_at, updated_at FROM assessment_sessions WHERE id = ?"
	s := &models.AssessmentSession{}
	err := r.db.QueryRow(query, id).Scan(
		&s.ID,
		&s.Profile.Name,
		&s.Profile.Age,
		&s.Profile.Avatar,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListSessions returns session headers, most recently updated first
func (r *SessionRepository) ListSessions(limit int) ([]models.AssessmentSession, error) {
	query := `
		SELECT id, name, age, avatar, created_at, updated_at
		FROM assessment_sessions
		ORDER BY updated_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.AssessmentSession{}
	for rows.Next() {
		var s models.AssessmentSession
		if err := rows.Scan(&s.ID, &s.Profile.Name, &s.Profile.Age, &s.Profile.Avatar, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
