package repository

import (
	"database/sql"
	"fmt"

	"mindquest/internal/database"
	"mindquest/internal/models"
)

// RiskSnapshotRepository stores the risk state after each mutation
type RiskSnapshotRepository struct {
	db database.DBTX
}

// NewRiskSnapshotRepository creates a new risk snapshot repository
func NewRiskSnapshotRepository(db database.DBTX) *RiskSnapshotRepository {
	return &RiskSnapshotRepository{db: db}
}

// InsertSnapshot appends a snapshot and returns its ID
func (r *RiskSnapshotRepository) InsertSnapshot(snap models.RiskSnapshot) (int64, error) {
	query := `
		INSERT INTO risk_snapshots
			(session_id, event, dyslexia, dyscalculia, dysgraphia, adhd, dyspraxia, overall, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	s := snap.State
	id, err := r.db.ExecReturningID(query, snap.SessionID, snap.Event,
		s.Dyslexia, s.Dyscalculia, s.Dysgraphia, s.ADHD, s.Dyspraxia, string(s.Overall), snap.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert risk snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recent snapshot of a session, nil when none exist
func (r *RiskSnapshotRepository) LatestSnapshot(sessionID string) (*models.RiskSnapshot, error) {
	query := `
		SELECT id, session_id, event, dyslexia, dyscalculia, dysgraphia, adhd, dyspraxia, overall, created_at
		FROM risk_snapshots
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	snap, err := scanSnapshot(r.db.QueryRow(query, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns up to limit snapshots of a session, oldest first
func (r *RiskSnapshotRepository) ListSnapshots(sessionID string, limit int) ([]models.RiskSnapshot, error) {
	query := `
		SELECT id, session_id, event, dyslexia, dyscalculia, dysgraphia, adhd, dyspraxia, overall, created_at
		FROM risk_snapshots
		WHERE session_id = ?
		ORDER BY id ASC
		LIMIT ?
	`
	rows, err := r.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []models.RiskSnapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*models.RiskSnapshot, error) {
	var (
		snap    models.RiskSnapshot
		overall string
	)
	err := row.Scan(&snap.ID, &snap.SessionID, &snap.Event,
		&snap.State.Dyslexia, &snap.State.Dyscalculia, &snap.State.Dysgraphia, &snap.State.ADHD, &snap.State.Dyspraxia,
		&overall, &snap.CreatedAt)
	if err != nil {
		return nil, err
	}
	snap.State.Overall = models.RiskLevel(overall)
	return &snap, nil
}
