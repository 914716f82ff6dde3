package repository

import "mindquest/internal/database"

// Store groups the repositories one assessment service needs
type Store struct {
	*SessionRepository
	*QuestionnaireRepository
	*GameResultRepository
	*RiskSnapshotRepository
}

// NewStore builds every repository over the same connection
func NewStore(db *database.DB) *Store {
	return &Store{
		SessionRepository:       NewSessionRepository(db),
		QuestionnaireRepository: NewQuestionnaireRepository(db),
		GameResultRepository:    NewGameResultRepository(db),
		RiskSnapshotRepository:  NewRiskSnapshotRepository(db),
	}
}
