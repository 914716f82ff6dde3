package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinProfileAge = 4
	MaxProfileAge = 18
)

// UserProfile is the child playing the games
type UserProfile struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Avatar string `json:"avatar"`
}

// Validate checks the profile fields
func (p UserProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.Age < MinProfileAge || p.Age > MaxProfileAge {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidInput, MinProfileAge, MaxProfileAge)
	}
	return nil
}

// AssessmentSession is the persisted header of one child's assessment
type AssessmentSession struct {
	ID        string
	Profile   UserProfile
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuestionnaireScores are the per-condition counts of "yes" answers
type QuestionnaireScores struct {
	DyslexiaScore    int `json:"dyslexiaScore"`
	DyscalculiaScore int `json:"dyscalculiaScore"`
	ADHDScore        int `json:"adhdScore"`
}

// QuestionnaireRecord keeps the submitted answers together with their scores
type QuestionnaireRecord struct {
	Answers     map[string]string   `json:"answers"`
	Scores      QuestionnaireScores `json:"scores"`
	SubmittedAt time.Time           `json:"submittedAt"`
}
