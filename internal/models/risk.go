package models

import (
	"math"
	"time"
)

// Condition is one of the tracked learning-difference categories
type Condition string

const (
	ConditionDyslexia    Condition = "dyslexia"
	ConditionDyscalculia Condition = "dyscalculia"
	ConditionDysgraphia  Condition = "dysgraphia"
	ConditionADHD        Condition = "adhd"
	ConditionDyspraxia   Condition = "dyspraxia"
)

// AllConditions lists every condition in display order
var AllConditions = []Condition{
	ConditionDyslexia,
	ConditionDyscalculia,
	ConditionDysgraphia,
	ConditionADHD,
	ConditionDyspraxia,
}

// RiskLevel is the categorical label shown on dashboards
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskThresholds splits a 0-100 value into Low/Medium/High
type RiskThresholds struct {
	Medium float64
	High   float64
}

// LevelFor returns Low below Medium, Medium below High, else High
func (t RiskThresholds) LevelFor(value float64) RiskLevel {
	switch {
	case value < t.Medium:
		return RiskLow
	case value < t.High:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ConditionRiskState holds the per-condition risk values and the derived overall level
type ConditionRiskState struct {
	Dyslexia    float64   `json:"dyslexia"`
	Dyscalculia float64   `json:"dyscalculia"`
	Dysgraphia  float64   `json:"dysgraphia"`
	ADHD        float64   `json:"adhd"`
	Dyspraxia   float64   `json:"dyspraxia"`
	Overall     RiskLevel `json:"overall"`
}

// Get returns the value for a condition
func (s *ConditionRiskState) Get(c Condition) float64 {
	switch c {
	case ConditionDyslexia:
		return s.Dyslexia
	case ConditionDyscalculia:
		return s.Dyscalculia
	case ConditionDysgraphia:
		return s.Dysgraphia
	case ConditionADHD:
		return s.ADHD
	case ConditionDyspraxia:
		return s.Dyspraxia
	}
	return 0
}

// Set stores the value for a condition; unknown conditions are ignored
func (s *ConditionRiskState) Set(c Condition, v float64) {
	switch c {
	case ConditionDyslexia:
		s.Dyslexia = v
	case ConditionDyscalculia:
		s.Dyscalculia = v
	case ConditionDysgraphia:
		s.Dysgraphia = v
	case ConditionADHD:
		s.ADHD = v
	case ConditionDyspraxia:
		s.Dyspraxia = v
	}
}

// MaxValue returns the highest condition value
func (s *ConditionRiskState) MaxValue() float64 {
	max := 0.0
	for _, c := range AllConditions {
		max = math.Max(max, s.Get(c))
	}
	return max
}

// TopCondition returns the condition with the highest value, the first in display order on ties.
// ok is false when every value is zero.
func (s *ConditionRiskState) TopCondition() (top Condition, ok bool) {
	best := 0.0
	for _, c := range AllConditions {
		if v := s.Get(c); v > best {
			best, top, ok = v, c, true
		}
	}
	return top, ok
}

// Clamp forces every value into [0, limit]
func (s *ConditionRiskState) Clamp(limit float64) {
	for _, c := range AllConditions {
		s.Set(c, math.Min(math.Max(s.Get(c), 0), limit))
	}
}

// RiskSnapshot is the persisted risk state after one mutation
type RiskSnapshot struct {
	ID        int64              `json:"id"`
	SessionID string             `json:"sessionId"`
	Event     string             `json:"event"`
	State     ConditionRiskState `json:"state"`
	CreatedAt time.Time          `json:"createdAt"`
}
