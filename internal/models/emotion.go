package models

import "time"

// EmotionLabel is a discrete emotion reported by the emotion sensor
type EmotionLabel string

const (
	EmotionHappy     EmotionLabel = "happy"
	EmotionNeutral   EmotionLabel = "neutral"
	EmotionSad       EmotionLabel = "sad"
	EmotionFearful   EmotionLabel = "fearful"
	EmotionSurprised EmotionLabel = "surprised"
	EmotionAngry     EmotionLabel = "angry"
	EmotionDisgusted EmotionLabel = "disgusted"
)

// AllEmotions lists every label the sensor may report
var AllEmotions = []EmotionLabel{
	EmotionHappy,
	EmotionNeutral,
	EmotionSad,
	EmotionFearful,
	EmotionSurprised,
	EmotionAngry,
	EmotionDisgusted,
}

// IsValid reports whether the label belongs to the known set
func (e EmotionLabel) IsValid() bool {
	switch e {
	case EmotionHappy, EmotionNeutral, EmotionSad, EmotionFearful,
		EmotionSurprised, EmotionAngry, EmotionDisgusted:
		return true
	}
	return false
}

// IsPositive reports membership in the positive/neutral partition
func (e EmotionLabel) IsPositive() bool {
	return e == EmotionHappy || e == EmotionNeutral || e == EmotionSurprised
}

// IsNegative reports membership in the negative partition
func (e EmotionLabel) IsNegative() bool {
	return e == EmotionSad || e == EmotionFearful || e == EmotionDisgusted || e == EmotionAngry
}

// IsConfusion reports whether the label counts as a confusion state
func (e EmotionLabel) IsConfusion() bool {
	return e == EmotionFearful || e == EmotionDisgusted
}

// EmotionObservation is a single sensor reading
type EmotionObservation struct {
	Label     EmotionLabel `json:"label"`
	Timestamp time.Time    `json:"timestamp"`
}

// PatternCounters accumulate emotion patterns for the lifetime of a tracker
type PatternCounters struct {
	RapidChanges        int `json:"rapidChanges"`
	NegativeTransitions int `json:"negativeTransitions"`
	ConfusionStates     int `json:"confusionStates"`
}

// EmotionMetrics is a read-only snapshot of the tracker state
type EmotionMetrics struct {
	PatternCounters
	CurrentEmotion  EmotionLabel   `json:"currentEmotion"`
	PreviousEmotion EmotionLabel   `json:"previousEmotion"`
	History         []EmotionLabel `json:"history"`
	SensorAvailable bool           `json:"sensorAvailable"`
}

// Clone returns a deep copy; nil stays nil
func (m *EmotionMetrics) Clone() *EmotionMetrics {
	if m == nil {
		return nil
	}
	c := *m
	c.History = make([]EmotionLabel, len(m.History))
	copy(c.History, m.History)
	return &c
}
