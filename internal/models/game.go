package models

import "time"

// GameID identifies one of the mini-games in the suite
type GameID string

const (
	GameLexicalLegends    GameID = "lexicalLegends"
	GameTreasureHunter    GameID = "treasureHunter"
	GameNumberNinja       GameID = "numberNinja"
	GameDefenderChallenge GameID = "defenderChallenge"
	GameMatrixReasoning   GameID = "matrixReasoning"
	GameSpatialRecall     GameID = "spatialRecall"
	GameMemoryQuest       GameID = "memoryQuest"
	GameFocusFlight       GameID = "focusFlight"
	GameVoidChallenge     GameID = "voidChallenge"
	GameBridgeGame        GameID = "bridgeGame"
	GameWarpExplorer      GameID = "warpExplorer"
)

// AllGames lists every known game in display order
var AllGames = []GameID{
	GameLexicalLegends,
	GameTreasureHunter,
	GameNumberNinja,
	GameDefenderChallenge,
	GameMatrixReasoning,
	GameSpatialRecall,
	GameMemoryQuest,
	GameFocusFlight,
	GameVoidChallenge,
	GameBridgeGame,
	GameWarpExplorer,
}

// IsValid reports whether the id names a known game
func (g GameID) IsValid() bool {
	for _, id := range AllGames {
		if id == g {
			return true
		}
	}
	return false
}

// IsAttentionGame reports whether the game measures sustained attention
func (g GameID) IsAttentionGame() bool {
	return g == GameFocusFlight || g == GameVoidChallenge
}

// Grade is the letter grade a game assigns to a play-through
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// IsValid reports whether the grade is known; the empty grade means absent
func (g Grade) IsValid() bool {
	switch g {
	case "", GradeS, GradeA, GradeB, GradeC, GradeD, GradeF:
		return true
	}
	return false
}

// TaskType is the skill an individual task item exercises
type TaskType string

const (
	TaskReading   TaskType = "reading"
	TaskNumber    TaskType = "number"
	TaskWriting   TaskType = "writing"
	TaskAttention TaskType = "attention"
)

// IsValid reports whether the task type is known
func (t TaskType) IsValid() bool {
	switch t {
	case TaskReading, TaskNumber, TaskWriting, TaskAttention:
		return true
	}
	return false
}

// TaskAttempt is one answered item inside a mini-game
type TaskAttempt struct {
	TaskType         TaskType `json:"taskType"`
	Difficulty       int      `json:"difficulty"`
	IsCorrect        bool     `json:"isCorrect"`
	TimeSpentSeconds float64  `json:"timeSpentSeconds"`
}

// GameResult is the raw outcome of one completed mini-game.
// Correct and Incorrect are optional; accuracy only applies when both are set.
type GameResult struct {
	GameID    GameID `json:"gameId"`
	Score     int    `json:"score"`
	Grade     Grade  `json:"grade,omitempty"`
	Correct   *int   `json:"correct,omitempty"`
	Incorrect *int   `json:"incorrect,omitempty"`
}

// Clone copies the result so the optional counts are not shared
func (r GameResult) Clone() GameResult {
	if r.Correct != nil {
		v := *r.Correct
		r.Correct = &v
	}
	if r.Incorrect != nil {
		v := *r.Incorrect
		r.Incorrect = &v
	}
	return r
}

// GameHistoryEntry is an append-only snapshot of a completed play-through
type GameHistoryEntry struct {
	PlayedAt  time.Time       `json:"playedAt"`
	Result    GameResult      `json:"result"`
	RiskScore int             `json:"riskScore"`
	Emotion   *EmotionMetrics `json:"emotion,omitempty"`
}

// Clone returns a copy of the entry sharing no pointers or slices with it
func (e GameHistoryEntry) Clone() GameHistoryEntry {
	e.Result = e.Result.Clone()
	e.Emotion = e.Emotion.Clone()
	return e
}

// GameStat holds the latest play-through of a game plus its full history
type GameStat struct {
	Played    bool               `json:"played"`
	Score     int                `json:"score"`
	Grade     Grade              `json:"grade,omitempty"`
	Correct   int                `json:"correct"`
	Incorrect int                `json:"incorrect"`
	RiskScore int                `json:"riskScore"`
	RiskLevel RiskLevel          `json:"riskLevel"`
	History   []GameHistoryEntry `json:"history"`
}

// GameStats maps every game to its stats
type GameStats map[GameID]*GameStat

// NewGameStats initializes all games as not played
func NewGameStats() GameStats {
	stats := make(GameStats, len(AllGames))
	for _, id := range AllGames {
		stats[id] = &GameStat{RiskLevel: RiskLow, History: []GameHistoryEntry{}}
	}
	return stats
}

// Clone returns a deep copy safe to hand to readers
func (s GameStats) Clone() GameStats {
	out := make(GameStats, len(s))
	for id, stat := range s {
		if stat == nil {
			continue
		}
		c := *stat
		c.History = make([]GameHistoryEntry, len(stat.History))
		for i, h := range stat.History {
			c.History[i] = h.Clone()
		}
		out[id] = &c
	}
	return out
}

// ScoreOf returns the latest score recorded for a game, zero if never played
func (s GameStats) ScoreOf(id GameID) int {
	if stat, ok := s[id]; ok {
		return stat.Score
	}
	return 0
}

// AttemptRisk is the risk contribution of one answered task item
type AttemptRisk struct {
	TotalRisk int `json:"totalRisk"`
	ADHDRisk  int `json:"adhdRisk"`
}
