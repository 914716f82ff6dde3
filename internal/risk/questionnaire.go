package risk

import (
	"fmt"
	"sort"

	"mindquest/internal/models"
)

// Question is one item of the parent/teacher screening questionnaire
type Question struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Questions is the fixed screening questionnaire. Only the dyslexia,
// dyscalculia and ADHD items contribute to the baseline.
var Questions = []Question{
	{ID: "q1", Text: "Does the child often mix up similar-looking letters (like 'b' and 'd') or numbers (like '6' and '9')?", Category: "Dyslexia"},
	{ID: "q2", Text: "Is there difficulty reading analog clocks or estimating how much time has passed?", Category: "Dyscalculia"},
	{ID: "q3", Text: "Does the child often lose their place while reading or skip lines unintentionally?", Category: "Dyslexia"},
	{ID: "q4", Text: "Is it challenging to do mental math (like calculating change) without using fingers or paper?", Category: "Dyscalculia"},
	{ID: "q5", Text: "Does the child frequently make careless mistakes in schoolwork or overlook details?", Category: "ADHD"},
	{ID: "q6", Text: "Is there difficulty coordinating movements, such as catching a ball or tying shoelaces?", Category: "Dyspraxia"},
	{ID: "q7", Text: "Does the child struggle to follow multi-step oral instructions?", Category: "Auditory Processing"},
	{ID: "q8", Text: "Does the child seem easily distracted by extraneous stimuli?", Category: "ADHD"},
}

const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

var (
	dyslexiaQuestions    = [2]string{"q1", "q3"}
	dyscalculiaQuestions = [2]string{"q2", "q4"}
	adhdQuestions        = [2]string{"q5", "q8"}
)

// ScoreQuestionnaire counts "yes" answers per condition. Missing questions count as "no".
func ScoreQuestionnaire(answers map[string]string) (models.QuestionnaireScores, error) {
	if err := validateAnswers(answers); err != nil {
		return models.QuestionnaireScores{}, err
	}

	count := func(ids [2]string) int {
		n := 0
		for _, id := range ids {
			if answers[id] == AnswerYes {
				n++
			}
		}
		return n
	}

	return models.QuestionnaireScores{
		DyslexiaScore:    count(dyslexiaQuestions),
		DyscalculiaScore: count(dyscalculiaQuestions),
		ADHDScore:        count(adhdQuestions),
	}, nil
}

// BaselineIncrements converts questionnaire scores into per-condition starting risk
func BaselineIncrements(scores models.QuestionnaireScores) map[models.Condition]float64 {
	increment := func(score int) float64 {
		switch {
		case score >= 2:
			return 25
		case score >= 1:
			return 15
		}
		return 0
	}
	return map[models.Condition]float64{
		models.ConditionDyslexia:    increment(scores.DyslexiaScore),
		models.ConditionDyscalculia: increment(scores.DyscalculiaScore),
		models.ConditionADHD:        increment(scores.ADHDScore),
	}
}

func validateAnswers(answers map[string]string) error {
	known := make(map[string]bool, len(Questions))
	for _, q := range Questions {
		known[q.ID] = true
	}

	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !known[id] {
			return fmt.Errorf("%w: unknown question %q", models.ErrInvalidInput, id)
		}
		if a := answers[id]; a != AnswerYes && a != AnswerNo {
			return fmt.Errorf("%w: answer to %s must be yes or no, got %q", models.ErrInvalidInput, id, a)
		}
	}
	return nil
}
