package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mindquest/internal/models"
	"mindquest/internal/risk"
)

// NewScoreCmd creates the 'score' command for scoring a single game result.
func NewScoreCmd() *cobra.Command {
	var (
		gameID     string
		score      int
		grade      string
		correct    int
		incorrect  int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one completed game",
		Example: `  riskctl score --game numberNinja --score 40 --grade F --correct 2 --incorrect 8
  riskctl score --game focusFlight --score 320 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := models.GameResult{
				GameID: models.GameID(gameID),
				Score:  score,
				Grade:  models.Grade(grade),
			}
			// accuracy only counts when both totals are given
			if cmd.Flags().Changed("correct") && cmd.Flags().Changed("incorrect") {
				result.Correct = &correct
				result.Incorrect = &incorrect
			}
			if err := risk.ValidateResult(result); err != nil {
				return err
			}

			sessionRisk := risk.ScoreSession(result)
			level := risk.SessionRiskLevel(sessionRisk)
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"gameId":      result.GameID,
					"sessionRisk": sessionRisk,
					"riskLevel":   level,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: risk %d (%s)\n", result.GameID, sessionRisk, level)
			return nil
		},
	}

	cmd.Flags().StringVarP(&gameID, "game", "g", "", "Game id (e.g. numberNinja)")
	cmd.Flags().IntVar(&score, "score", 0, "Raw game score")
	cmd.Flags().StringVar(&grade, "grade", "", "Letter grade (S, A, B, C, D, F)")
	cmd.Flags().IntVar(&correct, "correct", 0, "Correct answers")
	cmd.Flags().IntVar(&incorrect, "incorrect", 0, "Incorrect answers")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("game")

	return cmd
}
