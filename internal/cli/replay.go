package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mindquest/internal/assessment"
	"mindquest/internal/logger"
)

// NewReplayCmd creates the 'replay' command for running a scenario file through the risk engine.
func NewReplayCmd() *cobra.Command {
	var summaryOnly bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scripted assessment and print the dashboard",
		Long: `Replay feeds the profile, questionnaire and ordered events of a YAML
scenario into a fresh assessment session and prints the resulting dashboard.`,
		Example: `  riskctl replay scenarios/focus.yaml
  riskctl replay scenarios/focus.yaml --summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}

			log := logger.Nop()
			if verbose {
				if log, err = logger.New("dev"); err != nil {
					return err
				}
				defer log.Sync()
			}

			sess, err := sc.Replay(log)
			if err != nil {
				return err
			}
			d := sess.Dashboard()
			if summaryOnly {
				return printSummary(cmd.OutOrStdout(), d)
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().BoolVarP(&summaryOnly, "summary", "s", false, "Print a plain-text summary instead of JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log engine decisions to stderr")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, d assessment.Dashboard) error {
	fmt.Fprintf(w, "Overall: %s\n", d.Risk.Overall)
	fmt.Fprintf(w, "  dyslexia     %5.1f\n", d.Risk.Dyslexia)
	fmt.Fprintf(w, "  dyscalculia  %5.1f\n", d.Risk.Dyscalculia)
	fmt.Fprintf(w, "  dysgraphia   %5.1f\n", d.Risk.Dysgraphia)
	fmt.Fprintf(w, "  adhd         %5.1f\n", d.Risk.ADHD)
	fmt.Fprintf(w, "  dyspraxia    %5.1f\n", d.Risk.Dyspraxia)
	if d.HighAttention {
		fmt.Fprintln(w, "High attention performance: ADHD risk suppressed")
	}
	for _, ind := range d.Summary {
		fmt.Fprintf(w, "- %s: %s\n", ind.Area, ind.Condition)
	}
	return nil
}
