/*
Package main is the entry point for riskctl.

riskctl runs the MindQuest risk engine offline: it replays scripted
assessments and scores single game results without a server or database.

Usage:

	riskctl [command]

Available Commands:

	replay      Replay a scripted assessment and print the dashboard
	score       Score one completed game
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mindquest/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "riskctl",
		Short:        "Offline tools for the MindQuest risk engine",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.NewReplayCmd())
	rootCmd.AddCommand(cli.NewScoreCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
