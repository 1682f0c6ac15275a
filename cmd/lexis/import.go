package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/deck"
	"github.com/spf13/cobra"
)

var (
	importLearner string
	importDryRun  bool
)

func init() {
	importCmd.Flags().StringVar(&importLearner, "learner", "", "learner id the deck belongs to")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and validate the deck without writing")
	_ = importCmd.MarkFlagRequired("learner")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <deck.yaml>",
	Short: "Import a YAML deck for a learner",
	Long: `Import a YAML deck for a learner, replacing the learner's study groups.
Words the learner already has keep their scheduling state.

Usage:
  lexis import --learner 6f1c... decks/weather.yaml
  lexis import --learner 6f1c... decks/weather.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// deckSummary is printed by --dry-run.
type deckSummary struct {
	Name   string         `json:"name,omitempty"`
	Words  int            `json:"words"`
	Groups []groupSummary `json:"groups"`
}

type groupSummary struct {
	Label string `json:"label"`
	Words int    `json:"words"`
}

func runImport(cmd *cobra.Command, args []string) error {
	learnerID, err := uuid.Parse(importLearner)
	if err != nil {
		return withExitCode(ExitDataError, fmt.Errorf("invalid learner id: %w", err))
	}

	d, err := deck.Load(args[0])
	if err != nil {
		return withExitCode(ExitDataError, err)
	}
	inputs := d.Inputs()

	if importDryRun {
		summary := deckSummary{Name: d.Name, Words: d.WordCount()}
		for _, g := range inputs {
			summary.Groups = append(summary.Groups, groupSummary{Label: g.Label, Words: len(g.Cards)})
		}
		return outputJSON(summary)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := newApplication(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	result, err := app.cardService.ImportDeck(cmd.Context(), learnerID, inputs)
	if err != nil {
		return err
	}
	return outputJSON(result)
}

// outputJSON writes v as indented JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
