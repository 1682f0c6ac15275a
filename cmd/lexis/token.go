package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/service/auth"
	"github.com/spf13/cobra"
)

var tokenLearner string

func init() {
	tokenCmd.Flags().StringVar(&tokenLearner, "learner", "", "learner id (default: a new random id)")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a learner",
	Long: `Issue an access token for a learner. Learner accounts live outside
lexis; this is how operators and local development obtain a bearer token.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	learnerID := uuid.New()
	if tokenLearner != "" {
		learnerID, err = uuid.Parse(tokenLearner)
		if err != nil {
			return withExitCode(ExitDataError, fmt.Errorf("invalid learner id: %w", err))
		}
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	token, err := jwtService.GenerateToken(cmd.Context(), learnerID)
	if err != nil {
		return err
	}
	return outputJSON(map[string]string{
		"learner_id": learnerID.String(),
		"token":      token,
	})
}
