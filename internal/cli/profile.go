package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the authenticated player's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Get("/api/v1/profile", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newProgressCmd() *cobra.Command {
	var (
		level  int
		xp     int64
		coins  int64
		gems   int64
		troops []string
	)

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Update the authenticated player's progress",
		Long: `Send a partial progress update. Only the flags you pass are applied;
the server derives the stored level from XP and never lowers it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			update := map[string]any{}
			if cmd.Flags().Changed("level") {
				update["level"] = level
			}
			if cmd.Flags().Changed("xp") {
				update["xp"] = xp
			}
			if cmd.Flags().Changed("coins") {
				update["coins"] = coins
			}
			if cmd.Flags().Changed("gems") {
				update["gems"] = gems
			}
			if cmd.Flags().Changed("troops") {
				update["troops_unlocked"] = troops
			}
			if len(update) == 0 {
				return fmt.Errorf("at least one of --level, --xp, --coins, --gems, --troops is required")
			}

			var result Profile
			if err := client.Put("/api/v1/progress", update, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&level, "level", 0, "Client-side level hint")
	cmd.Flags().Int64Var(&xp, "xp", 0, "Total experience points")
	cmd.Flags().Int64Var(&coins, "coins", 0, "Coin balance")
	cmd.Flags().Int64Var(&gems, "gems", 0, "Gem balance")
	cmd.Flags().StringSliceVar(&troops, "troops", nil, "Unlocked troop names (comma-separated)")

	return cmd
}

func newMigrateCmd() *cobra.Command {
	var progressFile string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate guest progress onto the authenticated account",
		Long: `Bind the authenticated identity to a server-side account and optionally
carry over locally saved progress. Pass --progress with a JSON file (or "-"
for stdin) holding the progress snapshot to migrate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}

			if progressFile != "" {
				var data []byte
				var err error
				if progressFile == "-" {
					data, err = io.ReadAll(os.Stdin)
				} else {
					data, err = os.ReadFile(progressFile)
				}
				if err != nil {
					return fmt.Errorf("failed to read progress file: %w", err)
				}

				var progress map[string]any
				if err := json.Unmarshal(data, &progress); err != nil {
					return fmt.Errorf("invalid progress JSON: %w", err)
				}
				req["progress"] = progress
			}

			var result MigrateResult
			if err := client.Post("/api/v1/migrate", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&progressFile, "progress", "", "JSON file with the progress snapshot (\"-\" for stdin)")

	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get("/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}