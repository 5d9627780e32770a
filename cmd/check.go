package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarasa-labs/sarasa-checker/internal/checker"
)

var checkIdentity string

var checkCmd = &cobra.Command{
	Use:   "check <claim or link>",
	Short: "Run a single verification from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initChecker(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Checker.Check(ctx, checker.Request{
			RawQuery:       strings.Join(args, " "),
			ClientIdentity: checkIdentity,
		})
		if err != nil {
			return eris.Wrap(err, "check")
		}

		zap.L().Info("check complete",
			zap.String("key", result.Key),
			zap.Bool("cached", result.Cached),
			zap.String("verdict", string(result.Verdict.Verdict)),
			zap.Int("smoke_level", result.Verdict.SmokeLevel),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Verdict)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkIdentity, "identity", "cli", "rate-limit identity for this request")
	rootCmd.AddCommand(checkCmd)
}
