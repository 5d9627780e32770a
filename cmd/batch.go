package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sarasa-labs/sarasa-checker/internal/checker"
)

var (
	batchFile        string
	batchConcurrency int
	batchIdentity    string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Verify a file of claims and links, one per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queries, err := readQueries(batchFile)
		if err != nil {
			return err
		}

		env, err := initChecker(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, queries, batchConcurrency, func(ctx context.Context, query string) (*checker.Result, error) {
			return env.Checker.Check(ctx, checker.Request{
				RawQuery:       query,
				ClientIdentity: batchIdentity,
			})
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "path to a file of claims/links, one per line (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "max concurrent checks")
	batchCmd.Flags().StringVar(&batchIdentity, "identity", "batch", "rate-limit identity for these requests")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// readQueries loads non-empty, non-comment lines from path.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open batch file")
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read batch file")
	}
	return queries, nil
}

// checkFunc is the callback signature for verifying a single query.
type checkFunc func(ctx context.Context, query string) (*checker.Result, error)

// processBatch runs checks concurrently. Individual failures are logged and
// do not abort the batch.
func processBatch(ctx context.Context, queries []string, concurrency int, check checkFunc) error {
	if len(queries) == 0 {
		zap.L().Info("no queries to process")
		return nil
	}

	zap.L().Info("processing batch",
		zap.Int("queries", len(queries)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed, cached atomic.Int64

	for _, query := range queries {
		g.Go(func() error {
			log := zap.L().With(zap.String("query", query))

			result, err := check(gctx, query)
			if err != nil {
				failed.Add(1)
				log.Error("check failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			if result.Cached {
				cached.Add(1)
			}
			log.Info("check complete",
				zap.String("verdict", string(result.Verdict.Verdict)),
				zap.Int("smoke_level", result.Verdict.SmokeLevel),
				zap.Bool("cached", result.Cached),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("cached", cached.Load()),
	)
	return nil
}
