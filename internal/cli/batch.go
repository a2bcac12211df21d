package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimcheck/internal/pipeline"
	"github.com/ppiankov/claimcheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many files and URLs in parallel",
	Long: `Batch analyzes every item listed in a file (one path or URL per line,
# comments and blank lines ignored) and writes one JSON result per item.

Provider calls are not retried; a failed item is reported and the batch goes on.

Example:
  claimcheck batch items.txt
  claimcheck batch items.txt --concurrency 8 --output-dir ./results`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent analyses")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimcheck-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, verbose)

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", a.provider.Name())
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(pipeline.NewLoader(a.fetcher), a.pipeline, concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	failures := writeBatchResults(outputDir, results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d items\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", len(results)-failures)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "\n")

	if failures > 0 && failures == len(results) {
		return fmt.Errorf("all %d items failed", failures)
	}
	return nil
}

// writeBatchResults writes one JSON file per successful item and returns the failure count
func writeBatchResults(dir string, results []*worker.ItemResult) int {
	failures := 0
	for _, r := range results {
		if r.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Item, r.Error)
			continue
		}

		path := filepath.Join(dir, fmt.Sprintf("%03d-%s.json", r.Index+1, sanitizeFilename(r.Item)))
		f, err := os.Create(path)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Item, err)
			continue
		}
		err = writeJSON(f, r.Result)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write result: %v\n", r.Item, err)
			continue
		}

		b := r.Result.Breakdown
		fmt.Fprintf(os.Stderr, "✓ %s (%d claims, %d false)\n", r.Item, b.Total, b.False)
	}
	return failures
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename turns a path or URL into a short file name stem
func sanitizeFilename(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	s = strings.TrimSuffix(s, filepath.Ext(s))
	s = strings.Trim(unsafeFilenameChars.ReplaceAllString(s, "_"), "_.")
	if s == "" {
		s = "item"
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
