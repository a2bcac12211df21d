package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/pipeline"
)

var (
	analyzeFile    string
	analyzeURL     string
	analyzeSource  string
	analyzeJSON    bool
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Fact-check text, a file, a web page or a caption file",
	Long: `Analyze identifies the checkable factual claims in its input and prints a
verdict and explanation for each.

Input is read from, in order: the arguments, --file, --url, or stdin.
Files and URLs ending in .vtt (or served as text/vtt) are treated as video
captions; HTML is reduced to its visible text.

Example:
  claimcheck analyze "The Earth is flat and the sky is green."
  claimcheck analyze --file speech.txt --json
  claimcheck analyze --url https://example.com/captions.vtt
  echo "Water boils at 50 C at sea level." | claimcheck analyze`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "read input from a file (.txt, .html, .vtt)")
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "fetch input from a URL")
	analyzeCmd.Flags().StringVar(&analyzeSource, "source", "", "override the input source: text or video")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full result as JSON")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, verbose)

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	req, err := readAnalyzeInput(ctx, a.fetcher, args, analyzeFile, analyzeURL, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if analyzeSource != "" {
		req.Source = analyzeSource
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %d characters with %s...\n", len([]rune(req.Text)), a.provider.Name())
	}

	result, err := a.pipeline.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

// readAnalyzeInput picks the input source by precedence: args, file, URL, stdin
func readAnalyzeInput(ctx context.Context, fetcher *pipeline.Fetcher, args []string, file, rawURL string, stdin io.Reader) (model.AnalysisRequest, error) {
	switch {
	case len(args) > 0:
		return model.AnalysisRequest{Text: strings.Join(args, " "), Source: model.SourceText}, nil
	case file != "" || rawURL != "":
		item := file
		if item == "" {
			item = rawURL
		}
		return pipeline.NewLoader(fetcher).Load(ctx, item)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return model.AnalysisRequest{}, fmt.Errorf("read stdin: %w", err)
		}
		return pipeline.RequestFromContent(string(data), "", "stdin")
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult renders a result for people reading a terminal
func printResult(w io.Writer, result *model.AnalysisResult) {
	if len(result.Claims) == 0 {
		fmt.Fprintln(w, "No checkable claims found.")
	}

	for i, c := range result.Claims {
		confidence := ""
		if c.Confidence != nil {
			confidence = fmt.Sprintf(" (%d%%)", *c.Confidence)
		}
		fmt.Fprintf(w, "[%d] %s%s %s\n", i+1, verdictLabel(c.Verdict), confidence, c.Text)
		if c.Explanation != "" {
			fmt.Fprintf(w, "    %s\n", c.Explanation)
		}
		for _, s := range c.Sources {
			status := ""
			if s.Accessible != nil && !*s.Accessible {
				status = ", unreachable"
			}
			fmt.Fprintf(w, "    - %s [%s%s]\n", s.URL, s.Authority, status)
		}
	}

	b := result.Breakdown
	fmt.Fprintf(w, "\n%d claims: %d true, %d false, %d unverifiable", b.Total, b.True, b.False, b.Unverifiable)
	if b.AccuracyIndex != nil {
		fmt.Fprintf(w, " (accuracy %d/100)", *b.AccuracyIndex)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s/%s, %s\n", result.Provider, result.Model, result.ID)
}

func verdictLabel(v model.Verdict) string {
	switch v {
	case model.VerdictTrue:
		return "TRUE"
	case model.VerdictFalse:
		return "FALSE"
	default:
		return "UNVERIFIABLE"
	}
}
