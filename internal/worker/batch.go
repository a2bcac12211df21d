package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Analyzer runs one analysis
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error)
}

// Loader turns a batch item (a file path or URL) into an analysis request
type Loader interface {
	Load(ctx context.Context, item string) (model.AnalysisRequest, error)
}

// AnalyzeJob represents the analysis of one batch item
type AnalyzeJob struct {
	Index    int
	Item     string
	Loader   Loader
	Analyzer Analyzer
}

// Execute loads and analyzes the item
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	req, err := j.Loader.Load(ctx, j.Item)
	if err != nil {
		return &ItemResult{Index: j.Index, Item: j.Item, Error: fmt.Errorf("load %s: %w", j.Item, err)}
	}

	result, err := j.Analyzer.Analyze(ctx, req)
	if err != nil {
		return &ItemResult{Index: j.Index, Item: j.Item, Error: err}
	}
	return &ItemResult{Index: j.Index, Item: j.Item, Result: result}
}

// ItemResult represents the result of one batch item
type ItemResult struct {
	Index  int
	Item   string
	Result *model.AnalysisResult
	Error  error
}

// GetError returns the error from the item result
func (r *ItemResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple items concurrently
type BatchProcessor struct {
	loader      Loader
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(loader Loader, analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		loader:      loader,
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// Process analyzes items concurrently and returns results in input order.
// Items never reached because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) Process(ctx context.Context, items []string) []*ItemResult {
	out := make([]*ItemResult, len(items))
	if len(items) == 0 {
		return out
	}

	jobs := make([]Job, len(items))
	for i, item := range items {
		jobs[i] = &AnalyzeJob{Index: i, Item: item, Loader: b.loader, Analyzer: b.analyzer}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, r := range pool.Run(jobs) {
		res := r.(*ItemResult)
		out[res.Index] = res
	}

	for i, item := range items {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &ItemResult{Index: i, Item: item, Error: err}
		}
	}

	return out
}

// ProcessFile reads items from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ItemResult, error) {
	items, err := ReadLines(filePath)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	return b.Process(ctx, items), nil
}

// ReadLines reads batch items from a file (one per line), skipping blanks,
// # comments and duplicates
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var items []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			items = append(items, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return items, nil
}
