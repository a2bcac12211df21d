package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/transcript"
)

// Loader reads batch items: local files or http(s) URLs.
// HTML is reduced to its visible text and WebVTT captions to their transcript.
type Loader struct {
	fetcher *Fetcher
}

// NewLoader creates a loader that downloads URLs with fetcher
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load returns the analysis request for item
func (l *Loader) Load(ctx context.Context, item string) (model.AnalysisRequest, error) {
	if strings.HasPrefix(item, "http://") || strings.HasPrefix(item, "https://") {
		result, err := l.fetcher.FetchWithRetry(ctx, item)
		if err != nil {
			return model.AnalysisRequest{}, err
		}
		return RequestFromContent(result.Body, result.ContentType, result.FinalURL)
	}

	data, err := os.ReadFile(item)
	if err != nil {
		return model.AnalysisRequest{}, fmt.Errorf("read file: %w", err)
	}
	return RequestFromContent(string(data), "", item)
}

// RequestFromContent builds a request from a document, using the content type
// or, failing that, the name's extension to tell captions and HTML from plain text.
func RequestFromContent(content, contentType, name string) (model.AnalysisRequest, error) {
	switch detectKind(content, contentType, name) {
	case "vtt":
		segments := transcript.ParseVTT(content)
		if len(segments) == 0 {
			return model.AnalysisRequest{}, fmt.Errorf("%s: no captions found", name)
		}
		return model.AnalysisRequest{Text: transcript.Join(segments), Source: model.SourceVideo}, nil
	case "html":
		text, err := extract.VisibleText(content)
		if err != nil {
			return model.AnalysisRequest{}, fmt.Errorf("%s: parse HTML: %w", name, err)
		}
		return model.AnalysisRequest{Text: text, Source: model.SourceText}, nil
	default:
		return model.AnalysisRequest{Text: content, Source: model.SourceText}, nil
	}
}

func detectKind(content, contentType, name string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/vtt"):
		return "vtt"
	case strings.Contains(ct, "html"):
		return "html"
	}

	// Strip any query string before looking at the extension
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".vtt":
		return "vtt"
	case ".html", ".htm":
		return "html"
	}

	if strings.HasPrefix(strings.TrimSpace(content), "WEBVTT") {
		return "vtt"
	}
	return "text"
}
