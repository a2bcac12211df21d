// Package transcript turns WebVTT captions into timed segments and ties claims back to them.
package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/model"
)

// timestampPart matches one field of a timestamp: decimal digits with an optional fraction
var timestampPart = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// MinSegmentSeconds is the shortest span a segment covers before the next one starts
const MinSegmentSeconds = 5.0

type caption struct {
	text       string
	start, end float64
}

// ParseVTT parses WebVTT content into segments of at least MinSegmentSeconds
// (the last one may be shorter). Cue settings and inline tags are dropped;
// cues with unparsable timestamps are skipped.
func ParseVTT(content string) []model.Segment {
	return group(parseCaptions(content))
}

func parseCaptions(content string) []caption {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(content), "\n")

	var captions []caption
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, "-->") {
			// Header, NOTE and STYLE blocks, cue identifiers, stray text
			continue
		}

		start, end, err := parseTiming(line)

		var text []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			if t := extract.StripTags(strings.TrimSpace(lines[i])); t != "" {
				text = append(text, t)
			}
		}

		if err != nil || len(text) == 0 {
			continue
		}
		captions = append(captions, caption{text: strings.Join(text, " "), start: start, end: end})
	}
	return captions
}

func group(captions []caption) []model.Segment {
	var segments []model.Segment

	for i := 0; i < len(captions); {
		start := captions[i].start
		end := captions[i].end
		var text []string

		for i < len(captions) {
			text = append(text, captions[i].text)
			end = captions[i].end
			i++
			if end-start >= MinSegmentSeconds {
				break
			}
		}

		segments = append(segments, model.Segment{
			ID:        fmt.Sprintf("seg_%d", len(segments)),
			Text:      strings.Join(text, " "),
			StartTime: start,
			EndTime:   end,
		})
	}
	return segments
}

// parseTiming parses "00:00:01.000 --> 00:00:04.000 align:start position:0%"
func parseTiming(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(parts[1])
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err := ParseTimestamp(fields[0])
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("cue ends before it starts in %q", line)
	}
	return start, end, nil
}

// ParseTimestamp converts HH:MM:SS.mmm, MM:SS.mmm or plain seconds to seconds
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.Split(ts, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	var total float64
	for _, p := range parts {
		if !timestampPart.MatchString(p) {
			return 0, fmt.Errorf("invalid timestamp %q", ts)
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", ts)
		}
		total = total*60 + v
	}
	return total, nil
}

// Join concatenates segment texts into one analysis input
func Join(segments []model.Segment) string {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}
