// Package captions parses externally produced subtitle files into timed
// text segments. Input format is sniffed, never declared: classification
// produces a tagged format first, then the per-format parser runs.
package captions

import "strings"

// Word is a single word with its spoken time span.
type Word struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Word      string  `json:"word"`
}

// Segment is a timed span of transcribed text. Words is populated only
// when the source carried word-level timestamps.
type Segment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Words     []Word  `json:"words,omitempty"`
}

// Duration is the span length in seconds.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Format is the sniffed shape of a subtitle file.
type Format int

const (
	FormatUnknown Format = iota
	FormatSRT
	FormatVTT
	FormatVTTWordLevel
)

func (f Format) String() string {
	switch f {
	case FormatSRT:
		return "srt"
	case FormatVTT:
		return "vtt"
	case FormatVTTWordLevel:
		return "vtt-word-level"
	default:
		return "unknown"
	}
}

// wordGroupSize is how many word-level entries collapse into one segment.
const wordGroupSize = 12

const vttHeader = "WEBVTT"

// Classify sniffs the subtitle format from content alone. A VTT file whose
// every cue holds exactly one word is classified as word-level.
func Classify(content string) Format {
	first := firstNonBlankLine(content)
	if first == "" {
		return FormatUnknown
	}

	if strings.HasPrefix(first, vttHeader) {
		cues := parseCues(content)
		if len(cues) == 0 {
			return FormatVTT
		}
		for _, c := range cues {
			if len(strings.Fields(c.text)) != 1 {
				return FormatVTT
			}
		}
		return FormatVTTWordLevel
	}

	if isIndexLine(first) && strings.Contains(content, "-->") {
		return FormatSRT
	}
	return FormatUnknown
}

// Parse converts subtitle file content into ordered segments. Malformed or
// unrecognized input degrades to an empty list; no error is raised.
func Parse(content string) []Segment {
	switch Classify(content) {
	case FormatVTT:
		return cuesToSegments(parseCues(content))
	case FormatVTTWordLevel:
		return groupWords(parseCues(content))
	case FormatSRT:
		return cuesToSegments(parseCues(content))
	default:
		return nil
	}
}

func cuesToSegments(cues []cue) []Segment {
	segments := make([]Segment, 0, len(cues))
	for _, c := range cues {
		segments = append(segments, Segment{
			StartTime: c.start,
			EndTime:   c.end,
			Text:      c.text,
		})
	}
	return segments
}

// groupWords regroups word-level cues into fixed-size segments. Each
// segment spans from its first word's start to its last word's end; the
// final segment may be shorter than the batch size.
func groupWords(cues []cue) []Segment {
	var segments []Segment
	for start := 0; start < len(cues); start += wordGroupSize {
		end := start + wordGroupSize
		if end > len(cues) {
			end = len(cues)
		}
		batch := cues[start:end]

		words := make([]Word, len(batch))
		texts := make([]string, len(batch))
		for i, c := range batch {
			words[i] = Word{StartTime: c.start, EndTime: c.end, Word: c.text}
			texts[i] = c.text
		}

		segments = append(segments, Segment{
			StartTime: batch[0].start,
			EndTime:   batch[len(batch)-1].end,
			Text:      strings.Join(texts, " "),
			Words:     words,
		})
	}
	return segments
}

func firstNonBlankLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
