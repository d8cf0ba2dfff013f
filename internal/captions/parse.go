package captions

import (
	"strconv"
	"strings"
)

// cue is one timed block, format-agnostic.
type cue struct {
	start float64
	end   float64
	text  string
}

// parseCues walks blank-line-separated blocks, extracting every block that
// contains a `time --> time` line. Blocks without one (headers, NOTE and
// STYLE blocks, bare indices) are skipped. A trailing blank line is not
// required on the final block.
func parseCues(content string) []cue {
	var cues []cue

	for _, block := range splitBlocks(content) {
		timeLine := -1
		for i, line := range block {
			if strings.Contains(line, "-->") {
				timeLine = i
				break
			}
		}
		if timeLine < 0 {
			continue
		}

		start, end, ok := parseTimeRange(block[timeLine])
		if !ok {
			continue
		}

		text := strings.TrimSpace(strings.Join(block[timeLine+1:], " "))
		if text == "" {
			continue
		}

		cues = append(cues, cue{start: start, end: end, text: text})
	}

	return cues
}

func splitBlocks(content string) [][]string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var blocks [][]string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, strings.TrimSpace(line))
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// parseTimeRange parses `start --> end`, tolerating trailing cue settings
// after the end timestamp.
func parseTimeRange(line string) (float64, float64, bool) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}

	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, false
	}
	end, err := ParseTimestamp(endField[0])
	if err != nil {
		return 0, 0, false
	}

	if end <= start {
		return 0, 0, false
	}
	return start, end, true
}

// ParseTimestamp parses HH:MM:SS.mmm, MM:SS.mmm or bare seconds. A comma
// decimal separator is treated as a dot.
func ParseTimestamp(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	parts := strings.Split(s, ":")

	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, err
		}
		total = total*60 + v
	}
	return total, nil
}

func isIndexLine(line string) bool {
	if line == "" {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(line))
	return err == nil
}
