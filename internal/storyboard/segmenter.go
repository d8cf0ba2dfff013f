package storyboard

import (
	"strings"
	"unicode"
)

// DefaultMaxWordsPerScene bounds how much narration a single scene carries.
const DefaultMaxWordsPerScene = 35

// Titles, ranks and similar abbreviations that end with a period but do not
// end a sentence.
var abbreviations = map[string]bool{
	"mr.":   true,
	"mrs.":  true,
	"ms.":   true,
	"dr.":   true,
	"prof.": true,
	"rev.":  true,
	"hon.":  true,
	"st.":   true,
	"sr.":   true,
	"jr.":   true,
	"lt.":   true,
	"col.":  true,
	"gen.":  true,
	"capt.": true,
	"sgt.":  true,
	"maj.":  true,
	"mt.":   true,
	"vs.":   true,
	"etc.":  true,
}

// SegmentScript splits a raw script into ordered scene-text chunks.
// Sentences end at '.', '!' or '?' followed by whitespace and an uppercase
// letter, unless the terminating token is a known abbreviation. Sentences
// longer than maxWords are subdivided into equal-sized contiguous word
// chunks. No words are lost, duplicated or reordered.
func SegmentScript(script string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWordsPerScene
	}

	words := strings.Fields(script)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var sentence []string
	for i, word := range words {
		sentence = append(sentence, word)
		if endsSentence(word) && (i == len(words)-1 || startsUpper(words[i+1])) {
			chunks = append(chunks, splitSentence(sentence, maxWords)...)
			sentence = nil
		}
	}
	if len(sentence) > 0 {
		chunks = append(chunks, splitSentence(sentence, maxWords)...)
	}
	return chunks
}

// splitSentence subdivides one sentence into ceil(n/maxWords) contiguous
// chunks of near-equal size.
func splitSentence(words []string, maxWords int) []string {
	n := len(words)
	if n <= maxWords {
		return []string{strings.Join(words, " ")}
	}

	numChunks := (n + maxWords - 1) / maxWords
	chunkSize := (n + numChunks - 1) / numChunks

	chunks := make([]string, 0, numChunks)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

func endsSentence(word string) bool {
	trimmed := strings.TrimRight(word, `"')]`)
	if trimmed == "" {
		return false
	}
	last := trimmed[len(trimmed)-1]
	if last != '.' && last != '!' && last != '?' {
		return false
	}
	if last == '.' && abbreviations[strings.ToLower(trimmed)] {
		return false
	}
	return true
}

func startsUpper(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
		if !strings.ContainsRune(`"'([`, r) {
			return false
		}
	}
	return false
}

// WordCount reports the whitespace-separated word count of a text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
