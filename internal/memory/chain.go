package memory

import (
	"strings"
	"unicode"
)

const (
	// minTopicWordLen filters short filler words out of topic
	// comparison: only words longer than 3 characters count.
	minTopicWordLen = 4
	// minSharedWords joins two queries into one chain when they share
	// at least this many topic words.
	minSharedWords = 2
	// minOverlapRatio joins them when the shared fraction of the
	// smaller word set exceeds this, even below minSharedWords.
	minOverlapRatio = 0.3
)

// IsRelatedTopic reports whether two queries continue the same topic:
// they share at least two words longer than 3 characters, or the
// overlap covers more than 30% of the smaller query's word set.
func IsRelatedTopic(query, previousQuery string) bool {
	a := topicWords(query)
	b := topicWords(previousQuery)
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	if shared >= minSharedWords {
		return true
	}

	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared)/float64(smaller) > minOverlapRatio
}

func topicWords(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) >= minTopicWordLen {
			set[w] = struct{}{}
		}
	}
	return set
}
