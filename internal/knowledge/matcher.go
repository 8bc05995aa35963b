package knowledge

import (
	"strings"

	"github.com/aditpras/lapakchat/internal/domain"
)

// Matcher scores free-text input against knowledge entries using
// normalized edit distance over the entries' keywords.
type Matcher struct {
	entries []domain.KnowledgeEntry

	// threshold is the maximum accepted normalized distance
	// (distance / keyword length); lower means stricter matching.
	threshold float64
	// maxDistance caps the absolute edit distance regardless of
	// keyword length.
	maxDistance int
}

// NewMatcher builds a matcher over the loaded entries. Entry order is
// preserved: on a tie the first-registered entry wins.
func NewMatcher(entries []domain.KnowledgeEntry, threshold float64, maxDistance int) *Matcher {
	return &Matcher{
		entries:     entries,
		threshold:   threshold,
		maxDistance: maxDistance,
	}
}

// Match returns the best-matching entry for the input, or false when no
// keyword scores within the configured tolerance. Matching is
// case-insensitive; multi-word keywords are compared against sliding
// windows of the same token count.
func (m *Matcher) Match(input string) (domain.KnowledgeEntry, bool) {
	tokens := strings.Fields(strings.ToLower(input))
	if len(tokens) == 0 {
		return domain.KnowledgeEntry{}, false
	}

	best := domain.KnowledgeEntry{}
	bestScore := 0.0
	found := false

	for _, entry := range m.entries {
		for _, keyword := range entry.Keywords {
			keyword = strings.ToLower(keyword)
			score, ok := m.scoreKeyword(tokens, keyword)
			if !ok {
				continue
			}
			// Strictly better only: ties keep the earlier entry.
			if !found || score < bestScore {
				best = entry
				bestScore = score
				found = true
			}
		}
	}

	return best, found
}

// scoreKeyword returns the lowest normalized distance between the
// keyword and any same-length token window of the input.
func (m *Matcher) scoreKeyword(tokens []string, keyword string) (float64, bool) {
	width := len(strings.Fields(keyword))
	if width == 0 || width > len(tokens) {
		return 0, false
	}

	bestScore := 0.0
	found := false
	for i := 0; i+width <= len(tokens); i++ {
		window := strings.Join(tokens[i:i+width], " ")
		dist := levenshtein(window, keyword)
		if dist > m.maxDistance {
			continue
		}
		score := float64(dist) / float64(len([]rune(keyword)))
		if score > m.threshold {
			continue
		}
		if !found || score < bestScore {
			bestScore = score
			found = true
		}
	}
	return bestScore, found
}

// levenshtein computes the edit distance between two strings, counted
// in runes.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
