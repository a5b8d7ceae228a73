// Package similarity scores near-duplicate source strings for translation
// memory and row suggestions. Matching runs in Go over a SQL-narrowed
// candidate set rather than relying on a database-side trigram extension,
// since neither backend in this stack ships one (Dolt has no pg_trgm
// equivalent).
package similarity

import (
	"sort"
	"strings"
	"unicode"
)

// Candidate is a scoreable source string paired with an opaque caller key
// (a row or TM entry ID) used to attribute the score back to its owner.
type Candidate struct {
	Key    int64
	Source string
}

// Scored is a Candidate annotated with its similarity to the query string.
type Scored struct {
	Key   int64
	Score float64
}

// Rank scores every candidate against query using character-trigram
// Jaccard similarity and returns those at or above threshold, highest
// score first, truncated to maxResults (0 means unbounded).
func Rank(query string, candidates []Candidate, threshold float64, maxResults int) []Scored {
	queryGrams := trigrams(query)
	if len(queryGrams) == 0 {
		return nil
	}

	var out []Scored
	for _, c := range candidates {
		score := jaccard(queryGrams, trigrams(c.Source))
		if score >= threshold {
			out = append(out, Scored{Key: c.Key, Score: score})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// trigrams splits a normalized string into overlapping 3-character grams,
// padded with a boundary marker so short strings still produce grams
// distinguishing their edges from an interior match.
func trigrams(s string) map[string]struct{} {
	normalized := normalize(s)
	if normalized == "" {
		return nil
	}
	padded := "  " + normalized + " "
	runes := []rune(padded)
	if len(runes) < 3 {
		return map[string]struct{}{normalized: {}}
	}
	grams := make(map[string]struct{}, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])] = struct{}{}
	}
	return grams
}

func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
