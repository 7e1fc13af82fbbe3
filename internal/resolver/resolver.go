// Package resolver maps a free-text reference onto exactly one catalog row.
//
// Matching runs in tiers and stops at the first tier that produces a hit:
//
//  1. substring: the reference is contained in a candidate's name or one of its keys
//     (SKU, asset tag). The first candidate in the caller's order wins, silently.
//  2. singular: a plural suffix is stripped from the reference and tier 1 is retried.
//  3. similarity: the candidate name with the highest edit-distance ratio wins,
//     provided it reaches the caller's threshold.
//
// Only tiers 2 and 3 attach a note, so callers can tell the user a guess was made.
package resolver

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmptyReference = errors.New("empty reference")
	ErrNoMatch        = errors.New("no match")
)

type Tier string

const (
	TierSubstring  Tier = "substring"
	TierSingular   Tier = "singular"
	TierSimilarity Tier = "similarity"
)

// Candidate is a resolvable row. Keys are extra identifiers (SKU, asset tag)
// that take part in substring matching but not in similarity scoring.
type Candidate struct {
	ID   uuid.UUID
	Name string
	Keys []string
}

// Match is the single record a reference resolved to.
type Match struct {
	ID    uuid.UUID
	Name  string
	Tier  Tier
	Score float64
	Note  string
}

// pluralSuffixes are tried in order; each entry replaces suffix with replacement.
var pluralSuffixes = []struct{ suffix, replacement string }{
	{"s", ""},
	{"es", ""},
	{"ns", "m"},
	{"ões", "ão"},
	{"ães", "ão"},
}

// Resolve picks at most one candidate for reference. Candidates must already be in
// a stable order; ties in every tier go to the earlier candidate.
func Resolve(candidates []Candidate, reference string, threshold float64) (Match, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return Match{}, ErrEmptyReference
	}

	pool := make([]folded, len(candidates))
	for i, c := range candidates {
		pool[i] = foldCandidate(c)
	}
	needle := Fold(ref)

	if i := firstSubstring(pool, needle); i >= 0 {
		c := candidates[i]
		return Match{ID: c.ID, Name: c.Name, Tier: TierSubstring, Score: 1}, nil
	}

	for _, form := range singularForms(ref) {
		if i := firstSubstring(pool, Fold(form)); i >= 0 {
			c := candidates[i]
			return Match{
				ID:    c.ID,
				Name:  c.Name,
				Tier:  TierSingular,
				Score: 1,
				Note:  fmt.Sprintf("interpreted '%s' as '%s'", ref, c.Name),
			}, nil
		}
	}

	best, bestScore := -1, 0.0
	for i, f := range pool {
		score := Similarity(needle, f.name)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= threshold {
		c := candidates[best]
		return Match{
			ID:    c.ID,
			Name:  c.Name,
			Tier:  TierSimilarity,
			Score: bestScore,
			Note:  fmt.Sprintf("interpreted '%s' as '%s' (%.0f%% similar)", ref, c.Name, bestScore*100),
		}, nil
	}

	return Match{}, fmt.Errorf("%w for '%s'", ErrNoMatch, ref)
}

// Similarity is 1 - editDistance/maxLen over runes; both inputs are used as given.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Fold lower-cases s, strips accents and collapses inner whitespace.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

type folded struct {
	name string
	keys []string
}

func foldCandidate(c Candidate) folded {
	f := folded{name: Fold(c.Name)}
	for _, k := range c.Keys {
		if k = Fold(k); k != "" {
			f.keys = append(f.keys, k)
		}
	}
	return f
}

func firstSubstring(candidates []folded, needle string) int {
	if needle == "" {
		return -1
	}
	for i, c := range candidates {
		if strings.Contains(c.name, needle) {
			return i
		}
		for _, k := range c.keys {
			if strings.Contains(k, needle) {
				return i
			}
		}
	}
	return -1
}

// singularForms lists the de-pluralized spellings of ref, most common rule first.
func singularForms(ref string) []string {
	lower := strings.ToLower(ref)
	var forms []string
	for _, p := range pluralSuffixes {
		if !strings.HasSuffix(lower, p.suffix) {
			continue
		}
		stem := lower[:len(lower)-len(p.suffix)] + p.replacement
		if strings.TrimSpace(stem) != "" && stem != lower {
			forms = append(forms, stem)
		}
	}
	return forms
}
