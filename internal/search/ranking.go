// Package search provides a small, deterministic relevance engine for the
// expert directory. It is pure application logic:
//
//   - No logging and no persistence (callers decide both)
//   - Case- and accent-insensitive matching across name, expertise tags,
//     city, country ("comptabilite" finds "Comptabilité")
//   - An explicit, additive weight table for ranking
//   - Stable ordering for ties (arrival order is preserved)
//
// Free-text queries are split on whitespace into terms. Terms are OR'd
// together: an expert matches when ANY term matches ANY searchable field.
// City and category filters are hard constraints AND'ed on top of the text
// match. Ranking only applies when a text query is present.
package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/xandme/xandme-backend/internal/domain"
)

// fold lowercases s and strips combining diacritical marks, so "Comptabilité"
// and "comptabilite" compare equal. Transformers carry state, so a fresh
// chain is built per call.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// Weight table for a single (term, expert) pair. Weights accumulate across
// terms and across tiers: a term that equals a last name also matches the
// substring and haystack tiers, mirroring the directory's historical scoring.
const (
	weightNameExact       = 10 // term equals nom or prenom
	weightNameSubstring   = 5  // term inside nom or prenom (not exact)
	weightTagExact        = 5  // term equals one expertise tag
	weightTagSubstring    = 3  // term inside an expertise tag (not exact)
	weightLocation        = 2  // term inside ville or pays
	weightAnywhere        = 1  // term anywhere in the combined haystack
)

// Terms splits a free-text query into folded search terms.
func Terms(query string) []string {
	return strings.Fields(fold(query))
}

// MatchesTerms reports whether the expert matches at least one of the terms
// (folded substring over nom, prenom, expertise tags, ville, pays).
// An empty term list matches everything.
func MatchesTerms(e domain.Expert, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	nom := fold(e.Nom)
	prenom := fold(e.Prenom)
	ville := fold(e.Ville)
	pays := fold(e.Pays)
	tags := lowerTags(e)

	for _, term := range terms {
		if strings.Contains(nom, term) || strings.Contains(prenom, term) ||
			strings.Contains(ville, term) || strings.Contains(pays, term) {
			return true
		}
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				return true
			}
		}
	}
	return false
}

// MatchesCity reports whether the expert's city equals city exactly
// (case- and accent-insensitive). An empty city matches everything.
func MatchesCity(e domain.Expert, city string) bool {
	if city == "" {
		return true
	}
	return fold(strings.TrimSpace(e.Ville)) == fold(strings.TrimSpace(city))
}

// MatchesCategory reports whether the expert belongs to the given category:
// either its dedicated activity field equals the category, or the category
// appears as one ';'-delimited token of the legacy expertises list. An empty
// category matches everything.
func MatchesCategory(e domain.Expert, category string) bool {
	category = strings.TrimSpace(category)
	if category == "" {
		return true
	}
	want := fold(category)
	if fold(strings.TrimSpace(e.Activite)) == want {
		return true
	}
	for _, tag := range strings.Split(e.Expertises, ";") {
		if fold(strings.TrimSpace(tag)) == want {
			return true
		}
	}
	return false
}

// Score computes the relevance of an expert for the given folded terms,
// summing the weight table over all terms. A zero score means no term
// touched the expert at all.
func Score(e domain.Expert, terms []string) int {
	if len(terms) == 0 {
		return 0
	}
	nom := fold(e.Nom)
	prenom := fold(e.Prenom)
	ville := fold(e.Ville)
	pays := fold(e.Pays)
	tags := lowerTags(e)
	haystack := strings.Join([]string{prenom, nom, fold(e.Expertises), ville, pays}, " ")

	total := 0
	for _, term := range terms {
		switch {
		case term == nom || term == prenom:
			total += weightNameExact
		case strings.Contains(nom, term) || strings.Contains(prenom, term):
			total += weightNameSubstring
		}

		tagExact, tagSub := false, false
		for _, tag := range tags {
			if tag == term {
				tagExact = true
				break
			}
			if strings.Contains(tag, term) {
				tagSub = true
			}
		}
		switch {
		case tagExact:
			total += weightTagExact
		case tagSub:
			total += weightTagSubstring
		}

		if strings.Contains(ville, term) || strings.Contains(pays, term) {
			total += weightLocation
		}
		if strings.Contains(haystack, term) {
			total += weightAnywhere
		}
	}
	return total
}

// Rank sorts experts by descending Score for the given terms, preserving
// arrival order for equal scores (stable sort). The input slice is not
// modified. With no terms, a copy in arrival order is returned.
func Rank(experts []domain.Expert, terms []string) []domain.Expert {
	out := make([]domain.Expert, len(experts))
	copy(out, experts)
	if len(terms) == 0 {
		return out
	}
	scores := make(map[int64]int, len(out))
	for _, e := range out {
		scores[e.ID] = Score(e, terms)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return scores[out[i].ID] > scores[out[j].ID]
	})
	return out
}

func lowerTags(e domain.Expert) []string {
	raw := e.ExpertiseTags()
	out := make([]string, len(raw))
	for i, t := range raw {
		out[i] = fold(t)
	}
	return out
}
