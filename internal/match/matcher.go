// Package match selects the best icon for each fleet variant.
package match

import (
	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
)

// candidateSet is the icons a variant's canonical make is compared against.
type candidateSet struct {
	icons    []int // indexes into Matcher.icons, catalog order
	fallback bool
}

// Matcher scores fleet variants against an immutable icon catalog.
type Matcher struct {
	icons  []domain.IconEntry
	byMake map[string][]int
	cache  *lruCache[candidateSet]
}

// Outcome is the result of matching one variant.
type Outcome struct {
	Result     domain.MatchResult
	Candidates int
	Fallback   bool
}

// NewMatcher indexes icons by canonical make. cacheSize bounds the number
// of memoized candidate sets.
func NewMatcher(icons []domain.IconEntry, cacheSize int) *Matcher {
	byMake := make(map[string][]int)
	for i, icon := range icons {
		byMake[icon.MakeCanonical] = append(byMake[icon.MakeCanonical], i)
	}
	return &Matcher{
		icons:  icons,
		byMake: byMake,
		cache:  newLRUCache[candidateSet](cacheSize),
	}
}

// Match scores variant against every candidate and keeps the first icon with
// the strictly highest score. The score thresholds, not the presence of
// fallback candidates, decide whether the variant counts as covered.
func (m *Matcher) Match(variant domain.FleetVariant) Outcome {
	cs := m.candidates(domain.CanonicalMake(variant.Make))

	bestScore := -1.0
	var best *domain.IconEntry
	var bestParts domain.MatchParts
	for _, i := range cs.icons {
		score, parts := domain.ScoreVariantToIcon(variant, m.icons[i])
		if score > bestScore {
			bestScore = score
			best = &m.icons[i]
			bestParts = parts
		}
	}

	return Outcome{
		Result:     domain.NewMatchResult(variant, best, bestScore, bestParts, len(cs.icons) > 0),
		Candidates: len(cs.icons),
		Fallback:   cs.fallback,
	}
}

// CacheStats reports candidate cache hits and misses so far.
func (m *Matcher) CacheStats() (hits, misses int) {
	return m.cache.stats()
}

// candidates returns the icons sharing the canonical make or, when there are
// none, every icon whose make tokens overlap the make's tokens at all.
func (m *Matcher) candidates(makeCanonical string) candidateSet {
	if cs, ok := m.cache.get(makeCanonical); ok {
		return cs
	}

	cs := candidateSet{icons: m.byMake[makeCanonical]}
	if len(cs.icons) == 0 {
		cs.fallback = true
		makeToks := make(map[string]struct{})
		for _, t := range domain.Tokenize(makeCanonical) {
			makeToks[t] = struct{}{}
		}
		for i, icon := range m.icons {
			for _, t := range icon.MakeTokens {
				if _, ok := makeToks[t]; ok {
					cs.icons = append(cs.icons, i)
					break
				}
			}
		}
	}

	m.cache.put(makeCanonical, cs)
	return cs
}
