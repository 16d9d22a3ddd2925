package resolve

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/cache"
	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/model"
)

// Resolver maps raw affix labels from community sources to canonical ids.
// Exact lowercase match first, then fuzzy similarity over the whole catalog.
// Hits and misses are both memoized; community files repeat the same dozen
// labels thousands of times.
type Resolver struct {
	gd        *gamedata.GameData
	threshold float64
	exact     map[string]int
	entries   []candidate
	cache     cache.Cache
}

// candidate is one normalized name variant in the fuzzy scan list.
type candidate struct {
	name   string
	sorted string
	id     int
}

// NewResolver builds the name index from every non-empty name variant in the
// catalog. When two affixes share a display name the lower id claims it.
func NewResolver(gd *gamedata.GameData, threshold float64, c cache.Cache) *Resolver {
	r := &Resolver{
		gd:        gd,
		threshold: threshold,
		exact:     make(map[string]int),
		cache:     c,
	}
	for _, def := range gd.Definitions() {
		for _, variant := range []string{def.Name, def.DisplayName, def.LootName} {
			norm := normalizeName(variant)
			if norm == "" {
				continue
			}
			if _, taken := r.exact[norm]; taken {
				continue
			}
			r.exact[norm] = def.ID
			r.entries = append(r.entries, candidate{
				name:   norm,
				sorted: tokenSort(norm),
				id:     def.ID,
			})
		}
	}
	sort.Slice(r.entries, func(i, j int) bool { return r.entries[i].name < r.entries[j].name })
	return r
}

// ResolveName resolves a raw label to a canonical affix id. false means the
// label matched nothing at or above the similarity threshold; the caller
// drops the observation and records it as unresolved.
func (r *Resolver) ResolveName(name string) (int, bool) {
	norm := normalizeName(name)
	if norm == "" {
		return 0, false
	}

	key := cache.Key(norm)
	if id, found := r.cache.Get(key); found {
		return id, id != cache.NoMatch
	}

	if id, ok := r.exact[norm]; ok {
		r.cache.Set(key, id)
		return id, true
	}

	normSorted := tokenSort(norm)
	bestScore := 0.0
	bestID := cache.NoMatch
	for _, cand := range r.entries {
		score := levenshtein.Match(norm, cand.name, nil)
		if s := levenshtein.Match(normSorted, cand.sorted, nil); s > score {
			score = s
		}
		if score > bestScore {
			bestScore = score
			bestID = cand.id
		}
	}

	if bestScore < r.threshold {
		r.cache.Set(key, cache.NoMatch)
		return 0, false
	}
	zap.L().Debug("fuzzy affix match",
		zap.String("raw", name),
		zap.Int("affix_id", bestID),
		zap.Float64("score", bestScore))
	r.cache.Set(key, bestID)
	return bestID, true
}

// ResolveID looks up the definition behind a canonical id.
func (r *Resolver) ResolveID(id int) (model.AffixDefinition, bool) {
	return r.gd.Affix(id)
}

// IsThreshold reports whether the affix bypasses the weight system.
func (r *Resolver) IsThreshold(id int) bool {
	return r.gd.IsThreshold(id)
}

// KnownIDs returns every catalog id in ascending order.
func (r *Resolver) KnownIDs() []int {
	defs := r.gd.Definitions()
	ids := make([]int, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	return ids
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

func tokenSort(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}
