package graph

import (
	"sort"
	"strings"

	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/model"
)

// Context is the build identity a prerequisite condition evaluates against.
type Context struct {
	Mastery     string
	BaseClass   string
	DamageTypes []string
	Archetype   string
}

// Graph holds the static affix relationships in flat, index-addressed form:
// one edge slice plus a per-node index into it. No node objects, no pointer
// links; a propagation is exactly one pass over the indexed edges.
type Graph struct {
	cfg      model.GraphConfig
	edges    []gamedata.Edge
	outgoing map[int][]int
}

// New builds the graph from the loaded edge list.
func New(cfg model.GraphConfig, edges []gamedata.Edge) *Graph {
	g := &Graph{
		cfg:      cfg,
		edges:    edges,
		outgoing: make(map[int][]int),
	}
	for i, e := range edges {
		g.outgoing[e.From] = append(g.outgoing[e.From], i)
	}
	return g
}

// Propagate runs the single bounded pass over a weight map and returns a new
// map; the input is never mutated. Two ordered sub-steps: synergy boosts
// driven by pre-pass weights, then prerequisite zeroing over the boosted
// result. A cycle through synergy edges cannot loop because triggers read
// only pre-pass weights.
func (g *Graph) Propagate(weights map[int]float64, ctx Context) map[int]float64 {
	result := make(map[int]float64, len(weights))
	for id, w := range weights {
		result[id] = w
	}

	for _, id := range sortedKeys(weights) {
		if weights[id] <= g.cfg.SynergyTriggerWeight {
			continue
		}
		for _, ei := range g.outgoing[id] {
			e := g.edges[ei]
			if e.Kind != gamedata.EdgeSynergy {
				continue
			}
			boosted := result[e.To] + e.Strength*g.cfg.SynergyBoostPerStrength
			if boosted > 100 {
				boosted = 100
			}
			result[e.To] = boosted
		}
	}

	for _, id := range sortedKeys(result) {
		for _, ei := range g.outgoing[id] {
			e := g.edges[ei]
			if e.Kind != gamedata.EdgePrerequisite {
				continue
			}
			if !conditionMet(e.Condition, ctx) {
				result[id] = 0
				break
			}
		}
	}
	return result
}

// conditionMet evaluates the small condition language: `key == value` atoms
// joined by && and ||. A condition that cannot be evaluated counts as met;
// zeroing an affix on a parse bug would silently cripple builds.
func conditionMet(cond string, ctx Context) bool {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return true
	}
	if parts := strings.Split(cond, "||"); len(parts) > 1 {
		for _, p := range parts {
			if conditionMet(p, ctx) {
				return true
			}
		}
		return false
	}
	if parts := strings.Split(cond, "&&"); len(parts) > 1 {
		for _, p := range parts {
			if !conditionMet(p, ctx) {
				return false
			}
		}
		return true
	}

	kv := strings.SplitN(cond, "==", 2)
	if len(kv) != 2 {
		return true
	}
	key := strings.TrimSpace(kv[0])
	want := strings.Trim(strings.TrimSpace(kv[1]), `"'`)

	switch key {
	case "mastery":
		return strings.EqualFold(ctx.Mastery, want)
	case "class", "base_class":
		return strings.EqualFold(ctx.BaseClass, want)
	case "archetype":
		return strings.EqualFold(ctx.Archetype, want)
	case "damage_type", "damage_types":
		for _, dt := range ctx.DamageTypes {
			if strings.EqualFold(dt, want) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
