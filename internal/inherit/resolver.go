package inherit

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/graph"
	"github.com/Artzzx/buildlore/internal/model"
)

// Knowledge-layer weights. The damage-type profile marks an affix primary or
// merely synergistic; the mastery layer treats primaries as signature affixes
// and lifts them further.
const (
	damagePrimaryWeight   = 75
	damageSynergyWeight   = 55
	masterySignatureBoost = 10
)

// baselineKeywords matches configured baseline names against catalog affix
// names. Unlisted baseline names fall back to their underscore-split form.
var baselineKeywords = map[string][]string{
	"added_health":   {"added health", "health"},
	"added_vitality": {"vitality", "added vitality"},
	"movement_speed": {"movement speed", "move speed"},
}

// Request carries one build's identity into resolution.
type Request struct {
	BuildSlug   string
	Mastery     string
	DamageTypes []string
	Archetype   string
	Override    map[int]float64 // consensus override set; empty means no data-backed layer
	SourceCount int
}

// Resolution is the outcome of a layer walk: the weight map, and which layer
// got to run last.
type Resolution struct {
	Weights     map[int]float64
	Specificity float64
	Layer       model.DataSourceLayer
}

// Resolver walks the five ordered knowledge layers, then hands the running
// map to the relationship graph. It never returns an empty map and never
// fails because an optional layer has nothing to say.
type Resolver struct {
	cfg         model.InheritanceConfig
	gd          *gamedata.GameData
	graph       *graph.Graph
	baselineIDs map[string]int
}

// NewResolver resolves the configured baseline names against the catalog
// once, up front.
func NewResolver(cfg model.InheritanceConfig, gd *gamedata.GameData, g *graph.Graph) *Resolver {
	r := &Resolver{
		cfg:         cfg,
		gd:          gd,
		graph:       g,
		baselineIDs: make(map[string]int, len(cfg.BaselineWeights)),
	}
	defs := gd.Definitions()
	for name := range cfg.BaselineWeights {
		id, ok := findByKeywords(defs, keywordsFor(name))
		if !ok {
			zap.L().Debug("baseline affix not found in catalog", zap.String("name", name))
			continue
		}
		r.baselineIDs[name] = id
	}
	return r
}

// Resolve runs the ordered merge steps. Each layer may add or raise weights,
// never remove; the graph pass afterwards is the only thing that can zero an
// entry.
func (r *Resolver) Resolve(req Request) Resolution {
	weights := make(map[int]float64)
	layer := model.LayerBaseline

	// Layer 0: universal floor. Always present, which is what guarantees a
	// non-empty result for a build nobody has written about.
	for _, name := range sortedNames(r.cfg.BaselineWeights) {
		id, ok := r.baselineIDs[name]
		if !ok {
			continue
		}
		merge(weights, id, r.cfg.BaselineWeights[name])
	}

	damageType := ""
	if len(req.DamageTypes) > 0 {
		damageType = req.DamageTypes[0]
	}

	// Layer 1: damage-type profile.
	profile, hasProfile := r.gd.DamageProfile(damageType)
	if hasProfile {
		for _, id := range profile.PrimaryAffixIDs {
			merge(weights, id, damagePrimaryWeight)
		}
		primary := make(map[int]bool, len(profile.PrimaryAffixIDs))
		for _, id := range profile.PrimaryAffixIDs {
			primary[id] = true
		}
		for _, id := range profile.SynergyAffixIDs {
			if primary[id] {
				continue
			}
			merge(weights, id, damageSynergyWeight)
		}
		layer = model.LayerDamageType
	}

	// Layer 2: class profile. Carries no weights of its own today (slot
	// relevance lives on the affix definitions) but still deepens the
	// resolution.
	baseClass := ""
	if c, ok := r.gd.BaseClass(req.Mastery); ok {
		baseClass = c
		if r.gd.HasClass(c) {
			layer = model.LayerClass
		}
	}

	// Layer 3: mastery signature affixes.
	if req.Mastery != "" && hasProfile && len(profile.PrimaryAffixIDs) > 0 {
		for _, id := range profile.PrimaryAffixIDs {
			merge(weights, id, damagePrimaryWeight+masterySignatureBoost)
		}
		layer = model.LayerMastery
	}

	// Layer 4: the data-backed override, when consensus survived clamping.
	if len(req.Override) > 0 {
		ids := make([]int, 0, len(req.Override))
		for id := range req.Override {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			merge(weights, id, req.Override[id])
		}
		layer = model.LayerSpecific
	}

	// Layer 5, always last: one propagation pass.
	weights = r.graph.Propagate(weights, graph.Context{
		Mastery:     req.Mastery,
		BaseClass:   baseClass,
		DamageTypes: req.DamageTypes,
		Archetype:   req.Archetype,
	})

	for id := range weights {
		if r.gd.IsThreshold(id) {
			delete(weights, id)
		}
	}

	zap.L().Debug("inheritance resolved",
		zap.String("build", req.BuildSlug),
		zap.String("layer", string(layer)),
		zap.Int("affixes", len(weights)),
		zap.Int("sources", req.SourceCount))

	return Resolution{
		Weights:     weights,
		Specificity: layer.Specificity(),
		Layer:       layer,
	}
}

// merge is the single add-or-overwrite rule every layer uses: a layer can
// raise an affix, never lower it.
func merge(weights map[int]float64, id int, w float64) {
	if existing, ok := weights[id]; ok && existing >= w {
		return
	}
	weights[id] = w
}

func keywordsFor(name string) []string {
	if kws, ok := baselineKeywords[name]; ok {
		return kws
	}
	return []string{strings.ReplaceAll(name, "_", " ")}
}

// findByKeywords scans the catalog in id order and returns the first affix
// whose name contains any keyword, keywords tried in order.
func findByKeywords(defs []model.AffixDefinition, keywords []string) (int, bool) {
	for _, kw := range keywords {
		for _, def := range defs {
			if strings.Contains(strings.ToLower(def.Name), kw) {
				return def.ID, true
			}
		}
	}
	return 0, false
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
