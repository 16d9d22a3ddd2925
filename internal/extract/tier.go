package extract

import (
	"sort"

	"github.com/Artzzx/buildlore/internal/model"
)

// tierWeights pins each tier to a point in its weight bucket: tier 7 to the
// center of [90,100], two-tier buckets to their endpoints by position. The
// mapping is strictly monotonic so adjacent tiers never collapse to the same
// weight.
var tierWeights = [8]float64{0, 15, 35, 40, 60, 65, 85, 95}

// bucketWeight translates an observed tier (1-7) into a base weight.
func bucketWeight(tier int) float64 {
	if tier < 1 {
		return 0
	}
	if tier > 7 {
		tier = 7
	}
	return tierWeights[tier]
}

// extractTiers derives weights from planner tier data. Per affix: collect
// the max tier seen in each phase, classify the phase-persistence pattern,
// then emit one observation per populated phase.
func (e *Extractor) extractTiers(src model.RawSource) []model.ExtractedWeight {
	// affix id → phase → max observed tier
	tiers := make(map[int]map[model.Phase]int)
	for phase, data := range src.Phases {
		for _, obs := range data.Affixes {
			if !e.usable(obs.AffixID) {
				continue
			}
			byPhase, ok := tiers[obs.AffixID]
			if !ok {
				byPhase = make(map[model.Phase]int)
				tiers[obs.AffixID] = byPhase
			}
			if obs.Tier > byPhase[phase] {
				byPhase[phase] = obs.Tier
			}
		}
	}

	ids := make([]int, 0, len(tiers))
	for id := range tiers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var out []model.ExtractedWeight
	for _, id := range ids {
		byPhase := tiers[id]
		mult := e.phaseMultiplier(byPhase)
		for _, phase := range model.Phases {
			tier, ok := byPhase[phase]
			if !ok {
				continue
			}
			w := bucketWeight(tier) * mult
			if w > 100 {
				w = 100
			}
			out = append(out, model.ExtractedWeight{
				AffixID:  id,
				Phase:    phase,
				Weight:   w,
				MinTier:  tier,
				Category: model.CategoryForTier(tier),
				Method:   model.MethodTierTranslation,
				SourceID: src.SourceID,
			})
		}
	}
	return out
}

// phaseMultiplier applies the asymmetric persistence rule: an affix that only
// matters for aspirational gear takes no rarity penalty, one that falls off
// after the starter phase does.
func (e *Extractor) phaseMultiplier(byPhase map[model.Phase]int) float64 {
	m := e.cfg.PhaseMultipliers
	switch {
	case len(byPhase) == len(model.Phases):
		return m.AllPhases
	case len(byPhase) == 1:
		if _, only := byPhase[model.PhaseAspirational]; only {
			return m.BisOnly
		}
		if _, only := byPhase[model.PhaseStarter]; only {
			return m.StarterOnly
		}
		return m.MiddleOnly
	default:
		return m.MiddleOnly
	}
}
