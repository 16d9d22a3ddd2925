package consensus

import (
	"math"
	"sort"

	"github.com/Artzzx/buildlore/internal/model"
)

// outlierQualityFloor decides the fate of a flagged outlier: below it the
// observation is excluded, at or above it is retained with a spread penalty.
const outlierQualityFloor = 0.4

// defaultQuality stands in for a source with no recorded quality score.
const defaultQuality = 0.5

// Engine merges per-source weight observations into one consensus weight per
// (affix, phase). All iteration is sorted; summation order is part of the
// output contract.
type Engine struct {
	cfg model.ConsensusConfig
}

// NewEngine creates a new consensus engine.
func NewEngine(cfg model.ConsensusConfig) *Engine {
	return &Engine{cfg: cfg}
}

type groupKey struct {
	affixID int
	phase   model.Phase
}

var phaseOrder = map[model.Phase]int{
	model.PhaseStarter:      0,
	model.PhaseEndgame:      1,
	model.PhaseAspirational: 2,
}

// Merge groups observations by (affix, phase) and computes the
// quality-weighted mean, spread, and confidence for each group.
func (e *Engine) Merge(extracted []model.ExtractedWeight, qualities map[string]model.SourceQualityScore) []model.ConsensusWeight {
	groups := make(map[groupKey][]model.ExtractedWeight)
	for _, obs := range extracted {
		key := groupKey{affixID: obs.AffixID, phase: obs.Phase}
		groups[key] = append(groups[key], obs)
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].affixID != keys[j].affixID {
			return keys[i].affixID < keys[j].affixID
		}
		return phaseOrder[keys[i].phase] < phaseOrder[keys[j].phase]
	})

	out := make([]model.ConsensusWeight, 0, len(keys))
	for _, key := range keys {
		members := groups[key]
		sort.Slice(members, func(i, j int) bool { return members[i].SourceID < members[j].SourceID })
		out = append(out, e.mergeGroup(key, members, qualities))
	}
	return out
}

func (e *Engine) mergeGroup(key groupKey, members []model.ExtractedWeight, qualities map[string]model.SourceQualityScore) model.ConsensusWeight {
	retained, keptOutlier := e.handleOutliers(members, qualities)

	var weightedSum, qualitySum float64
	for _, obs := range retained {
		q := quality(obs.SourceID, qualities)
		weightedSum += obs.Weight * q
		qualitySum += q
	}
	var weight float64
	if qualitySum > 0 {
		weight = weightedSum / qualitySum
	} else {
		for _, obs := range retained {
			weight += obs.Weight
		}
		weight /= float64(len(retained))
	}
	if weight < 0 {
		weight = 0
	}
	if weight > 100 {
		weight = 100
	}

	spread := 0.0
	if len(retained) >= 2 {
		spread = math.Min(1.0, popStdDev(weights(retained))/50)
	}
	if keptOutlier {
		spread = math.Min(1.0, spread+0.1)
	}

	n := len(retained)
	qualityAvg := qualitySum / float64(n)
	confidence := qualityAvg*0.4 + (1-spread)*0.4 + math.Min(1, float64(n)/5)*0.2
	confidence = math.Round(confidence*10000) / 10000
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return model.ConsensusWeight{
		AffixID:     key.affixID,
		Phase:       key.phase,
		Weight:      weight,
		Category:    voteCategory(retained),
		MinTier:     minTier(retained),
		Spread:      spread,
		Confidence:  confidence,
		SourceCount: n,
	}
}

// handleOutliers flags observations more than the configured number of
// standard deviations from the group mean. Low-quality outliers are
// excluded; the rest stay in but the disagreement shows up in the spread.
// Groups smaller than three are left alone.
func (e *Engine) handleOutliers(members []model.ExtractedWeight, qualities map[string]model.SourceQualityScore) ([]model.ExtractedWeight, bool) {
	if len(members) < 3 {
		return members, false
	}
	ws := weights(members)
	mean := plainMean(ws)
	sigma := popStdDev(ws)
	if sigma == 0 {
		return members, false
	}

	limit := e.cfg.OutlierStdDevThreshold * sigma
	retained := make([]model.ExtractedWeight, 0, len(members))
	keptOutlier := false
	for _, obs := range members {
		if math.Abs(obs.Weight-mean) > limit {
			if quality(obs.SourceID, qualities) < outlierQualityFloor {
				continue
			}
			keptOutlier = true
		}
		retained = append(retained, obs)
	}
	if len(retained) == 0 {
		return members, false
	}
	return retained, keptOutlier
}

// OverrideSet applies the clamping rule and flattens survivors into the
// per-affix weight map that feeds the build-specific inheritance layer.
// An entry failing both gates is simply absent, never a zero.
func (e *Engine) OverrideSet(merged []model.ConsensusWeight) map[int]float64 {
	out := make(map[int]float64)
	for _, cw := range merged {
		if cw.Confidence < e.cfg.OverrideConfidenceThreshold && cw.SourceCount < e.cfg.MinSourcesForOverride {
			continue
		}
		if existing, ok := out[cw.AffixID]; !ok || cw.Weight > existing {
			out[cw.AffixID] = cw.Weight
		}
	}
	return out
}

// SourceDeviations computes each source's mean absolute deviation from the
// merged group weights. Feeds the consensus-alignment refinement between the
// two merge passes.
func SourceDeviations(extracted []model.ExtractedWeight, merged []model.ConsensusWeight) map[string]float64 {
	groupWeight := make(map[groupKey]float64, len(merged))
	for _, cw := range merged {
		groupWeight[groupKey{affixID: cw.AffixID, phase: cw.Phase}] = cw.Weight
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, obs := range extracted {
		w, ok := groupWeight[groupKey{affixID: obs.AffixID, phase: obs.Phase}]
		if !ok {
			continue
		}
		sums[obs.SourceID] += math.Abs(obs.Weight - w)
		counts[obs.SourceID]++
	}

	out := make(map[string]float64, len(sums))
	for id, sum := range sums {
		out[id] = sum / float64(counts[id])
	}
	return out
}

func quality(sourceID string, qualities map[string]model.SourceQualityScore) float64 {
	if s, ok := qualities[sourceID]; ok {
		return s.Overall
	}
	return defaultQuality
}

func weights(members []model.ExtractedWeight) []float64 {
	ws := make([]float64, len(members))
	for i, obs := range members {
		ws[i] = obs.Weight
	}
	return ws
}

func plainMean(ws []float64) float64 {
	sum := 0.0
	for _, w := range ws {
		sum += w
	}
	return sum / float64(len(ws))
}

func popStdDev(ws []float64) float64 {
	mean := plainMean(ws)
	sq := 0.0
	for _, w := range ws {
		d := w - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(ws)))
}

// voteCategory takes the majority category across observations, ties broken
// toward the more important category.
func voteCategory(members []model.ExtractedWeight) model.Category {
	counts := make(map[model.Category]int)
	for _, obs := range members {
		counts[obs.Category]++
	}
	var winner model.Category
	best := -1
	for _, cat := range []model.Category{model.CategoryEssential, model.CategoryStrong, model.CategoryUseful, model.CategoryFiller} {
		if n := counts[cat]; n > best {
			best = n
			winner = cat
		}
	}
	return winner
}

// minTier returns the lowest tier signal across observations, 0 when none
// carries one.
func minTier(members []model.ExtractedWeight) int {
	min := 0
	for _, obs := range members {
		if obs.MinTier <= 0 {
			continue
		}
		if min == 0 || obs.MinTier < min {
			min = obs.MinTier
		}
	}
	return min
}
