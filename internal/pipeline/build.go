package pipeline

import (
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/consensus"
	"github.com/Artzzx/buildlore/internal/ingest"
	"github.com/Artzzx/buildlore/internal/inherit"
	"github.com/Artzzx/buildlore/internal/model"
)

// ProcessBuild runs the five stages for one build and returns its profile.
// Individual source failures are contained: they become report entries and
// the build carries on with whatever survives. The only build-level error is
// every single source failing to ingest.
func (p *Pipeline) ProcessBuild(slug string, files []string, report *model.RunReport) (*model.BuildKnowledgeProfile, error) {
	// 1. Ingest.
	var sources []model.RawSource
	for _, f := range files {
		src, err := ingest.ForPath(f, p.planner, p.filter).Ingest(f)
		if err != nil {
			report.SourcesRejected = append(report.SourcesRejected, model.SourceRejection{
				SourceID: filepath.Base(f),
				Build:    slug,
				Reason:   model.RejectIngestError,
				Detail:   err.Error(),
			})
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, eris.Errorf("all %d sources failed to ingest", len(files))
	}

	// 2. Validate, in file order, deduplicating on accepted checksums.
	seen := make(map[string]bool)
	var accepted []model.RawSource
	qualities := make(map[string]model.SourceQualityScore)
	for _, src := range sources {
		score, rej := p.validator.Validate(src, seen)
		if rej != nil {
			report.SourcesRejected = append(report.SourcesRejected, model.SourceRejection{
				SourceID: src.SourceID,
				Build:    slug,
				Reason:   rej.Reason,
				Detail:   rej.Detail,
			})
			continue
		}
		seen[src.Checksum] = true
		accepted = append(accepted, src)
		qualities[src.SourceID] = *score
		for _, label := range src.Unresolved {
			report.UnresolvedAffixes = append(report.UnresolvedAffixes, model.UnresolvedAffix{
				SourceID: src.SourceID,
				Build:    slug,
				RawName:  label,
			})
		}
	}
	report.SourcesAccepted += len(accepted)

	// 3. Extract observations. Filter sources also donate their rule
	// structure to the report for downstream calibration.
	var observations []model.ExtractedWeight
	for _, src := range accepted {
		observations = append(observations, p.extractor.Extract(src)...)
		if src.Origin == model.OriginFilter {
			report.StructureSignals = append(report.StructureSignals, p.extractor.StructureSignals(src))
		}
	}

	// 4. Consensus: merge, refine each source's alignment against the first
	// pass, merge again. Exactly two passes.
	merged := p.engine.Merge(observations, qualities)
	if len(merged) > 0 {
		devs := consensus.SourceDeviations(observations, merged)
		for id, q := range qualities {
			d, ok := devs[id]
			if !ok {
				continue
			}
			q.ConsensusAlignment = 1 - math.Min(1, d/50)
			q.Overall = p.validator.Overall(q)
			q.Supplementary = q.Overall < p.cfg.Validation.SupplementaryThreshold
			qualities[id] = q
		}
		merged = p.engine.Merge(observations, qualities)
	}

	for _, cw := range merged {
		if cw.Spread > p.cfg.Consensus.HighSpreadThreshold {
			report.HighSpreadAffixes = append(report.HighSpreadAffixes, model.SpreadFlag{
				Build:   slug,
				AffixID: cw.AffixID,
				Phase:   cw.Phase,
				Spread:  cw.Spread,
			})
		}
	}

	// 5. Inheritance and packaging. With zero accepted sources the build
	// keeps no trusted identity, so only the baseline layer runs.
	id := identityOf(accepted)
	res := p.inheritor.Resolve(inherit.Request{
		BuildSlug:   slug,
		Mastery:     id.mastery,
		DamageTypes: id.damageTypes,
		Archetype:   id.archetype,
		Override:    p.engine.OverrideSet(merged),
		SourceCount: len(accepted),
	})

	profile := p.packageProfile(slug, id, len(accepted), merged, res)

	zap.L().Debug("build processed",
		zap.String("build", slug),
		zap.Int("sources", len(accepted)),
		zap.Int("observations", len(observations)),
		zap.String("layer", string(profile.DataSourceLayer)))
	return profile, nil
}

type buildIdentity struct {
	mastery     string
	damageTypes []string
	archetype   string
}

// identityOf takes the first non-empty value per field across the accepted
// sources, which sit in sorted file order with planners first.
func identityOf(sources []model.RawSource) buildIdentity {
	var id buildIdentity
	for _, s := range sources {
		if id.mastery == "" {
			id.mastery = strings.ToLower(s.Mastery)
		}
		if len(id.damageTypes) == 0 {
			for _, dt := range s.DamageTypes {
				id.damageTypes = append(id.damageTypes, strings.ToLower(dt))
			}
		}
		if id.archetype == "" {
			id.archetype = strings.ToLower(s.Archetype)
		}
	}
	return id
}

// packageProfile builds the phase tables: the propagated map decides which
// affixes appear, surviving per-phase consensus records supply weight and
// metadata, and everything else carries inherited defaults.
func (p *Pipeline) packageProfile(slug string, id buildIdentity, sourceCount int,
	merged []model.ConsensusWeight, res inherit.Resolution) *model.BuildKnowledgeProfile {

	type phaseKey struct {
		id    int
		phase model.Phase
	}
	byPhase := make(map[phaseKey]model.ConsensusWeight, len(merged))
	for _, cw := range merged {
		byPhase[phaseKey{cw.AffixID, cw.Phase}] = cw
	}

	ids := make([]int, 0, len(res.Weights))
	for affixID, w := range res.Weights {
		if w > 0 {
			ids = append(ids, affixID)
		}
	}
	sort.Ints(ids)

	phases := make(map[model.Phase]model.PhaseTable, len(model.Phases))
	for _, phase := range model.Phases {
		entries := make([]model.AffixWeight, 0, len(ids))
		for _, affixID := range ids {
			if cw, ok := byPhase[phaseKey{affixID, phase}]; ok {
				entries = append(entries, model.AffixWeight{
					ID:              affixID,
					Weight:          cw.Weight,
					Category:        cw.Category,
					MinTier:         cw.MinTier,
					ConsensusSpread: cw.Spread,
					Confidence:      cw.Confidence,
				})
				continue
			}
			w := res.Weights[affixID]
			entries = append(entries, model.AffixWeight{
				ID:         affixID,
				Weight:     w,
				Category:   model.CategoryForWeight(w),
				MinTier:    1,
				Confidence: 0.5,
			})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Weight != entries[j].Weight {
				return entries[i].Weight > entries[j].Weight
			}
			return entries[i].ID < entries[j].ID
		})
		phases[phase] = model.PhaseTable{Affixes: entries}
	}

	var damageType string
	if len(id.damageTypes) > 0 {
		damageType = id.damageTypes[0]
	}

	return &model.BuildKnowledgeProfile{
		BuildSlug:        slug,
		Mastery:          id.mastery,
		DamageType:       damageType,
		SpecificityScore: res.Specificity,
		SourceCount:      sourceCount,
		Confidence:       confidenceLabel(sourceCount, res.Specificity),
		DataSourceLayer:  res.Layer,
		Phases:           phases,
	}
}

func confidenceLabel(sources int, specificity float64) model.ConfidenceLabel {
	switch {
	case sources == 0:
		return model.ConfidenceLow
	case specificity == 1.0 && sources >= 3:
		return model.ConfidenceHigh
	case sources >= 2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
