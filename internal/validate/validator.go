package validate

import (
	"fmt"
	"sort"

	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/model"
)

// Rejection explains why a source was discarded. Reason is a stable code the
// run report groups on; Detail is for humans.
type Rejection struct {
	Reason model.RejectReason
	Detail string
}

// Validator applies the hard-rejection rules and scores surviving sources.
// Rejection never stops the build; the pipeline keeps going with whatever
// sources remain.
type Validator struct {
	cfg model.ValidationConfig
	gd  *gamedata.GameData
}

// NewValidator creates a new validator.
func NewValidator(cfg model.ValidationConfig, gd *gamedata.GameData) *Validator {
	return &Validator{cfg: cfg, gd: gd}
}

// Validate checks one source against the hard rules, in order, and computes
// its quality score. seenChecksums holds checksums of sources already
// accepted for this build; the caller owns it. A nil Rejection means the
// source is accepted.
func (v *Validator) Validate(src model.RawSource, seenChecksums map[string]bool) (*model.SourceQualityScore, *Rejection) {
	ids := distinctAffixIDs(src)

	if len(ids) < v.cfg.MinUniqueAffixes {
		return nil, &Rejection{
			Reason: model.RejectAffixCountBelowMin,
			Detail: fmt.Sprintf("%d distinct affix ids, need %d", len(ids), v.cfg.MinUniqueAffixes),
		}
	}

	if unknown := v.unknownIDs(ids); len(unknown) > 0 {
		return nil, &Rejection{
			Reason: model.RejectUnknownAffixIDs,
			Detail: fmt.Sprintf("%d ids not in the catalog, first %d", len(unknown), unknown[0]),
		}
	}

	populated := phasesWithData(src)
	switch src.Origin {
	case model.OriginFilter:
		if populated == 0 {
			return nil, &Rejection{
				Reason: model.RejectNoPhaseDifferentiation,
				Detail: "no strictness level carries any affix",
			}
		}
	default:
		if populated < 2 {
			return nil, &Rejection{
				Reason: model.RejectNoPhaseDifferentiation,
				Detail: fmt.Sprintf("only %d phase(s) carry data", populated),
			}
		}
	}

	if seenChecksums[src.Checksum] {
		return nil, &Rejection{
			Reason: model.RejectDuplicateChecksum,
			Detail: "byte-identical to an already accepted source",
		}
	}

	score := v.score(src, ids, populated)
	return &score, nil
}

// score fills the five quality dimensions. Multi-mastery sources are never
// rejected for their breadth; the diluted specificity is the whole penalty.
func (v *Validator) score(src model.RawSource, ids []int, populated int) model.SourceQualityScore {
	s := model.SourceQualityScore{
		SourceID:           src.SourceID,
		Recency:            1.0,
		ConsensusAlignment: 1.0,
	}

	switch n := len(src.CoveredMasteries); {
	case n == 1:
		s.Specificity = 1.0
	case n > 1:
		s.Specificity = 1.0 / float64(n)
	default:
		s.Specificity = 0.1
	}

	s.AffixCoverage = float64(len(ids)) / float64(len(ids)+len(src.Unresolved))
	s.PhaseCoverage = float64(populated) / float64(len(model.Phases))

	s.Overall = v.Overall(s)
	s.Supplementary = s.Overall < v.cfg.SupplementaryThreshold
	return s
}

// Overall recomputes the weighted average from the dimension scores. The
// consensus step calls it again after refining alignment.
func (v *Validator) Overall(s model.SourceQualityScore) float64 {
	w := v.cfg.QualityWeights
	total := w.Sum()
	if total == 0 {
		return 0
	}
	sum := s.Specificity*w.Specificity +
		s.AffixCoverage*w.AffixCoverage +
		s.PhaseCoverage*w.PhaseCoverage +
		s.Recency*w.Recency +
		s.ConsensusAlignment*w.ConsensusAlignment
	return sum / total
}

// distinctAffixIDs collects every affix id the source mentions, across both
// observation kinds, sorted ascending.
func distinctAffixIDs(src model.RawSource) []int {
	seen := make(map[int]bool)
	for _, data := range src.Phases {
		for _, obs := range data.Affixes {
			seen[obs.AffixID] = true
		}
		for _, ids := range data.StrictnessAffixes {
			for _, id := range ids {
				seen[id] = true
			}
		}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (v *Validator) unknownIDs(ids []int) []int {
	var unknown []int
	for _, id := range ids {
		if !v.gd.IsKnownAffix(id) {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

func phasesWithData(src model.RawSource) int {
	n := 0
	for _, data := range src.Phases {
		if !data.Empty() {
			n++
		}
	}
	return n
}
