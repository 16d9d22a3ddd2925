package model

// DerivationMethod tags how a weight observation was produced.
type DerivationMethod string

const (
	MethodTierTranslation    DerivationMethod = "tier_translation"
	MethodStrictnessSurvival DerivationMethod = "strictness_survival"
)

// Category buckets an affix by importance. Categories calibrate filter rule
// grouping downstream; weights order affixes within a category.
type Category string

const (
	CategoryEssential Category = "essential"
	CategoryStrong    Category = "strong"
	CategoryUseful    Category = "useful"
	CategoryFiller    Category = "filler"
)

// CategoryForWeight maps a merged weight onto its category bucket.
func CategoryForWeight(w float64) Category {
	switch {
	case w >= 75:
		return CategoryEssential
	case w >= 55:
		return CategoryStrong
	case w >= 35:
		return CategoryUseful
	default:
		return CategoryFiller
	}
}

// CategoryForTier maps an observed tier onto its category bucket.
func CategoryForTier(tier int) Category {
	switch {
	case tier >= 7:
		return CategoryEssential
	case tier >= 5:
		return CategoryStrong
	case tier >= 3:
		return CategoryUseful
	default:
		return CategoryFiller
	}
}

// Rank orders categories from essential (0) downwards, for deterministic
// tie-breaking in category votes.
func (c Category) Rank() int {
	switch c {
	case CategoryEssential:
		return 0
	case CategoryStrong:
		return 1
	case CategoryUseful:
		return 2
	default:
		return 3
	}
}

// ExtractedWeight is one (affix, phase) observation from one source.
// Consumed immediately by the consensus step; never persisted.
type ExtractedWeight struct {
	AffixID  int
	Phase    Phase
	Weight   float64 // 0-100
	MinTier  int     // lowest tier worth including; 0 = no tier signal
	Category Category
	Method   DerivationMethod
	SourceID string
}

// ConsensusWeight is the merged result for one (affix, phase) across all
// accepted sources of a build.
type ConsensusWeight struct {
	AffixID     int      `json:"affix_id"`
	Phase       Phase    `json:"phase"`
	Weight      float64  `json:"weight"`
	Category    Category `json:"category"`
	MinTier     int      `json:"min_tier"`         // 0 = no tier signal
	Spread      float64  `json:"consensus_spread"` // normalized stddev across sources, 0-1
	Confidence  float64  `json:"confidence"`       // 0-1
	SourceCount int      `json:"source_count"`
}
