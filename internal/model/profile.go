package model

// AffixWeight is one entry in a profile's phase table, shaped exactly as the
// downstream rule compiler consumes it.
type AffixWeight struct {
	ID              int      `json:"id"`
	Weight          float64  `json:"weight"`
	Category        Category `json:"category"`
	MinTier         int      `json:"min_tier"`
	ConsensusSpread float64  `json:"consensus_spread"`
	Confidence      float64  `json:"confidence"`
}

// PhaseTable groups one phase's ranked affix entries.
type PhaseTable struct {
	Affixes []AffixWeight `json:"affixes"`
}

// ConfidenceLabel summarizes how much trust a build profile deserves.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "high"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceLow    ConfidenceLabel = "low"
)

// DataSourceLayer names the deepest inheritance layer that executed while
// resolving a build.
type DataSourceLayer string

const (
	LayerBaseline   DataSourceLayer = "baseline"
	LayerDamageType DataSourceLayer = "damage_type"
	LayerClass      DataSourceLayer = "class"
	LayerMastery    DataSourceLayer = "mastery"
	LayerSpecific   DataSourceLayer = "specific"
)

// Specificity returns the specificity score implied by the layer: 0.0 for a
// baseline-only resolution up to 1.0 when build-specific data applied.
func (l DataSourceLayer) Specificity() float64 {
	switch l {
	case LayerSpecific:
		return 1.0
	case LayerMastery:
		return 0.7
	case LayerClass:
		return 0.4
	case LayerDamageType:
		return 0.2
	default:
		return 0.0
	}
}

// BuildKnowledgeProfile is the final per-build artifact. Created once per
// build per run, immutable afterwards. The build slug keys the profile in
// the knowledge base and is not repeated inside the serialized body.
type BuildKnowledgeProfile struct {
	BuildSlug        string               `json:"-"`
	Mastery          string               `json:"mastery"`
	DamageType       string               `json:"damage_type"`
	SpecificityScore float64              `json:"specificity_score"`
	SourceCount      int                  `json:"source_count"`
	Confidence       ConfidenceLabel      `json:"confidence"`
	DataSourceLayer  DataSourceLayer      `json:"data_source_layer"`
	Phases           map[Phase]PhaseTable `json:"phases"`
}
