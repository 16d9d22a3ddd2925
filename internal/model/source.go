package model

// SourceOrigin identifies the kind of document a source was ingested from
type SourceOrigin string

const (
	OriginPlanner SourceOrigin = "planner" // Equipment planner export (tier data)
	OriginFilter  SourceOrigin = "filter"  // Community loot filter (strictness data)
)

// Phase is a gear progression stage. Affix priorities differ per phase.
type Phase string

const (
	PhaseStarter      Phase = "starter"
	PhaseEndgame      Phase = "endgame"
	PhaseAspirational Phase = "aspirational"
)

// Phases lists every phase in canonical processing order.
var Phases = []Phase{PhaseStarter, PhaseEndgame, PhaseAspirational}

// ValidPhase reports whether name is one of the three known phases.
func ValidPhase(name string) bool {
	switch Phase(name) {
	case PhaseStarter, PhaseEndgame, PhaseAspirational:
		return true
	}
	return false
}

// TierObservation is one affix sighting with its rolled tier (1-7).
type TierObservation struct {
	AffixID int `json:"affix_id"`
	Tier    int `json:"tier"`
}

// PhaseData holds one phase's raw observations. Planner sources populate
// Affixes; filter sources populate StrictnessAffixes (strictness level →
// affix ids still shown at that level).
type PhaseData struct {
	Affixes           []TierObservation `json:"affixes,omitempty"`
	StrictnessAffixes map[string][]int  `json:"strictness_affixes,omitempty"`
}

// Empty reports whether the phase carries no observations of either kind.
func (p PhaseData) Empty() bool {
	if len(p.Affixes) > 0 {
		return false
	}
	for _, ids := range p.StrictnessAffixes {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// RawSource is a single ingested document before any processing. It lives in
// memory for the duration of one build's processing and is never persisted.
type RawSource struct {
	SourceID         string             // "planner:<stem>" or "filter:<stem>"
	Origin           SourceOrigin
	BuildSlug        string
	Mastery          string
	DamageTypes      []string
	Archetype        string
	CoveredMasteries []string           // [mastery] for a specific source, more for broader ones
	Phases           map[Phase]PhaseData
	Unresolved       []string           // raw labels that failed name resolution at ingest
	Checksum         string             // sha256 of the raw file bytes, for dedup
	Metadata         map[string]string
}

// SourceScope classifies how narrow a source's build target is.
type SourceScope string

const (
	ScopeSpecific     SourceScope = "specific"      // single mastery
	ScopeMultiMastery SourceScope = "multi_mastery" // up to 3 masteries
	ScopeMultiClass   SourceScope = "multi_class"   // up to 9 masteries
	ScopeUniversal    SourceScope = "universal"
)

// Scope derives the source's scope from its covered masteries.
func (s RawSource) Scope() SourceScope {
	switch n := len(s.CoveredMasteries); {
	case n == 1:
		return ScopeSpecific
	case n <= 3:
		return ScopeMultiMastery
	case n <= 9:
		return ScopeMultiClass
	default:
		return ScopeUniversal
	}
}

// PrimaryDamageType returns the build's leading damage type, or "" when the
// source carries none.
func (s RawSource) PrimaryDamageType() string {
	if len(s.DamageTypes) == 0 {
		return ""
	}
	return s.DamageTypes[0]
}
