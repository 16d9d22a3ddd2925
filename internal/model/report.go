package model

// RunReport is the structured summary of one pipeline run. It is the only
// failure surface the pipeline exposes: rejections, per-build failures, and
// review flags all land here instead of aborting the run.
type RunReport struct {
	BuildsProcessed     int               `json:"builds_processed"`
	BuildsFailed        []BuildFailure    `json:"builds_failed"`
	SourcesAccepted     int               `json:"sources_accepted"`
	SourcesRejected     []SourceRejection `json:"sources_rejected"`
	UnresolvedAffixes   []UnresolvedAffix `json:"unresolved_affixes"`
	LowConfidenceBuilds []string          `json:"low_confidence_builds"`
	HighSpreadAffixes   []SpreadFlag      `json:"high_spread_affixes"`
	StructureSignals    []StructureSignal `json:"rule_structure_signals"`
	DurationSeconds     float64           `json:"duration_seconds"`
}

// NewRunReport returns a report with every list initialized, so serialized
// output carries empty arrays instead of nulls.
func NewRunReport() *RunReport {
	return &RunReport{
		BuildsFailed:        []BuildFailure{},
		SourcesRejected:     []SourceRejection{},
		UnresolvedAffixes:   []UnresolvedAffix{},
		LowConfidenceBuilds: []string{},
		HighSpreadAffixes:   []SpreadFlag{},
		StructureSignals:    []StructureSignal{},
	}
}

// BuildFailure records one build that produced no profile.
type BuildFailure struct {
	Build  string `json:"build"`
	Reason string `json:"reason"`
}

// SourceRejection records one hard-rejected source.
type SourceRejection struct {
	SourceID string       `json:"source_id"`
	Build    string       `json:"build"`
	Reason   RejectReason `json:"reason"`
	Detail   string       `json:"detail,omitempty"`
}

// UnresolvedAffix records a raw affix label no catalog entry matched.
// The single observation is dropped; extraction continues.
type UnresolvedAffix struct {
	SourceID string `json:"source_id"`
	Build    string `json:"build"`
	RawName  string `json:"raw_name"`
}

// SpreadFlag marks an (affix, phase) whose sources disagree enough to
// deserve human review. Advisory only, never auto-corrected.
type SpreadFlag struct {
	Build   string  `json:"build"`
	AffixID int     `json:"affix_id"`
	Phase   Phase   `json:"phase"`
	Spread  float64 `json:"spread"`
}

// StructureSignal captures how a filter author structured rule blocks per
// strictness level. Calibration metadata only; never merged into weights.
type StructureSignal struct {
	SourceID       string `json:"source_id"`
	EssentialCount int    `json:"essential_count"`
	StrongCount    int    `json:"strong_count"`
	UsefulCount    int    `json:"useful_count"`
	FillerCount    int    `json:"filler_count"`
	LevelsPresent  int    `json:"strictness_levels_present"`
}
