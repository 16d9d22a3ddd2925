package model

// SourceQualityScore is the validator's verdict for one accepted source.
// All five dimensions are in [0,1]; Overall is their weighted average.
type SourceQualityScore struct {
	SourceID           string  `json:"source_id"`
	Specificity        float64 `json:"specificity"`         // 1.0 single mastery, diluted for broader scopes
	AffixCoverage      float64 `json:"affix_coverage"`      // fraction of ids present in the catalog
	PhaseCoverage      float64 `json:"phase_coverage"`      // non-empty phases / 3
	Recency            float64 `json:"recency"`             // patch freshness; 1.0 until patch metadata is enforced
	ConsensusAlignment float64 `json:"consensus_alignment"` // provisional 1.0, refined after the first consensus pass
	Overall            float64 `json:"overall"`
	Supplementary      bool    `json:"supplementary"` // Overall below the supplementary threshold
}

// RejectReason is a stable machine-readable code for a hard rejection.
type RejectReason string

const (
	RejectAffixCountBelowMin     RejectReason = "affix_count_below_15"
	RejectUnknownAffixIDs        RejectReason = "unknown_affix_ids"
	RejectNoPhaseDifferentiation RejectReason = "no_phase_differentiation"
	RejectDuplicateChecksum      RejectReason = "duplicate_checksum"
	RejectIngestError            RejectReason = "ingest_error"
)
