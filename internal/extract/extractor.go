package extract

import (
	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/model"
)

// Extractor turns one accepted source into per-affix, per-phase weight
// observations. Two derivations share the one contract, keyed by the source
// origin: planners carry tier data, filters carry strictness survival.
// Threshold affixes are skipped before any other logic runs; they never
// receive a weight from this system.
type Extractor struct {
	cfg model.ExtractionConfig
	gd  *gamedata.GameData
}

// NewExtractor creates a new extractor.
func NewExtractor(cfg model.ExtractionConfig, gd *gamedata.GameData) *Extractor {
	return &Extractor{cfg: cfg, gd: gd}
}

// Extract dispatches on the source origin. Missing fields are absent
// observations, never an error.
func (e *Extractor) Extract(src model.RawSource) []model.ExtractedWeight {
	switch src.Origin {
	case model.OriginFilter:
		return e.extractStrictness(src)
	default:
		return e.extractTiers(src)
	}
}

// usable filters out threshold affixes and ids that slipped past validation.
func (e *Extractor) usable(affixID int) bool {
	if e.gd.IsThreshold(affixID) {
		return false
	}
	return e.gd.IsKnownAffix(affixID)
}
