package model

import (
	"os"
	"path/filepath"
)

// Config carries every tunable for a pipeline run. Values come from the
// config file (~/.buildlore/config.yaml), BUILDLORE_* environment variables,
// and CLI flags, in ascending priority.
type Config struct {
	Paths       PathsConfig       `mapstructure:"paths" yaml:"paths"`
	Validation  ValidationConfig  `mapstructure:"validation" yaml:"validation"`
	Resolver    ResolverConfig    `mapstructure:"resolver" yaml:"resolver"`
	Extraction  ExtractionConfig  `mapstructure:"extraction" yaml:"extraction"`
	Consensus   ConsensusConfig   `mapstructure:"consensus" yaml:"consensus"`
	Graph       GraphConfig       `mapstructure:"graph" yaml:"graph"`
	Inheritance InheritanceConfig `mapstructure:"inheritance" yaml:"inheritance"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Ledger      LedgerConfig      `mapstructure:"ledger" yaml:"ledger"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

// PathsConfig locates inputs and outputs on disk.
type PathsConfig struct {
	SourcesDir        string `mapstructure:"sources_dir" yaml:"sources_dir"`
	AffixesFile       string `mapstructure:"affixes_file" yaml:"affixes_file"`
	GameConstantsFile string `mapstructure:"game_constants_file" yaml:"game_constants_file"`
	WeightsDir        string `mapstructure:"weights_dir" yaml:"weights_dir"`
}

// ValidationConfig tunes the source quality gate.
type ValidationConfig struct {
	MinUniqueAffixes       int            `mapstructure:"min_unique_affixes" yaml:"min_unique_affixes"`
	SupplementaryThreshold float64        `mapstructure:"supplementary_threshold" yaml:"supplementary_threshold"`
	QualityWeights         QualityWeights `mapstructure:"quality_weights" yaml:"quality_weights"`
}

// QualityWeights weighs the five quality dimensions in the overall score.
type QualityWeights struct {
	Specificity        float64 `mapstructure:"specificity" yaml:"specificity"`
	AffixCoverage      float64 `mapstructure:"affix_coverage" yaml:"affix_coverage"`
	PhaseCoverage      float64 `mapstructure:"phase_coverage" yaml:"phase_coverage"`
	Recency            float64 `mapstructure:"recency" yaml:"recency"`
	ConsensusAlignment float64 `mapstructure:"consensus_alignment" yaml:"consensus_alignment"`
}

// Sum returns the total dimension weight, the denominator of the overall
// quality score.
func (q QualityWeights) Sum() float64 {
	return q.Specificity + q.AffixCoverage + q.PhaseCoverage + q.Recency + q.ConsensusAlignment
}

// ResolverConfig tunes affix name resolution.
type ResolverConfig struct {
	FuzzyMatchThreshold float64 `mapstructure:"fuzzy_match_threshold" yaml:"fuzzy_match_threshold"`
}

// ExtractionConfig tunes weight extraction.
type ExtractionConfig struct {
	PhaseMultipliers PhaseMultipliers `mapstructure:"phase_multipliers" yaml:"phase_multipliers"`
}

// PhaseMultipliers are the asymmetric phase-persistence multipliers applied
// after tier translation. An affix only worth wearing early phases out; an
// affix only worth chasing at the very end keeps full value.
type PhaseMultipliers struct {
	BisOnly     float64 `mapstructure:"bis_only" yaml:"bis_only"`
	StarterOnly float64 `mapstructure:"starter_only" yaml:"starter_only"`
	AllPhases   float64 `mapstructure:"all_phases" yaml:"all_phases"`
	MiddleOnly  float64 `mapstructure:"middle_only" yaml:"middle_only"`
}

// ConsensusConfig tunes multi-source merging.
type ConsensusConfig struct {
	OutlierStdDevThreshold      float64 `mapstructure:"outlier_std_dev_threshold" yaml:"outlier_std_dev_threshold"`
	MinSourcesForOverride       int     `mapstructure:"min_sources_for_override" yaml:"min_sources_for_override"`
	OverrideConfidenceThreshold float64 `mapstructure:"override_confidence_threshold" yaml:"override_confidence_threshold"`
	HighSpreadThreshold         float64 `mapstructure:"high_spread_threshold" yaml:"high_spread_threshold"`
}

// GraphConfig tunes relationship propagation.
type GraphConfig struct {
	SynergyTriggerWeight    float64 `mapstructure:"synergy_trigger_weight" yaml:"synergy_trigger_weight"`
	SynergyBoostPerStrength float64 `mapstructure:"synergy_boost_per_strength" yaml:"synergy_boost_per_strength"`
}

// InheritanceConfig tunes the fallback layer chain.
type InheritanceConfig struct {
	// BaselineWeights maps name keys (snake_case) to floor weights. Affix
	// ids are looked up at load time by keyword, so the baseline survives
	// catalog id renumbering between patches.
	BaselineWeights          map[string]float64 `mapstructure:"baseline_weights" yaml:"baseline_weights"`
	LowConfidenceSpecificity float64            `mapstructure:"low_confidence_specificity" yaml:"low_confidence_specificity"`
	LowConfidenceSourceCount int                `mapstructure:"low_confidence_source_count" yaml:"low_confidence_source_count"`
}

// OutputConfig controls the published knowledge base metadata.
type OutputConfig struct {
	Version      string `mapstructure:"version" yaml:"version"`
	PatchVersion string `mapstructure:"patch_version" yaml:"patch_version"`
}

// LedgerConfig controls the run-history database.
type LedgerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns the shipped defaults. Thresholds and weights mirror
// the values the rule compiler was calibrated against.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			SourcesDir:        "data/sources",
			AffixesFile:       "data/mappings/affixes.json",
			GameConstantsFile: "data/mappings/game-constants.json",
			WeightsDir:        "data/weights",
		},
		Validation: ValidationConfig{
			MinUniqueAffixes:       15,
			SupplementaryThreshold: 0.4,
			QualityWeights: QualityWeights{
				Specificity:        0.30,
				AffixCoverage:      0.25,
				PhaseCoverage:      0.20,
				Recency:            0.15,
				ConsensusAlignment: 0.10,
			},
		},
		Resolver: ResolverConfig{
			FuzzyMatchThreshold: 0.85,
		},
		Extraction: ExtractionConfig{
			PhaseMultipliers: PhaseMultipliers{
				BisOnly:     1.0,
				StarterOnly: 0.8,
				AllPhases:   1.0,
				MiddleOnly:  0.85,
			},
		},
		Consensus: ConsensusConfig{
			OutlierStdDevThreshold:      2.0,
			MinSourcesForOverride:       3,
			OverrideConfidenceThreshold: 0.5,
			HighSpreadThreshold:         0.25,
		},
		Graph: GraphConfig{
			SynergyTriggerWeight:    60.0,
			SynergyBoostPerStrength: 15.0,
		},
		Inheritance: InheritanceConfig{
			BaselineWeights: map[string]float64{
				"added_health":   70.0,
				"added_vitality": 65.0,
				"movement_speed": 60.0,
			},
			LowConfidenceSpecificity: 0.5,
			LowConfidenceSourceCount: 3,
		},
		Output: OutputConfig{
			Version:      "1.0.0",
			PatchVersion: "1.3.5",
		},
		Ledger: LedgerConfig{
			Path: defaultLedgerPath(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "buildlore.db"
	}
	return filepath.Join(home, ".buildlore", "runs.db")
}
