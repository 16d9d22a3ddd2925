package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Artzzx/buildlore/internal/model"
)

const version = "1.0.0"

const banner = "═══════════════════════════════════════════════════════════"

var (
	cfgFile     string
	verbose     bool
	cfg         *model.Config
	cfgFileUsed string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "buildlore",
	Short: "Buildlore - build knowledge ingestion for the loot filter compiler",
	Long: `Buildlore distills community build knowledge into the per-build affix
weight tables the loot filter rule compiler consumes.

It ingests build planner exports and loot filter snapshots, validates
and scores every source, merges overlapping observations into a
consensus, fills sparse builds from archetype inheritance, and
publishes knowledge-base.json with full provenance.

The output is deterministic: the same sources and mappings always
produce a byte-identical knowledge base.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		return initLogger(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number for Buildlore.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("buildlore v" + version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.buildlore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig layers the config file and BUILDLORE_* environment variables
// over the built-in defaults.
func loadConfig() (*model.Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".buildlore"))
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BUILDLORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key must be registered for AutomaticEnv to see it during
	// Unmarshal, so the defaults are mirrored into viper.
	def := model.DefaultConfig()
	v.SetDefault("paths.sources_dir", def.Paths.SourcesDir)
	v.SetDefault("paths.affixes_file", def.Paths.AffixesFile)
	v.SetDefault("paths.game_constants_file", def.Paths.GameConstantsFile)
	v.SetDefault("paths.weights_dir", def.Paths.WeightsDir)
	v.SetDefault("validation.min_unique_affixes", def.Validation.MinUniqueAffixes)
	v.SetDefault("validation.supplementary_threshold", def.Validation.SupplementaryThreshold)
	v.SetDefault("validation.quality_weights.specificity", def.Validation.QualityWeights.Specificity)
	v.SetDefault("validation.quality_weights.affix_coverage", def.Validation.QualityWeights.AffixCoverage)
	v.SetDefault("validation.quality_weights.phase_coverage", def.Validation.QualityWeights.PhaseCoverage)
	v.SetDefault("validation.quality_weights.recency", def.Validation.QualityWeights.Recency)
	v.SetDefault("validation.quality_weights.consensus_alignment", def.Validation.QualityWeights.ConsensusAlignment)
	v.SetDefault("resolver.fuzzy_match_threshold", def.Resolver.FuzzyMatchThreshold)
	v.SetDefault("extraction.phase_multipliers.bis_only", def.Extraction.PhaseMultipliers.BisOnly)
	v.SetDefault("extraction.phase_multipliers.starter_only", def.Extraction.PhaseMultipliers.StarterOnly)
	v.SetDefault("extraction.phase_multipliers.all_phases", def.Extraction.PhaseMultipliers.AllPhases)
	v.SetDefault("extraction.phase_multipliers.middle_only", def.Extraction.PhaseMultipliers.MiddleOnly)
	v.SetDefault("consensus.outlier_std_dev_threshold", def.Consensus.OutlierStdDevThreshold)
	v.SetDefault("consensus.min_sources_for_override", def.Consensus.MinSourcesForOverride)
	v.SetDefault("consensus.override_confidence_threshold", def.Consensus.OverrideConfidenceThreshold)
	v.SetDefault("consensus.high_spread_threshold", def.Consensus.HighSpreadThreshold)
	v.SetDefault("graph.synergy_trigger_weight", def.Graph.SynergyTriggerWeight)
	v.SetDefault("graph.synergy_boost_per_strength", def.Graph.SynergyBoostPerStrength)
	v.SetDefault("inheritance.baseline_weights", def.Inheritance.BaselineWeights)
	v.SetDefault("inheritance.low_confidence_specificity", def.Inheritance.LowConfidenceSpecificity)
	v.SetDefault("inheritance.low_confidence_source_count", def.Inheritance.LowConfidenceSourceCount)
	v.SetDefault("output.version", def.Output.Version)
	v.SetDefault("output.patch_version", def.Output.PatchVersion)
	v.SetDefault("ledger.path", def.Ledger.Path)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}
	cfgFileUsed = v.ConfigFileUsed()

	var c model.Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if verbose {
		c.Log.Level = "debug"
	}
	return &c, nil
}

// initLogger installs the global zap logger before any command body runs.
func initLogger(lc model.LogConfig) error {
	var zapCfg zap.Config
	if verbose {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return eris.Wrapf(err, "config: parse log level %q", lc.Level)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
