package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/cache"
	"github.com/Artzzx/buildlore/internal/consensus"
	"github.com/Artzzx/buildlore/internal/extract"
	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/graph"
	"github.com/Artzzx/buildlore/internal/inherit"
	"github.com/Artzzx/buildlore/internal/ingest"
	"github.com/Artzzx/buildlore/internal/model"
	"github.com/Artzzx/buildlore/internal/output"
	"github.com/Artzzx/buildlore/internal/resolve"
	"github.com/Artzzx/buildlore/internal/store"
	"github.com/Artzzx/buildlore/internal/validate"
)

// Pipeline orchestrates one ingestion run: discover, ingest, validate,
// extract, merge, inherit, publish. Builds are processed strictly in
// sequence; a failing build never touches its neighbors.
type Pipeline struct {
	cfg       *model.Config
	gd        *gamedata.GameData
	planner   *ingest.PlannerIngester
	filter    *ingest.FilterIngester
	validator *validate.Validator
	extractor *extract.Extractor
	engine    *consensus.Engine
	inheritor *inherit.Resolver
	writer    *output.Writer
}

// New loads the game data and wires every pipeline stage.
func New(cfg *model.Config) (*Pipeline, error) {
	gd, err := gamedata.Load(cfg.Paths.AffixesFile, cfg.Paths.GameConstantsFile)
	if err != nil {
		return nil, eris.Wrap(err, "load game data")
	}

	resolver := resolve.NewResolver(gd, cfg.Resolver.FuzzyMatchThreshold, cache.NewMemoryCache())
	g := graph.New(cfg.Graph, gd.Edges())

	return &Pipeline{
		cfg:       cfg,
		gd:        gd,
		planner:   ingest.NewPlannerIngester(resolver),
		filter:    ingest.NewFilterIngester(),
		validator: validate.NewValidator(cfg.Validation, gd),
		extractor: extract.NewExtractor(cfg.Extraction, gd),
		engine:    consensus.NewEngine(cfg.Consensus),
		inheritor: inherit.NewResolver(cfg.Inheritance, gd, g),
		writer:    output.NewWriter(cfg.Output, cfg.Paths.WeightsDir),
	}, nil
}

// RunOptions narrow or soften a run.
type RunOptions struct {
	Only   string // process a single build slug
	DryRun bool   // validate and report, write nothing
	Force  bool   // rebuild even when the published output is newer than every input
}

// Run executes the pipeline over every discovered build. Build failures land
// in the report and never abort the run; the context is only checked between
// builds, so an interrupted run still leaves the previous knowledge base
// fully intact.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*model.RunReport, error) {
	start := time.Now()
	report := model.NewRunReport()

	builds, err := ingest.DiscoverSources(p.cfg.Paths.SourcesDir)
	if err != nil {
		return nil, eris.Wrap(err, "discover sources")
	}

	if opts.Only != "" {
		files, ok := builds[opts.Only]
		if !ok {
			return nil, eris.Errorf("unknown build %q", opts.Only)
		}
		builds = map[string][]string{opts.Only: files}
	}

	if !opts.Force && !opts.DryRun && p.upToDate(builds) {
		zap.L().Info("knowledge base up to date, nothing to do",
			zap.String("dir", p.cfg.Paths.WeightsDir))
		report.DurationSeconds = time.Since(start).Seconds()
		return report, nil
	}

	ledger, runID := p.openLedger(ctx, opts.DryRun)
	if ledger != nil {
		defer ledger.Close()
	}

	slugs := make([]string, 0, len(builds))
	for slug := range builds {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	zap.L().Info("run started",
		zap.Int("builds", len(slugs)),
		zap.Bool("dry_run", opts.DryRun))

	var profiles []*model.BuildKnowledgeProfile
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			report.DurationSeconds = time.Since(start).Seconds()
			p.finishLedger(ledger, runID, store.RunStatusFailed, report)
			return report, eris.Wrap(err, "run cancelled")
		}

		profile, err := p.ProcessBuild(slug, builds[slug], report)
		if err != nil {
			zap.L().Warn("build failed", zap.String("build", slug), zap.Error(err))
			report.BuildsFailed = append(report.BuildsFailed, model.BuildFailure{
				Build:  slug,
				Reason: err.Error(),
			})
			continue
		}

		report.BuildsProcessed++
		if profile.SpecificityScore < p.cfg.Inheritance.LowConfidenceSpecificity ||
			profile.SourceCount < p.cfg.Inheritance.LowConfidenceSourceCount {
			report.LowConfidenceBuilds = append(report.LowConfidenceBuilds, slug)
		}
		profiles = append(profiles, profile)
	}

	report.DurationSeconds = time.Since(start).Seconds()

	// A run that produced no profiles must never replace the previous
	// knowledge base with an empty one.
	if !opts.DryRun && len(profiles) > 0 {
		if err := p.writer.Write(profiles, report); err != nil {
			p.finishLedger(ledger, runID, store.RunStatusFailed, report)
			return report, eris.Wrap(err, "publish knowledge base")
		}
	}

	status := store.RunStatusCompleted
	if report.BuildsProcessed == 0 && len(report.BuildsFailed) > 0 {
		status = store.RunStatusFailed
	}
	p.finishLedger(ledger, runID, status, report)

	zap.L().Info("run finished",
		zap.Int("processed", report.BuildsProcessed),
		zap.Int("failed", len(report.BuildsFailed)),
		zap.Float64("seconds", report.DurationSeconds))
	return report, nil
}

// upToDate reports whether the published knowledge base is newer than every
// source file and mapping file.
func (p *Pipeline) upToDate(builds map[string][]string) bool {
	published, err := os.Stat(filepath.Join(p.cfg.Paths.WeightsDir, output.FileKnowledgeBase))
	if err != nil {
		return false
	}

	inputs := []string{p.cfg.Paths.AffixesFile, p.cfg.Paths.GameConstantsFile}
	for _, files := range builds {
		inputs = append(inputs, files...)
	}
	for _, path := range inputs {
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(published.ModTime()) {
			return false
		}
	}
	return true
}

// openLedger opens the run ledger and inserts the run row. Ledger trouble is
// logged and swallowed; history must never fail a run.
func (p *Pipeline) openLedger(ctx context.Context, dryRun bool) (*store.Ledger, string) {
	if p.cfg.Ledger.Path == "" {
		return nil, ""
	}
	ledger, err := store.Open(p.cfg.Ledger.Path)
	if err != nil {
		zap.L().Warn("run ledger unavailable", zap.Error(err))
		return nil, ""
	}
	if err := ledger.Migrate(ctx); err != nil {
		zap.L().Warn("run ledger migration failed", zap.Error(err))
		ledger.Close()
		return nil, ""
	}
	rec, err := ledger.CreateRun(ctx, dryRun, p.cfg.Output.PatchVersion)
	if err != nil {
		zap.L().Warn("run ledger insert failed", zap.Error(err))
		ledger.Close()
		return nil, ""
	}
	return ledger, rec.ID
}

func (p *Pipeline) finishLedger(ledger *store.Ledger, runID, status string, report *model.RunReport) {
	if ledger == nil {
		return
	}
	if err := ledger.FinishRun(context.Background(), runID, status, report); err != nil {
		zap.L().Warn("run ledger update failed", zap.Error(err))
	}
}
