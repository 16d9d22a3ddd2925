package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/model"
)

// Ingester parses one on-disk document into a RawSource.
type Ingester interface {
	Ingest(path string) (model.RawSource, error)
}

// reportFiles are upstream normalizer artifacts that live next to the
// planner exports but are not sources themselves.
var reportFiles = map[string]bool{
	"normalization-report.json": true,
	"planner-warnings.json":     true,
}

// strictnessSuffixes are stripped from filter filenames to recover the build
// slug. Longer suffixes first so _very_strict is not eaten by _strict.
var strictnessSuffixes = []string{
	"_uber_strict",
	"_giga_strict",
	"_very_strict",
	"_regular",
	"_strict",
	"_normal",
	"_relaxed",
}

// DiscoverSources walks the sources directory and groups files by build
// slug. Planner exports come from <dir>/planners/normalized/*.json; filter
// files from <dir>/filters/*.xml, attached only to slugs that already have a
// planner. File lists are deterministic: planners first, then filters, each
// sorted.
func DiscoverSources(dir string) (map[string][]string, error) {
	builds := make(map[string][]string)

	plannerDir := filepath.Join(dir, "planners", "normalized")
	plannerPaths, err := filepath.Glob(filepath.Join(plannerDir, "*.json"))
	if err != nil {
		return nil, eris.Wrap(err, "ingest: glob planners")
	}
	if len(plannerPaths) == 0 {
		zap.L().Warn("no planner exports found", zap.String("dir", plannerDir))
	}
	sort.Strings(plannerPaths)
	for _, p := range plannerPaths {
		base := filepath.Base(p)
		if reportFiles[base] {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			zap.L().Debug("skipping empty or unreadable planner", zap.String("path", p))
			continue
		}
		slug := strings.TrimSuffix(base, ".json")
		builds[slug] = append(builds[slug], p)
	}

	filterPaths, err := filepath.Glob(filepath.Join(dir, "filters", "*.xml"))
	if err != nil {
		return nil, eris.Wrap(err, "ingest: glob filters")
	}
	sort.Strings(filterPaths)
	for _, p := range filterPaths {
		slug := buildSlugFromFilter(p)
		if _, known := builds[slug]; !known {
			zap.L().Debug("filter has no matching planner, skipping",
				zap.String("path", p), zap.String("slug", slug))
			continue
		}
		builds[slug] = append(builds[slug], p)
	}

	return builds, nil
}

// buildSlugFromFilter recovers the build slug from a filter filename by
// stripping at most one strictness suffix.
func buildSlugFromFilter(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, sfx := range strictnessSuffixes {
		if strings.HasSuffix(stem, sfx) {
			return strings.TrimSuffix(stem, sfx)
		}
	}
	return stem
}

// ForPath picks the ingester matching a discovered file.
func ForPath(path string, planner *PlannerIngester, filter *FilterIngester) Ingester {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return filter
	}
	return planner
}
