package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/model"
	"github.com/Artzzx/buildlore/internal/resolve"
)

// PlannerIngester parses normalized equipment-planner exports. Affix entries
// usually carry canonical ids; community-edited exports sometimes carry
// display names instead, which go through the resolver.
type PlannerIngester struct {
	resolver *resolve.Resolver
}

// NewPlannerIngester creates a planner ingester.
func NewPlannerIngester(r *resolve.Resolver) *PlannerIngester {
	return &PlannerIngester{resolver: r}
}

type rawPlanner struct {
	BuildSlug        string                     `json:"build_slug"`
	Mastery          string                     `json:"mastery"`
	DamageTypes      []string                   `json:"damage_types"`
	DamageType       string                     `json:"damage_type"`
	Archetype        string                     `json:"archetype"`
	CoveredMasteries []string                   `json:"covered_masteries"`
	Phases           map[string]rawPlannerPhase `json:"phases"`
	Metadata         map[string]string          `json:"metadata"`
}

type rawPlannerPhase struct {
	Affixes []rawPlannerAffix `json:"affixes"`
}

type rawPlannerAffix struct {
	AffixID int    `json:"affix_id"`
	Affix   string `json:"affix"`
	Name    string `json:"name"`
	Tier    int    `json:"tier"`
}

// Ingest reads one planner export.
func (pi *PlannerIngester) Ingest(path string) (model.RawSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.RawSource{}, eris.Wrap(err, "ingest: read planner")
	}
	var doc rawPlanner
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.RawSource{}, eris.Wrapf(err, "ingest: parse planner %s", filepath.Base(path))
	}
	if doc.BuildSlug == "" {
		return model.RawSource{}, eris.Errorf("ingest: planner %s missing build_slug", filepath.Base(path))
	}
	if doc.Mastery == "" {
		return model.RawSource{}, eris.Errorf("ingest: planner %s missing mastery", filepath.Base(path))
	}
	if len(doc.Phases) == 0 {
		return model.RawSource{}, eris.Errorf("ingest: planner %s has no phases", filepath.Base(path))
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	src := model.RawSource{
		SourceID:         "planner:" + stem,
		Origin:           model.OriginPlanner,
		BuildSlug:        doc.BuildSlug,
		Mastery:          doc.Mastery,
		DamageTypes:      doc.DamageTypes,
		Archetype:        doc.Archetype,
		CoveredMasteries: doc.CoveredMasteries,
		Phases:           make(map[model.Phase]model.PhaseData, len(doc.Phases)),
		Checksum:         checksum(raw),
		Metadata:         doc.Metadata,
	}
	if len(src.DamageTypes) == 0 && doc.DamageType != "" {
		src.DamageTypes = []string{doc.DamageType}
	}
	if len(src.CoveredMasteries) == 0 {
		src.CoveredMasteries = []string{doc.Mastery}
	}

	for name, phase := range doc.Phases {
		if !model.ValidPhase(name) {
			zap.L().Debug("skipping unknown phase",
				zap.String("source", src.SourceID), zap.String("phase", name))
			continue
		}
		var obs []model.TierObservation
		for _, entry := range phase.Affixes {
			id, ok := pi.resolveEntry(entry, &src)
			if !ok {
				continue
			}
			if entry.Tier < 1 || entry.Tier > 7 {
				zap.L().Debug("skipping observation with out-of-range tier",
					zap.String("source", src.SourceID), zap.Int("affix_id", id), zap.Int("tier", entry.Tier))
				continue
			}
			obs = append(obs, model.TierObservation{AffixID: id, Tier: entry.Tier})
		}
		src.Phases[model.Phase(name)] = model.PhaseData{Affixes: obs}
	}

	return src, nil
}

// resolveEntry produces the canonical id behind one affix entry. Name-keyed
// entries that fail resolution are recorded on the source and dropped; only
// that single observation is lost.
func (pi *PlannerIngester) resolveEntry(entry rawPlannerAffix, src *model.RawSource) (int, bool) {
	if entry.AffixID > 0 {
		return entry.AffixID, true
	}
	label := entry.Affix
	if label == "" {
		label = entry.Name
	}
	if label == "" {
		return 0, false
	}
	if id, ok := pi.resolver.ResolveName(label); ok {
		return id, true
	}
	src.Unresolved = append(src.Unresolved, label)
	return 0, false
}

func checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
