package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Artzzx/buildlore/internal/cache"
	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/model"
	"github.com/Artzzx/buildlore/internal/resolve"
)

func testPlannerIngester() *PlannerIngester {
	gd := gamedata.New(
		[]model.AffixDefinition{
			{ID: 28, Name: "Increased Fire Damage"},
			{ID: 36, Name: "Increased Cast Speed"},
			{ID: 102, Name: "Added Health"},
		},
		nil, nil, nil, nil, nil,
	)
	r := resolve.NewResolver(gd, 0.85, cache.NewMemoryCache())
	return NewPlannerIngester(r)
}

const samplePlanner = `{
  "build_slug": "fire-sorc",
  "mastery": "sorcerer",
  "damage_type": "fire",
  "archetype": "caster",
  "phases": {
    "starter": {
      "affixes": [
        {"affix_id": 28, "tier": 3},
        {"affix": "Added Health", "tier": 2}
      ]
    },
    "endgame": {
      "affixes": [
        {"affix_id": 28, "tier": 7},
        {"affix_id": 36, "tier": 5},
        {"affix": "Imaginary Affix Label", "tier": 4},
        {"affix_id": 102, "tier": 9}
      ]
    },
    "twilight": {
      "affixes": [{"affix_id": 28, "tier": 1}]
    }
  },
  "metadata": {"patch": "1.3.5"}
}`

func writePlanner(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write planner fixture: %v", err)
	}
	return path
}

func TestPlannerIngest(t *testing.T) {
	path := writePlanner(t, "fire-sorc.json", samplePlanner)

	src, err := testPlannerIngester().Ingest(path)
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if src.SourceID != "planner:fire-sorc" {
		t.Errorf("SourceID = %q", src.SourceID)
	}
	if src.Origin != model.OriginPlanner {
		t.Errorf("Origin = %q", src.Origin)
	}
	if src.BuildSlug != "fire-sorc" || src.Mastery != "sorcerer" {
		t.Errorf("identity = %q/%q", src.BuildSlug, src.Mastery)
	}
	if src.PrimaryDamageType() != "fire" {
		t.Errorf("PrimaryDamageType = %q, want fire", src.PrimaryDamageType())
	}
	if len(src.CoveredMasteries) != 1 || src.CoveredMasteries[0] != "sorcerer" {
		t.Errorf("CoveredMasteries = %v, want fallback to [mastery]", src.CoveredMasteries)
	}
	if src.Checksum == "" {
		t.Error("checksum not computed")
	}

	// Unknown phase "twilight" is dropped entirely.
	if _, ok := src.Phases["twilight"]; ok {
		t.Error("unknown phase should be dropped")
	}

	starter := src.Phases[model.PhaseStarter]
	if len(starter.Affixes) != 2 {
		t.Fatalf("starter affixes = %d, want 2", len(starter.Affixes))
	}
	if starter.Affixes[1].AffixID != 102 || starter.Affixes[1].Tier != 2 {
		t.Errorf("name-keyed entry resolved to %+v", starter.Affixes[1])
	}

	// Endgame: the unresolvable label and the tier-9 entry are both dropped.
	endgame := src.Phases[model.PhaseEndgame]
	if len(endgame.Affixes) != 2 {
		t.Fatalf("endgame affixes = %d, want 2", len(endgame.Affixes))
	}
	if len(src.Unresolved) != 1 || src.Unresolved[0] != "Imaginary Affix Label" {
		t.Errorf("Unresolved = %v", src.Unresolved)
	}
}

func TestPlannerIngestRequiredFields(t *testing.T) {
	tests := []struct {
		desc    string
		content string
	}{
		{
			desc:    "missing build_slug",
			content: `{"mastery": "sorcerer", "phases": {"starter": {"affixes": []}}}`,
		},
		{
			desc:    "missing mastery",
			content: `{"build_slug": "x", "phases": {"starter": {"affixes": []}}}`,
		},
		{
			desc:    "missing phases",
			content: `{"build_slug": "x", "mastery": "sorcerer"}`,
		},
		{
			desc:    "not json",
			content: `<xml/>`,
		},
	}

	ing := testPlannerIngester()
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			path := writePlanner(t, "bad.json", tt.content)
			if _, err := ing.Ingest(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
