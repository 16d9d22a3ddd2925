package inherit

import (
	"testing"

	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/graph"
	"github.com/Artzzx/buildlore/internal/model"
)

func newTestResolver(edges ...gamedata.Edge) *Resolver {
	gd := gamedata.New(
		[]model.AffixDefinition{
			{ID: 28, Name: "Increased Fire Damage"},
			{ID: 36, Name: "Increased Cast Speed"},
			{ID: 102, Name: "Added Health"},
			{ID: 103, Name: "Added Vitality"},
			{ID: 104, Name: "Movement Speed"},
			{ID: 905, Name: "Endurance Threshold"},
		},
		[]int{905},
		map[string]gamedata.DamageTypeProfile{
			"fire": {PrimaryAffixIDs: []int{28}, SynergyAffixIDs: []int{36, 28}},
		},
		map[string]string{"paladin": "sentinel"},
		map[string]gamedata.ClassDef{"sentinel": {Masteries: []string{"paladin"}}},
		edges,
	)
	cfg := model.DefaultConfig()
	return NewResolver(cfg.Inheritance, gd, graph.New(cfg.Graph, edges))
}

func TestResolveZeroSources(t *testing.T) {
	r := newTestResolver()

	// No identity, no override: the universal floor is all there is.
	res := r.Resolve(Request{BuildSlug: "unknown-build"})

	if res.Layer != model.LayerBaseline {
		t.Errorf("Layer = %s, want baseline", res.Layer)
	}
	if res.Specificity != 0.0 {
		t.Errorf("Specificity = %v, want 0.0", res.Specificity)
	}
	if len(res.Weights) == 0 {
		t.Fatal("resolution must never be empty")
	}

	want := map[int]float64{102: 70, 103: 65, 104: 60}
	for id, w := range want {
		if res.Weights[id] != w {
			t.Errorf("weights[%d] = %v, want %v", id, res.Weights[id], w)
		}
	}
}

func TestResolveDamageTypeLayer(t *testing.T) {
	r := newTestResolver()

	res := r.Resolve(Request{BuildSlug: "b", DamageTypes: []string{"fire"}})

	if res.Layer != model.LayerDamageType {
		t.Errorf("Layer = %s, want damage_type", res.Layer)
	}
	if res.Specificity != 0.2 {
		t.Errorf("Specificity = %v, want 0.2", res.Specificity)
	}
	if res.Weights[28] != damagePrimaryWeight {
		t.Errorf("primary = %v, want %v", res.Weights[28], damagePrimaryWeight)
	}
	if res.Weights[36] != damageSynergyWeight {
		t.Errorf("synergy = %v, want %v", res.Weights[36], damageSynergyWeight)
	}
}

func TestResolveClassLayer(t *testing.T) {
	r := newTestResolver()

	// Known mastery, unclassified damage: the walk stops at the class layer
	// and the weight map is still just the baseline floor.
	res := r.Resolve(Request{BuildSlug: "b", Mastery: "paladin"})

	if res.Layer != model.LayerClass {
		t.Errorf("Layer = %s, want class", res.Layer)
	}
	if res.Specificity != 0.4 {
		t.Errorf("Specificity = %v, want 0.4", res.Specificity)
	}
	if _, ok := res.Weights[28]; ok {
		t.Error("no damage profile should mean no primary weights")
	}
}

func TestResolveMasteryLayer(t *testing.T) {
	r := newTestResolver()

	res := r.Resolve(Request{BuildSlug: "b", Mastery: "paladin", DamageTypes: []string{"fire"}})

	if res.Layer != model.LayerMastery {
		t.Errorf("Layer = %s, want mastery", res.Layer)
	}
	if res.Specificity != 0.7 {
		t.Errorf("Specificity = %v, want 0.7", res.Specificity)
	}
	want := float64(damagePrimaryWeight + masterySignatureBoost)
	if res.Weights[28] != want {
		t.Errorf("signature = %v, want %v", res.Weights[28], want)
	}
}

func TestResolveSpecificLayer(t *testing.T) {
	r := newTestResolver()

	res := r.Resolve(Request{
		BuildSlug:   "b",
		Mastery:     "paladin",
		DamageTypes: []string{"fire"},
		Override:    map[int]float64{36: 92, 102: 40},
		SourceCount: 3,
	})

	if res.Layer != model.LayerSpecific {
		t.Errorf("Layer = %s, want specific", res.Layer)
	}
	if res.Specificity != 1.0 {
		t.Errorf("Specificity = %v, want 1.0", res.Specificity)
	}
	if res.Weights[36] != 92 {
		t.Errorf("override = %v, want 92", res.Weights[36])
	}
	// Merge raises, never lowers: the 40 cannot undercut the baseline 70.
	if res.Weights[102] != 70 {
		t.Errorf("weights[102] = %v, want baseline 70 kept", res.Weights[102])
	}
}

func TestResolveGraphPassRuns(t *testing.T) {
	r := newTestResolver(
		gamedata.Edge{From: 102, To: 36, Kind: gamedata.EdgeSynergy, Strength: 0.5},
		gamedata.Edge{From: 104, To: 9, Kind: gamedata.EdgePrerequisite, Condition: "mastery == druid"},
	)

	res := r.Resolve(Request{BuildSlug: "b", Mastery: "paladin"})

	// Baseline health 70 > 60 triggers the synergy into cast speed.
	if res.Weights[36] != 7.5 {
		t.Errorf("boosted = %v, want 7.5", res.Weights[36])
	}
	// Movement speed fails its prerequisite for a paladin.
	if res.Weights[104] != 0 {
		t.Errorf("gated = %v, want 0", res.Weights[104])
	}
}

func TestResolveFiltersThresholds(t *testing.T) {
	r := newTestResolver()

	res := r.Resolve(Request{
		BuildSlug: "b",
		Override:  map[int]float64{905: 99, 36: 80},
	})

	if _, ok := res.Weights[905]; ok {
		t.Error("threshold affix must not appear in resolved weights")
	}
	if res.Weights[36] != 80 {
		t.Errorf("weights[36] = %v, want 80", res.Weights[36])
	}
}

func TestBaselineKeywordFallback(t *testing.T) {
	gd := gamedata.New(
		[]model.AffixDefinition{{ID: 501, Name: "Increased Armor Rating"}},
		nil, nil, nil, nil, nil,
	)
	cfg := model.DefaultConfig()
	cfg.Inheritance.BaselineWeights = map[string]float64{"increased_armor": 50}
	r := NewResolver(cfg.Inheritance, gd, graph.New(cfg.Graph, nil))

	res := r.Resolve(Request{BuildSlug: "b"})
	if res.Weights[501] != 50 {
		t.Errorf("weights[501] = %v, want fallback keyword match at 50", res.Weights[501])
	}
}
