package gamedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Artzzx/buildlore/internal/model"
)

const sampleAffixes = `{
  "singleAffixes": [
    {"affixId": 28, "affixName": "Added Fire Damage", "affixDisplayName": "Fire Damage", "canRollOn": [1, 2], "classSpecificity": 0},
    {"affixId": 36, "affixName": "Increased Cast Speed", "affixDisplayName": "Cast Speed", "canRollOn": [3], "classSpecificity": 0},
    {"affixId": 102, "affixName": "Added Health", "affixDisplayName": "Health", "canRollOn": [1, 2, 3], "classSpecificity": 0},
    {"affixId": 0, "affixName": "Broken Entry"}
  ],
  "multiAffixes": [
    {"affixId": 640, "affixName": "Void Damage and Cast Speed", "affixDisplayName": "Hybrid Void", "canRollOn": [4], "classSpecificity": 2}
  ]
}`

const sampleConstants = `{
  "threshold_affix_ids": [905, 906],
  "damage_type_profiles": {
    "fire": {"primaryAffixIds": [28], "synergyAffixIds": [36]}
  },
  "mastery_to_class": {"paladin": "sentinel", "forge_guard": "sentinel"},
  "class_hierarchy": {"sentinel": {"masteries": ["paladin", "forge_guard", "void_knight"]}},
  "affix_edges": [
    {"from": 28, "to": 36, "type": "synergy", "strength": 0.5},
    {"from": 905, "to": 102, "type": "prerequisite", "condition": "mastery == paladin"},
    {"from": 0, "to": 36, "type": "synergy", "strength": 0.2}
  ],
  "affix_overrides": [
    {"affixId": 640, "isDamageLocked": false}
  ]
}`

func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	affixes := filepath.Join(dir, "affixes.json")
	constants := filepath.Join(dir, "game-constants.json")
	if err := os.WriteFile(affixes, []byte(sampleAffixes), 0o644); err != nil {
		t.Fatalf("write affixes fixture: %v", err)
	}
	if err := os.WriteFile(constants, []byte(sampleConstants), 0o644); err != nil {
		t.Fatalf("write constants fixture: %v", err)
	}
	return affixes, constants
}

func TestLoad(t *testing.T) {
	affixes, constants := writeFixtures(t)

	gd, err := Load(affixes, constants)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// Malformed id=0 entry is dropped, the other four survive.
	if got := gd.AffixCount(); got != 4 {
		t.Errorf("AffixCount = %d, want 4", got)
	}

	fire, ok := gd.Affix(28)
	if !ok {
		t.Fatal("affix 28 not found")
	}
	if fire.DamageType != "fire" {
		t.Errorf("affix 28 damage type = %q, want %q", fire.DamageType, "fire")
	}
	if fire.DisplayName != "Fire Damage" {
		t.Errorf("affix 28 display name = %q, want %q", fire.DisplayName, "Fire Damage")
	}

	// The override un-locks the hybrid void affix despite its name.
	hybrid, ok := gd.Affix(640)
	if !ok {
		t.Fatal("affix 640 not found")
	}
	if hybrid.DamageType != "" {
		t.Errorf("affix 640 damage type = %q, want unclassified after override", hybrid.DamageType)
	}
	if !hybrid.ClassGated {
		t.Error("affix 640 should be class gated")
	}

	if !gd.IsThreshold(905) {
		t.Error("905 should be a threshold affix")
	}
	if gd.IsThreshold(28) {
		t.Error("28 should not be a threshold affix")
	}

	if c, ok := gd.BaseClass("paladin"); !ok || c != "sentinel" {
		t.Errorf("BaseClass(paladin) = %q, %v, want sentinel, true", c, ok)
	}
	if !gd.HasClass("sentinel") {
		t.Error("sentinel should exist in the class hierarchy")
	}

	// The from=0 edge is dropped.
	if got := len(gd.Edges()); got != 2 {
		t.Errorf("len(Edges) = %d, want 2", got)
	}
	if p, ok := gd.DamageProfile("fire"); !ok || len(p.PrimaryAffixIDs) != 1 {
		t.Errorf("DamageProfile(fire) = %+v, %v", p, ok)
	}
}

func TestLoadMissingConstants(t *testing.T) {
	affixes, _ := writeFixtures(t)

	_, err := Load(affixes, filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing constants file")
	}
}

func TestLoadEmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	affixes := filepath.Join(dir, "affixes.json")
	if err := os.WriteFile(affixes, []byte(`{"singleAffixes": [], "multiAffixes": []}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, constants := writeFixtures(t)

	_, err := Load(affixes, constants)
	if err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestClassifyDamageType(t *testing.T) {
	tests := []struct {
		desc string
		name string
		want string
	}{
		{
			desc: "fire keyword",
			name: "Increased Fire Damage",
			want: "fire",
		},
		{
			desc: "ignite maps to fire",
			name: "Chance to Ignite on Hit",
			want: "fire",
		},
		{
			desc: "void keyword",
			name: "Void Damage Over Time",
			want: "void",
		},
		{
			desc: "bleed maps to physical",
			name: "Bleed Chance",
			want: "physical",
		},
		{
			desc: "neutral affix stays unclassified",
			name: "Added Health",
			want: "",
		},
		{
			desc: "case insensitive",
			name: "FREEZE RATE MULTIPLIER",
			want: "cold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := ClassifyDamageType(tt.name); got != tt.want {
				t.Errorf("ClassifyDamageType(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestDefinitionsSorted(t *testing.T) {
	gd := New(
		[]model.AffixDefinition{
			{ID: 300, Name: "c"},
			{ID: 5, Name: "a"},
			{ID: 42, Name: "b"},
		},
		nil, nil, nil, nil, nil,
	)

	defs := gd.Definitions()
	if len(defs) != 3 {
		t.Fatalf("len(Definitions) = %d, want 3", len(defs))
	}
	for i, want := range []int{5, 42, 300} {
		if defs[i].ID != want {
			t.Errorf("Definitions[%d].ID = %d, want %d", i, defs[i].ID, want)
		}
	}
}

func TestNewSkipsUnknownEdgeKind(t *testing.T) {
	gd := New(nil, nil, nil, nil, nil, []Edge{
		{From: 1, To: 2, Kind: EdgeSynergy, Strength: 0.5},
		{From: 2, To: 3, Kind: EdgeKind("FRIENDSHIP")},
	})
	if got := len(gd.Edges()); got != 1 {
		t.Errorf("len(Edges) = %d, want 1", got)
	}
}
