package graph

import (
	"testing"

	"github.com/Artzzx/buildlore/internal/gamedata"
	"github.com/Artzzx/buildlore/internal/model"
)

func testGraph(edges []gamedata.Edge) *Graph {
	return New(model.DefaultConfig().Graph, edges)
}

func TestPropagateSynergy(t *testing.T) {
	g := testGraph([]gamedata.Edge{
		{From: 1, To: 2, Kind: gamedata.EdgeSynergy, Strength: 0.5},
	})

	got := g.Propagate(map[int]float64{1: 80, 2: 20}, Context{})

	// 20 + 0.5*15, exactly.
	if got[2] != 27.5 {
		t.Errorf("target = %v, want 27.5", got[2])
	}
	if got[1] != 80 {
		t.Errorf("source = %v, want unchanged 80", got[1])
	}
}

func TestPropagateTriggerIsStrict(t *testing.T) {
	g := testGraph([]gamedata.Edge{
		{From: 1, To: 2, Kind: gamedata.EdgeSynergy, Strength: 1.0},
	})

	got := g.Propagate(map[int]float64{1: 60, 2: 20}, Context{})
	if got[2] != 20 {
		t.Errorf("target = %v, want no boost at exactly 60", got[2])
	}

	got = g.Propagate(map[int]float64{1: 60.01, 2: 20}, Context{})
	if got[2] != 35 {
		t.Errorf("target = %v, want 35 just past the trigger", got[2])
	}
}

func TestPropagateCap(t *testing.T) {
	g := testGraph([]gamedata.Edge{
		{From: 1, To: 2, Kind: gamedata.EdgeSynergy, Strength: 1.0},
	})

	got := g.Propagate(map[int]float64{1: 90, 2: 95}, Context{})
	if got[2] != 100 {
		t.Errorf("target = %v, want capped 100", got[2])
	}
}

func TestPropagateSinglePass(t *testing.T) {
	// 1 boosts 2 past the trigger, but 2's pre-pass weight is what decides
	// whether 2 boosts 3. One bounded pass, no fixed point.
	g := testGraph([]gamedata.Edge{
		{From: 1, To: 2, Kind: gamedata.EdgeSynergy, Strength: 1.0},
		{From: 2, To: 3, Kind: gamedata.EdgeSynergy, Strength: 1.0},
	})

	got := g.Propagate(map[int]float64{1: 80, 2: 55, 3: 10}, Context{})
	if got[2] != 70 {
		t.Errorf("mid = %v, want 70", got[2])
	}
	if got[3] != 10 {
		t.Errorf("chain end = %v, want 10 (no transitive boost)", got[3])
	}
}

func TestPropagateSynergyCycleStaysBounded(t *testing.T) {
	g := testGraph([]gamedata.Edge{
		{From: 1, To: 2, Kind: gamedata.EdgeSynergy, Strength: 1.0},
		{From: 2, To: 1, Kind: gamedata.EdgeSynergy, Strength: 1.0},
	})

	got := g.Propagate(map[int]float64{1: 70, 2: 80}, Context{})
	if got[1] != 85 || got[2] != 95 {
		t.Errorf("cycle = %v/%v, want 85/95 (one boost each)", got[1], got[2])
	}
}

func TestPropagatePrerequisite(t *testing.T) {
	edges := []gamedata.Edge{
		{From: 1, To: 2, Kind: gamedata.EdgeSynergy, Strength: 0.5},
		{From: 2, To: 9, Kind: gamedata.EdgePrerequisite, Condition: "mastery == paladin"},
	}
	g := testGraph(edges)

	// Unmet: the zero overrides the synergy boost from the same pass.
	got := g.Propagate(map[int]float64{1: 80, 2: 20}, Context{Mastery: "druid"})
	if got[2] != 0 {
		t.Errorf("unmet prerequisite = %v, want 0", got[2])
	}

	// Met: boost survives.
	got = g.Propagate(map[int]float64{1: 80, 2: 20}, Context{Mastery: "paladin"})
	if got[2] != 27.5 {
		t.Errorf("met prerequisite = %v, want 27.5", got[2])
	}
}

func TestPropagatePure(t *testing.T) {
	g := testGraph([]gamedata.Edge{
		{From: 1, To: 2, Kind: gamedata.EdgeSynergy, Strength: 1.0},
		{From: 3, To: 9, Kind: gamedata.EdgePrerequisite, Condition: "mastery == nobody"},
	})
	in := map[int]float64{1: 90, 2: 10, 3: 50}

	g.Propagate(in, Context{})
	if in[2] != 10 || in[3] != 50 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestConditionMet(t *testing.T) {
	ctx := Context{
		Mastery:     "paladin",
		BaseClass:   "sentinel",
		DamageTypes: []string{"fire", "physical"},
		Archetype:   "melee",
	}

	tests := []struct {
		desc string
		cond string
		want bool
	}{
		{
			desc: "scalar match",
			cond: "mastery == paladin",
			want: true,
		},
		{
			desc: "scalar mismatch",
			cond: "mastery == druid",
			want: false,
		},
		{
			desc: "case insensitive value",
			cond: "class == SENTINEL",
			want: true,
		},
		{
			desc: "list membership",
			cond: "damage_type == fire",
			want: true,
		},
		{
			desc: "plural key spelling",
			cond: "damage_types == physical",
			want: true,
		},
		{
			desc: "list miss",
			cond: "damage_type == void",
			want: false,
		},
		{
			desc: "conjunction",
			cond: "mastery == paladin && damage_type == fire",
			want: true,
		},
		{
			desc: "conjunction with one false",
			cond: "mastery == paladin && damage_type == void",
			want: false,
		},
		{
			desc: "disjunction rescues",
			cond: "mastery == druid || archetype == melee",
			want: true,
		},
		{
			desc: "quoted value",
			cond: `mastery == "paladin"`,
			want: true,
		},
		{
			desc: "empty condition is met",
			cond: "",
			want: true,
		},
		{
			desc: "unparseable condition is met",
			cond: "mastery is paladin maybe",
			want: true,
		},
		{
			desc: "unknown key is met",
			cond: "moon_phase == full",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := conditionMet(tt.cond, ctx); got != tt.want {
				t.Errorf("conditionMet(%q) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}
