package gamedata

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/model"
)

// damageKeywords drives programmatic damage-type classification of affix
// names. Manual overrides from game-constants.json win over keywords.
var damageKeywords = map[string][]string{
	"fire":      {"fire", "ignite", "burn", "combustion"},
	"cold":      {"cold", "freeze", "chill", "frost"},
	"lightning": {"lightning", "shock", "electrify", "thunder"},
	"void":      {"void", "corruption"},
	"necrotic":  {"necrotic", "decay"},
	"poison":    {"poison", "venom", "toxic"},
	"physical":  {"physical", "bleed", "armor shred"},
}

// damageTypeOrder fixes the keyword scan order so classification does not
// depend on map iteration.
var damageTypeOrder = []string{"fire", "cold", "lightning", "void", "necrotic", "poison", "physical"}

// DamageTypeProfile lists the affix ids a damage type cares about.
type DamageTypeProfile struct {
	PrimaryAffixIDs []int `json:"primaryAffixIds"`
	SynergyAffixIDs []int `json:"synergyAffixIds"`
}

// ClassDef describes one base class in the class hierarchy.
type ClassDef struct {
	Masteries []string `json:"masteries,omitempty"`
}

// EdgeKind discriminates the two relationship kinds.
type EdgeKind string

const (
	EdgeSynergy      EdgeKind = "SYNERGY"
	EdgePrerequisite EdgeKind = "PREREQUISITE"
)

// Edge is one static relationship between two affixes: a synergy whose
// strength scales the boost, or a prerequisite whose condition gates the
// source affix's weight.
type Edge struct {
	From      int
	To        int
	Kind      EdgeKind
	Strength  float64
	Condition string
}

// GameData is the static game knowledge the pipeline runs against: the affix
// catalog plus the hand-maintained constants (threshold registry, damage
// profiles, class hierarchy, relationship edges). Loaded once at startup,
// read-only for the rest of the run.
type GameData struct {
	affixes      map[int]model.AffixDefinition
	thresholdIDs map[int]bool
	profiles     map[string]DamageTypeProfile
	masteryClass map[string]string
	classes      map[string]ClassDef
	edges        []Edge
}

// New assembles GameData from already-parsed parts. Load is the file-reading
// front end; tests build fixtures through New directly.
func New(
	defs []model.AffixDefinition,
	thresholdIDs []int,
	profiles map[string]DamageTypeProfile,
	masteryToClass map[string]string,
	classes map[string]ClassDef,
	edges []Edge,
) *GameData {
	gd := &GameData{
		affixes:      make(map[int]model.AffixDefinition, len(defs)),
		thresholdIDs: make(map[int]bool, len(thresholdIDs)),
		profiles:     make(map[string]DamageTypeProfile, len(profiles)),
		masteryClass: make(map[string]string, len(masteryToClass)),
		classes:      make(map[string]ClassDef, len(classes)),
		edges:        make([]Edge, 0, len(edges)),
	}
	for _, d := range defs {
		gd.affixes[d.ID] = d
	}
	for _, id := range thresholdIDs {
		gd.thresholdIDs[id] = true
	}
	for dt, p := range profiles {
		gd.profiles[dt] = p
	}
	for m, c := range masteryToClass {
		gd.masteryClass[m] = c
	}
	for c, def := range classes {
		gd.classes[c] = def
	}
	for _, e := range edges {
		if e.Kind != EdgeSynergy && e.Kind != EdgePrerequisite {
			zap.L().Debug("skipping edge with unknown kind",
				zap.Int("from", e.From), zap.Int("to", e.To), zap.String("kind", string(e.Kind)))
			continue
		}
		gd.edges = append(gd.edges, e)
	}
	return gd
}

// Load reads the master affix catalog and game-constants files. The
// constants file is required: the pipeline cannot run without the threshold
// registry and the relationship edges.
func Load(affixesPath, constantsPath string) (*GameData, error) {
	defs, err := loadAffixes(affixesPath)
	if err != nil {
		return nil, err
	}

	rawText, err := os.ReadFile(constantsPath)
	if err != nil {
		return nil, eris.Wrap(err, "gamedata: read game constants")
	}
	var constants rawConstants
	if err := json.Unmarshal(rawText, &constants); err != nil {
		return nil, eris.Wrap(err, "gamedata: parse game constants")
	}

	// Manual overrides: isDamageLocked=false means the classifier was wrong
	// and the affix is safe for every build.
	overridden := make(map[int]bool, len(constants.AffixOverrides))
	for _, o := range constants.AffixOverrides {
		if !o.IsDamageLocked {
			overridden[o.AffixID] = true
		}
	}
	for i, d := range defs {
		if overridden[d.ID] {
			d.DamageType = ""
			defs[i] = d
		}
	}

	edges := make([]Edge, 0, len(constants.AffixEdges))
	for _, raw := range constants.AffixEdges {
		if raw.From <= 0 || raw.To <= 0 {
			zap.L().Debug("skipping malformed edge",
				zap.Int("from", raw.From), zap.Int("to", raw.To))
			continue
		}
		edges = append(edges, Edge{
			From:      raw.From,
			To:        raw.To,
			Kind:      EdgeKind(strings.ToUpper(raw.Type)),
			Strength:  raw.Strength,
			Condition: raw.Condition,
		})
	}

	gd := New(defs, constants.ThresholdAffixIDs, constants.DamageTypeProfiles,
		constants.MasteryToClass, constants.ClassHierarchy, edges)

	zap.L().Info("game data loaded",
		zap.Int("affixes", len(gd.affixes)),
		zap.Int("threshold_ids", len(gd.thresholdIDs)),
		zap.Int("damage_profiles", len(gd.profiles)),
		zap.Int("edges", len(gd.edges)))
	return gd, nil
}

// Affix looks up a definition by its canonical id.
func (g *GameData) Affix(id int) (model.AffixDefinition, bool) {
	d, ok := g.affixes[id]
	return d, ok
}

// IsKnownAffix reports whether id exists in the catalog.
func (g *GameData) IsKnownAffix(id int) bool {
	_, ok := g.affixes[id]
	return ok
}

// IsThreshold reports whether id is in the threshold-affix registry.
// Threshold affixes bypass the weight system entirely.
func (g *GameData) IsThreshold(id int) bool {
	return g.thresholdIDs[id]
}

// AffixCount returns the catalog size.
func (g *GameData) AffixCount() int {
	return len(g.affixes)
}

// Definitions returns every catalog entry ordered by id.
func (g *GameData) Definitions() []model.AffixDefinition {
	out := make([]model.AffixDefinition, 0, len(g.affixes))
	for _, d := range g.affixes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DamageProfile returns the profile for a damage type, if one exists.
func (g *GameData) DamageProfile(damageType string) (DamageTypeProfile, bool) {
	p, ok := g.profiles[damageType]
	return p, ok
}

// BaseClass maps a mastery to its base class.
func (g *GameData) BaseClass(mastery string) (string, bool) {
	c, ok := g.masteryClass[mastery]
	return c, ok
}

// HasClass reports whether class exists in the class hierarchy.
func (g *GameData) HasClass(class string) bool {
	_, ok := g.classes[class]
	return ok
}

// Edges returns the relationship edge list. Callers must not mutate it.
func (g *GameData) Edges() []Edge {
	return g.edges
}

// ClassifyDamageType classifies an affix name by damage keyword. Empty means
// unclassified, which downstream treats as relevant to every build.
func ClassifyDamageType(name string) string {
	lower := strings.ToLower(name)
	for _, dt := range damageTypeOrder {
		for _, kw := range damageKeywords[dt] {
			if strings.Contains(lower, kw) {
				return dt
			}
		}
	}
	return ""
}

type masterAffixList struct {
	SingleAffixes []rawAffix `json:"singleAffixes"`
	MultiAffixes  []rawAffix `json:"multiAffixes"`
}

type rawAffix struct {
	AffixID                     int    `json:"affixId"`
	AffixName                   string `json:"affixName"`
	AffixDisplayName            string `json:"affixDisplayName"`
	AffixLootFilterOverrideName string `json:"affixLootFilterOverrideName"`
	CanRollOn                   []int  `json:"canRollOn"`
	ClassSpecificity            int    `json:"classSpecificity"`
}

type rawConstants struct {
	ThresholdAffixIDs  []int                        `json:"threshold_affix_ids"`
	DamageTypeProfiles map[string]DamageTypeProfile `json:"damage_type_profiles"`
	MasteryToClass     map[string]string            `json:"mastery_to_class"`
	ClassHierarchy     map[string]ClassDef          `json:"class_hierarchy"`
	AffixEdges         []rawEdge                    `json:"affix_edges"`
	AffixOverrides     []rawOverride                `json:"affix_overrides"`
}

type rawEdge struct {
	From      int     `json:"from"`
	To        int     `json:"to"`
	Type      string  `json:"type"`
	Strength  float64 `json:"strength"`
	Condition string  `json:"condition,omitempty"`
}

type rawOverride struct {
	AffixID        int  `json:"affixId"`
	IsDamageLocked bool `json:"isDamageLocked"`
}

func loadAffixes(path string) ([]model.AffixDefinition, error) {
	rawText, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "gamedata: read affix catalog")
	}
	var list masterAffixList
	if err := json.Unmarshal(rawText, &list); err != nil {
		return nil, eris.Wrap(err, "gamedata: parse affix catalog")
	}

	entries := make([]rawAffix, 0, len(list.SingleAffixes)+len(list.MultiAffixes))
	entries = append(entries, list.SingleAffixes...)
	entries = append(entries, list.MultiAffixes...)
	if len(entries) == 0 {
		return nil, eris.Errorf("gamedata: no singleAffixes or multiAffixes in %s", path)
	}

	defs := make([]model.AffixDefinition, 0, len(entries))
	for _, e := range entries {
		if e.AffixID <= 0 {
			zap.L().Debug("skipping malformed affix entry", zap.String("name", e.AffixName))
			continue
		}
		defs = append(defs, model.AffixDefinition{
			ID:          e.AffixID,
			Name:        e.AffixName,
			DisplayName: e.AffixDisplayName,
			LootName:    e.AffixLootFilterOverrideName,
			ValidSlots:  e.CanRollOn,
			ClassGated:  e.ClassSpecificity != 0,
			DamageType:  ClassifyDamageType(e.AffixName),
		})
	}
	return defs, nil
}
