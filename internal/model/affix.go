package model

// AffixDefinition is the ground-truth record for one game affix, loaded from
// the master affix catalog at startup and never mutated afterwards.
type AffixDefinition struct {
	ID          int    `json:"id"`                    // Canonical affix id
	Name        string `json:"name"`                  // Internal affix name
	DisplayName string `json:"display_name"`          // In-game display name
	LootName    string `json:"loot_name,omitempty"`   // Loot-filter override name, when present
	ValidSlots  []int  `json:"valid_slots,omitempty"` // Gear slot ids the affix can roll on
	ClassGated  bool   `json:"class_gated"`           // Restricted to one base class
	DamageType  string `json:"damage_type,omitempty"` // Empty = unclassified, relevant to every build
}

// IsDamageLocked reports whether the affix was explicitly classified to a
// damage type. Unclassified affixes are safe to show for every build.
func (a AffixDefinition) IsDamageLocked() bool {
	return a.DamageType != ""
}
