package extract

import (
	"sort"

	"github.com/Artzzx/buildlore/internal/model"
)

// survivalAnchors map the highest strictness level an affix survives to a
// category and a fixed calibration weight. Scanned strictest first.
var survivalAnchors = []struct {
	level    string
	category model.Category
	weight   float64
}{
	{"uber_strict", model.CategoryEssential, 95},
	{"very_strict", model.CategoryStrong, 75},
	{"strict", model.CategoryUseful, 50},
	{"relaxed", model.CategoryFiller, 25},
	{"show_all", model.CategoryFiller, 10},
}

// extractStrictness derives weights from filter survival data. Strictness
// carries no progression information, so every observation lands in all
// three phases with no tier signal.
func (e *Extractor) extractStrictness(src model.RawSource) []model.ExtractedWeight {
	// affix id → strictest level index survived
	survived := make(map[int]int)
	for _, data := range src.Phases {
		for level, ids := range data.StrictnessAffixes {
			idx, ok := anchorIndex(level)
			if !ok {
				continue
			}
			for _, id := range ids {
				if !e.usable(id) {
					continue
				}
				best, seen := survived[id]
				if !seen || idx < best {
					survived[id] = idx
				}
			}
		}
	}

	ids := make([]int, 0, len(survived))
	for id := range survived {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var out []model.ExtractedWeight
	for _, id := range ids {
		anchor := survivalAnchors[survived[id]]
		for _, phase := range model.Phases {
			out = append(out, model.ExtractedWeight{
				AffixID:  id,
				Phase:    phase,
				Weight:   anchor.weight,
				Category: anchor.category,
				Method:   model.MethodStrictnessSurvival,
				SourceID: src.SourceID,
			})
		}
	}
	return out
}

// StructureSignals summarizes the shape of a filter's rule structure for the
// run report. These counts never feed consensus numerics; they exist so a
// human can judge whether the category calibration looks sane.
func (e *Extractor) StructureSignals(src model.RawSource) model.StructureSignal {
	sig := model.StructureSignal{SourceID: src.SourceID}

	survived := make(map[int]int)
	levels := make(map[string]bool)
	for _, data := range src.Phases {
		for level, ids := range data.StrictnessAffixes {
			idx, ok := anchorIndex(level)
			if !ok || len(ids) == 0 {
				continue
			}
			levels[level] = true
			for _, id := range ids {
				best, seen := survived[id]
				if !seen || idx < best {
					survived[id] = idx
				}
			}
		}
	}

	for _, idx := range survived {
		switch survivalAnchors[idx].category {
		case model.CategoryEssential:
			sig.EssentialCount++
		case model.CategoryStrong:
			sig.StrongCount++
		case model.CategoryUseful:
			sig.UsefulCount++
		default:
			sig.FillerCount++
		}
	}
	sig.LevelsPresent = len(levels)
	return sig
}

func anchorIndex(level string) (int, bool) {
	for i, a := range survivalAnchors {
		if a.level == level {
			return i, true
		}
	}
	return 0, false
}
