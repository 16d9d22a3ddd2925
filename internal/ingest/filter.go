package ingest

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/Artzzx/buildlore/internal/model"
)

// strictnessAliases folds the naming zoo found in community filter files
// into the five canonical levels.
var strictnessAliases = map[string]string{
	"uber_strict": "uber_strict",
	"uberstrict":  "uber_strict",
	"giga_strict": "uber_strict",
	"gigastrict":  "uber_strict",
	"very_strict": "very_strict",
	"verystrict":  "very_strict",
	"strict":      "strict",
	"semi_strict": "strict",
	"semistrict":  "strict",
	"regular":     "relaxed",
	"normal":      "relaxed",
	"relaxed":     "relaxed",
	"lax":         "show_all",
	"all":         "show_all",
	"show_all":    "show_all",
	"showall":     "show_all",
}

// FilterIngester parses community loot-filter XML. Filters carry no mastery
// or damage-type information; the grouping with a build comes from the
// filename alone.
type FilterIngester struct{}

// NewFilterIngester creates a filter ingester.
func NewFilterIngester() *FilterIngester {
	return &FilterIngester{}
}

type filterDoc struct {
	Blocks []ruleBlock `xml:"RuleBlock"`
}

type ruleBlock struct {
	Strictness string         `xml:"strictness,attr"`
	Level      string         `xml:"level,attr"`
	Conditions []xmlCondition `xml:"Condition"`
}

type xmlCondition struct {
	Type     string `xml:"type,attr"`
	Value    string `xml:"value,attr"`
	ID       string `xml:"id,attr"`
	AffixID  string `xml:"affixid,attr"`
	AffixID2 string `xml:"affix_id,attr"`
}

// Ingest reads one filter file. Community files arrive in arbitrary
// encodings, so the decoder goes through the HTML charset index.
func (fi *FilterIngester) Ingest(path string) (model.RawSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.RawSource{}, eris.Wrap(err, "ingest: read filter")
	}

	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charsetReader
	var doc filterDoc
	if err := dec.Decode(&doc); err != nil {
		return model.RawSource{}, eris.Wrapf(err, "ingest: parse filter %s", filepath.Base(path))
	}

	levels := make(map[string][]int)
	for _, block := range doc.Blocks {
		// Some filter exporters write the level into a "level" attribute
		// instead of "strictness".
		level, ok := normalizeStrictness(block.Strictness)
		if !ok {
			level, ok = normalizeStrictness(block.Level)
		}
		if !ok {
			zap.L().Debug("skipping rule block with unknown strictness",
				zap.String("path", path), zap.String("strictness", block.Strictness))
			continue
		}
		for _, cond := range block.Conditions {
			if !cond.isAffix() {
				continue
			}
			if id, ok := cond.affixID(); ok {
				levels[level] = append(levels[level], id)
			}
		}
	}
	for level, ids := range levels {
		levels[level] = dedupeSorted(ids)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	src := model.RawSource{
		SourceID:  "filter:" + stem,
		Origin:    model.OriginFilter,
		BuildSlug: buildSlugFromFilter(path),
		Phases:    make(map[model.Phase]model.PhaseData, len(model.Phases)),
		Checksum:  checksum(raw),
	}
	// Strictness says nothing about progression stage, so the survival table
	// applies to every phase uniformly.
	for _, phase := range model.Phases {
		src.Phases[phase] = model.PhaseData{StrictnessAffixes: levels}
	}
	return src, nil
}

func (c xmlCondition) isAffix() bool {
	return c.Type == "" || strings.EqualFold(c.Type, "affixid") || strings.EqualFold(c.Type, "affix")
}

// affixID tries the id attribute spellings seen in the wild, first parseable
// wins.
func (c xmlCondition) affixID() (int, bool) {
	for _, attr := range []string{c.Value, c.ID, c.AffixID, c.AffixID2} {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		if id, err := strconv.Atoi(attr); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}

func normalizeStrictness(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	canonical, ok := strictnessAliases[s]
	return canonical, ok
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: unsupported charset %s", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

func dedupeSorted(ids []int) []int {
	sort.Ints(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}
