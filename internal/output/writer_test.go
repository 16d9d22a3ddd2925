package output

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Artzzx/buildlore/internal/model"
)

func withFixedClock(t *testing.T) {
	t.Helper()
	orig := nowFunc
	nowFunc = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() { nowFunc = orig })
}

func fixtureProfiles() []*model.BuildKnowledgeProfile {
	phases := map[model.Phase]model.PhaseTable{
		model.PhaseStarter: {Affixes: []model.AffixWeight{
			{ID: 36, Weight: 76.97, Category: model.CategoryEssential, MinTier: 6, ConsensusSpread: 0.085, Confidence: 0.806},
			{ID: 102, Weight: 70, Category: model.CategoryStrong, MinTier: 1, Confidence: 0.5},
		}},
		model.PhaseEndgame:      {Affixes: []model.AffixWeight{}},
		model.PhaseAspirational: {Affixes: []model.AffixWeight{}},
	}
	return []*model.BuildKnowledgeProfile{
		{
			BuildSlug:        "zz-warlock-dot",
			Mastery:          "warlock",
			DamageType:       "necrotic",
			SpecificityScore: 1.0,
			SourceCount:      3,
			Confidence:       model.ConfidenceHigh,
			DataSourceLayer:  model.LayerSpecific,
			Phases:           phases,
		},
		{
			BuildSlug:        "aard-paladin-fire",
			Mastery:          "paladin",
			DamageType:       "fire",
			SpecificityScore: 0.7,
			SourceCount:      1,
			Confidence:       model.ConfidenceLow,
			DataSourceLayer:  model.LayerMastery,
			Phases:           phases,
		},
	}
}

func TestWriteDeterministic(t *testing.T) {
	withFixedClock(t)
	cfg := model.OutputConfig{Version: "1.0.0", PatchVersion: "1.3.5"}

	var payloads [][]byte
	for i := 0; i < 2; i++ {
		dir := t.TempDir()
		w := NewWriter(cfg, dir)
		if err := w.Write(fixtureProfiles(), model.NewRunReport()); err != nil {
			t.Fatalf("Write() error: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, FileKnowledgeBase))
		if err != nil {
			t.Fatalf("read knowledge base: %v", err)
		}
		payloads = append(payloads, data)
	}

	if !bytes.Equal(payloads[0], payloads[1]) {
		t.Error("identical inputs under a fixed clock must produce byte-identical output")
	}
}

func TestWriteMetaChecksum(t *testing.T) {
	withFixedClock(t)
	dir := t.TempDir()
	w := NewWriter(model.OutputConfig{Version: "1.0.0", PatchVersion: "1.3.5"}, dir)

	if err := w.Write(fixtureProfiles(), model.NewRunReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	kbData, err := os.ReadFile(filepath.Join(dir, FileKnowledgeBase))
	if err != nil {
		t.Fatalf("read knowledge base: %v", err)
	}
	metaData, err := os.ReadFile(filepath.Join(dir, FileMeta))
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}

	var meta Meta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		t.Fatalf("unmarshal meta: %v", err)
	}

	sum := sha256.Sum256(kbData)
	want := "sha256:" + hex.EncodeToString(sum[:])
	if meta.Checksum != want {
		t.Errorf("Checksum = %s, want %s", meta.Checksum, want)
	}
	if meta.BuildCount != 2 {
		t.Errorf("BuildCount = %d, want 2", meta.BuildCount)
	}
	if meta.GeneratedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("GeneratedAt = %s, want pinned timestamp", meta.GeneratedAt)
	}
}

func TestWriteSortsBuildSlugs(t *testing.T) {
	withFixedClock(t)
	dir := t.TempDir()
	w := NewWriter(model.OutputConfig{Version: "1.0.0", PatchVersion: "1.3.5"}, dir)

	if err := w.Write(fixtureProfiles(), model.NewRunReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileKnowledgeBase))
	if err != nil {
		t.Fatalf("read knowledge base: %v", err)
	}
	text := string(data)

	first := strings.Index(text, `"aard-paladin-fire"`)
	second := strings.Index(text, `"zz-warlock-dot"`)
	if first < 0 || second < 0 {
		t.Fatal("both build slugs must appear in the document")
	}
	if first > second {
		t.Error("build slugs must serialize in sorted order")
	}

	var kb KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		t.Fatalf("unmarshal knowledge base: %v", err)
	}
	if kb.Version != "1.0.0" || kb.PatchVersion != "1.3.5" {
		t.Errorf("header = %s/%s, want 1.0.0/1.3.5", kb.Version, kb.PatchVersion)
	}
	if kb.GeneratedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("GeneratedAt = %s, want pinned timestamp", kb.GeneratedAt)
	}
	if len(kb.Builds) != 2 {
		t.Errorf("builds = %d, want 2", len(kb.Builds))
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	withFixedClock(t)
	dir := t.TempDir()
	w := NewWriter(model.OutputConfig{Version: "1.0.0", PatchVersion: "1.3.5"}, dir)

	if err := w.Write(fixtureProfiles(), model.NewRunReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	// Second publish renames over the first.
	if err := w.Write(fixtureProfiles()[:1], model.NewRunReport()); err != nil {
		t.Fatalf("second Write() error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 3 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir has %v, want exactly the three artifacts", names)
	}

	var kb KnowledgeBase
	data, _ := os.ReadFile(filepath.Join(dir, FileKnowledgeBase))
	if err := json.Unmarshal(data, &kb); err != nil {
		t.Fatalf("unmarshal knowledge base: %v", err)
	}
	if len(kb.Builds) != 1 {
		t.Errorf("builds after republish = %d, want 1", len(kb.Builds))
	}
}

func TestRenderReport(t *testing.T) {
	report := model.NewRunReport()
	report.BuildsProcessed = 11
	report.SourcesAccepted = 31
	report.BuildsFailed = append(report.BuildsFailed, model.BuildFailure{Build: "broken-build", Reason: "all sources rejected"})
	report.LowConfidenceBuilds = append(report.LowConfidenceBuilds, "thin-build")
	report.DurationSeconds = 4.2

	var buf bytes.Buffer
	RenderReport(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"Buildlore Ingestion Complete",
		"Builds processed:    11",
		"Sources accepted:    31",
		"✗ broken-build: all sources rejected",
		"⚠ low confidence: thin-build",
		"Duration:            4.20s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}
