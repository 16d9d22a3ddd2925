package output

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Artzzx/buildlore/internal/model"
)

// Published artifact names inside the weights directory.
const (
	FileKnowledgeBase = "knowledge-base.json"
	FileMeta          = "knowledge-base.meta.json"
	FileReport        = "pipeline-report.json"
)

const timestampFormat = "2006-01-02T15:04:05Z"

// nowFunc is swapped in tests to pin generated_at.
var nowFunc = time.Now

// KnowledgeBase is the root document the rule compiler consumes. Builds are
// keyed by slug; encoding/json sorts map keys, so repeated runs over the same
// inputs produce byte-identical files.
type KnowledgeBase struct {
	Version      string                                  `json:"version"`
	GeneratedAt  string                                  `json:"generated_at"`
	PatchVersion string                                  `json:"patch_version"`
	Builds       map[string]*model.BuildKnowledgeProfile `json:"builds"`
}

// Meta describes the knowledge base alongside it, so consumers can verify
// integrity without parsing the full document.
type Meta struct {
	GeneratedAt  string `json:"generated_at"`
	PatchVersion string `json:"patch_version"`
	BuildCount   int    `json:"build_count"`
	Checksum     string `json:"checksum"`
}

// Writer publishes the knowledge base, its meta descriptor, and the run
// report. Every file is written to a temp file first and renamed into place,
// so a failed run never truncates the previously published artifacts.
type Writer struct {
	cfg model.OutputConfig
	dir string
}

// NewWriter creates a writer that publishes into dir.
func NewWriter(cfg model.OutputConfig, dir string) *Writer {
	return &Writer{cfg: cfg, dir: dir}
}

// Write publishes all three artifacts. The meta checksum covers the exact
// bytes of knowledge-base.json.
func (w *Writer) Write(profiles []*model.BuildKnowledgeProfile, report *model.RunReport) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return eris.Wrapf(err, "create output dir %s", w.dir)
	}

	builds := make(map[string]*model.BuildKnowledgeProfile, len(profiles))
	for _, p := range profiles {
		builds[p.BuildSlug] = p
	}

	generatedAt := nowFunc().UTC().Format(timestampFormat)
	kb := KnowledgeBase{
		Version:      w.cfg.Version,
		GeneratedAt:  generatedAt,
		PatchVersion: w.cfg.PatchVersion,
		Builds:       builds,
	}

	kbData, err := marshal(kb)
	if err != nil {
		return eris.Wrap(err, "marshal knowledge base")
	}
	if err := w.writeAtomic(FileKnowledgeBase, kbData); err != nil {
		return err
	}

	sum := sha256.Sum256(kbData)
	meta := Meta{
		GeneratedAt:  generatedAt,
		PatchVersion: w.cfg.PatchVersion,
		BuildCount:   len(builds),
		Checksum:     "sha256:" + hex.EncodeToString(sum[:]),
	}
	metaData, err := marshal(meta)
	if err != nil {
		return eris.Wrap(err, "marshal meta")
	}
	if err := w.writeAtomic(FileMeta, metaData); err != nil {
		return err
	}

	reportData, err := marshal(report)
	if err != nil {
		return eris.Wrap(err, "marshal report")
	}
	if err := w.writeAtomic(FileReport, reportData); err != nil {
		return err
	}

	zap.L().Info("knowledge base published",
		zap.String("dir", w.dir),
		zap.Int("builds", len(builds)),
		zap.String("checksum", meta.Checksum))
	return nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (w *Writer) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(w.dir, "."+name+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "create temp for %s", name)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrapf(err, "write %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return eris.Wrapf(err, "close %s", name)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return eris.Wrapf(err, "chmod %s", name)
	}
	if err := os.Rename(tmpPath, filepath.Join(w.dir, name)); err != nil {
		os.Remove(tmpPath)
		return eris.Wrapf(err, "publish %s", name)
	}
	return nil
}
