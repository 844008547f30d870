// Package store persists the results document as a JSON file and derives
// secondary artifacts from it.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mediaparse/titlebench/internal/model"
)

// JSONStore reads and writes a ResultsDocument at a fixed path. The JSON file
// is the durable contract; writes are atomic (temp file + rename) so a crash
// never leaves a half-written document under the final path.
type JSONStore struct {
	path string
}

// NewJSON returns a store for the results file at path.
func NewJSON(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the results file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the results document. A missing file yields a fresh empty
// document. A file that does not parse as valid JSON is moved to a
// timestamped backup and a fresh document is returned; no partial recovery
// is attempted.
func (s *JSONStore) Load() (*model.ResultsDocument, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return model.NewResultsDocument(), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", s.path)
	}

	var doc model.ResultsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		backup, backupErr := s.backup()
		if backupErr != nil {
			return nil, backupErr
		}
		zap.L().Warn("results file corrupted, starting fresh",
			zap.String("path", s.path),
			zap.String("backup", backup),
			zap.Error(err),
		)
		return model.NewResultsDocument(), nil
	}

	if doc.Versions == nil {
		doc.Versions = map[string]model.VersionStats{}
	}
	if doc.Titles == nil {
		doc.Titles = map[string]map[string]model.JudgmentRecord{}
	}
	return &doc, nil
}

// Save writes the full document to the results path. The document is written
// to a temporary file in the same directory first, then renamed over the
// target, so readers never observe a partial write.
func (s *JSONStore) Save(doc *model.ResultsDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: marshal document")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "store: create temp file in %s", dir)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "store: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "store: close temp file")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "store: replace %s", s.path)
	}
	return nil
}

// backup moves the current results file aside with a timestamped suffix and
// returns the backup path.
func (s *JSONStore) backup() (string, error) {
	backup := fmt.Sprintf("%s.bak.%s", s.path, time.Now().Format("20060102150405"))
	if err := os.Rename(s.path, backup); err != nil {
		return "", eris.Wrapf(err, "store: back up corrupt results to %s", backup)
	}
	return backup, nil
}

// RecordJudgment inserts or overwrites the judgment for (title, version) and
// recomputes all version tallies from the titles map. Recomputing in full
// keeps the aggregates equal to a fresh recount at all times, including after
// an overwrite of an earlier judgment for the same pair.
func RecordJudgment(doc *model.ResultsDocument, title, version string, rec model.JudgmentRecord) {
	if doc.Titles[title] == nil {
		doc.Titles[title] = map[string]model.JudgmentRecord{}
	}
	doc.Titles[title][version] = rec
	Recompute(doc)
}

// Recompute rebuilds every VersionStats entry from the judgments under
// Titles. A version's timestamp is the latest judgment timestamp recorded
// for it. Versions with no remaining judgments are dropped.
func Recompute(doc *model.ResultsDocument) {
	versions := map[string]model.VersionStats{}
	for _, records := range doc.Titles {
		for version, rec := range records {
			stats := versions[version]
			stats.TestedCount++
			if rec.IsCorrect {
				stats.CorrectCount++
			}
			if rec.Timestamp > stats.Timestamp {
				stats.Timestamp = rec.Timestamp
			}
			versions[version] = stats
		}
	}
	doc.Versions = versions
}
