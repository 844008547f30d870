// Package stats computes read-only accuracy summaries from a results
// document. Nothing here mutates or persists the document.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/mediaparse/titlebench/internal/model"
)

// VersionSummary reports aggregate accuracy for one parser version.
type VersionSummary struct {
	Version      string  `json:"version" yaml:"version"`
	TestedCount  int     `json:"tested_count" yaml:"tested_count"`
	CorrectCount int     `json:"correct_count" yaml:"correct_count"`
	Accuracy     float64 `json:"accuracy" yaml:"accuracy"`
}

// Compute summarizes every version in the document, sorted by version
// identifier. Accuracy is 0 when nothing has been tested for a version.
func Compute(doc *model.ResultsDocument) []VersionSummary {
	summaries := make([]VersionSummary, 0, len(doc.Versions))
	for version, vs := range doc.Versions {
		summaries = append(summaries, VersionSummary{
			Version:      version,
			TestedCount:  vs.TestedCount,
			CorrectCount: vs.CorrectCount,
			Accuracy:     Accuracy(vs.CorrectCount, vs.TestedCount),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Version < summaries[j].Version
	})
	return summaries
}

// Accuracy returns correct/tested, or 0 when tested is 0.
func Accuracy(correct, tested int) float64 {
	if tested <= 0 {
		return 0
	}
	return float64(correct) / float64(tested)
}

// Progress describes testing progress for one version against a dataset,
// matching the block printed between judgments during a session.
type Progress struct {
	Version        string `json:"version" yaml:"version"`
	DatasetTitles  int    `json:"dataset_titles" yaml:"dataset_titles"`
	TestedAnyVer   int    `json:"tested_any_version" yaml:"tested_any_version"`
	TestedCount    int    `json:"tested_count" yaml:"tested_count"`
	CorrectCount   int    `json:"correct_count" yaml:"correct_count"`
	UntestedTitles int    `json:"untested_titles" yaml:"untested_titles"`
}

// Accuracy returns the running accuracy for the version under test.
func (p Progress) Accuracy() float64 {
	return Accuracy(p.CorrectCount, p.TestedCount)
}

// ComputeProgress reports how far testing of the given version has advanced
// through the dataset.
func ComputeProgress(doc *model.ResultsDocument, dataset []string, version string) Progress {
	p := Progress{
		Version:       version,
		DatasetTitles: len(dataset),
		TestedAnyVer:  len(doc.Titles),
	}
	if vs, ok := doc.Versions[version]; ok {
		p.TestedCount = vs.TestedCount
		p.CorrectCount = vs.CorrectCount
	}
	for _, title := range dataset {
		if !doc.HasResult(title, version) {
			p.UntestedTitles++
		}
	}
	return p
}

// Render writes the version summaries in the requested format: "table"
// (human-readable, the default), "json", or "yaml".
func Render(w io.Writer, summaries []VersionSummary, format string) error {
	switch format {
	case "", "table":
		return renderTable(w, summaries)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(summaries), "stats: encode json")
	case "yaml":
		return eris.Wrap(yaml.NewEncoder(w).Encode(summaries), "stats: encode yaml")
	default:
		return eris.Errorf("stats: unknown format %q", format)
	}
}

func renderTable(w io.Writer, summaries []VersionSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No results recorded yet.")
		return eris.Wrap(err, "stats: write table")
	}
	if _, err := fmt.Fprintf(w, "%-20s %8s %8s %10s\n", "VERSION", "TESTED", "CORRECT", "ACCURACY"); err != nil {
		return eris.Wrap(err, "stats: write table")
	}
	for _, s := range summaries {
		if _, err := fmt.Fprintf(w, "%-20s %8d %8d %9.2f%%\n",
			s.Version, s.TestedCount, s.CorrectCount, s.Accuracy*100); err != nil {
			return eris.Wrap(err, "stats: write table")
		}
	}
	return nil
}

// WriteProgress prints the progress block shown periodically during a
// session.
func WriteProgress(w io.Writer, p Progress) {
	fmt.Fprintln(w, "\n===== Testing Statistics =====")
	fmt.Fprintf(w, "Parser version: %s\n", p.Version)
	fmt.Fprintf(w, "Total titles in dataset: %d\n", p.DatasetTitles)
	fmt.Fprintf(w, "Total titles tested (any version): %d\n", p.TestedAnyVer)
	fmt.Fprintf(w, "Titles tested with current version: %d\n", p.TestedCount)
	if p.TestedCount > 0 {
		fmt.Fprintf(w, "Current version accuracy: %.2f%%\n", p.Accuracy()*100)
	}
	fmt.Fprintf(w, "Untested titles with current version: %d\n", p.UntestedTitles)
	fmt.Fprintln(w, "=============================")
}
