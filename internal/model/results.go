// Package model defines the persisted results document and its entries.
// The JSON field names and nesting are a durable contract consumed by
// downstream analysis tooling and must not change.
package model

import (
	"encoding/json"
	"time"
)

// ResultsDocument is the root persisted entity: per-version aggregate stats
// plus every recorded judgment keyed by title, then by parser version.
type ResultsDocument struct {
	Versions map[string]VersionStats              `json:"versions"`
	Titles   map[string]map[string]JudgmentRecord `json:"titles"`
}

// VersionStats aggregates judgments for one parser version. Counts are always
// derivable from Titles; they are recomputed after every mutation rather than
// tracked incrementally.
type VersionStats struct {
	TestedCount  int    `json:"tested_count"`
	CorrectCount int    `json:"correct_count"`
	Timestamp    string `json:"timestamp"`
}

// JudgmentRecord is one human verdict on one parse of one title under one
// version. ParsedResult is owned by the external parser and stored verbatim;
// its internal shape is never interpreted here.
type JudgmentRecord struct {
	IsCorrect    bool            `json:"is_correct"`
	ParsedResult json.RawMessage `json:"parsed_result"`
	Notes        string          `json:"notes"`
	Timestamp    string          `json:"timestamp"`
}

// NewResultsDocument returns an empty document with initialized maps.
func NewResultsDocument() *ResultsDocument {
	return &ResultsDocument{
		Versions: map[string]VersionStats{},
		Titles:   map[string]map[string]JudgmentRecord{},
	}
}

// HasResult reports whether a judgment exists for the (title, version) pair.
func (d *ResultsDocument) HasResult(title, version string) bool {
	records, ok := d.Titles[title]
	if !ok {
		return false
	}
	_, ok = records[version]
	return ok
}

// Tested reports whether the title has a judgment under any version.
func (d *ResultsDocument) Tested(title string) bool {
	return len(d.Titles[title]) > 0
}

// Timestamp renders an instant in the document's wire format.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
