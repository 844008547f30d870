package main

import (
	"os"

	"github.com/rotisserie/eris"

	"github.com/mediaparse/titlebench/internal/stats"
	"github.com/mediaparse/titlebench/internal/store"
)

// runStats prints per-version accuracy from the results file and exits
// without entering a session.
func runStats(format string) error {
	doc, err := store.NewJSON(cfg.Results).Load()
	if err != nil {
		return eris.Wrap(err, "load results")
	}
	return stats.Render(os.Stdout, stats.Compute(doc), format)
}
