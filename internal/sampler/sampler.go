// Package sampler selects titles to present during an interactive session.
package sampler

import (
	"bufio"
	"math/rand"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/mediaparse/titlebench/internal/model"
)

// LoadDataset reads one candidate title per line from a UTF-8 text file.
// Blank lines are discarded; duplicate lines are preserved. Titles are
// NFC-normalized so visually identical strings key the same document entry.
func LoadDataset(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sampler: open dataset %s", path)
	}
	defer f.Close()

	var titles []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		titles = append(titles, norm.NFC.String(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "sampler: read dataset %s", path)
	}
	return titles, nil
}

// Sampler picks titles uniformly at random without replacement within one
// session. A title handed out once is never handed out again in the same
// session, even if no judgment was recorded for it (a skip is not retried).
type Sampler struct {
	titles []string
	used   []bool
	intN   func(int) int
}

// New returns a sampler over the dataset titles.
func New(titles []string) *Sampler {
	return &Sampler{
		titles: titles,
		used:   make([]bool, len(titles)),
		intN:   rand.Intn,
	}
}

// Next returns the next candidate title, or ok=false when no candidates
// remain. In normal mode candidates are titles with no judgment for the
// given version; in retest mode candidates are titles already judged under
// any version, so they can be re-evaluated under a new one.
func (s *Sampler) Next(doc *model.ResultsDocument, version string, retest bool) (string, bool) {
	var candidates []int
	for i, title := range s.titles {
		if s.used[i] {
			continue
		}
		if retest {
			if doc.Tested(title) {
				candidates = append(candidates, i)
			}
			continue
		}
		if !doc.HasResult(title, version) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	pick := candidates[s.intN(len(candidates))]
	s.used[pick] = true
	return s.titles[pick], true
}
