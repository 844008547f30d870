package sampler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaparse/titlebench/internal/model"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "titles.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDataset(t *testing.T) {
	t.Run("SkipsBlankLinesKeepsDuplicates", func(t *testing.T) {
		path := writeDataset(t, "Show.S01E01.720p\n\n  \nShow.S01E01.720p\nMovie.2020.1080p\n")

		titles, err := LoadDataset(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Show.S01E01.720p", "Show.S01E01.720p", "Movie.2020.1080p"}, titles)
	})

	t.Run("TrimsSurroundingWhitespace", func(t *testing.T) {
		path := writeDataset(t, "  Movie.2020.1080p  \n")

		titles, err := LoadDataset(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Movie.2020.1080p"}, titles)
	})

	t.Run("NormalizesToNFC", func(t *testing.T) {
		// "é" as 'e' + combining acute accent (NFD).
		path := writeDataset(t, "Amelié.2001.720p\n")

		titles, err := LoadDataset(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Amelié.2001.720p"}, titles)
	})

	t.Run("MissingFileFails", func(t *testing.T) {
		_, err := LoadDataset(filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})
}

func TestSamplerWithoutReplacement(t *testing.T) {
	titles := []string{"A.2020.720p", "B.2021.720p", "C.2022.720p", "D.2023.720p"}
	s := New(titles)
	doc := model.NewResultsDocument()

	seen := map[string]bool{}
	for range titles {
		title, ok := s.Next(doc, "1.0", false)
		require.True(t, ok)
		assert.False(t, seen[title], "title %q handed out twice", title)
		seen[title] = true
	}

	_, ok := s.Next(doc, "1.0", false)
	assert.False(t, ok, "expected exhaustion after all titles were handed out")
}

func TestSamplerExcludesTitlesRecordedForVersion(t *testing.T) {
	doc := model.NewResultsDocument()
	doc.Titles["A.2020.720p"] = map[string]model.JudgmentRecord{"1.0": {IsCorrect: true}}

	s := New([]string{"A.2020.720p", "B.2021.720p"})

	title, ok := s.Next(doc, "1.0", false)
	require.True(t, ok)
	assert.Equal(t, "B.2021.720p", title)

	_, ok = s.Next(doc, "1.0", false)
	assert.False(t, ok)
}

func TestSamplerVersionScopedExclusion(t *testing.T) {
	// A record under a different version does not exclude the title.
	doc := model.NewResultsDocument()
	doc.Titles["A.2020.720p"] = map[string]model.JudgmentRecord{"1.0": {IsCorrect: true}}

	s := New([]string{"A.2020.720p"})

	title, ok := s.Next(doc, "2.0", false)
	require.True(t, ok)
	assert.Equal(t, "A.2020.720p", title)
}

func TestSamplerRetestMode(t *testing.T) {
	doc := model.NewResultsDocument()
	doc.Titles["A.2020.720p"] = map[string]model.JudgmentRecord{"1.0": {IsCorrect: true}}
	doc.Titles["B.2021.720p"] = map[string]model.JudgmentRecord{"0.9": {IsCorrect: false}}

	s := New([]string{"A.2020.720p", "B.2021.720p", "C.2022.720p"})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		title, ok := s.Next(doc, "2.0", true)
		require.True(t, ok)
		seen[title] = true
	}
	assert.True(t, seen["A.2020.720p"])
	assert.True(t, seen["B.2021.720p"])

	// C has never been tested under any version, so retest mode skips it.
	_, ok := s.Next(doc, "2.0", true)
	assert.False(t, ok)
}

func TestSamplerEmptyDataset(t *testing.T) {
	s := New(nil)
	_, ok := s.Next(model.NewResultsDocument(), "1.0", false)
	assert.False(t, ok)
}

func TestSamplerDuplicateExcludedOnceJudged(t *testing.T) {
	doc := model.NewResultsDocument()
	s := New([]string{"Show.S01E01.720p", "Show.S01E01.720p", "Movie.2020.1080p"})

	first, ok := s.Next(doc, "1.0", false)
	require.True(t, ok)
	doc.Titles[first] = map[string]model.JudgmentRecord{"1.0": {IsCorrect: true}}

	second, ok := s.Next(doc, "1.0", false)
	require.True(t, ok)
	assert.NotEqual(t, first, second)
	doc.Titles[second] = map[string]model.JudgmentRecord{"1.0": {IsCorrect: false}}

	// Both distinct strings are recorded, so only the duplicate remains and
	// it is excluded by its twin's record.
	_, ok = s.Next(doc, "1.0", false)
	assert.False(t, ok)
}
