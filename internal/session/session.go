// Package session drives the interactive judgment loop: pick a title, parse
// it, show the result, collect the operator's verdict, persist, repeat.
// The loop is strictly sequential; the only suspension point is the blocking
// read of the operator's response.
package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mediaparse/titlebench/internal/model"
	"github.com/mediaparse/titlebench/internal/resilience"
	"github.com/mediaparse/titlebench/internal/sampler"
	"github.com/mediaparse/titlebench/internal/stats"
	"github.com/mediaparse/titlebench/internal/store"
	"github.com/mediaparse/titlebench/pkg/parser"
)

const (
	progressEvery = 5
	continueEvery = 10
)

// Options configures a session.
type Options struct {
	// Version identifies the parser build under test.
	Version string
	// Retest re-presents titles already judged under any version.
	Retest bool
	// Retry controls retries of transient parser failures.
	Retry resilience.RetryConfig
	// In and Out default to os.Stdin/os.Stdout when nil.
	In  io.Reader
	Out io.Writer
}

// Session owns one interactive run over a dataset. All mutation of the
// results document goes through explicit store calls; every judgment is
// saved to disk before the next title is shown.
type Session struct {
	id      uuid.UUID
	store   *store.JSONStore
	doc     *model.ResultsDocument
	dataset []string
	picker  *sampler.Sampler
	parser  parser.Client
	version string
	retest  bool
	retry   resilience.RetryConfig
	in      *bufio.Reader
	out     io.Writer

	judged  int
	correct int
}

// New builds a session over the loaded document and dataset.
func New(st *store.JSONStore, doc *model.ResultsDocument, dataset []string, p parser.Client, opts Options) *Session {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Session{
		id:      uuid.New(),
		store:   st,
		doc:     doc,
		dataset: dataset,
		picker:  sampler.New(dataset),
		parser:  p,
		version: opts.Version,
		retest:  opts.Retest,
		retry:   opts.Retry,
		in:      bufio.NewReader(opts.In),
		out:     opts.Out,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Judged returns the number of judgments recorded this session.
func (s *Session) Judged() int { return s.judged }

// Correct returns the number of correct judgments recorded this session.
func (s *Session) Correct() int { return s.correct }

// Run executes the loop until the operator quits, the sampler is exhausted,
// or the context is canceled (an interrupt behaves like quit). Either exit
// path performs a final save and prints a short summary. Only save failures
// are returned as errors; parser failures are surfaced to the operator and
// the loop continues.
func (s *Session) Run(ctx context.Context) error {
	zap.L().Info("session started",
		zap.String("session_id", s.id.String()),
		zap.String("version", s.version),
		zap.Bool("retest", s.retest),
	)

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\nSession interrupted.")
			break
		}

		title, ok := s.picker.Next(s.doc, s.version, s.retest)
		if !ok {
			if s.retest {
				fmt.Fprintln(s.out, "All previously tested titles have been retested.")
			} else {
				fmt.Fprintln(s.out, "All titles in the dataset have been tested with this parser version.")
			}
			break
		}

		parsed, parseErr := s.parse(ctx, title)
		s.present(title, parsed, parseErr)

		verdict, quit := s.awaitJudgment()
		if quit {
			fmt.Fprintln(s.out, "Quitting test session.")
			break
		}
		if verdict == nil {
			fmt.Fprintln(s.out, "Skipping this title.")
			continue
		}

		if err := s.record(title, parsed, parseErr, *verdict); err != nil {
			return err
		}

		if s.judged%progressEvery == 0 {
			stats.WriteProgress(s.out, stats.ComputeProgress(s.doc, s.dataset, s.version))
		}
		if s.judged%continueEvery == 0 && !s.promptContinue() {
			fmt.Fprintln(s.out, "Ending test session.")
			break
		}
	}

	return s.finish()
}

// RunSingle presents one title and, when record is set, collects a verdict
// and records it. Used by single-title mode; skip and quit leave the
// document untouched.
func (s *Session) RunSingle(ctx context.Context, title string, record bool) error {
	parsed, parseErr := s.parse(ctx, title)
	s.present(title, parsed, parseErr)
	if !record {
		return nil
	}

	verdict, quit := s.awaitJudgment()
	if quit {
		fmt.Fprintln(s.out, "Quitting test session.")
		return nil
	}
	if verdict == nil {
		fmt.Fprintln(s.out, "Skipping this title.")
		return nil
	}
	return s.record(title, parsed, parseErr, *verdict)
}

// judgment is the operator's verdict on one presented title.
type judgment struct {
	correct bool
	notes   string
}

// parse invokes the external parser with a small retry budget for transient
// failures. The returned error is surfaced to the operator, never fatal.
func (s *Session) parse(ctx context.Context, title string) (json.RawMessage, error) {
	cfg := s.retry
	cfg.ShouldRetry = func(err error) bool {
		var se *parser.StatusError
		if errors.As(err, &se) {
			return resilience.IsTransientHTTPStatus(se.Code)
		}
		return resilience.IsTransient(err)
	}
	cfg.OnRetry = resilience.RetryLogger("parse_title")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (json.RawMessage, error) {
		return s.parser.Parse(ctx, title)
	})
}

// present shows the title and the parser's output, or an error indicator
// when parsing failed.
func (s *Session) present(title string, parsed json.RawMessage, parseErr error) {
	fmt.Fprintln(s.out, "\n"+strings.Repeat("=", 80))
	fmt.Fprintf(s.out, "Title: %s\n", title)
	fmt.Fprintln(s.out, strings.Repeat("-", 80))
	if parseErr != nil {
		fmt.Fprintf(s.out, "Parse FAILED: %v\n", parseErr)
	} else {
		fmt.Fprintln(s.out, "Parsed Result:")
		writeResult(s.out, parsed)
	}
	fmt.Fprintln(s.out, strings.Repeat("-", 80))
}

// writeResult pretty-prints the opaque parser output. Top-level keys are
// shown one per line when the result is an object; anything else is printed
// raw.
func writeResult(w io.Writer, parsed json.RawMessage) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(parsed, &fields); err != nil {
		fmt.Fprintf(w, "  %s\n", string(parsed))
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, string(fields[k]))
	}
}

// awaitJudgment blocks for the operator's response. Returns (nil, true) for
// quit, (nil, false) for skip, and a judgment otherwise. An input read
// failure (for example EOF on a closed stdin) is treated as quit.
func (s *Session) awaitJudgment() (*judgment, bool) {
	for {
		fmt.Fprint(s.out, "Is this parsing correct? (Y/n/s/q) [Y=yes, n=no, s=skip, q=quit]: ")
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			return nil, true
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "y":
			return &judgment{correct: true}, false
		case "n":
			fmt.Fprint(s.out, "Notes about this result: ")
			notes, err := s.in.ReadString('\n')
			if err != nil && notes == "" {
				return nil, true
			}
			return &judgment{correct: false, notes: strings.TrimSpace(notes)}, false
		case "s":
			return nil, false
		case "q":
			return nil, true
		default:
			fmt.Fprintln(s.out, "Invalid input. Please enter Y, n, s or q (or press Enter for Yes).")
		}
	}
}

// record writes the judgment into the document and persists it immediately,
// bounding data loss on crash to the in-flight title. A failed parse is
// stored with an error payload as its result so the failure stays visible
// in the record.
func (s *Session) record(title string, parsed json.RawMessage, parseErr error, v judgment) error {
	result := parsed
	if parseErr != nil {
		payload, err := json.Marshal(map[string]string{"error": parseErr.Error()})
		if err != nil {
			return eris.Wrap(err, "session: marshal parse error")
		}
		result = payload
	}

	rec := model.JudgmentRecord{
		IsCorrect:    v.correct,
		ParsedResult: result,
		Notes:        v.notes,
		Timestamp:    model.Timestamp(time.Now()),
	}
	store.RecordJudgment(s.doc, title, s.version, rec)

	if err := s.store.Save(s.doc); err != nil {
		return eris.Wrapf(err, "session: save judgment for %q", title)
	}

	s.judged++
	if v.correct {
		s.correct++
	}
	return nil
}

// promptContinue asks whether to keep testing; default is yes.
func (s *Session) promptContinue() bool {
	fmt.Fprint(s.out, "Continue testing? (Y/n): ")
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y":
		return true
	default:
		return false
	}
}

// finish performs the terminal save and prints the session summary.
func (s *Session) finish() error {
	if err := s.store.Save(s.doc); err != nil {
		return eris.Wrap(err, "session: final save")
	}

	fmt.Fprintf(s.out, "\nSession %s finished: %d judged, %d correct (%.2f%% this session)\n",
		s.id, s.judged, s.correct, stats.Accuracy(s.correct, s.judged)*100)

	zap.L().Info("session finished",
		zap.String("session_id", s.id.String()),
		zap.Int("judged", s.judged),
		zap.Int("correct", s.correct),
	)
	return nil
}
