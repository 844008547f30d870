package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"

	"github.com/mediaparse/titlebench/internal/resilience"
	"github.com/mediaparse/titlebench/internal/sampler"
	"github.com/mediaparse/titlebench/internal/session"
	"github.com/mediaparse/titlebench/internal/store"
	"github.com/mediaparse/titlebench/pkg/parser"
)

// runSession drives the interactive annotation loop over a dataset file.
func runSession(ctx context.Context, datasetPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataset, err := sampler.LoadDataset(datasetPath)
	if err != nil {
		return eris.Wrap(err, "load dataset")
	}

	st := store.NewJSON(cfg.Results)
	doc, err := st.Load()
	if err != nil {
		return eris.Wrap(err, "load results")
	}

	fmt.Printf("Testing parser version: %s\n", cfg.Version)
	fmt.Printf("Dataset: %s (%d titles)\n", datasetPath, len(dataset))
	fmt.Printf("Results will be saved to: %s\n", cfg.Results)
	if flagRetest {
		fmt.Println("Mode: Retesting previously tested titles")
	} else {
		fmt.Println("Mode: Testing new random titles")
	}

	fmt.Print("Press Enter to begin testing...")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return nil
	}

	sess := session.New(st, doc, dataset, newParserClient(), session.Options{
		Version: cfg.Version,
		Retest:  flagRetest,
		Retry:   retryConfig(),
	})
	return sess.Run(ctx)
}

// runSingleTitle parses one title and optionally records a verdict for it.
func runSingleTitle(ctx context.Context, title string, save bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.NewJSON(cfg.Results)
	doc, err := st.Load()
	if err != nil {
		return eris.Wrap(err, "load results")
	}

	sess := session.New(st, doc, nil, newParserClient(), session.Options{
		Version: cfg.Version,
		Retry:   retryConfig(),
	})
	return sess.RunSingle(ctx, title, save)
}

func newParserClient() parser.Client {
	return parser.NewClient(cfg.Parser.BaseURL, parser.WithTimeout(cfg.Parser.Timeout()))
}

func retryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: cfg.Parser.MaxAttempts}
}
