package main

import (
	"context"
	"fmt"

	"github.com/talkindex/talkindex/internal/config"
	"github.com/talkindex/talkindex/internal/fetch"
	"github.com/talkindex/talkindex/internal/label"
	"github.com/talkindex/talkindex/internal/label/gemini"
	"github.com/talkindex/talkindex/internal/store"
	"github.com/talkindex/talkindex/internal/store/eshttp"
	"github.com/talkindex/talkindex/internal/store/sqlitestore"
	"github.com/talkindex/talkindex/internal/webdriver"
)

// openStore constructs the configured document store. The returned closer
// is a no-op for the HTTP backend.
func openStore(cfg config.Config) (store.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		st, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case config.StoreES:
		st, err := eshttp.NewClient(cfg.StoreURL, cfg.Index)
		if err != nil {
			return nil, nil, err
		}
		return st, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newFetcher(cfg config.Config) (*fetch.Fetcher, error) {
	driver, err := webdriver.NewClient(cfg.DriverURL)
	if err != nil {
		return nil, err
	}
	return fetch.New(driver, fetch.Options{
		Selector:     cfg.Selector,
		RenderWait:   cfg.RenderWait,
		PollInterval: cfg.PollInterval,
		Session: webdriver.SessionOptions{
			Binary:        cfg.ChromeBinary,
			Headless:      cfg.Headless,
			NoSandbox:     cfg.NoSandbox,
			DisableDevShm: cfg.DisableDevShm,
			Locale:        cfg.Locale,
		},
	}), nil
}

func newRanker(ctx context.Context, cfg config.Config) (label.TermRanker, error) {
	switch cfg.Ranker {
	case config.RankerGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	default:
		return label.FrequencyRanker{}, nil
	}
}
