package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/talkindex/talkindex/internal/config"
)

// clearEnv unsets every variable Load reads so tests see only what they set.
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"TALKINDEX_STORE", "TALKINDEX_STORE_URL", "TALKINDEX_INDEX",
		"TALKINDEX_SQLITE_PATH", "TALKINDEX_SCAN_PAGE_SIZE",
		"TALKINDEX_WORKERS", "TALKINDEX_DRIVER_URL", "TALKINDEX_CHROME_BINARY",
		"TALKINDEX_HEADLESS", "TALKINDEX_NO_SANDBOX", "TALKINDEX_DISABLE_DEV_SHM",
		"TALKINDEX_LOCALE", "TALKINDEX_SELECTOR", "TALKINDEX_RENDER_WAIT",
		"TALKINDEX_POLL_INTERVAL", "TALKINDEX_FETCH_TIMEOUT", "TALKINDEX_FETCH_RETRIES",
		"TALKINDEX_SCRATCH_ROOT", "TALKINDEX_MIN_TOKEN_LEN", "TALKINDEX_MAX_LABELS",
		"TALKINDEX_RANKER", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
		"TALKINDEX_TEST_FRACTION", "TALKINDEX_SEED", "TALKINDEX_FASTTEXT_BINARY",
		"TALKINDEX_LEARNING_RATE", "TALKINDEX_WORD_NGRAMS", "TALKINDEX_EPOCHS",
		"TALKINDEX_CONFIG",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		if err := os.Unsetenv(v); err != nil {
			t.Fatalf("unset %s: %v", v, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.StoreBackend != config.StoreES {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if cfg.StoreURL != "http://127.0.0.1:9200" {
		t.Errorf("StoreURL = %q", cfg.StoreURL)
	}
	if cfg.Index != "talk-index" {
		t.Errorf("Index = %q", cfg.Index)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if !cfg.Headless || !cfg.NoSandbox || !cfg.DisableDevShm {
		t.Error("browser hardening flags should default on")
	}
	if cfg.RenderWait != 10*time.Second {
		t.Errorf("RenderWait = %v", cfg.RenderWait)
	}
	if cfg.FetchTimeout != 60*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.ScratchRoot != "temp" {
		t.Errorf("ScratchRoot = %q", cfg.ScratchRoot)
	}
	if cfg.MinTokenLen != 3 || cfg.MaxLabels != 10 {
		t.Errorf("label limits = %d/%d", cfg.MinTokenLen, cfg.MaxLabels)
	}
	if cfg.Ranker != config.RankerFrequency {
		t.Errorf("Ranker = %q", cfg.Ranker)
	}
	if cfg.TestFraction != 0.9 {
		t.Errorf("TestFraction = %g", cfg.TestFraction)
	}
	if cfg.Seed != 444 {
		t.Errorf("Seed = %d", cfg.Seed)
	}
	if cfg.LearningRate != 1.25 || cfg.WordNgrams != 3 || cfg.Epochs != 5000 {
		t.Errorf("hyperparams = %g/%d/%d", cfg.LearningRate, cfg.WordNgrams, cfg.Epochs)
	}
	if len(cfg.Stopwords) == 0 {
		t.Error("default stopword list should not be empty")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALKINDEX_STORE", "sqlite")
	t.Setenv("TALKINDEX_SQLITE_PATH", "/tmp/talks.db")
	t.Setenv("TALKINDEX_WORKERS", "12")
	t.Setenv("TALKINDEX_HEADLESS", "false")
	t.Setenv("TALKINDEX_RENDER_WAIT", "2s")
	t.Setenv("TALKINDEX_TEST_FRACTION", "0.5")
	t.Setenv("TALKINDEX_SEED", "7")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != config.StoreSQLite {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if cfg.SQLitePath != "/tmp/talks.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.Workers != 12 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if cfg.Headless {
		t.Error("Headless should be false")
	}
	if cfg.RenderWait != 2*time.Second {
		t.Errorf("RenderWait = %v", cfg.RenderWait)
	}
	if cfg.TestFraction != 0.5 {
		t.Errorf("TestFraction = %g", cfg.TestFraction)
	}
	if cfg.Seed != 7 {
		t.Errorf("Seed = %d", cfg.Seed)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		env   string
		value string
	}{
		{"bad store backend", "TALKINDEX_STORE", "postgres"},
		{"bad worker count", "TALKINDEX_WORKERS", "many"},
		{"bad bool", "TALKINDEX_HEADLESS", "yep"},
		{"bad duration", "TALKINDEX_RENDER_WAIT", "10 seconds"},
		{"bad fraction", "TALKINDEX_TEST_FRACTION", "most"},
		{"negative seed", "TALKINDEX_SEED", "-1"},
		{"bad ranker", "TALKINDEX_RANKER", "tfidf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.env, tc.value)
			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.env, tc.value)
			}
		})
	}
}

func TestLoad_YAMLOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "talkindex.yml")
	body := `stopwords:
  - alpha
  - beta
classifier:
  learning_rate: 0.5
  word_ngrams: 2
  epochs: 25
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("TALKINDEX_CONFIG", path)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Stopwords) != 2 || cfg.Stopwords[0] != "alpha" || cfg.Stopwords[1] != "beta" {
		t.Errorf("Stopwords = %v", cfg.Stopwords)
	}
	if cfg.LearningRate != 0.5 || cfg.WordNgrams != 2 || cfg.Epochs != 25 {
		t.Errorf("hyperparams = %g/%d/%d", cfg.LearningRate, cfg.WordNgrams, cfg.Epochs)
	}

	set := cfg.StopwordSet()
	if _, ok := set["alpha"]; !ok {
		t.Error("StopwordSet missing alpha")
	}
	if len(set) != 2 {
		t.Errorf("StopwordSet size = %d", len(set))
	}
}

func TestLoad_PartialYAMLKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "talkindex.yml")
	if err := os.WriteFile(path, []byte("classifier:\n  epochs: 10\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("TALKINDEX_CONFIG", path)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Epochs != 10 {
		t.Errorf("Epochs = %d", cfg.Epochs)
	}
	if cfg.LearningRate != 1.25 || cfg.WordNgrams != 3 {
		t.Errorf("untouched hyperparams = %g/%d", cfg.LearningRate, cfg.WordNgrams)
	}
	if len(cfg.Stopwords) == 0 {
		t.Error("stopword defaults should survive a partial file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file disappeared: %v", err)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALKINDEX_CONFIG", filepath.Join(t.TempDir(), "absent.yml"))
	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
