// Package config assembles the explicit configuration object every stage is
// constructed with. Values come from TALKINDEX_* environment variables with
// defaults, plus an optional YAML file for the stopword filter list and
// classifier hyperparameters.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backend selectors.
const (
	StoreES     = "es"
	StoreSQLite = "sqlite"
)

// Ranker selectors.
const (
	RankerFrequency = "frequency"
	RankerGemini    = "gemini"
)

type Config struct {
	// Document store.
	StoreBackend string // es | sqlite
	StoreURL     string
	Index        string
	SQLitePath   string
	ScanPageSize int

	// Acquisition.
	Workers       int
	DriverURL     string
	ChromeBinary  string
	Headless      bool
	NoSandbox     bool
	DisableDevShm bool
	Locale        string
	Selector      string
	RenderWait    time.Duration
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	FetchRetries  int

	// Labeling.
	ScratchRoot   string
	Stopwords     []string
	MinTokenLen   int
	MaxLabels     int
	Ranker        string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Corpus split and classifier.
	TestFraction   float64
	Seed           uint64
	FastTextBinary string
	LearningRate   float64
	WordNgrams     int
	Epochs         int
}

// Load reads configuration from the environment and, when TALKINDEX_CONFIG
// points at a YAML file, merges its overrides on top.
func Load() (Config, error) {
	cfg := Config{}
	var err error

	if cfg.StoreBackend, err = envChoice("TALKINDEX_STORE", StoreES, StoreES, StoreSQLite); err != nil {
		return Config{}, err
	}
	cfg.StoreURL = envString("TALKINDEX_STORE_URL", "http://127.0.0.1:9200")
	cfg.Index = envString("TALKINDEX_INDEX", "talk-index")
	cfg.SQLitePath = envString("TALKINDEX_SQLITE_PATH", "talkindex.db")
	if cfg.ScanPageSize, err = envInt("TALKINDEX_SCAN_PAGE_SIZE", 100); err != nil {
		return Config{}, err
	}

	if cfg.Workers, err = envInt("TALKINDEX_WORKERS", 5); err != nil {
		return Config{}, err
	}
	cfg.DriverURL = envString("TALKINDEX_DRIVER_URL", "http://127.0.0.1:9515")
	cfg.ChromeBinary = envString("TALKINDEX_CHROME_BINARY", "")
	if cfg.Headless, err = envBool("TALKINDEX_HEADLESS", true); err != nil {
		return Config{}, err
	}
	if cfg.NoSandbox, err = envBool("TALKINDEX_NO_SANDBOX", true); err != nil {
		return Config{}, err
	}
	if cfg.DisableDevShm, err = envBool("TALKINDEX_DISABLE_DEV_SHM", true); err != nil {
		return Config{}, err
	}
	cfg.Locale = envString("TALKINDEX_LOCALE", "en-US")
	cfg.Selector = envString("TALKINDEX_SELECTOR",
		`span[class='cursor-pointer inline hover:bg-red-300 css-82uonn']`)
	if cfg.RenderWait, err = envDuration("TALKINDEX_RENDER_WAIT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = envDuration("TALKINDEX_POLL_INTERVAL", 250*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.FetchTimeout, err = envDuration("TALKINDEX_FETCH_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.FetchRetries, err = envInt("TALKINDEX_FETCH_RETRIES", 0); err != nil {
		return Config{}, err
	}

	cfg.ScratchRoot = envString("TALKINDEX_SCRATCH_ROOT", "temp")
	cfg.Stopwords = defaultStopwords
	if cfg.MinTokenLen, err = envInt("TALKINDEX_MIN_TOKEN_LEN", 3); err != nil {
		return Config{}, err
	}
	if cfg.MaxLabels, err = envInt("TALKINDEX_MAX_LABELS", 10); err != nil {
		return Config{}, err
	}
	if cfg.Ranker, err = envChoice("TALKINDEX_RANKER", RankerFrequency, RankerFrequency, RankerGemini); err != nil {
		return Config{}, err
	}
	cfg.GeminiAPIKey = envString("GEMINI_API_KEY", "")
	cfg.GeminiModel = envString("GEMINI_MODEL", "")
	cfg.GeminiBaseURL = envString("GEMINI_BASE_URL", "")

	if cfg.TestFraction, err = envFloat("TALKINDEX_TEST_FRACTION", 0.9); err != nil {
		return Config{}, err
	}
	seed, err := envInt("TALKINDEX_SEED", 444)
	if err != nil {
		return Config{}, err
	}
	if seed < 0 {
		return Config{}, fmt.Errorf("invalid TALKINDEX_SEED=%d: must be non-negative", seed)
	}
	cfg.Seed = uint64(seed)
	cfg.FastTextBinary = envString("TALKINDEX_FASTTEXT_BINARY", "fasttext")
	if cfg.LearningRate, err = envFloat("TALKINDEX_LEARNING_RATE", 1.25); err != nil {
		return Config{}, err
	}
	if cfg.WordNgrams, err = envInt("TALKINDEX_WORD_NGRAMS", 3); err != nil {
		return Config{}, err
	}
	if cfg.Epochs, err = envInt("TALKINDEX_EPOCHS", 5000); err != nil {
		return Config{}, err
	}

	if path := strings.TrimSpace(os.Getenv("TALKINDEX_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// StopwordSet returns the stopword list as a lookup set.
func (c Config) StopwordSet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Stopwords))
	for _, w := range c.Stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

// fileConfig is the YAML override surface. Only the fields that are awkward
// as single env vars live here.
type fileConfig struct {
	Stopwords  []string `yaml:"stopwords"`
	Classifier struct {
		LearningRate *float64 `yaml:"learning_rate"`
		WordNgrams   *int     `yaml:"word_ngrams"`
		Epochs       *int     `yaml:"epochs"`
	} `yaml:"classifier"`
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read TALKINDEX_CONFIG file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse TALKINDEX_CONFIG YAML: %w", err)
	}
	if len(fc.Stopwords) > 0 {
		c.Stopwords = fc.Stopwords
	}
	if fc.Classifier.LearningRate != nil {
		c.LearningRate = *fc.Classifier.LearningRate
	}
	if fc.Classifier.WordNgrams != nil {
		c.WordNgrams = *fc.Classifier.WordNgrams
	}
	if fc.Classifier.Epochs != nil {
		c.Epochs = *fc.Classifier.Epochs
	}
	return nil
}

func envString(varName, fallback string) string {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback
	}
	return v
}

func envChoice(varName, fallback string, allowed ...string) (string, error) {
	v := envString(varName, fallback)
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid %s=%q: want one of %s", varName, v, strings.Join(allowed, "|"))
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
