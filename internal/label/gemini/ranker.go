// Package gemini provides an LLM-backed TermRanker for corpora where raw
// term frequency gives weak labels. It is selected by configuration; the
// frequency ranker remains the default.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the API base URL. Useful for proxies/testing.
	BaseURL string

	// MaxTerms bounds how many keywords to request per document.
	MaxTerms int
}

type Ranker struct {
	client   *genai.Client
	model    string
	maxTerms int
}

func New(ctx context.Context, cfg Config) (*Ranker, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	if cfg.MaxTerms <= 0 {
		cfg.MaxTerms = 25
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Ranker{
		client:   client,
		model:    strings.TrimSpace(cfg.Model),
		maxTerms: cfg.MaxTerms,
	}, nil
}

type responseSchema struct {
	Keywords []string `json:"keywords"`
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"keywords": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"keywords"},
}

// Rank reads the transcript artifact and asks the model for single-word
// keywords in descending topical importance.
func (r *Ranker) Rank(ctx context.Context, artifactPath string) ([]string, error) {
	b, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	transcript := strings.TrimSpace(string(b))
	if transcript == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(
		"Extract up to %d single-word topic keywords from the transcript below, "+
			"ordered from most to least representative. Lowercase, no punctuation.\n\n%s",
		r.maxTerms, transcript)

	resp, err := r.client.Models.GenerateContent(
		ctx,
		r.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return nil, fmt.Errorf("gemini: parse structured json: %w", err)
	}

	terms := make([]string, 0, len(parsed.Keywords))
	for _, kw := range parsed.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			terms = append(terms, kw)
		}
	}
	return terms, nil
}
