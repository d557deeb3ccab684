package label

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// TermRanker derives an ordered vocabulary from one document's transcript
// artifact. The engine takes the returned order as-is; whatever ordering a
// ranker produces is the label order.
type TermRanker interface {
	Rank(ctx context.Context, artifactPath string) ([]string, error)
}

// FrequencyRanker ranks distinct terms by descending occurrence count, with
// first occurrence breaking ties. It is the default ranker.
type FrequencyRanker struct{}

func (FrequencyRanker) Rank(_ context.Context, artifactPath string) ([]string, error) {
	b, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	counts := make(map[string]int)
	first := make(map[string]int)
	var terms []string
	for i, tok := range strings.Fields(string(b)) {
		tok = strings.ToLower(tok)
		if counts[tok] == 0 {
			first[tok] = i
			terms = append(terms, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return first[terms[i]] < first[terms[j]]
	})
	return terms, nil
}
