package tools

import (
	"math"
	"sort"
	"strings"

	"github.com/kadirpekel/minion/schema"
)

// bm25Rank scores candidates against query using Okapi BM25 over each
// tool's name+description+category, tokenized on whitespace/punctuation. No BM25
// or full-text-search library appears anywhere in the retrieved corpus
// (see DESIGN.md); this is deliberately stdlib-only rather than adding
// an out-of-corpus dependency for one scoring function.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func bm25Rank(candidates []schema.ToolInfo, query string) []schema.ToolInfo {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	docs := make([][]string, len(candidates))
	var totalLen int
	df := make(map[string]int)

	for i, c := range candidates {
		toks := tokenize(c.Name + " " + c.Description + " " + c.Category)
		docs[i] = toks
		totalLen += len(toks)
		seen := make(map[string]bool)
		for _, t := range toks {
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}

	n := float64(len(candidates))
	avgLen := 0.0
	if n > 0 {
		avgLen = float64(totalLen) / n
	}

	type scored struct {
		info  schema.ToolInfo
		score float64
	}
	var results []scored

	for i, toks := range docs {
		tf := make(map[string]int, len(toks))
		for _, t := range toks {
			tf[t]++
		}
		var score float64
		for _, qt := range queryTerms {
			f := float64(tf[qt])
			if f == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[qt])+0.5)/(float64(df[qt])+0.5))
			docLen := float64(len(toks))
			score += idf * (f * (bm25K1 + 1)) / (f + bm25K1*(1-bm25B+bm25B*docLen/avgLen))
		}
		if score > 0 {
			results = append(results, scored{info: candidates[i], score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	out := make([]schema.ToolInfo, len(results))
	for i, r := range results {
		out[i] = r.info
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
