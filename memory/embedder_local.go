package memory

import (
	"context"
	"hash/fnv"
	"math"
)

// LocalEmbedder is a deterministic, network-free stand-in for a real
// embedding model: it hashes each whitespace-separated word into a
// bucket of a fixed-width vector and normalizes the counts. It has no real semantic structure, but it is
// stable (the same text always embeds to the same vector) and
// collides similar inputs onto nearby buckets often enough to make
// InProcessStore usable in zero-config/offline deployments and in
// tests, without requiring an embedding API.
type LocalEmbedder struct {
	dimension int
}

// NewLocalEmbedder builds a LocalEmbedder with the given vector width.
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &LocalEmbedder{dimension: dimension}
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	words := splitWords(text)
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		bucket := int(h.Sum32()) % e.dimension
		if bucket < 0 {
			bucket += e.dimension
		}
		vec[bucket]++
	}
	normalize(vec)
	return vec, nil
}

func (e *LocalEmbedder) Dimension() int { return e.dimension }

func splitWords(text string) []string {
	var words []string
	start := -1
	for i, r := range text {
		if r == ' ' || r == '\t' || r == '\n' {
			if start >= 0 {
				words = append(words, text[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}

func normalize(vec []float32) {
	var sumSquares float32
	for _, v := range vec {
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(float64(sumSquares)))
	for i := range vec {
		vec[i] /= norm
	}
}

var _ Embedder = (*LocalEmbedder)(nil)
