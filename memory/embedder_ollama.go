package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kadirpekel/minion/config"
)

// OllamaEmbedder calls an Ollama server's /api/embeddings endpoint over
// plain net/http, grounded on the teacher's pkg/embedders/ollama.go
// OllamaEmbedder (same request/response shape, same "serialize
// concurrent calls" workaround for Ollama's runner crashing on
// concurrent embedding requests).
type OllamaEmbedder struct {
	host      string
	model     string
	dimension int
	client    *http.Client
	requestMu sync.Mutex
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllamaEmbedder builds an embedder per cfg.
func NewOllamaEmbedder(cfg config.EmbedderProviderConfig) *OllamaEmbedder {
	cfg.SetDefaults()
	return &OllamaEmbedder{
		host:      cfg.Host,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	// Ollama's llama runner crashes on concurrent embedding requests;
	// serialize them the same way the teacher's embedder does.
	e.requestMu.Lock()
	defer e.requestMu.Unlock()

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("memory: marshaling ollama embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("memory: building ollama embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("memory: calling ollama embeddings endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("memory: ollama embeddings returned status %d: %s", resp.StatusCode, string(errBody))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("memory: decoding ollama embed response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("memory: ollama returned an empty embedding")
	}
	return out.Embedding, nil
}

func (e *OllamaEmbedder) Dimension() int { return e.dimension }

var _ Embedder = (*OllamaEmbedder)(nil)
