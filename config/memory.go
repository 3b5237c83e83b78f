package config

import "fmt"

// MemoryConfig selects and parameterizes an agent's memory.Memory
// backend: the in-process default, a remote vector store for the
// semantic store, and a database/sql-backed episodic log.
type MemoryConfig struct {
	// Backend selects the semantic-store VectorStore implementation:
	// "inprocess" (chromem-go, default), "pinecone", or "qdrant".
	Backend string `yaml:"backend"`
	// VectorStore references an entry in Config.Databases when Backend
	// is "pinecone" or "qdrant".
	VectorStore string `yaml:"vector_store,omitempty"`
	Embedder    string `yaml:"embedder,omitempty"` // references Config.Embedders

	// Episodic selects the SQLEpisodicStore driver: "sqlite3" (default),
	// "postgres", or "mysql"; EpisodicDSN references Config.Databases
	// when set, or is used directly as a database/sql DSN otherwise.
	Episodic    string `yaml:"episodic"`
	EpisodicDSN string `yaml:"episodic_dsn,omitempty"`

	// DecayCacheDir is where agentloop writes decayed large outputs and
	// where the working-memory store persists between steps.
	DecayCacheDir string `yaml:"decay_cache_dir"`
}

func (c *MemoryConfig) Validate() error {
	switch c.Backend {
	case "", "inprocess", "pinecone", "qdrant":
	default:
		return fmt.Errorf("invalid memory backend: %s", c.Backend)
	}
	switch c.Episodic {
	case "", "sqlite3", "postgres", "mysql":
	default:
		return fmt.Errorf("invalid episodic driver: %s", c.Episodic)
	}
	return nil
}

func (c *MemoryConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "inprocess"
	}
	if c.Episodic == "" {
		c.Episodic = "sqlite3"
	}
	if c.EpisodicDSN == "" && c.Episodic == "sqlite3" {
		c.EpisodicDSN = "file:minion_episodic.db?cache=shared"
	}
	if c.DecayCacheDir == "" {
		c.DecayCacheDir = "./.minion/cache"
	}
}
