package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kadirpekel/minion/config"
)

// SQLEpisodicStore is a durable EpisodicStore over database/sql,
// grounded on the teacher's pkg/memory/session_service_sql.go
// SQLSessionService: same driver-name mapping, same per-dialect
// CREATE TABLE/CREATE INDEX schema shape, same connection-pool tuning
// and PingContext startup check. Adapted from hector's conversation
// message log to a flat, append-only episodic_records table keyed by
// agent_id.
type SQLEpisodicStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLEpisodicStore opens and schema-initializes a SQL episodic
// store per cfg. cfg.Type selects the driver ("sqlite3", "postgres",
// or "mysql"); cfg.DSN is the connection string.
func NewSQLEpisodicStore(cfg config.DatabaseProviderConfig) (*SQLEpisodicStore, error) {
	driverName := cfg.Type
	dialect := cfg.Type
	switch cfg.Type {
	case "sqlite", "sqlite3":
		driverName = "sqlite3"
		dialect = "sqlite"
	case "postgres", "postgresql":
		driverName = "postgres"
		dialect = "postgres"
	case "mysql":
		driverName = "mysql"
		dialect = "mysql"
	default:
		return nil, fmt.Errorf("memory: unsupported sql dialect %q", cfg.Type)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("memory: dsn is required for sql episodic store")
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("memory: opening %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: pinging %s database: %w", dialect, err)
	}

	store := &SQLEpisodicStore{db: db, dialect: dialect}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLEpisodicStore) initSchema(ctx context.Context) error {
	var schema string
	switch s.dialect {
	case "postgres":
		schema = `
CREATE TABLE IF NOT EXISTS episodic_records (
	id SERIAL PRIMARY KEY,
	agent_id TEXT NOT NULL,
	step INTEGER NOT NULL,
	ts TIMESTAMP NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_episodic_agent ON episodic_records(agent_id, step);`
	case "mysql":
		schema = `
CREATE TABLE IF NOT EXISTS episodic_records (
	id INTEGER PRIMARY KEY AUTO_INCREMENT,
	agent_id VARCHAR(255) NOT NULL,
	step INTEGER NOT NULL,
	ts DATETIME NOT NULL,
	role VARCHAR(64) NOT NULL,
	content TEXT NOT NULL,
	metadata_json TEXT
);
CREATE INDEX idx_episodic_agent ON episodic_records(agent_id, step);`
	default: // sqlite
		schema = `
CREATE TABLE IF NOT EXISTS episodic_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	step INTEGER NOT NULL,
	ts DATETIME NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_episodic_agent ON episodic_records(agent_id, step);`
	}

	for _, stmt := range splitStatements(schema) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			// MySQL lacks "CREATE INDEX IF NOT EXISTS"; tolerate a
			// duplicate-index error from a prior run.
			if s.dialect == "mysql" && isDuplicateIndexErr(err) {
				continue
			}
			return fmt.Errorf("memory: initializing %s schema: %w", s.dialect, err)
		}
	}
	return nil
}

func splitStatements(schema string) []string {
	var stmts []string
	for _, stmt := range strings.Split(schema, ";") {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			stmts = append(stmts, trimmed)
		}
	}
	return stmts
}

func isDuplicateIndexErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate key name")
}

func (s *SQLEpisodicStore) Append(ctx context.Context, agentID string, rec EpisodicRecord) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("memory: marshaling episodic metadata: %w", err)
	}
	query := fmt.Sprintf(
		"INSERT INTO episodic_records (agent_id, step, ts, role, content, metadata_json) VALUES (%s, %s, %s, %s, %s, %s)",
		s.arg(1), s.arg(2), s.arg(3), s.arg(4), s.arg(5), s.arg(6),
	)
	if _, err := s.db.ExecContext(ctx, query, agentID, rec.Step, rec.Timestamp, rec.Role, rec.Content, string(metaJSON)); err != nil {
		return fmt.Errorf("memory: inserting episodic record: %w", err)
	}
	return nil
}

// arg returns the dialect-correct positional placeholder for argument n.
func (s *SQLEpisodicStore) arg(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLEpisodicStore) List(ctx context.Context, agentID string) ([]EpisodicRecord, error) {
	query := fmt.Sprintf(
		"SELECT step, ts, role, content, metadata_json FROM episodic_records WHERE agent_id = %s ORDER BY step ASC, id ASC",
		s.arg(1),
	)
	rows, err := s.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("memory: listing episodic records: %w", err)
	}
	defer rows.Close()

	var out []EpisodicRecord
	for rows.Next() {
		var rec EpisodicRecord
		var metaJSON sql.NullString
		if err := rows.Scan(&rec.Step, &rec.Timestamp, &rec.Role, &rec.Content, &metaJSON); err != nil {
			return nil, fmt.Errorf("memory: scanning episodic record: %w", err)
		}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("memory: unmarshaling episodic metadata: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: iterating episodic records: %w", err)
	}
	return out, nil
}

func (s *SQLEpisodicStore) Close() error {
	return s.db.Close()
}

var _ EpisodicStore = (*SQLEpisodicStore)(nil)
