// Package registry persists the admin-configured set of gateway upstreams
// (not the aggregated snapshot — that is rebuilt from the registry on
// every startup and refresh cycle) across restarts in a SQLite database,
// backed by modernc.org/sqlite instead of an in-memory map since these
// rows are meant to survive a restart.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
)

// ErrUpstreamNotFound is returned when an operation references an upstream
// name that does not exist in the registry.
var ErrUpstreamNotFound = errors.New("registry: upstream not found")

// Store persists gatewaycfg.Upstream rows keyed by upstream name.
type Store interface {
	List(ctx context.Context) ([]gatewaycfg.Upstream, error)
	Get(ctx context.Context, upstreamName string) (*gatewaycfg.Upstream, error)
	Put(ctx context.Context, u *gatewaycfg.Upstream) error
	Delete(ctx context.Context, upstreamName string) error
}

// SQLiteUpstreamStore implements Store against a local SQLite database
// opened with modernc.org/sqlite's pure-Go driver.
type SQLiteUpstreamStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the upstreams table exists.
func Open(path string) (*SQLiteUpstreamStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open database: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid SQLITE_BUSY churn

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry: apply schema: %w", err)
	}
	return &SQLiteUpstreamStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteUpstreamStore) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS upstreams (
	upstream_name     TEXT PRIMARY KEY,
	mcp_http_endpoint TEXT NOT NULL,
	namespace_prefix  TEXT NOT NULL,
	enabled           INTEGER NOT NULL,
	request_timeout_ms INTEGER NOT NULL,
	default_headers   TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);
`

type upstreamRow struct {
	UpstreamName     string
	McpHTTPEndpoint  string
	NamespacePrefix  string
	Enabled          bool
	RequestTimeoutMs int64
	DefaultHeaders   string
	UpdatedAt        string
}

func toRow(u *gatewaycfg.Upstream) (upstreamRow, error) {
	headers, err := json.Marshal(u.DefaultHeaders)
	if err != nil {
		return upstreamRow{}, fmt.Errorf("registry: marshal default headers: %w", err)
	}
	return upstreamRow{
		UpstreamName:     u.UpstreamName,
		McpHTTPEndpoint:  u.McpHTTPEndpoint,
		NamespacePrefix:  u.NamespacePrefix,
		Enabled:          u.Enabled,
		RequestTimeoutMs: u.RequestTimeout.Milliseconds(),
		DefaultHeaders:   string(headers),
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func fromRow(r upstreamRow) (gatewaycfg.Upstream, error) {
	var headers map[string]string
	if r.DefaultHeaders != "" {
		if err := json.Unmarshal([]byte(r.DefaultHeaders), &headers); err != nil {
			return gatewaycfg.Upstream{}, fmt.Errorf("registry: unmarshal default headers: %w", err)
		}
	}
	return gatewaycfg.Upstream{
		UpstreamName:    r.UpstreamName,
		McpHTTPEndpoint: r.McpHTTPEndpoint,
		NamespacePrefix: r.NamespacePrefix,
		Enabled:         r.Enabled,
		RequestTimeout:  time.Duration(r.RequestTimeoutMs) * time.Millisecond,
		DefaultHeaders:  headers,
	}, nil
}

// List returns every registered upstream, in no particular order.
func (s *SQLiteUpstreamStore) List(ctx context.Context) ([]gatewaycfg.Upstream, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT upstream_name, mcp_http_endpoint, namespace_prefix, enabled, request_timeout_ms, default_headers, updated_at FROM upstreams`)
	if err != nil {
		return nil, fmt.Errorf("registry: list query: %w", err)
	}
	defer rows.Close()

	var result []gatewaycfg.Upstream
	for rows.Next() {
		var r upstreamRow
		if err := rows.Scan(&r.UpstreamName, &r.McpHTTPEndpoint, &r.NamespacePrefix, &r.Enabled, &r.RequestTimeoutMs, &r.DefaultHeaders, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("registry: scan row: %w", err)
		}
		u, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// Get returns a single upstream by name.
func (s *SQLiteUpstreamStore) Get(ctx context.Context, upstreamName string) (*gatewaycfg.Upstream, error) {
	row := s.db.QueryRowContext(ctx, `SELECT upstream_name, mcp_http_endpoint, namespace_prefix, enabled, request_timeout_ms, default_headers, updated_at FROM upstreams WHERE upstream_name = ?`, upstreamName)

	var r upstreamRow
	if err := row.Scan(&r.UpstreamName, &r.McpHTTPEndpoint, &r.NamespacePrefix, &r.Enabled, &r.RequestTimeoutMs, &r.DefaultHeaders, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUpstreamNotFound
		}
		return nil, fmt.Errorf("registry: get query: %w", err)
	}
	u, err := fromRow(r)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Put inserts or replaces an upstream row.
func (s *SQLiteUpstreamStore) Put(ctx context.Context, u *gatewaycfg.Upstream) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r, err := toRow(u)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO upstreams (upstream_name, mcp_http_endpoint, namespace_prefix, enabled, request_timeout_ms, default_headers, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(upstream_name) DO UPDATE SET
			mcp_http_endpoint = excluded.mcp_http_endpoint,
			namespace_prefix = excluded.namespace_prefix,
			enabled = excluded.enabled,
			request_timeout_ms = excluded.request_timeout_ms,
			default_headers = excluded.default_headers,
			updated_at = excluded.updated_at
	`, r.UpstreamName, r.McpHTTPEndpoint, r.NamespacePrefix, r.Enabled, r.RequestTimeoutMs, r.DefaultHeaders, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("registry: put upstream: %w", err)
	}
	return nil
}

// Delete removes an upstream by name. Returns ErrUpstreamNotFound if no
// such row exists.
func (s *SQLiteUpstreamStore) Delete(ctx context.Context, upstreamName string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upstreams WHERE upstream_name = ?`, upstreamName)
	if err != nil {
		return fmt.Errorf("registry: delete upstream: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("registry: delete rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUpstreamNotFound
	}
	return nil
}

var _ Store = (*SQLiteUpstreamStore)(nil)
