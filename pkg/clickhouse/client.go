// Package clickhouse wraps the database/sql connection pool used for
// the signal archive. Inserts are single rows emitted from the scan
// loop, reads are the history/stats queries behind the HTTP API.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

const dialTimeout = 5 * time.Second

type clientConfig struct {
	host         string
	port         int
	database     string
	user         string
	password     string
	maxOpenConns int
	maxIdleConns int
	asyncInsert  bool
}

// ClientOption configures the connection pool.
type ClientOption func(*clientConfig)

func WithHost(host string) ClientOption {
	return func(c *clientConfig) { c.host = host }
}

func WithPort(port int) ClientOption {
	return func(c *clientConfig) { c.port = port }
}

func WithDatabase(database string) ClientOption {
	return func(c *clientConfig) { c.database = database }
}

func WithCredentials(user, password string) ClientOption {
	return func(c *clientConfig) {
		c.user = user
		c.password = password
	}
}

func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(c *clientConfig) {
		c.maxOpenConns = maxOpen
		c.maxIdleConns = maxIdle
	}
}

// WithAsyncInsert turns on server-side insert batching. The connection
// also waits for the batch ack so a failed insert still surfaces as an
// error at the call site.
func WithAsyncInsert(enabled bool) ClientOption {
	return func(c *clientConfig) { c.asyncInsert = enabled }
}

// Client owns the ClickHouse connection pool.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and verifies the server is reachable.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		port:         9000,
		maxOpenConns: 10,
		maxIdleConns: 5,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.host == "" {
		return nil, fmt.Errorf("clickhouse: host is required")
	}

	db, err := sql.Open("clickhouse", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{db: db}, nil
}

// DB exposes the pool for query and insert statements.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// InitSchema runs DDL statements in order. Statements are expected to
// be IF NOT EXISTS so reruns are harmless.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close drains the connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func buildDSN(cfg *clientConfig) string {
	dsn := fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s?dial_timeout=%s",
		cfg.user, cfg.password, cfg.host, cfg.port, cfg.database, dialTimeout)
	if cfg.asyncInsert {
		dsn += "&async_insert=1&wait_for_async_insert=1"
	}
	return dsn
}
