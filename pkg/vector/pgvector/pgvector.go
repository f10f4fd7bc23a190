// Package pgvector provides a PostgreSQL vector driver using the pgvector
// extension.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx PostgreSQL driver as "pgx"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/papercomputeco/docrag/pkg/vector"
)

// DefaultTable is the table used when no collection name is configured.
const DefaultTable = "chunk_embeddings"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Driver implements vector.Driver on a pgvector table using Euclidean
// distance.
type Driver struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// Config holds configuration for the pgvector driver.
type Config struct {
	// ConnString is a PostgreSQL connection string or URI.
	ConnString string

	// Table is the embeddings table. Defaults to DefaultTable.
	Table string

	Dimensions uint
}

// NewDriver connects, enables the extension and creates the table.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.ConnString == "" {
		return nil, fmt.Errorf("pgvector connection string is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("pgvector embedding dimensions cannot be 0, must be configured")
	}

	table := c.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid pgvector table name %q", table)
	}

	db, err := sql.Open("pgx", c.ConnString)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			chunk_id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			document_id TEXT NOT NULL,
			document_name TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, table, c.Dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s (owner)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)`, table, table),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	logger.Info("pgvector vector driver initialized",
		"table", table,
		"dimensions", c.Dimensions,
	)

	return &Driver{db: db, table: table, logger: logger}, nil
}

// Upsert replaces the document's rows in one transaction.
func (d *Driver) Upsert(ctx context.Context, documentID string, entries []vector.Entry) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, d.table), documentID,
	); err != nil {
		return fmt.Errorf("deleting previous entries: %w", err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s
		(chunk_id, owner, document_id, document_name, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, d.table)
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, insert,
			e.ChunkID, e.Owner, documentID, e.DocumentName, e.ChunkIndex, e.Content,
			pgv.NewVector(e.Embedding),
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", e.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted document into pgvector",
		"document_id", documentID,
		"count", len(entries),
	)

	return nil
}

// Query orders the owner's rows by Euclidean distance.
func (d *Driver) Query(ctx context.Context, owner string, embedding []float32, limit int) ([]vector.SourceChunk, error) {
	if limit <= 0 {
		return []vector.SourceChunk{}, nil
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT chunk_id, document_id, document_name, chunk_index, content, embedding <-> $1 AS distance
		FROM %s
		WHERE owner = $2
		ORDER BY distance
		LIMIT $3`, d.table),
		pgv.NewVector(embedding), owner, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := []vector.SourceChunk{}
	for rows.Next() {
		var (
			sc       vector.SourceChunk
			distance float64
		)
		if err := rows.Scan(&sc.ChunkID, &sc.DocumentID, &sc.DocumentName, &sc.ChunkIndex, &sc.Content, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		score := float32(distance)
		sc.Score = &score
		results = append(results, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	return results, nil
}

// DeleteByDocument removes the document's rows.
func (d *Driver) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := d.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, d.table), documentID,
	); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

// Count returns the number of rows stored for documentID.
func (d *Driver) Count(ctx context.Context, documentID string) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE document_id = $1`, d.table), documentID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting document %s: %w", documentID, err)
	}
	return n, nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
