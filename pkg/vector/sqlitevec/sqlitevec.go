// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/docrag/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec. The vec0
// table is partitioned by owner so KNN scans stay inside one tenant.
type Driver struct {
	db     *sql.DB
	logger *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 tables are keyed by integer rowid, so chunk metadata lives in a
	// companion table sharing that rowid.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vec_chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_id TEXT NOT NULL UNIQUE,
			owner TEXT NOT NULL,
			document_id TEXT NOT NULL,
			document_name TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS vec_chunks_document_id ON vec_chunks (document_id)`,
		fmt.Sprintf(
			`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(owner text partition key, embedding float[%d])`,
			c.Dimensions,
		),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:     db,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Upsert deletes the document's entries and inserts the new set in one
// transaction.
func (d *Driver) Upsert(ctx context.Context, documentID string, entries []vector.Entry) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDocument(ctx, tx, documentID); err != nil {
		return err
	}

	for _, e := range entries {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO vec_chunks(chunk_id, owner, document_id, document_name, chunk_index, content)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ChunkID, e.Owner, documentID, e.DocumentName, e.ChunkIndex, e.Content,
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", e.ChunkID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for chunk %s: %w", e.ChunkID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_embeddings(rowid, owner, embedding) VALUES (?, ?, ?)`,
			rowID, e.Owner, serializeFloat32(e.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for chunk %s: %w", e.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted document into sqlite-vec",
		"document_id", documentID,
		"count", len(entries),
	)

	return nil
}

// Query runs a KNN scan inside the owner's partition.
func (d *Driver) Query(ctx context.Context, owner string, embedding []float32, limit int) ([]vector.SourceChunk, error) {
	if limit <= 0 {
		return []vector.SourceChunk{}, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT
			c.chunk_id,
			c.document_id,
			c.document_name,
			c.chunk_index,
			c.content,
			ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_chunks c ON c.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
			AND ve.owner = ?
		ORDER BY ve.distance
	`, serializeFloat32(embedding), limit, owner)
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

	d.logger.Debug("queried sqlite-vec",
		"owner", owner,
		"results", len(results),
	)

	return results, nil
}

// DeleteByDocument removes the document's embeddings and metadata.
func (d *Driver) DeleteByDocument(ctx context.Context, documentID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDocument(ctx, tx, documentID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted document from sqlite-vec", "document_id", documentID)
	return nil
}

// Count returns the number of stored chunks for the document.
func (d *Driver) Count(ctx context.Context, documentID string) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vec_chunks WHERE document_id = ?`, documentID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

func deleteDocument(ctx context.Context, tx *sql.Tx, documentID string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT rowid FROM vec_chunks WHERE document_id = ?`, documentID,
	)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	// vec0 has no foreign keys and no UPDATE, so embeddings go row by row.
	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vec_chunks WHERE document_id = ?`, documentID,
	); err != nil {
		return fmt.Errorf("deleting chunks of %s: %w", documentID, err)
	}

	return nil
}

var _ vector.Driver = (*Driver)(nil)
