// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/docrag/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for chunk embeddings.
	DefaultCollectionName = "documents"

	DefaultTenant   = "default_tenant"
	DefaultDatabase = "default_database"

	DefaultMaxRetries    = 5
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultMaxRetryDelay = 5 * time.Second
)

// Metadata keys stored alongside every entry.
const (
	metaOwner        = "owner"
	metaDocumentID   = "document_id"
	metaDocumentName = "document_name"
	metaChunkIndex   = "chunk_index"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// Tenant and Database select the Chroma namespace.
	Tenant   string
	Database string

	// MaxRetries bounds connection attempts while Chroma is starting.
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDriver connects to Chroma and resolves the collection, retrying with
// exponential backoff while the server is unavailable.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}
	tenant := c.Tenant
	if tenant == "" {
		tenant = DefaultTenant
	}
	database := c.Database
	if database == "" {
		database = DefaultDatabase
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	d := &Driver{
		baseURL: fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s",
			strings.TrimSuffix(c.URL, "/"), tenant, database),
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		collectionID, err := d.getOrCreateCollection(context.Background())
		if err == nil {
			d.collectionID = collectionID
			logger.Info("connected to Chroma",
				"url", c.URL,
				"collection", collectionName,
				"collection_id", collectionID,
			)
			return d, nil
		}

		lastErr = err
		if attempt == maxRetries {
			break
		}

		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}

	return nil, fmt.Errorf("%w: getting or creating collection %q after %d attempts: %v",
		vector.ErrConnection, collectionName, maxRetries, lastErr)
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/collections/"+d.collectionName, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it
	var collection chromaCollection
	err = d.post(ctx, "/collections", chromaCreateCollectionRequest{
		Name:        d.collectionName,
		GetOrCreate: true,
	}, &collection)
	if err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}

	return collection.ID, nil
}

func (d *Driver) collectionPath(op string) string {
	return "/collections/" + d.collectionID + "/" + op
}

// Upsert deletes the document's entries and upserts the new set. Chroma has
// no transactions, so a failure between the two calls leaves the document
// without entries and the catalog keeps it non-ready.
func (d *Driver) Upsert(ctx context.Context, documentID string, entries []vector.Entry) error {
	if err := d.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	req := chromaUpsertRequest{
		IDs:        make([]string, len(entries)),
		Embeddings: make([][]float32, len(entries)),
		Metadatas:  make([]map[string]any, len(entries)),
		Documents:  make([]string, len(entries)),
	}
	for i, e := range entries {
		req.IDs[i] = e.ChunkID
		req.Embeddings[i] = e.Embedding
		req.Documents[i] = e.Content
		req.Metadatas[i] = map[string]any{
			metaOwner:        e.Owner,
			metaDocumentID:   documentID,
			metaDocumentName: e.DocumentName,
			metaChunkIndex:   e.ChunkIndex,
		}
	}

	if err := d.post(ctx, d.collectionPath("upsert"), req, nil); err != nil {
		return fmt.Errorf("upserting entries: %w", err)
	}

	d.logger.Debug("upserted document into chroma",
		"document_id", documentID,
		"count", len(entries),
	)

	return nil
}

// Query finds the closest entries owned by owner.
func (d *Driver) Query(ctx context.Context, owner string, embedding []float32, limit int) ([]vector.SourceChunk, error) {
	if limit <= 0 {
		return []vector.SourceChunk{}, nil
	}

	var queryResp chromaQueryResponse
	err := d.post(ctx, d.collectionPath("query"), chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        limit,
		Where:           map[string]any{metaOwner: owner},
		Include:         []string{"metadatas", "documents", "distances"},
	}, &queryResp)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}

	results := []vector.SourceChunk{}

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]
	var (
		distances []float32
		metadatas []map[string]any
		documents []*string
	)
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}

	for i, id := range ids {
		if i >= len(metadatas) || metadatas[i] == nil {
			continue
		}
		meta := metadatas[i]
		if o, _ := meta[metaOwner].(string); o != owner {
			continue
		}

		sc := vector.SourceChunk{ChunkID: id}
		sc.DocumentID, _ = meta[metaDocumentID].(string)
		sc.DocumentName, _ = meta[metaDocumentName].(string)
		if idx, ok := meta[metaChunkIndex].(float64); ok {
			sc.ChunkIndex = int(idx)
		}

		if i < len(documents) && documents[i] != nil {
			sc.Content = *documents[i]
		}

		if i < len(distances) {
			score := distances[i]
			sc.Score = &score
		}

		results = append(results, sc)
	}

	d.logger.Debug("queried chroma",
		"owner", owner,
		"results", len(results),
	)

	return results, nil
}

// DeleteByDocument removes every entry whose metadata names documentID.
func (d *Driver) DeleteByDocument(ctx context.Context, documentID string) error {
	err := d.post(ctx, d.collectionPath("delete"), chromaDeleteRequest{
		Where: map[string]any{metaDocumentID: documentID},
	}, nil)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

// Count returns the number of entries stored for documentID.
func (d *Driver) Count(ctx context.Context, documentID string) (int, error) {
	var getResp chromaGetResponse
	err := d.post(ctx, d.collectionPath("get"), chromaGetRequest{
		Where:   map[string]any{metaDocumentID: documentID},
		Include: []string{"metadatas"},
	}, &getResp)
	if err != nil {
		return 0, fmt.Errorf("counting document %s: %w", documentID, err)
	}
	return len(getResp.IDs), nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

func (d *Driver) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

var _ vector.Driver = (*Driver)(nil)
