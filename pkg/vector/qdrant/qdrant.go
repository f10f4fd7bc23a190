// Package qdrant provides a Qdrant vector driver over the gRPC client.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/docrag/pkg/vector"
)

const (
	DefaultCollectionName = "documents"
	DefaultPort           = 6334

	payloadChunkID      = "chunk_id"
	payloadOwner        = "owner"
	payloadDocumentID   = "document_id"
	payloadDocumentName = "document_name"
	payloadChunkIndex   = "chunk_index"
	payloadContent      = "content"
)

// pointNamespace derives stable point ids from chunk ids that are not UUIDs.
var pointNamespace = uuid.MustParse("6f1c2a4e-3b8d-4f7a-9c2e-5d0b8a1e7f34")

// Driver implements vector.Driver against a Qdrant collection using cosine
// similarity. Scores are similarities, so higher is better.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// URL is the gRPC endpoint, e.g. "http://localhost:6334". An https
	// scheme enables TLS.
	URL string

	APIKey string

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions sizes the collection when it has to be created.
	Dimensions uint
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	host, port, useTLS, err := parseEndpoint(c.URL)
	if err != nil {
		return nil, err
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrConnection, err)
	}

	d := &Driver{client: client, collection: collection, logger: logger}
	if err := d.ensureCollection(ctx, uint64(c.Dimensions)); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to Qdrant",
		"host", host,
		"port", port,
		"collection", collection,
	)

	return d, nil
}

func parseEndpoint(raw string) (string, int, bool, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Bare "host:port".
		host, portStr, splitErr := net.SplitHostPort(raw)
		if splitErr != nil {
			return raw, DefaultPort, false, nil
		}
		port, convErr := strconv.Atoi(portStr)
		if convErr != nil {
			return "", 0, false, fmt.Errorf("invalid qdrant port %q", portStr)
		}
		return host, port, false, nil
	}

	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid qdrant port %q", p)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}

func (d *Driver) ensureCollection(ctx context.Context, dims uint64) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, d.collection, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dims,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", d.collection, err)
	}

	for _, field := range []string{payloadOwner, payloadDocumentID} {
		_, err := d.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: d.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("indexing payload field %q: %w", field, err)
		}
	}

	return nil
}

// pointID maps a chunk id onto a Qdrant UUID point id.
func pointID(chunkID string) string {
	if id, err := uuid.Parse(chunkID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

func documentFilter(documentID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(payloadDocumentID, documentID)},
	}
}

// Upsert deletes the document's points and writes the new set.
func (d *Driver) Upsert(ctx context.Context, documentID string, entries []vector.Entry) error {
	if err := d.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for i, e := range entries {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(e.ChunkID)),
			Vectors: qdrant.NewVectors(e.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadChunkID:      e.ChunkID,
				payloadOwner:        e.Owner,
				payloadDocumentID:   documentID,
				payloadDocumentName: e.DocumentName,
				payloadChunkIndex:   int64(e.ChunkIndex),
				payloadContent:      e.Content,
			}),
		}
	}

	wait := true
	if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("upserted document into qdrant",
		"document_id", documentID,
		"count", len(entries),
	)

	return nil
}

// Query searches within the owner's points.
func (d *Driver) Query(ctx context.Context, owner string, embedding []float32, limit int) ([]vector.SourceChunk, error) {
	if limit <= 0 {
		return []vector.SourceChunk{}, nil
	}

	n := uint64(limit)
	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(payloadOwner, owner)},
		},
		Limit:       &n,
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.SourceChunk, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		if payload[payloadOwner].GetStringValue() != owner {
			continue
		}

		score := p.GetScore()
		results = append(results, vector.SourceChunk{
			ChunkID:      payload[payloadChunkID].GetStringValue(),
			DocumentID:   payload[payloadDocumentID].GetStringValue(),
			DocumentName: payload[payloadDocumentName].GetStringValue(),
			ChunkIndex:   int(payload[payloadChunkIndex].GetIntegerValue()),
			Content:      payload[payloadContent].GetStringValue(),
			Score:        &score,
		})
	}

	d.logger.Debug("queried qdrant",
		"owner", owner,
		"results", len(results),
	)

	return results, nil
}

// DeleteByDocument removes every point whose payload names documentID.
func (d *Driver) DeleteByDocument(ctx context.Context, documentID string) error {
	wait := true
	if _, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(documentFilter(documentID)),
	}); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

// Count returns the exact number of points stored for documentID.
func (d *Driver) Count(ctx context.Context, documentID string) (int, error) {
	exact := true
	n, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Filter:         documentFilter(documentID),
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting document %s: %w", documentID, err)
	}
	return int(n), nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
