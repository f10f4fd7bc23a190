package chroma_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
)

type fakeEntry struct {
	id        string
	embedding []float32
	metadata  map[string]any
	document  string
}

// fakeChroma implements the subset of the Chroma v2 REST API the driver uses.
type fakeChroma struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
	created bool
}

func newFakeChroma() *httptest.Server {
	f := &fakeChroma{entries: make(map[string]fakeEntry)}
	return httptest.NewServer(http.HandlerFunc(f.serve))
}

func (f *fakeChroma) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/api/v2/tenants/default_tenant/databases/default_database/collections"
	path := strings.TrimPrefix(r.URL.Path, prefix)

	switch {
	case r.Method == http.MethodGet:
		if !f.created {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"id": "coll-1", "name": "documents"})
	case path == "":
		f.created = true
		writeJSON(w, map[string]string{"id": "coll-1", "name": "documents"})
	case path == "/coll-1/upsert":
		var req struct {
			IDs        []string         `json:"ids"`
			Embeddings [][]float32      `json:"embeddings"`
			Metadatas  []map[string]any `json:"metadatas"`
			Documents  []string         `json:"documents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for i, id := range req.IDs {
			f.entries[id] = fakeEntry{id: id, embedding: req.Embeddings[i], metadata: req.Metadatas[i], document: req.Documents[i]}
		}
		writeJSON(w, map[string]any{})
	case path == "/coll-1/delete":
		var req struct {
			Where map[string]any `json:"where"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for id, e := range f.entries {
			if matches(e, req.Where) {
				delete(f.entries, id)
			}
		}
		writeJSON(w, map[string]any{})
	case path == "/coll-1/get":
		var req struct {
			Where map[string]any `json:"where"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		ids := []string{}
		for id, e := range f.entries {
			if matches(e, req.Where) {
				ids = append(ids, id)
			}
		}
		writeJSON(w, map[string]any{"ids": ids})
	case path == "/coll-1/query":
		var req struct {
			QueryEmbeddings [][]float32    `json:"query_embeddings"`
			NResults        int            `json:"n_results"`
			Where           map[string]any `json:"where"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		var hits []fakeEntry
		for _, e := range f.entries {
			if matches(e, req.Where) {
				hits = append(hits, e)
			}
		}
		q := req.QueryEmbeddings[0]
		slices.SortFunc(hits, func(a, b fakeEntry) int {
			da, db := distance(a.embedding, q), distance(b.embedding, q)
			switch {
			case da < db:
				return -1
			case da > db:
				return 1
			}
			return strings.Compare(a.id, b.id)
		})
		if len(hits) > req.NResults {
			hits = hits[:req.NResults]
		}

		ids := []string{}
		distances := []float32{}
		metadatas := []map[string]any{}
		documents := []string{}
		for _, h := range hits {
			ids = append(ids, h.id)
			distances = append(distances, distance(h.embedding, q))
			metadatas = append(metadatas, h.metadata)
			documents = append(documents, h.document)
		}
		writeJSON(w, map[string]any{
			"ids":       [][]string{ids},
			"distances": [][]float32{distances},
			"metadatas": [][]map[string]any{metadatas},
			"documents": [][]string{documents},
		})
	default:
		http.NotFound(w, r)
	}
}

func matches(e fakeEntry, where map[string]any) bool {
	for k, v := range where {
		if e.metadata[k] != v {
			return false
		}
	}
	return true
}

func distance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return float32(sum)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
