package vectordb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords(n int) []repository.VectorRecord {
	records := make([]repository.VectorRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, repository.VectorRecord{
			ID:     "doc.txt-doc-uuid-0",
			Values: []float32{0.1, 0.2},
			Metadata: repository.RecordMetadata{
				TenantID:    "bot-1",
				DocumentID:  "doc-uuid",
				ChunkIndex:  i,
				TotalChunks: n,
				SourceText:  "text",
				Filename:    "doc.txt",
			},
		})
	}
	return records
}

func TestUpsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/upsert", r.URL.Path)
		assert.Equal(t, "platform-key", r.Header.Get("Api-Key"))

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		vectors := raw["vectors"].([]any)
		assert.Len(t, vectors, 3)
		// namespace 字段必须存在且为空串
		ns, ok := raw["namespace"]
		require.True(t, ok)
		assert.Equal(t, "", ns)

		first := vectors[0].(map[string]any)
		meta := first["metadata"].(map[string]any)
		assert.Equal(t, "bot-1", meta["tenantId"])
		assert.Equal(t, "doc-uuid", meta["documentId"])

		_ = json.NewEncoder(w).Encode(map[string]int{"upsertedCount": 3})
	}))
	defer srv.Close()

	store := NewPineconeStoreFactory("platform-key", 5).New(srv.URL)
	count, err := store.Upsert(context.Background(), testRecords(3))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestUpsertEmpty(t *testing.T) {
	store := NewPineconeStoreFactory("k", 5).New("http://unused")
	count, err := store.Upsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, float64(5), raw["topK"])
		assert.Equal(t, true, raw["includeMetadata"])
		assert.Equal(t, false, raw["includeValues"])

		_ = json.NewEncoder(w).Encode(queryResponse{
			Matches: []repository.VectorMatch{
				{ID: "a", Score: 0.92, Metadata: repository.RecordMetadata{SourceText: "hit one"}},
				{ID: "b", Score: 0.81, Metadata: repository.RecordMetadata{SourceText: "hit two"}},
			},
		})
	}))
	defer srv.Close()

	store := NewPineconeStoreFactory("k", 5).New(srv.URL)
	matches, err := store.Query(context.Background(), []float32{0.1, 0.2}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, float32(0.92), matches[0].Score)
}

func TestQueryProviderErrorReturnsEmptyMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	store := NewPineconeStoreFactory("k", 5).New(srv.URL)
	matches, err := store.Query(context.Background(), []float32{0.1}, 5)
	require.Error(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	var provErr *rag.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadGateway, provErr.Status)
}

func TestDeleteByDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/delete", r.URL.Path)

		var raw map[string]map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "doc-uuid", raw["filter"]["documentId"]["$eq"])

		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	store := NewPineconeStoreFactory("k", 5).New(srv.URL)
	require.NoError(t, store.DeleteByDocument(context.Background(), "doc-uuid"))
	// 目标不存在时向量库同样返回 2xx，重复删除是无操作成功
	require.NoError(t, store.DeleteByDocument(context.Background(), "doc-uuid"))
}

func TestHostNormalization(t *testing.T) {
	factory := NewPineconeStoreFactory("k", 5)

	s := factory.New("my-index.svc.pinecone.io/").(*pineconeStore)
	assert.Equal(t, "https://my-index.svc.pinecone.io", s.host)

	s = factory.New("http://localhost:8080").(*pineconeStore)
	assert.Equal(t, "http://localhost:8080", s.host)
}
