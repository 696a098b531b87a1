package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/infrastructure/config"
)

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EmbedderConfig
		wantErr  bool
		errMsg   string
		wantDims int
	}{
		{
			name:     "valid config",
			cfg:      config.EmbedderConfig{APIKey: "test-key"},
			wantDims: VectorSize,
		},
		{
			name:     "large model",
			cfg:      config.EmbedderConfig{APIKey: "test-key", Model: "text-embedding-3-large"},
			wantDims: 3072,
		},
		{
			name:     "unknown model falls back",
			cfg:      config.EmbedderConfig{APIKey: "test-key", Model: "local-embedder"},
			wantDims: VectorSize,
		},
		{
			name:    "missing API key",
			cfg:     config.EmbedderConfig{},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder, err := NewEmbedder(tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, embedder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDims, embedder.Dimensions())
		})
	}
}

// embeddingServer answers /embeddings with one vector per input whose only
// value is the input's length. Items are returned in reverse order.
func embeddingServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Input) == 1 && req.Input[0] == "fail" {
			http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
			return
		}

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i]))},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data":   data,
		})
	}))
}

func newTestEmbedder(t *testing.T, url string) *Embedder {
	t.Helper()
	embedder, err := NewEmbedder(config.EmbedderConfig{APIKey: "test-key", BaseURL: url})
	require.NoError(t, err)
	return embedder
}

func TestEmbedder_Embed(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, &calls)
	defer srv.Close()

	vec, err := newTestEmbedder(t, srv.URL).Embed(context.Background(), "John Smith")
	require.NoError(t, err)
	assert.Equal(t, []float32{10}, vec)
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, &calls)
	defer srv.Close()
	embedder := newTestEmbedder(t, srv.URL)

	t.Run("empty input", func(t *testing.T) {
		vecs, err := embedder.EmbedBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vecs)
	})

	t.Run("split across requests in input order", func(t *testing.T) {
		calls.Store(0)
		texts := make([]string, maxInputsPerRequest+10)
		for i := range texts {
			texts[i] = fmt.Sprintf("%*d", i%7+1, i%7)
		}

		vecs, err := embedder.EmbedBatch(context.Background(), texts)
		require.NoError(t, err)
		require.Len(t, vecs, len(texts))
		for i, vec := range vecs {
			assert.Equal(t, []float32{float32(len(texts[i]))}, vec, "text %d", i)
		}
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("api error", func(t *testing.T) {
		_, err := embedder.EmbedBatch(context.Background(), []string{"fail"})
		assert.ErrorContains(t, err, "creating embeddings")
	})
}
