package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEmbeddingServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Inputs []string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		vectors := make([][]float64, len(req.Inputs))
		for i := range req.Inputs {
			vectors[i] = []float64{1, 0, float64(len(req.Inputs[i]))}
		}
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	}))
}

func TestEmbedCachesPerInput(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingServer(t, &calls)
	defer srv.Close()

	client := NewClient(Config{EmbeddingURL: srv.URL}, zap.NewNop())
	ctx := context.Background()

	first, err := client.Embed(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, int32(1), calls.Load())

	// A repeat plus one new input only sends the new input.
	second, err := client.Embed(ctx, []string{"alpha", "gamma"})
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, first[0], second[0])
	require.Equal(t, int32(2), calls.Load())

	// Fully cached call performs no network I/O.
	_, err = client.Embed(ctx, []string{"beta", "gamma"})
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestClassifyReturnsTopLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Inputs     string `json:"inputs"`
			Parameters struct {
				CandidateLabels []string `json:"candidate_labels"`
			} `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Parameters.CandidateLabels)
		resp := map[string]any{
			"labels": []string{"Minister", "Person"},
			"scores": []float64{0.92, 0.08},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := NewClient(Config{ZeroShotURL: srv.URL}, zap.NewNop())
	label, err := client.Classify(context.Background(), "Jane Smith, Minister of Health", []string{"Minister", "Person"})
	require.NoError(t, err)
	require.Equal(t, "Minister", label)
}

func TestProbeReportsCapabilities(t *testing.T) {
	var calls atomic.Int32
	embed := newEmbeddingServer(t, &calls)
	defer embed.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	client := NewClient(Config{EmbeddingURL: embed.URL, ZeroShotURL: down.URL}, zap.NewNop())
	caps := client.Probe(context.Background())
	require.True(t, caps.Embeddings)
	require.False(t, caps.ZeroShot)
}

func TestProbeUnconfiguredBackends(t *testing.T) {
	client := NewClient(Config{}, zap.NewNop())
	caps := client.Probe(context.Background())
	require.False(t, caps.Embeddings)
	require.False(t, caps.ZeroShot)
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode([][]float64{{1}}))
	}))
	defer srv.Close()

	client := NewClient(Config{EmbeddingURL: srv.URL}, zap.NewNop())
	_, err := client.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestPostSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode([][]float64{{1}}))
	}))
	defer srv.Close()

	client := NewClient(Config{EmbeddingURL: srv.URL, Token: "secret"}, zap.NewNop())
	_, err := client.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
}

func TestCosine(t *testing.T) {
	require.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	require.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	require.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	require.Equal(t, 0.0, Cosine(nil, []float64{1}))
	require.Equal(t, 0.0, Cosine([]float64{1, 2}, []float64{1}))
	require.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{0, 0}))
}
