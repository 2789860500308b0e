package recommend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *service {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewService(&Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, slog.Default())
}

func completionWith(t *testing.T, content string) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)

		body, err := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"message": completionMessage{Role: "assistant", Content: content}},
			},
		})
		require.NoError(t, err)
		w.Write(body)
	}
}

func TestRecommendParsesModelOutput(t *testing.T) {
	svc := newTestService(t, completionWith(t, `[
		{"name": "Heat", "genre": ["crime", "thriller"]},
		{"name": "Collateral", "genre": ["thriller"]}
	]`))

	movies := svc.Recommend(context.Background(), &Params{Genres: []string{"crime"}, Mood: "tense"})
	require.Len(t, movies, 2)
	assert.Equal(t, "Heat", movies[0].Name)
	assert.Equal(t, []string{"crime", "thriller"}, movies[0].Genre)
}

func TestRecommendToleratesCodeFence(t *testing.T) {
	svc := newTestService(t, completionWith(t, "```json\n[{\"name\": \"Heat\", \"genre\": [\"crime\"]}]\n```"))

	movies := svc.Recommend(context.Background(), &Params{Prompt: "something with De Niro"})
	require.Len(t, movies, 1)
	assert.Equal(t, "Heat", movies[0].Name)
}

func TestRecommendFallsBackOnMalformedOutput(t *testing.T) {
	svc := newTestService(t, completionWith(t, "I'd recommend Heat, a great crime movie!"))

	movies := svc.Recommend(context.Background(), &Params{Mood: "tense"})
	assert.Equal(t, []Movie{{Name: "failed", Genre: []string{}}}, movies)
}

func TestRecommendFallsBackOnUpstreamError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	movies := svc.Recommend(context.Background(), &Params{Mood: "tense"})
	assert.Equal(t, []Movie{{Name: "failed", Genre: []string{}}}, movies)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(&Params{Genres: []string{"crime", "drama"}, Mood: "melancholic"})
	assert.Contains(t, prompt, "melancholic mood")
	assert.Contains(t, prompt, "crime, drama")
	assert.Contains(t, prompt, "JSON array")

	prompt = buildPrompt(&Params{Prompt: "heist movies"})
	assert.Contains(t, prompt, "heist movies")
	assert.Contains(t, prompt, "JSON array")
}
