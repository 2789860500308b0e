package controller

import (
	"encoding/json"
	"net/http"

	"github.com/cinesync/server/internal/service/recommend"
)

type RecommendationsInput struct {
	Genres []string `json:"genres"`
	Mood   string   `json:"mood"`
	Prompt string   `json:"prompt"`
}

// recommendations accepts structured preferences or a free-text prompt and
// returns a movie list. Upstream failures are recovered inside the service
// into a synthetic record, so this handler always answers 200 with a body.
func (c controller) recommendations(w http.ResponseWriter, r *http.Request) {
	var input RecommendationsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		c.logger.DebugContext(r.Context(), "failed to decode recommendations input", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	movies := c.recommendService.Recommend(r.Context(), &recommend.Params{
		Genres: input.Genres,
		Mood:   input.Mood,
		Prompt: input.Prompt,
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(movies); err != nil {
		c.logger.WarnContext(r.Context(), "failed to encode recommendations", "error", err)
	}
}
