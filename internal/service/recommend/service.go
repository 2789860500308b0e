package recommend

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Movie is the fixed response record shape: a title and its genre list.
type Movie struct {
	Name  string   `json:"name"`
	Genre []string `json:"genre"`
}

type Params struct {
	Genres []string
	Mood   string
	Prompt string
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

type service struct {
	client *completionClient
	logger *slog.Logger
}

func NewService(cfg *Config, logger *slog.Logger) *service {
	return &service{
		client: &completionClient{
			httpClient: &http.Client{Timeout: 30 * time.Second},
			baseURL:    cfg.BaseURL,
			apiKey:     cfg.APIKey,
			model:      cfg.Model,
		},
		logger: logger,
	}
}

// Recommend builds a prompt from the request, runs a single completion call
// and parses the model output into movie records. Any failure is recovered
// locally into one synthetic "failed" record; the caller never sees an error.
func (s *service) Recommend(ctx context.Context, params *Params) []Movie {
	prompt := buildPrompt(params)

	content, err := s.client.complete(ctx, prompt)
	if err != nil {
		s.logger.InfoContext(ctx, "completion call failed", "error", err)
		return fallbackMovies()
	}

	movies, err := parseMovies(content)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to parse model output", "error", err)
		return fallbackMovies()
	}

	return movies
}

func fallbackMovies() []Movie {
	return []Movie{{Name: "failed", Genre: []string{}}}
}

const formatInstruction = `Respond with only a JSON array of objects, each with a "name" string and a "genre" array of strings. No prose, no markdown.`

func buildPrompt(params *Params) string {
	if params.Prompt != "" {
		return params.Prompt + "\n\n" + formatInstruction
	}

	var b strings.Builder
	b.WriteString("Recommend 5 movies for a viewer")
	if params.Mood != "" {
		b.WriteString(" in a " + params.Mood + " mood")
	}
	if len(params.Genres) > 0 {
		b.WriteString(" who likes " + strings.Join(params.Genres, ", "))
	}
	b.WriteString(".\n\n")
	b.WriteString(formatInstruction)

	return b.String()
}
