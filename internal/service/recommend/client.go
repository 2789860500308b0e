package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// completionClient speaks the OpenAI-compatible chat-completions protocol,
// which Groq also serves.
type completionClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

func (c *completionClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(&completionRequest{
		Model: c.model,
		Messages: []completionMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call completion api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	return completion.Choices[0].Message.Content, nil
}

// parseMovies extracts the movie records from the model output, tolerating
// a markdown code fence around the JSON.
func parseMovies(content string) ([]Movie, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var movies []Movie
	if err := json.Unmarshal([]byte(content), &movies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal movies: %w", err)
	}

	if len(movies) == 0 {
		return nil, errors.New("empty movie list")
	}

	return movies, nil
}
