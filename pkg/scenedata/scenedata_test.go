package scenedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleKey(t *testing.T) {
	tests := []struct {
		movieURL string
		want     string
	}{
		{"http://cdn.example.com/movies/Heat.mp4", "heat"},
		{"https://example.com/The%20Matrix.webm?token=abc", "the matrix"},
		{"heat.mp4", "heat"},
		{"/var/media/inception.mkv", "inception"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleKey(tt.movieURL), tt.movieURL)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	content := `[
		{"scene": 1, "start": 0, "end": 30.5, "trivia_question": "Who?", "trivia_choices": ["a", "b", "c", "d"], "fun_fact": "fact", "poll_question": "poll?", "poll_options": ["x", "y"]},
		{"scene": 2, "start": 30.5, "end": 90, "fun_fact": "another"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Heat.json"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	store, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	scenes, err := store.Get("heat")
	require.NoError(t, err)
	require.Len(t, scenes, 2)
	assert.Equal(t, 30.5, scenes[0].End)
	assert.Equal(t, "Who?", scenes[0].TriviaQuestion)
	assert.Len(t, scenes[0].TriviaChoices, 4)
	assert.Equal(t, "another", scenes[1].FunFact)

	_, err = store.Get("unknown")
	assert.ErrorIs(t, err, ErrTitleNotFound)
}

func TestLoadDirBadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err := LoadDir(dir)
	assert.Error(t, err)
}
