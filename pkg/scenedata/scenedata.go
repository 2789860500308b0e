package scenedata

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

var ErrTitleNotFound = errors.New("title not found")

// Scene is one pre-authored interaction record tied to a title, as produced
// by the scene ingestion pipeline. Offsets are seconds into the video.
type Scene struct {
	Scene          int      `json:"scene"`
	Start          float64  `json:"start"`
	End            float64  `json:"end"`
	TriviaQuestion string   `json:"trivia_question"`
	TriviaChoices  []string `json:"trivia_choices"`
	FunFact        string   `json:"fun_fact"`
	PollQuestion   string   `json:"poll_question"`
	PollOptions    []string `json:"poll_options"`
}

// Store holds scene definitions per title key. It is loaded once at startup
// and never mutated afterwards.
type Store struct {
	titles map[string][]Scene
}

func NewStore(titles map[string][]Scene) *Store {
	if titles == nil {
		titles = make(map[string][]Scene)
	}

	return &Store{titles: titles}
}

func (s *Store) Get(titleKey string) ([]Scene, error) {
	scenes, ok := s.titles[titleKey]
	if !ok {
		return nil, ErrTitleNotFound
	}

	return scenes, nil
}

func (s *Store) Len() int {
	return len(s.titles)
}

// TitleKey derives the store key for a movie URL: the base name of the path
// without extension, lowercased.
func TitleKey(movieURL string) string {
	p := movieURL
	if u, err := url.Parse(movieURL); err == nil && u.Path != "" {
		p = u.Path
	}

	base := path.Base(p)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	return strings.ToLower(base)
}
