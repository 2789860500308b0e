package room

// SystemUsername is the reserved sender for join/leave notices.
const SystemUsername = "System"

const (
	KindTrivia  = "trivia"
	KindFunFact = "fun_fact"
	KindPoll    = "poll"
)

type Member struct {
	ConnId   string `json:"connId"`
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`
}

type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type Player struct {
	MovieURL     string  `json:"movieUrl"`
	IsPlaying    bool    `json:"isPlaying"`
	CurrentTime  float64 `json:"currentTime"`
	PlaybackRate float64 `json:"playbackRate"`
	UpdatedAt    int64   `json:"updatedAt"`
}

// Interaction is the prompt payload broadcast when a scene timer fires.
// Question/Choices are set for trivia, Fact for fun facts, Question/Options
// for polls.
type Interaction struct {
	SceneId  int      `json:"sceneId"`
	Kind     string   `json:"kind"`
	Question string   `json:"question,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Fact     string   `json:"fact,omitempty"`
	Options  []string `json:"options,omitempty"`
}

type InteractionResults struct {
	SceneId int            `json:"sceneId"`
	Kind    string         `json:"kind"`
	Counts  map[string]int `json:"counts"`
	Total   int            `json:"total"`
}
