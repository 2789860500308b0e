package room

type SetMemberParams struct {
	ConnId   string
	RoomId   string
	Username string
	IsHost   bool
}

type RemoveMemberParams struct {
	ConnId string
	RoomId string
}

type SetPlayerParams struct {
	MovieURL     string
	IsPlaying    bool
	CurrentTime  float64
	PlaybackRate float64
	UpdatedAt    int64
	RoomId       string
}

type UpdatePlayerStateParams struct {
	IsPlaying   bool
	CurrentTime float64
	UpdatedAt   int64
	RoomId      string
}

type CreateInteractionParams struct {
	RoomId  string
	SceneId int
	Kind    string
}

type SetInteractionAnswerParams struct {
	RoomId   string
	SceneId  int
	Username string
	Answer   string
}
