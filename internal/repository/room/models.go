package room

type Member struct {
	Username string `redis:"username"`
	RoomId   string `redis:"room_id"`
	IsHost   bool   `redis:"is_host"`
}

type Player struct {
	MovieURL     string  `redis:"movie_url"`
	IsPlaying    bool    `redis:"is_playing"`
	CurrentTime  float64 `redis:"current_time"`
	PlaybackRate float64 `redis:"playback_rate"`
	UpdatedAt    int64   `redis:"updated_at"`
}
