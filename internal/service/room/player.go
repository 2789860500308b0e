package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cinesync/server/internal/repository/room"
)

const defaultPlaybackRate = 1.0

// mapPlayerErr folds a missing player record into ErrRoomNotFound: playback
// events assume the room exists from a prior join, and an unknown room is
// dropped rather than propagated.
func mapPlayerErr(err error) error {
	if errors.Is(err, room.ErrPlayerNotFound) {
		return ErrRoomNotFound
	}

	return err
}

type SelectMovieParams struct {
	SenderId string
	RoomId   string
	MovieURL string
}

type SelectMovieResponse struct {
	MovieURL string
	Conns    []*websocket.Conn
}

// SelectMovie loads a new movie for the room: playback resets to paused at
// zero and every armed scene timer is dropped.
func (s *service) SelectMovie(ctx context.Context, params *SelectMovieParams) (SelectMovieResponse, error) {
	exists, err := s.roomRepo.IsPlayerExists(ctx, params.RoomId)
	if err != nil {
		return SelectMovieResponse{}, fmt.Errorf("failed to check if player exists: %w", err)
	}
	if !exists {
		return SelectMovieResponse{}, ErrRoomNotFound
	}

	if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
		MovieURL:     params.MovieURL,
		IsPlaying:    false,
		CurrentTime:  0,
		PlaybackRate: defaultPlaybackRate,
		UpdatedAt:    time.Now().UnixMilli(),
		RoomId:       params.RoomId,
	}); err != nil {
		return SelectMovieResponse{}, fmt.Errorf("failed to set player: %w", err)
	}

	s.CancelAll(params.RoomId)

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SelectMovieResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SelectMovieResponse{
		MovieURL: params.MovieURL,
		Conns:    conns,
	}, nil
}

type PlayParams struct {
	SenderId    string
	RoomId      string
	CurrentTime float64
}

type PlayResponse struct {
	CurrentTime float64
	Conns       []*websocket.Conn
}

// Play marks the room playing and re-arms the scene timers from the given
// position. The originator is excluded from the broadcast: its local player
// already holds this state.
func (s *service) Play(ctx context.Context, params *PlayParams) (PlayResponse, error) {
	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		IsPlaying:   true,
		CurrentTime: params.CurrentTime,
		UpdatedAt:   time.Now().UnixMilli(),
		RoomId:      params.RoomId,
	}); err != nil {
		return PlayResponse{}, mapPlayerErr(err)
	}

	s.Schedule(ctx, params.RoomId, params.CurrentTime)

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return PlayResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return PlayResponse{
		CurrentTime: params.CurrentTime,
		Conns:       conns,
	}, nil
}

type PauseParams struct {
	SenderId    string
	RoomId      string
	CurrentTime float64
}

type PauseResponse struct {
	CurrentTime float64
	Conns       []*websocket.Conn
}

func (s *service) Pause(ctx context.Context, params *PauseParams) (PauseResponse, error) {
	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		IsPlaying:   false,
		CurrentTime: params.CurrentTime,
		UpdatedAt:   time.Now().UnixMilli(),
		RoomId:      params.RoomId,
	}); err != nil {
		return PauseResponse{}, mapPlayerErr(err)
	}

	s.CancelAll(params.RoomId)

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return PauseResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return PauseResponse{
		CurrentTime: params.CurrentTime,
		Conns:       conns,
	}, nil
}

type SeekParams struct {
	SenderId    string
	RoomId      string
	CurrentTime float64
}

type SeekResponse struct {
	CurrentTime float64
	Conns       []*websocket.Conn
}

// Seek updates the position only. If the room is playing the timer set is
// cancelled and rebuilt from the new position; partial reuse would
// accumulate drift.
func (s *service) Seek(ctx context.Context, params *SeekParams) (SeekResponse, error) {
	if err := s.roomRepo.UpdatePlayerCurrentTime(ctx, params.RoomId, params.CurrentTime); err != nil {
		return SeekResponse{}, mapPlayerErr(err)
	}

	player, err := s.roomRepo.GetPlayer(ctx, params.RoomId)
	if err != nil {
		return SeekResponse{}, mapPlayerErr(err)
	}

	if player.IsPlaying {
		s.Schedule(ctx, params.RoomId, params.CurrentTime)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return SeekResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SeekResponse{
		CurrentTime: params.CurrentTime,
		Conns:       conns,
	}, nil
}

type RateChangeParams struct {
	SenderId     string
	RoomId       string
	PlaybackRate float64
}

type RateChangeResponse struct {
	PlaybackRate float64
	Conns        []*websocket.Conn
}

// RateChange relays the new rate to the other members. Scene timers keep
// assuming unit rate; the rate is stored only so late reads of the player
// record see it.
func (s *service) RateChange(ctx context.Context, params *RateChangeParams) (RateChangeResponse, error) {
	if err := s.roomRepo.UpdatePlayerPlaybackRate(ctx, params.RoomId, params.PlaybackRate); err != nil {
		return RateChangeResponse{}, mapPlayerErr(err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return RateChangeResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return RateChangeResponse{
		PlaybackRate: params.PlaybackRate,
		Conns:        conns,
	}, nil
}
