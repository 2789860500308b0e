package controller

import (
	"github.com/cinesync/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New(c.logger)

	// membership
	mux.Handle("join-room", c.handleJoinRoom)
	mux.Handle("leave-room", c.handleLeaveRoom)

	// playback
	mux.Handle("select-movie", c.handleSelectMovie)
	mux.Handle("play", c.handlePlay)
	mux.Handle("pause", c.handlePause)
	mux.Handle("seek", c.handleSeek)
	mux.Handle("rate-change", c.handleRateChange)

	// chat and reactions
	mux.Handle("chat-message", c.handleChatMessage)
	mux.Handle("emoji-reaction", c.handleEmojiReaction)

	// scene interactions
	mux.Handle("submit-answer", c.handleSubmitAnswer)
	mux.Handle("interaction-response", c.handleSubmitAnswer)

	return mux
}
