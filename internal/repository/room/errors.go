package room

import "errors"

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrHostNotFound        = errors.New("host not found")
	ErrInteractionNotFound = errors.New("interaction not found")
)
