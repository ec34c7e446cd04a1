package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrInvalidThrow     = errors.New("invalid throw")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrUndoUnsupported  = errors.New("undo is not supported for this game")
	ErrUnknownVariant   = errors.New("unknown game variant")
	ErrInvalidPlayers   = errors.New("invalid player list")

	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrSeatBound        = errors.New("already playing another seat in this game")
	ErrNotSeated        = errors.New("participant is not seated in a room")
	ErrNotOwner         = errors.New("only the room owner can start the game")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrEmptyName        = errors.New("display name is required")
	ErrUnknownPlayer    = errors.New("participant not found")

	ErrUnknownMessage   = errors.New("unknown message type")
	ErrMalformedMessage = errors.New("malformed message")
)
