package game

import "errors"

// BoardStatus represents the lifecycle state of a board session
type BoardStatus string

const (
	StatusActive BoardStatus = "ACTIVE"
	StatusClosed BoardStatus = "CLOSED"
)

var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrBoardClosed    = errors.New("board is closed")
	ErrTooManyBoards  = errors.New("board limit reached")
	ErrUnknownPointer = errors.New("unknown pointer event")
)
