package ws

import (
	"context"
	"testing"
	"time"

	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleBoardEventClosesLocalBoard(t *testing.T) {
	cfg := &config.Config{FrameRate: 60, MaxBoards: 5}
	manager := game.NewBoardManager(nil, nil, cfg, nil, game.StandardLayout())
	s, err := manager.CreateBoard()
	require.NoError(t, err)

	handleBoardEvent(manager, `{"type":"board_closed","board_token":"`+s.Token+`","event":{"reason":"admin"}}`)

	_, err = manager.GetBoardByToken(s.Token)
	assert.ErrorIs(t, err, game.ErrBoardNotFound)
	assert.Equal(t, game.StatusClosed, s.Status())

	// boards owned elsewhere and noise are ignored
	handleBoardEvent(manager, `{"type":"board_closed","board_token":"elsewhere"}`)
	handleBoardEvent(manager, `{"type":"launch","board_token":"x"}`)
	handleBoardEvent(manager, `not json`)
}

func TestBoardEventSubscriberAcrossInstances(t *testing.T) {
	env := newTestEnv(t)
	s, _ := env.newBoard(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartBoardEventSubscriber(ctx, env.rdb, env.manager)

	// a second instance sharing the same Redis asks for the close
	other := game.NewBoardManager(nil, env.rdb, &config.Config{MaxBoards: 1}, nil, game.StandardLayout())

	assert.Eventually(t, func() bool {
		other.PublishBoardClosed(s.Token, "admin")
		_, err := env.manager.GetBoardByToken(s.Token)
		return err == game.ErrBoardNotFound
	}, 3*time.Second, 50*time.Millisecond)
}

func TestStartBoardEventSubscriberWithoutRedis(t *testing.T) {
	manager := game.NewBoardManager(nil, nil, &config.Config{}, nil, game.StandardLayout())
	StartBoardEventSubscriber(context.Background(), nil, manager)
}

func TestHandleBoardEventUnreadableReasonStillCloses(t *testing.T) {
	cfg := &config.Config{FrameRate: 60, MaxBoards: 5}
	manager := game.NewBoardManager(nil, nil, cfg, nil, game.StandardLayout())
	s, err := manager.CreateBoard()
	require.NoError(t, err)

	handleBoardEvent(manager, `{"type":"board_closed","board_token":"`+s.Token+`","event":"not an object"}`)

	_, err = manager.GetBoardByToken(s.Token)
	assert.ErrorIs(t, err, game.ErrBoardNotFound)
}
