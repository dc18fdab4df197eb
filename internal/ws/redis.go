package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/playmatatu/carrom/internal/game"
	"github.com/redis/go-redis/v9"
)

func presenceKey(boardToken string) string {
	return "viewer:" + boardToken
}

// touchPresence refreshes the board's viewer key, at most once per third of
// the TTL unless forced. Only call it from the client's read goroutine or
// before that goroutine starts.
func (h *Hub) touchPresence(c *Client, force bool) {
	if h.rdb == nil {
		return
	}
	now := time.Now()
	if !force && now.Sub(c.lastPresence) < h.presenceTTL/3 {
		return
	}
	c.lastPresence = now

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.rdb.Set(ctx, presenceKey(c.boardToken), c.viewerID, h.presenceTTL).Err(); err != nil {
		log.Printf("[REDIS] presence refresh failed for board %s: %v", c.boardToken, err)
	}
}

func (h *Hub) clearPresence(boardToken string) {
	if h.rdb == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.rdb.Del(ctx, presenceKey(boardToken))
	}()
}

// ViewerPresent reports whether any instance has a live viewer on the board
func ViewerPresent(ctx context.Context, rdb *redis.Client, boardToken string) (bool, error) {
	n, err := rdb.Exists(ctx, presenceKey(boardToken)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// boardEvent is the payload published on the board events channel
type boardEvent struct {
	Type       string          `json:"type"`
	BoardToken string          `json:"board_token"`
	Event      json.RawMessage `json:"event"`
}

// StartBoardEventSubscriber listens on the board events channel. A
// board_closed event closes the board if this instance owns it.
func StartBoardEventSubscriber(ctx context.Context, rdb *redis.Client, manager *game.BoardManager) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; board event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, game.BoardEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", game.BoardEventsChannel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handleBoardEvent(manager, msg.Payload)
			}
		}
	}()
}

func handleBoardEvent(manager *game.BoardManager, payload string) {
	var ev boardEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("[WS] invalid board event payload: %v", err)
		return
	}

	switch ev.Type {
	case "board_closed":
		var data struct {
			Reason string `json:"reason"`
		}
		if len(ev.Event) > 0 {
			if err := json.Unmarshal(ev.Event, &data); err != nil {
				log.Printf("[WS] board_closed for %s has unreadable data: %v", ev.BoardToken, err)
			}
		}
		if data.Reason == "" {
			data.Reason = "closed"
		}
		err := manager.CloseBoard(ev.BoardToken, data.Reason)
		if err != nil && !errors.Is(err, game.ErrBoardNotFound) {
			log.Printf("[WS] failed to close board %s: %v", ev.BoardToken, err)
		}

	case "launch", "settled":
		// consumed by analytics listeners; nothing to do here

	default:
		log.Printf("[WS] unknown board event type: %s", ev.Type)
	}
}
