package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/models"
	"github.com/playmatatu/carrom/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

// BoardEventsChannel is the Redis pub/sub channel board events are published on.
const BoardEventsChannel = "board_events"

// BoardManager manages all live boards on this instance
type BoardManager struct {
	boards map[string]*Session // keyed by board token
	rdb    *redis.Client       // Redis client for event fan-out (optional)
	db     *sqlx.DB            // SQL DB for the launch log (optional)
	config *config.Config      // Application config
	hub    Broadcaster
	layout Layout
	mu     sync.RWMutex
}

// BoardSummary is the admin view of a live board
type BoardSummary struct {
	ID           string      `json:"id"`
	Token        string      `json:"token"`
	Status       BoardStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	LastActivity time.Time   `json:"last_activity"`
}

// roomCloser is implemented by broadcasters that track per-board rooms.
type roomCloser interface {
	CloseBoardRoom(token string)
}

// NewBoardManager creates a board manager. db and rdb may be nil.
func NewBoardManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, hub Broadcaster, layout Layout) *BoardManager {
	return &BoardManager{
		boards: make(map[string]*Session),
		rdb:    rdb,
		db:     db,
		config: cfg,
		hub:    hub,
		layout: layout,
	}
}

// generateToken generates a secure random token
func generateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// generateBoardID generates a unique board ID
func generateBoardID() string {
	return "board_" + uuid.NewString()
}

// GetConfig returns the manager's config. Fields that admins can change at
// runtime must be read through the accessors below.
func (bm *BoardManager) GetConfig() *config.Config {
	return bm.config
}

// UpdateConfig applies a runtime change to the config under the manager lock.
// Boards created afterwards pick it up; running boards keep their settings.
func (bm *BoardManager) UpdateConfig(apply func(cfg *config.Config) bool) bool {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return apply(bm.config)
}

// SessionTTL is how long a viewer session token stays valid
func (bm *BoardManager) SessionTTL() time.Duration {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return time.Duration(bm.config.SessionTTLMinutes) * time.Minute
}

// CreateBoard lays out a new board and starts its frame loop
func (bm *BoardManager) CreateBoard() (*Session, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.config.MaxBoards > 0 && len(bm.boards) >= bm.config.MaxBoards {
		return nil, ErrTooManyBoards
	}

	token, err := generateToken(16)
	if err != nil {
		return nil, err
	}

	s := NewSession(generateBoardID(), token, bm.layout, SessionOptions{
		FrameRate:      bm.config.FrameRate,
		BroadcastEvery: bm.config.BroadcastEvery,
		Broadcaster:    bm.hub,
		Sink:           bm,
	})
	bm.boards[s.Token] = s
	go s.Run()

	log.Printf("[BOARD] Board created: %s (token=%s, pucks=%d)", s.ID, s.Token, len(bm.layout.Pucks))
	return s, nil
}

// GetBoardByToken returns a live board
func (bm *BoardManager) GetBoardByToken(token string) (*Session, error) {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	s, ok := bm.boards[token]
	if !ok {
		return nil, ErrBoardNotFound
	}
	return s, nil
}

// CloseBoard stops a board's frame loop and tells its viewers
func (bm *BoardManager) CloseBoard(token, reason string) error {
	bm.mu.Lock()
	s, ok := bm.boards[token]
	if ok {
		delete(bm.boards, token)
	}
	bm.mu.Unlock()

	if !ok {
		return ErrBoardNotFound
	}

	s.Close()
	if bm.hub != nil {
		bm.hub.BroadcastToBoard(token, map[string]interface{}{
			"type": "board_closed",
			"data": map[string]string{"reason": reason},
		})
		if rc, ok := bm.hub.(roomCloser); ok {
			rc.CloseBoardRoom(token)
		}
	}

	log.Printf("[BOARD] Board closed: %s (token=%s, reason=%s)", s.ID, token, reason)
	return nil
}

// ListBoards returns all live boards, oldest first
func (bm *BoardManager) ListBoards() []BoardSummary {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	out := make([]BoardSummary, 0, len(bm.boards))
	for _, s := range bm.boards {
		out = append(out, BoardSummary{
			ID:           s.ID,
			Token:        s.Token,
			Status:       s.Status(),
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ActiveBoardCount returns the number of live boards
func (bm *BoardManager) ActiveBoardCount() int {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return len(bm.boards)
}

// Shutdown closes every board
func (bm *BoardManager) Shutdown() {
	for _, b := range bm.ListBoards() {
		bm.CloseBoard(b.Token, "server shutting down")
	}
}

// StartExpiryChecker closes boards with no viewer input for BoardIdleMinutes
func (bm *BoardManager) StartExpiryChecker(ctx context.Context) {
	interval := time.Duration(bm.config.IdleCheckSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	log.Println("[IDLE] Idle board checker started")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle board checker stopping")
				return
			case now := <-ticker.C:
				if n := bm.checkIdleBoards(now); n > 0 {
					log.Printf("[IDLE] Closed %d idle boards", n)
				}
			}
		}
	}()
}

// checkIdleBoards closes boards idle longer than the configured limit
func (bm *BoardManager) checkIdleBoards(now time.Time) int {
	// Collect candidates under read lock
	bm.mu.RLock()
	maxIdle := time.Duration(bm.config.BoardIdleMinutes) * time.Minute
	if maxIdle <= 0 {
		bm.mu.RUnlock()
		return 0
	}
	var idle []string
	for token, s := range bm.boards {
		if now.Sub(s.LastActivity()) > maxIdle {
			idle = append(idle, token)
		}
	}
	bm.mu.RUnlock()

	closed := 0
	for _, token := range idle {
		if err := bm.CloseBoard(token, "idle"); err == nil {
			closed++
		}
	}
	return closed
}

// HandleBoardEvent records launches and fans events out over Redis.
// It runs on a board's frame loop, so all I/O happens in goroutines.
func (bm *BoardManager) HandleBoardEvent(ev Event) {
	if launch, ok := ev.(LaunchEvent); ok && bm.db != nil {
		rec := models.LaunchRecord{
			BoardToken: launch.BoardToken,
			PuckID:     launch.PuckID,
			PointerID:  launch.PointerID,
			DirectionX: launch.Direction.X,
			DirectionZ: launch.Direction.Z,
			Speed:      launch.Speed,
			Force:      launch.Force,
			Frame:      launch.Frame,
			CreatedAt:  launch.At,
		}
		go func() {
			if err := telemetry.RecordLaunch(bm.db, rec); err != nil {
				log.Printf("[DB] Failed to record launch for board %s: %v", rec.BoardToken, err)
			}
		}()
	}

	bm.publish(ev.EventType(), boardTokenOf(ev), ev)
}

// PublishBoardClosed asks every instance to close a board. The instance that
// owns it closes it; the rest ignore the event.
func (bm *BoardManager) PublishBoardClosed(token, reason string) {
	bm.publish("board_closed", token, map[string]string{"reason": reason})
}

func (bm *BoardManager) publish(eventType, token string, payload interface{}) {
	if bm.rdb == nil {
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":        eventType,
		"board_token": token,
		"event":       payload,
	})
	if err != nil {
		log.Printf("[REDIS] Failed to marshal %s event: %v", eventType, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := bm.rdb.Publish(ctx, BoardEventsChannel, data).Err(); err != nil {
			log.Printf("[REDIS] publish %s failed for board %s: %v", eventType, token, err)
		}
	}()
}

func boardTokenOf(ev Event) string {
	switch e := ev.(type) {
	case LaunchEvent:
		return e.BoardToken
	case SettledEvent:
		return e.BoardToken
	default:
		return fmt.Sprintf("%T", ev)
	}
}
