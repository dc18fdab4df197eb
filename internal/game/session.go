package game

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playmatatu/carrom/internal/config"
)

// Broadcaster delivers messages to every viewer of a board.
type Broadcaster interface {
	BroadcastToBoard(token string, message interface{})
}

// Session runs one board on its own goroutine. Pointer events, camera updates
// and snapshot requests are queued on the inbox and applied between frame
// ticks, so the board itself never sees concurrent access.
type Session struct {
	ID        string
	Token     string
	CreatedAt time.Time

	board          *Board
	inbox          chan any
	frameRate      int
	broadcastEvery int
	broadcaster    Broadcaster
	sink           EventSink
	dirty          bool

	lastActivity atomic.Int64
	quit         chan struct{}
	done         chan struct{}
	closeOnce    sync.Once
}

type pointerCmd struct {
	ev PointerEvent
}

type cameraCmd struct {
	cam Camera
}

type snapshotCmd struct {
	reply chan BoardSnapshot
}

type releaseCmd struct{}

// SessionOptions configures a new session.
type SessionOptions struct {
	FrameRate      int
	BroadcastEvery int
	Broadcaster    Broadcaster
	Sink           EventSink
}

// NewSession creates a session for a freshly laid out board. Call Run to start it.
func NewSession(id, token string, layout Layout, opts SessionOptions) *Session {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	if opts.FrameRate > config.MaxFrameRate {
		opts.FrameRate = config.MaxFrameRate
	}
	if opts.BroadcastEvery <= 0 {
		opts.BroadcastEvery = 1
	}

	s := &Session{
		ID:             id,
		Token:          token,
		CreatedAt:      time.Now(),
		board:          NewBoard(token, layout),
		inbox:          make(chan any, 256),
		frameRate:      opts.FrameRate,
		broadcastEvery: opts.BroadcastEvery,
		broadcaster:    opts.Broadcaster,
		sink:           opts.Sink,
		dirty:          true,
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	s.touch()
	return s
}

// Run is the frame loop. It returns after Close.
func (s *Session) Run() {
	defer close(s.done)

	ticker := time.NewTicker(time.Second / time.Duration(s.frameRate))
	defer ticker.Stop()
	last := time.Now()

	log.Printf("[BOARD] %s frame loop started (%d Hz)", s.Token, s.frameRate)
	for {
		select {
		case <-s.quit:
			if n := s.board.ReleaseAll(); n > 0 {
				log.Printf("[BOARD] %s released %d drags on close", s.Token, n)
			}
			s.flushEvents()
			log.Printf("[BOARD] %s frame loop stopped at frame %d", s.Token, s.board.Frame())
			return
		case cmd := <-s.inbox:
			s.handleCommand(cmd)
		case now := <-ticker.C:
			frames := float64(now.Sub(last)) / float64(ReferenceFrame)
			last = now
			s.tick(frames)
		}
	}
}

func (s *Session) tick(frames float64) {
	if frames > MaxFramesPerTick {
		frames = MaxFramesPerTick
	}

	wasMoving := s.board.Moving()
	s.board.Advance(frames)
	s.flushEvents()

	if wasMoving || s.dirty {
		if s.board.Frame()%s.broadcastEvery == 0 || !s.board.Moving() {
			s.broadcastFrame()
			s.dirty = false
		}
	}
}

func (s *Session) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case pointerCmd:
		if s.board.HandlePointer(c.ev) {
			s.dirty = true
		}
		s.flushEvents()
	case cameraCmd:
		s.board.SetCamera(c.cam)
	case releaseCmd:
		if s.board.ReleaseAll() > 0 {
			s.dirty = true
		}
	case snapshotCmd:
		c.reply <- s.board.Snapshot()
	}
}

func (s *Session) flushEvents() {
	for _, ev := range s.board.DrainEvents() {
		if s.sink != nil {
			s.sink.HandleBoardEvent(ev)
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastToBoard(s.Token, map[string]interface{}{
				"type": ev.EventType(),
				"data": ev,
			})
		}
	}
}

func (s *Session) broadcastFrame() {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToBoard(s.Token, map[string]interface{}{
		"type": "frame",
		"data": s.board.Snapshot(),
	})
}

func (s *Session) send(ctx context.Context, cmd any) error {
	select {
	case <-s.quit:
		return ErrBoardClosed
	default:
	}

	select {
	case s.inbox <- cmd:
		return nil
	case <-s.quit:
		return ErrBoardClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pointer queues a pointer event for the frame loop.
func (s *Session) Pointer(ctx context.Context, ev PointerEvent) error {
	switch ev.Kind {
	case PointerDown, PointerMove, PointerUp, PointerLeave, PointerCancel:
	default:
		return ErrUnknownPointer
	}
	s.touch()
	return s.send(ctx, pointerCmd{ev: ev})
}

// SetCamera updates the camera used for pointer events that carry no ray.
func (s *Session) SetCamera(ctx context.Context, cam Camera) error {
	s.touch()
	return s.send(ctx, cameraCmd{cam: cam})
}

// ReleasePointers ends every drag without launching, for a lost input source.
func (s *Session) ReleasePointers(ctx context.Context) error {
	return s.send(ctx, releaseCmd{})
}

// Snapshot asks the frame loop for the current board state.
func (s *Session) Snapshot(ctx context.Context) (BoardSnapshot, error) {
	reply := make(chan BoardSnapshot, 1)
	if err := s.send(ctx, snapshotCmd{reply: reply}); err != nil {
		return BoardSnapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-s.done:
		return BoardSnapshot{}, ErrBoardClosed
	case <-ctx.Done():
		return BoardSnapshot{}, ctx.Err()
	}
}

// Close stops the frame loop. Drags in progress end without a launch.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
}

// Done is closed once the frame loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Status() BoardStatus {
	select {
	case <-s.quit:
		return StatusClosed
	default:
		return StatusActive
	}
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity is the time of the last viewer input.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}
