package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/playmatatu/carrom/internal/config"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []map[string]interface{}
}

func (r *recordingBroadcaster) BroadcastToBoard(token string, message interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := message.(map[string]interface{}); ok {
		r.messages = append(r.messages, m)
	}
}

func (r *recordingBroadcaster) count(msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m["type"] == msgType {
			n++
		}
	}
	return n
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) HandleBoardEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventType()
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func startSession(t *testing.T, layout Layout) (*Session, *recordingBroadcaster, *recordingSink) {
	t.Helper()
	hub := &recordingBroadcaster{}
	sink := &recordingSink{}
	s := NewSession("board_test", "tok", layout, SessionOptions{
		FrameRate:      240,
		BroadcastEvery: 1,
		Broadcaster:    hub,
		Sink:           sink,
	})
	go s.Run()
	t.Cleanup(func() {
		s.Close()
		<-s.Done()
	})
	return s, hub, sink
}

func TestSessionLaunchAndSettle(t *testing.T) {
	s, hub, sink := startSession(t, singlePuckLayout())
	ctx := context.Background()

	for _, ev := range []PointerEvent{
		pointer(PointerDown, 1, downRay(0, 0)),
		pointer(PointerMove, 1, downRay(0.5, 0)),
		pointer(PointerUp, 1, downRay(0.5, 0)),
	} {
		if err := s.Pointer(ctx, ev); err != nil {
			t.Fatalf("Pointer(%s) failed: %v", ev.Kind, err)
		}
	}

	waitFor(t, "launch and settle", func() bool {
		types := sink.types()
		return len(types) == 2 && types[0] == "launch" && types[1] == "settled"
	})

	if hub.count("launch") != 1 || hub.count("settled") != 1 {
		t.Errorf("Viewers missed events: launch=%d settled=%d", hub.count("launch"), hub.count("settled"))
	}
	if hub.count("frame") == 0 {
		t.Error("No frames broadcast while moving")
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Moving || !snap.OrbitEnabled {
		t.Errorf("Expected a settled board, got %+v", snap)
	}
	if snap.Pucks[0].Position.X >= 0 {
		t.Errorf("Puck should have travelled to -x, got %+v", snap.Pucks[0].Position)
	}
}

func TestSessionRejectsUnknownPointerKind(t *testing.T) {
	s, _, _ := startSession(t, singlePuckLayout())
	err := s.Pointer(context.Background(), PointerEvent{Kind: "pointer_hover"})
	if err != ErrUnknownPointer {
		t.Errorf("Expected ErrUnknownPointer, got %v", err)
	}
}

func TestSessionReleasePointers(t *testing.T) {
	s, _, sink := startSession(t, singlePuckLayout())
	ctx := context.Background()

	s.Pointer(ctx, pointer(PointerDown, 1, downRay(0, 0)))
	s.Pointer(ctx, pointer(PointerMove, 1, downRay(2, 0)))
	if err := s.ReleasePointers(ctx); err != nil {
		t.Fatalf("ReleasePointers failed: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Pucks[0].DragState != DragIdle || snap.Moving {
		t.Errorf("Expected idle still puck, got %+v", snap.Pucks[0])
	}
	if len(sink.types()) != 0 {
		t.Errorf("Release of a lost pointer emitted %v", sink.types())
	}
}

func TestSessionClose(t *testing.T) {
	hub := &recordingBroadcaster{}
	s := NewSession("board_test", "tok", singlePuckLayout(), SessionOptions{FrameRate: 120, Broadcaster: hub})
	go s.Run()

	if s.Status() != StatusActive {
		t.Errorf("Expected ACTIVE, got %s", s.Status())
	}
	s.Close()
	s.Close()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Frame loop did not stop")
	}

	if s.Status() != StatusClosed {
		t.Errorf("Expected CLOSED, got %s", s.Status())
	}
	if _, err := s.Snapshot(context.Background()); err != ErrBoardClosed {
		t.Errorf("Expected ErrBoardClosed, got %v", err)
	}
	if err := s.Pointer(context.Background(), pointer(PointerDown, 1, downRay(0, 0))); err != ErrBoardClosed {
		t.Errorf("Expected ErrBoardClosed, got %v", err)
	}
}

func TestSessionTickCapsFrames(t *testing.T) {
	s := NewSession("board_test", "tok", singlePuckLayout(), SessionOptions{})
	p, _ := s.board.Puck(0)
	p.Velocity = Vec3{X: 0.1}

	s.tick(100)

	// at most MaxFramesPerTick frames of travel
	if p.Position.X > 0.1*MaxFramesPerTick+eps {
		t.Errorf("Tick advanced too far: %f", p.Position.X)
	}
}

func TestSessionTracksActivity(t *testing.T) {
	s, _, _ := startSession(t, singlePuckLayout())
	before := s.LastActivity()
	time.Sleep(2 * time.Millisecond)
	s.SetCamera(context.Background(), DefaultCamera())
	if !s.LastActivity().After(before) {
		t.Error("Camera update did not count as activity")
	}
}

func TestSessionClampsFrameRate(t *testing.T) {
	s := NewSession("board_test", "tok", singlePuckLayout(), SessionOptions{FrameRate: 2000000000})
	if s.frameRate != config.MaxFrameRate {
		t.Fatalf("Expected frame rate %d, got %d", config.MaxFrameRate, s.frameRate)
	}

	go s.Run()
	s.Close()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Frame loop did not stop")
	}
}
