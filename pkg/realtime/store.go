package realtime

import (
	"context"
	"sync"
	"time"
)

const subscriberBuffer = 10

// Room holds state and a broadcaster for one room.
type Room[T any] struct {
	ID    string
	State T
	hub   *Broadcaster
	seen  time.Time
}

// RoomStore manages rooms, their broadcasters and their loops.
type RoomStore[T any] struct {
	mu    sync.RWMutex
	now   func() time.Time
	rooms map[string]*Room[T]
	loops map[string]context.CancelFunc
	wakes map[string]chan struct{}
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any]() *RoomStore[T] {
	return &RoomStore[T]{
		now:   func() time.Time { return time.Now().UTC() },
		rooms: make(map[string]*Room[T]),
		loops: make(map[string]context.CancelFunc),
		wakes: make(map[string]chan struct{}),
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
func (s *RoomStore[T]) Create(id string, state T) *Room[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster(subscriberBuffer), seen: s.now()}
	s.rooms[id] = r
	return r
}

// Get returns the room by ID if it exists and marks it as seen.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if ok {
		r.seen = s.now()
	}
	return r, ok
}

// Len returns the number of rooms.
func (s *RoomStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Publish notifies subscribers of the room's broadcaster. Unknown rooms are ignored.
func (s *RoomStore[T]) Publish(id string, event Event) {
	s.mu.RLock()
	r, ok := s.rooms[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	r.hub.Publish(event)
}

// Broadcaster returns the broadcaster of an existing room.
func (s *RoomStore[T]) Broadcaster(id string) (*Broadcaster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	return r.hub, true
}

// Delete stops the room's loop, closes its subscribers and forgets it.
func (s *RoomStore[T]) Delete(id string) {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	cancel := s.loops[id]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if ok {
		r.hub.Close()
	}
}

// Sweep deletes rooms not seen for longer than idle and without
// subscribers. It returns the deleted IDs.
func (s *RoomStore[T]) Sweep(idle time.Duration) []string {
	cutoff := s.now().Add(-idle)
	s.mu.RLock()
	var stale []string
	for id, r := range s.rooms {
		if r.seen.Before(cutoff) && r.hub.Len() == 0 {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()
	for _, id := range stale {
		s.Delete(id)
	}
	return stale
}

// TickFunc is called by RunLoop to determine the next wake time and events to publish.
// stop true means exit the loop.
type TickFunc[T any] func(ctx context.Context, state T, now time.Time) (next time.Time, events []Event, stop bool)

// RunLoop starts a loop for the room. If a loop already exists for id, it
// is not started again. The loop ends when tick asks to stop, the room is
// deleted, or parent is done.
func (s *RoomStore[T]) RunLoop(parent context.Context, id string, tick TickFunc[T]) {
	s.mu.Lock()
	if _, ok := s.loops[id]; ok {
		s.mu.Unlock()
		return
	}
	if _, ok := s.rooms[id]; !ok {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	wake := make(chan struct{}, 1)
	s.loops[id] = cancel
	s.wakes[id] = wake
	s.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.loops, id)
			delete(s.wakes, id)
			s.mu.Unlock()
		}()

		for {
			s.mu.RLock()
			room, ok := s.rooms[id]
			s.mu.RUnlock()
			if !ok {
				return
			}
			next, events, stop := tick(ctx, room.State, s.now())
			if stop {
				return
			}
			for _, e := range events {
				s.Publish(id, e)
			}
			wait := time.Until(next)
			if wait < 0 {
				wait = 0
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			case <-wake:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
		}
	}()
}

// Running reports whether a loop is active for id.
func (s *RoomStore[T]) Running(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loops[id]
	return ok
}

// Wake unblocks the room's loop so it recomputes immediately.
func (s *RoomStore[T]) Wake(id string) {
	s.mu.RLock()
	wake, ok := s.wakes[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case wake <- struct{}{}:
	default:
	}
}

// WakeAll unblocks every running loop.
func (s *RoomStore[T]) WakeAll() {
	s.mu.RLock()
	wakes := make([]chan struct{}, 0, len(s.wakes))
	for _, w := range s.wakes {
		wakes = append(wakes, w)
	}
	s.mu.RUnlock()
	for _, w := range wakes {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}
