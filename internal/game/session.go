package game

import (
	"reflect"
	"sync"
	"time"

	"depths/internal/models"
	"depths/internal/screen"
)

// Snapshot is the last state read from the indexer for a session's player.
type Snapshot struct {
	PlayerData  models.PlayerData
	PlayerState models.PlayerState
	GameData    models.GameData
	GameFloor   models.GameFloor
	GameCoins   models.GameCoins
	HasPlayer   bool
	HasGame     bool
	FetchedAt   time.Time
}

// GameOver reports whether the current game has ended on-chain.
func (s Snapshot) GameOver() bool {
	return s.HasGame && s.GameData.Ended()
}

// Props converts the snapshot into screen props.
func (s Snapshot) Props() screen.Props {
	return screen.Props{
		PlayerData:  s.PlayerData,
		PlayerState: s.PlayerState,
		GameData:    s.GameData,
		GameFloor:   s.GameFloor,
		GameCoins:   s.GameCoins,
		GameOver:    s.GameOver(),
	}
}

func (s Snapshot) sameState(o Snapshot) bool {
	s.FetchedAt, o.FetchedAt = time.Time{}, time.Time{}
	return reflect.DeepEqual(s, o)
}

// Session is one browser's client state: which view is showing, the
// loading flag, the mounted game screen and the latest snapshot.
type Session struct {
	mu        sync.Mutex
	ID        string
	Player    string
	CreatedAt time.Time
	policy    screen.ErrorPolicy
	view      screen.View
	loading   bool
	screen    *screen.Screen
	snapshot  Snapshot
	notice    string
}

func newSession(id, player string, policy screen.ErrorPolicy) *Session {
	return &Session{
		ID:        id,
		Player:    player,
		CreatedAt: time.Now().UTC(),
		policy:    policy,
		view:      screen.MainScreen,
	}
}

// View returns the current top-level view.
func (s *Session) View() screen.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Navigate switches views. Entering the game screen mounts a fresh screen;
// leaving it unmounts the screen.
func (s *Session) Navigate(v screen.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == s.view && s.screen != nil {
		return
	}
	s.view = v
	if v == screen.GameScreen {
		s.screen = screen.New(s.policy)
		return
	}
	s.screen = nil
}

// SetLoading sets the loading flag.
func (s *Session) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// Loading reports the loading flag.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Screen returns the mounted game screen, or nil on the main menu.
func (s *Session) Screen() *screen.Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Snapshot returns the latest snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// setSnapshot stores snap and reports whether it differs from the previous one.
func (s *Session) setSnapshot(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := !s.snapshot.sameState(snap)
	s.snapshot = snap
	return changed
}

// SetNotice stores a message for the main menu; empty clears it.
func (s *Session) SetNotice(msg string) {
	s.mu.Lock()
	s.notice = msg
	s.mu.Unlock()
}

// Notice returns the stored main menu message.
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}
