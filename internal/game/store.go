package game

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"depths/internal/dojo"
	"depths/internal/models"
	"depths/internal/queries"
	"depths/internal/screen"
	"depths/pkg/realtime"
)

// EventScreen tells stream subscribers to re-render the game screen.
const EventScreen realtime.Event = "screen"

// Options configure a Store.
type Options struct {
	Policy       screen.ErrorPolicy
	PollInterval time.Duration
	QueryTimeout time.Duration
}

// Store holds sessions and delegates to realtime.RoomStore for storage,
// broadcast and the snapshot polling loop.
type Store struct {
	r      *realtime.RoomStore[*Session]
	source dojo.EntityQuerySource
	opts   Options
}

// NewStore creates an in-memory session store reading from source.
func NewStore(source dojo.EntityQuerySource, opts Options) *Store {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Store{r: realtime.NewRoomStore[*Session](), source: source, opts: opts}
}

// CreateSession registers a session for player.
func (s *Store) CreateSession(player string) *Session {
	sess := newSession(uuid.NewString(), player, s.opts.Policy)
	s.r.Create(sess.ID, sess)
	return sess
}

// GetSession returns a session by ID if it exists.
func (s *Store) GetSession(id string) (*Session, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.State, true
}

// Broadcaster returns the SSE broadcaster of a session.
func (s *Store) Broadcaster(id string) (*realtime.Broadcaster, bool) {
	return s.r.Broadcaster(id)
}

// Publish notifies subscribers of a session.
func (s *Store) Publish(id string, event realtime.Event) {
	s.r.Publish(id, event)
}

// Sweep drops sessions idle for longer than idle.
func (s *Store) Sweep(idle time.Duration) int {
	return len(s.r.Sweep(idle))
}

// Refresh reloads the player's snapshot from the indexer. A player or game
// that does not exist yet is not an error.
func (s *Store) Refresh(ctx context.Context, sess *Session) (bool, error) {
	if s.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()
	}
	snap := Snapshot{FetchedAt: time.Now().UTC()}

	data, err := queries.FetchOne[models.PlayerData](ctx, s.source, queries.PlayerData(sess.Player))
	switch {
	case err == nil:
		snap.PlayerData = data
		snap.HasPlayer = true
	case !errors.Is(err, queries.ErrNotFound):
		return false, err
	}

	state, err := queries.FetchOne[models.PlayerState](ctx, s.source, queries.PlayerState(sess.Player))
	switch {
	case err == nil:
		snap.PlayerState = state
	case !errors.Is(err, queries.ErrNotFound):
		return false, err
	}

	if gameID := snap.PlayerState.GameID; gameID != 0 {
		gameData, err := queries.FetchOne[models.GameData](ctx, s.source, queries.GameData(gameID))
		switch {
		case err == nil:
			snap.GameData = gameData
			snap.HasGame = true
		case !errors.Is(err, queries.ErrNotFound):
			return false, err
		}
		if snap.HasGame {
			if snap.GameFloor, err = queries.FetchOne[models.GameFloor](ctx, s.source, queries.GameFloor(gameID)); optional(err) != nil {
				return false, err
			}
			if snap.GameCoins, err = queries.FetchOne[models.GameCoins](ctx, s.source, queries.GameCoins(gameID)); optional(err) != nil {
				return false, err
			}
		}
	}
	return sess.setSnapshot(snap), nil
}

// optional drops ErrNotFound: a floor or coin set may not be indexed yet.
func optional(err error) error {
	if errors.Is(err, queries.ErrNotFound) {
		return nil
	}
	return err
}

// EnsurePollLoop keeps the session's snapshot fresh while it shows the
// game screen, publishing EventScreen whenever the snapshot changes.
func (s *Store) EnsurePollLoop(ctx context.Context, id string) {
	s.r.RunLoop(ctx, id, func(ctx context.Context, sess *Session, now time.Time) (time.Time, []realtime.Event, bool) {
		if sess == nil || sess.View() != screen.GameScreen {
			return time.Time{}, nil, true
		}
		changed, err := s.Refresh(ctx, sess)
		if err != nil {
			log.Warn().Err(err).Str("session", id).Msg("refresh snapshot")
			return now.Add(s.opts.PollInterval), nil, false
		}
		s.StartGameOver(ctx, sess)
		if changed {
			return now.Add(s.opts.PollInterval), []realtime.Event{EventScreen}, false
		}
		return now.Add(s.opts.PollInterval), nil, false
	})
}

// Wake makes one session's poll loop refresh now.
func (s *Store) Wake(id string) {
	s.r.Wake(id)
}

// WakeAll makes every poll loop refresh now. Indexer subscription updates
// call it.
func (s *Store) WakeAll() {
	s.r.WakeAll()
}

// StartGameOver issues the game-over query once per mounted screen when the
// snapshot says the game ended. Completion publishes EventScreen.
func (s *Store) StartGameOver(ctx context.Context, sess *Session) {
	scr := sess.Screen()
	snap := sess.Snapshot()
	if scr == nil || !snap.GameOver() {
		return
	}
	result := scr.GameOverResult()
	if !result.Begin() {
		return
	}
	gameID := snap.GameData.GameID
	if gameID == 0 {
		gameID = snap.PlayerState.GameID
	}
	go func() {
		result.Fetch(context.WithoutCancel(ctx), s.source, gameID, s.opts.QueryTimeout)
		s.Publish(sess.ID, EventScreen)
	}()
}

// RunSweeper drops idle sessions every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(idle); n > 0 {
				log.Debug().Int("sessions", n).Msg("swept idle sessions")
			}
		}
	}
}
