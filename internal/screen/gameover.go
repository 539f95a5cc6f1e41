package screen

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"depths/internal/dojo"
	"depths/internal/models"
	"depths/internal/queries"
)

// GameOverResult is the end-of-game aggregate query issued once when the
// game-over overlay first appears.
type GameOverResult struct {
	mu      sync.Mutex
	policy  ErrorPolicy
	started bool
	done    bool
	data    *models.GameData
	err     error
}

// NewGameOverResult returns an unstarted result.
func NewGameOverResult(policy ErrorPolicy) *GameOverResult {
	return &GameOverResult{policy: policy}
}

// Begin marks the query as issued. It reports false if it already was.
func (r *GameOverResult) Begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return false
	}
	r.started = true
	return true
}

// Fetch queries the game data for gameID and stores what comes back.
// Error responses and request failures are logged; they are kept for
// display only under SurfaceErrors. A zero timeout leaves ctx unbounded.
func (r *GameOverResult) Fetch(ctx context.Context, source dojo.EntityQuerySource, gameID uint32, timeout time.Duration) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var failure error
	err := source.GetEntities(ctx, queries.GameData(gameID), func(resp dojo.Response) {
		if resp.Error != nil {
			log.Error().Str("message", resp.Error.Message).Uint32("game_id", gameID).Msg("game data query error")
			failure = resp.Error
			return
		}
		if len(resp.Data) == 0 {
			return
		}
		data, err := queries.Decode[models.GameData](resp.Data[0], models.ModelGameData)
		if err != nil {
			log.Error().Err(err).Uint32("game_id", gameID).Msg("decode game data")
			failure = err
			return
		}
		log.Debug().Uint32("game_id", gameID).Uint32("floor_reached", data.FloorReached).Msg("game data fetched")
		r.mu.Lock()
		r.data = &data
		r.mu.Unlock()
	})
	if err != nil {
		log.Error().Err(err).Uint32("game_id", gameID).Msg("error querying entities")
		failure = err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	if failure != nil && r.policy == SurfaceErrors {
		r.err = failure
	}
}

// GameOverView is what the game-over overlay renders.
type GameOverView struct {
	Data *models.GameData
	Err  error
	Done bool
}

// View returns the current data, the kept error and whether the query finished.
func (r *GameOverResult) View() GameOverView {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := GameOverView{Err: r.err, Done: r.done}
	if r.data != nil {
		d := *r.data
		v.Data = &d
	}
	return v
}

// Pending reports whether a started query has not finished yet.
func (v GameOverView) Pending() bool {
	return v.Data == nil && v.Err == nil && !v.Done
}

// ElapsedText is the formatted play time, empty until data arrives.
func (v GameOverView) ElapsedText() string {
	if v.Data == nil {
		return ""
	}
	return FormatElapsed(v.Data.Elapsed())
}
