// Package screen holds the in-game screen state: the locally tracked floor
// counter and the visibility flags of the hint, exit confirmation,
// floor-cleared and game-over overlays.
//
// The overlay flags are independent. Several overlays can be visible at the
// same time and are rendered stacked in a fixed order.
package screen

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"depths/internal/dojo"
	"depths/internal/models"
)

// View names a top-level client view.
type View string

const (
	MainScreen View = "MainScreen"
	GameScreen View = "GameScreen"
)

// ErrorPolicy decides whether failed dispatches and queries reach the player.
type ErrorPolicy int

const (
	// SwallowErrors logs failures and carries on as if they succeeded.
	SwallowErrors ErrorPolicy = iota
	// SurfaceErrors logs failures and keeps them for display.
	SurfaceErrors
)

// Overlay is one modal drawn over the game screen.
type Overlay int

const (
	OverlayHint Overlay = iota
	OverlayConfirm
	OverlayFloorCleared
	OverlayGameOver
)

func (o Overlay) String() string {
	switch o {
	case OverlayHint:
		return "hint"
	case OverlayConfirm:
		return "confirm"
	case OverlayFloorCleared:
		return "floor-cleared"
	case OverlayGameOver:
		return "game-over"
	}
	return "unknown"
}

// Props are the snapshots the screen renders. They are read-only here.
type Props struct {
	PlayerData  models.PlayerData
	PlayerState models.PlayerState
	GameData    models.GameData
	GameFloor   models.GameFloor
	GameCoins   models.GameCoins
	GameOver    bool
}

// EndGamer dispatches the end_game transaction.
type EndGamer interface {
	EndGame(ctx context.Context) (dojo.TxHash, error)
}

// State is a copy of the local screen state.
type State struct {
	Modal        bool
	Hint         bool
	Tiles        bool
	CurrentFloor uint32
	ConfirmErr   error
}

// Screen is the local state of one mounted game screen.
type Screen struct {
	mu           sync.Mutex
	policy       ErrorPolicy
	modal        bool
	hint         bool
	tiles        bool
	currentFloor uint32
	mounted      bool
	confirmErr   error
	gameOver     *GameOverResult
}

// New returns a freshly mounted screen on floor 1 with the hint showing.
func New(policy ErrorPolicy) *Screen {
	return &Screen{
		policy:       policy,
		hint:         true,
		tiles:        true,
		currentFloor: 1,
		gameOver:     NewGameOverResult(policy),
	}
}

// Mount signals that loading finished. Only the first call has an effect.
func (s *Screen) Mount(setLoading func(bool)) {
	s.mu.Lock()
	first := !s.mounted
	s.mounted = true
	s.mu.Unlock()
	if first && setLoading != nil {
		setLoading(false)
	}
}

// State returns a copy of the local state.
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Modal:        s.modal,
		Hint:         s.hint,
		Tiles:        s.tiles,
		CurrentFloor: s.currentFloor,
		ConfirmErr:   s.confirmErr,
	}
}

// Overlays lists every overlay whose guard holds, in stacking order.
func (s *Screen) Overlays(p Props) []Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Overlay
	if s.hint {
		out = append(out, OverlayHint)
	}
	if s.modal {
		out = append(out, OverlayConfirm)
	}
	if s.currentFloor < p.PlayerState.CurrentFloor {
		out = append(out, OverlayFloorCleared)
	}
	if p.GameOver {
		out = append(out, OverlayGameOver)
	}
	return out
}

// OpenExit shows the exit confirmation.
func (s *Screen) OpenExit() {
	s.mu.Lock()
	s.modal = true
	s.confirmErr = nil
	s.mu.Unlock()
}

// CloseHint hides the hint and the freshly revealed tiles.
func (s *Screen) CloseHint() {
	s.mu.Lock()
	s.hint = false
	s.tiles = false
	s.mu.Unlock()
}

// CancelConfirm closes the exit confirmation without side effects.
func (s *Screen) CancelConfirm() {
	s.mu.Lock()
	s.modal = false
	s.confirmErr = nil
	s.mu.Unlock()
}

// Confirm ends the game: loading is raised, end_game is awaited, loading is
// cleared and the player is sent to the main menu.
//
// Under SwallowErrors a failed dispatch is only logged and navigation still
// happens. Under SurfaceErrors the error is kept on the screen, returned,
// and navigation is skipped.
func (s *Screen) Confirm(ctx context.Context, calls EndGamer, setLoading func(bool), navigate func(View)) error {
	setLoading(true)
	tx, err := calls.EndGame(ctx)
	setLoading(false)
	if err != nil {
		log.Error().Err(err).Msg("end game")
		if s.policy == SurfaceErrors {
			s.mu.Lock()
			s.confirmErr = err
			s.mu.Unlock()
			return err
		}
	} else {
		log.Debug().Str("tx", string(tx)).Msg("end game")
	}
	navigate(MainScreen)
	return nil
}

// NextFloor acknowledges a cleared floor: the local counter moves up by
// one and the hint is shown again for the new floor.
func (s *Screen) NextFloor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFloor++
	s.modal = false
	s.tiles = true
	s.hint = true
}

// GameOverResult returns the game-over query state of this screen.
func (s *Screen) GameOverResult() *GameOverResult {
	return s.gameOver
}
