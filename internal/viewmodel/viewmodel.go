// Package viewmodel defines the view-layer types. They carry no game logic
// imports so components can use them without an import cycle.
package viewmodel

// MainPage holds data for the main menu.
type MainPage struct {
	Title         string
	HasPlayer     bool
	Username      string
	HasActiveGame bool
	Loading       bool
	Notice        string
}

// GamePage holds data for the full game page.
type GamePage struct {
	Title  string
	Screen GameScreen
}

// GameScreen holds data for the game screen fragment.
type GameScreen struct {
	Username     string
	CurrentFloor uint32
	Coins        uint32
	Loading      bool
	Rows         [][]Tile
	Controls     []Control
	Hint         *HintModal
	Confirm      *ConfirmModal
	FloorCleared bool
	GameOver     *GameOverModal
}

// Tile is one maze cell.
type Tile struct {
	Class string
	Glyph string
}

// Control is one move button.
type Control struct {
	Direction string
	Label     string
}

// HintModal holds the path glyphs of the current floor.
type HintModal struct {
	Glyphs []string
}

// ConfirmModal holds the exit confirmation state.
type ConfirmModal struct {
	Error string
}

// GameOverModal holds the end-of-game aggregates. Fields stay empty until
// the query resolves.
type GameOverModal struct {
	FloorReached string
	Score        string
	TimePlayed   string
	HasData      bool
	Error        string
}
