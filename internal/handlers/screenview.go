package handlers

import (
	"strconv"

	"depths/internal/game"
	"depths/internal/models"
	"depths/internal/screen"
	"depths/internal/viewmodel"
)

var controls = []viewmodel.Control{
	{Direction: "up", Label: "↑"},
	{Direction: "left", Label: "←"},
	{Direction: "right", Label: "→"},
	{Direction: "down", Label: "↓"},
}

// buildScreen assembles the game screen view. It reports false when the
// session has no mounted screen.
func buildScreen(sess *game.Session) (viewmodel.GameScreen, bool) {
	scr := sess.Screen()
	if scr == nil {
		return viewmodel.GameScreen{}, false
	}
	snap := sess.Snapshot()
	props := snap.Props()
	st := scr.State()

	vm := viewmodel.GameScreen{
		Username:     models.FeltToString(snap.PlayerData.Username),
		CurrentFloor: st.CurrentFloor,
		Coins:        snap.PlayerState.Coins,
		Loading:      sess.Loading(),
		Rows:         toTiles(screen.Grid(props, st.Tiles)),
		Controls:     controls,
	}
	for _, o := range scr.Overlays(props) {
		switch o {
		case screen.OverlayHint:
			vm.Hint = &viewmodel.HintModal{Glyphs: screen.HintGlyphs(snap.GameFloor.Path)}
		case screen.OverlayConfirm:
			vm.Confirm = &viewmodel.ConfirmModal{Error: errText(st.ConfirmErr)}
		case screen.OverlayFloorCleared:
			vm.FloorCleared = true
		case screen.OverlayGameOver:
			vm.GameOver = toGameOver(scr.GameOverResult().View())
		}
	}
	return vm, true
}

func toTiles(grid [][]screen.Cell) [][]viewmodel.Tile {
	rows := make([][]viewmodel.Tile, 0, len(grid))
	for _, cells := range grid {
		row := make([]viewmodel.Tile, 0, len(cells))
		for _, c := range cells {
			row = append(row, toTile(c))
		}
		rows = append(rows, row)
	}
	return rows
}

func toTile(c screen.Cell) viewmodel.Tile {
	switch {
	case c.Player:
		return viewmodel.Tile{Class: "tile-player", Glyph: "@"}
	case c.Exit:
		return viewmodel.Tile{Class: "tile-exit", Glyph: "▼"}
	case c.Coin:
		return viewmodel.Tile{Class: "tile-coin", Glyph: "$"}
	case c.Revealed:
		return viewmodel.Tile{Class: "tile-revealed"}
	}
	return viewmodel.Tile{Class: "tile-hidden"}
}

func toGameOver(v screen.GameOverView) *viewmodel.GameOverModal {
	m := &viewmodel.GameOverModal{Error: errText(v.Err)}
	if v.Data != nil {
		m.FloorReached = strconv.FormatUint(uint64(v.Data.FloorReached), 10)
		m.Score = strconv.FormatUint(uint64(v.Data.TotalScore), 10)
		m.TimePlayed = v.ElapsedText()
		m.HasData = true
	}
	return m
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
