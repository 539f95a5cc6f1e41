package screen

import "depths/internal/models"

// Cell is one rendered maze tile.
type Cell struct {
	Pos      models.Vec2
	Player   bool
	Exit     bool
	Coin     bool
	Revealed bool
}

// Grid lays out the floor as rows from the top (highest y) down. While
// tiles is set every tile is revealed; otherwise only the player, the exit
// and coin tiles are.
func Grid(p Props, tiles bool) [][]Cell {
	size := p.GameFloor.Size
	rows := make([][]Cell, 0, size.Y)
	for y := int64(size.Y) - 1; y >= 0; y-- {
		row := make([]Cell, 0, size.X)
		for x := uint32(0); x < size.X; x++ {
			pos := models.Vec2{X: x, Y: uint32(y)}
			c := Cell{
				Pos:    pos,
				Player: pos == p.PlayerState.Position,
				Exit:   pos == p.GameFloor.EndTile,
				Coin:   p.GameCoins.Has(pos),
			}
			c.Revealed = tiles || c.Player || c.Exit || c.Coin
			row = append(row, c)
		}
		rows = append(rows, row)
	}
	return rows
}
