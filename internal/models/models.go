// Package models mirrors the depths_of_dread Dojo models as read from the
// Torii indexer. Field names follow the on-chain schema exactly.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Namespace is the Dojo namespace every model below is registered under.
const Namespace = "depths_of_dread"

// Model names as registered in the world.
const (
	ModelGameFloor   = "GameFloor"
	ModelGameData    = "GameData"
	ModelGameCoins   = "GameCoins"
	ModelPlayerData  = "PlayerData"
	ModelPlayerState = "PlayerState"
)

var ErrUnknownDirection = errors.New("unknown direction")

// Vec2 is a grid coordinate.
type Vec2 struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// Direction is one maze step.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
	DirectionUp
	DirectionDown
)

var directionNames = [...]string{"None", "Left", "Right", "Up", "Down"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "Direction(" + strconv.Itoa(int(d)) + ")"
}

// ParseDirection resolves a variant name, case-insensitively.
func ParseDirection(name string) (Direction, error) {
	for i, n := range directionNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Direction(i), nil
		}
	}
	return DirectionNone, fmt.Errorf("%w: %q", ErrUnknownDirection, name)
}

func (d Direction) MarshalJSON() ([]byte, error) {
	if int(d) >= len(directionNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirection, d)
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the variant name, its index, or a Torii enum
// object of the form {"option": "Left"}.
func (d *Direction) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		parsed, err := ParseDirection(name)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var idx int
	if err := json.Unmarshal(b, &idx); err == nil {
		if idx < 0 || idx >= len(directionNames) {
			return fmt.Errorf("%w: %d", ErrUnknownDirection, idx)
		}
		*d = Direction(idx)
		return nil
	}
	var obj struct {
		Option string `json:"option"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("decode direction: %w", err)
	}
	parsed, err := ParseDirection(obj.Option)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GameFloor is one maze level: its size, the solving path and the exit.
type GameFloor struct {
	GameID  uint32      `json:"game_id"`
	Size    Vec2        `json:"size"`
	Path    []Direction `json:"path"`
	EndTile Vec2        `json:"end_tile"`
}

// PlayerData is the long-lived player profile.
type PlayerData struct {
	Player       string `json:"player"`
	Username     string `json:"username"`
	CurrentGame  uint32 `json:"current_game_id"`
	TotalGames   uint32 `json:"total_games_played"`
	TotalWins    uint32 `json:"total_games_won"`
	HighestScore U64    `json:"highest_score"`
}

// PlayerState is the per-game player position and progress.
type PlayerState struct {
	Player       string `json:"player"`
	GameID       uint32 `json:"game_id"`
	CurrentFloor uint32 `json:"current_floor"`
	Position     Vec2   `json:"position"`
	Coins        uint32 `json:"coins"`
}

// GameData holds the aggregates of a game session.
type GameData struct {
	GameID       uint32 `json:"game_id"`
	Player       string `json:"player"`
	StartTime    U64    `json:"start_time"`
	EndTime      U64    `json:"end_time"`
	FloorReached uint32 `json:"floor_reached"`
	TotalScore   uint32 `json:"total_score"`
}

// Elapsed returns end_time - start_time in seconds, clamped at zero.
func (g GameData) Elapsed() uint64 {
	if g.EndTime < g.StartTime {
		return 0
	}
	return uint64(g.EndTime - g.StartTime)
}

// Ended reports whether the contract stamped an end time.
func (g GameData) Ended() bool {
	return g.EndTime != 0
}

// GameCoins lists the coin tiles left on the current floor.
type GameCoins struct {
	GameID uint32 `json:"game_id"`
	Coins  []Vec2 `json:"coins"`
	Count  uint32 `json:"count"`
}

// Has reports whether a coin lies on tile.
func (c GameCoins) Has(tile Vec2) bool {
	for _, coin := range c.Coins {
		if coin == tile {
			return true
		}
	}
	return false
}

// U64 decodes u64 fields that Torii sends either as JSON numbers or as hex strings.
type U64 uint64

func (u *U64) UnmarshalJSON(b []byte) error {
	var n uint64
	if err := json.Unmarshal(b, &n); err == nil {
		*u = U64(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode u64: %w", err)
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	if s == "" {
		*u = 0
		return nil
	}
	parsed, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return fmt.Errorf("decode u64: %w", err)
	}
	*u = U64(parsed)
	return nil
}
