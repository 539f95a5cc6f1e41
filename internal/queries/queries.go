// Package queries builds the indexer queries the client issues and decodes
// their results into models.
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"depths/internal/dojo"
	"depths/internal/models"
)

var ErrNotFound = errors.New("entity not found")

const (
	gameDataFields    = "game_id player start_time end_time floor_reached total_score"
	gameFloorFields   = "game_id size { x y } path end_tile { x y }"
	gameCoinsFields   = "game_id coins { x y } count"
	playerStateFields = "player game_id current_floor position { x y } coins"
	playerDataFields  = "player username current_game_id total_games_played total_games_won highest_score"
)

// GameData selects the aggregates of one game.
func GameData(gameID uint32) dojo.Query {
	return byGame(models.ModelGameData, gameDataFields, gameID)
}

// GameFloor selects the current floor of one game.
func GameFloor(gameID uint32) dojo.Query {
	return byGame(models.ModelGameFloor, gameFloorFields, gameID)
}

// GameCoins selects the coins left on the current floor of one game.
func GameCoins(gameID uint32) dojo.Query {
	return byGame(models.ModelGameCoins, gameCoinsFields, gameID)
}

// PlayerState selects the in-game state of a player.
func PlayerState(player string) dojo.Query {
	return byPlayer(models.ModelPlayerState, playerStateFields, player)
}

// PlayerData selects the profile of a player.
func PlayerData(player string) dojo.Query {
	return byPlayer(models.ModelPlayerData, playerDataFields, player)
}

func byGame(model, fields string, gameID uint32) dojo.Query {
	return dojo.Query{
		Namespace: models.Namespace,
		Model:     model,
		Where:     map[string]any{"game_id": gameID},
		Selection: fields,
		Limit:     1,
	}
}

func byPlayer(model, fields, player string) dojo.Query {
	return dojo.Query{
		Namespace: models.Namespace,
		Model:     model,
		Where:     map[string]any{"player": player},
		Selection: fields,
		Limit:     1,
	}
}

// Decode extracts model from an entity of the game namespace.
func Decode[T any](entity dojo.Entity, model string) (T, error) {
	var out T
	raw, ok := entity.Model(models.Namespace, model)
	if !ok {
		return out, fmt.Errorf("%w: %s", ErrNotFound, model)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", model, err)
	}
	return out, nil
}

// FetchOne runs q and decodes the first result. Error responses from the
// indexer are returned as *dojo.QueryError; an empty result is ErrNotFound.
func FetchOne[T any](ctx context.Context, source dojo.EntityQuerySource, q dojo.Query) (T, error) {
	var (
		out    T
		cbErr  error
		got    bool
		result T
	)
	err := source.GetEntities(ctx, q, func(resp dojo.Response) {
		if resp.Error != nil {
			cbErr = resp.Error
			return
		}
		if len(resp.Data) == 0 {
			return
		}
		result, cbErr = Decode[T](resp.Data[0], q.Model)
		got = cbErr == nil
	})
	if err != nil {
		return out, err
	}
	if cbErr != nil {
		return out, cbErr
	}
	if !got {
		return out, fmt.Errorf("%w: %s", ErrNotFound, q.Model)
	}
	return result, nil
}
