// Package systems wraps the depths_of_dread actions contract entrypoints.
package systems

import (
	"context"
	"errors"
	"strconv"

	"depths/internal/dojo"
	"depths/internal/models"
)

// ActionsTag is the manifest tag of the actions contract.
const ActionsTag = models.Namespace + "-actions"

var ErrNotConfigured = errors.New("system calls not configured")

// Calls dispatches actions contract entrypoints as the configured account.
type Calls struct {
	dispatcher dojo.TransactionDispatcher
	actions    string
}

// New returns Calls bound to the actions contract at address.
func New(dispatcher dojo.TransactionDispatcher, actions string) *Calls {
	return &Calls{dispatcher: dispatcher, actions: actions}
}

// FromManifest resolves the actions contract address from m.
func FromManifest(dispatcher dojo.TransactionDispatcher, m *dojo.Manifest) (*Calls, error) {
	addr, err := m.ContractAddress(ActionsTag)
	if err != nil {
		return nil, err
	}
	return New(dispatcher, addr), nil
}

// CreatePlayer registers the account under username.
func (c *Calls) CreatePlayer(ctx context.Context, username string) (dojo.TxHash, error) {
	felt, err := models.StringToFelt(username)
	if err != nil {
		return "", err
	}
	return c.execute(ctx, "create_player", felt)
}

// CreateGame starts a new game session for the account.
func (c *Calls) CreateGame(ctx context.Context) (dojo.TxHash, error) {
	return c.execute(ctx, "create_game")
}

// Move steps the player one tile in direction.
func (c *Calls) Move(ctx context.Context, direction models.Direction) (dojo.TxHash, error) {
	return c.execute(ctx, "move", "0x"+strconv.FormatUint(uint64(direction), 16))
}

// EndGame ends the current game session.
func (c *Calls) EndGame(ctx context.Context) (dojo.TxHash, error) {
	return c.execute(ctx, "end_game")
}

func (c *Calls) execute(ctx context.Context, entrypoint string, calldata ...string) (dojo.TxHash, error) {
	if c == nil || c.dispatcher == nil {
		return "", ErrNotConfigured
	}
	if calldata == nil {
		calldata = []string{}
	}
	return c.dispatcher.Execute(ctx, dojo.Call{
		To:         c.actions,
		Entrypoint: entrypoint,
		Calldata:   calldata,
	})
}
