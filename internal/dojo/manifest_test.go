package dojo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestJSON = `{
  "world": {"address": "0x0525"},
  "contracts": [
    {"address": "0x0abc", "tag": "depths_of_dread-actions", "systems": ["create_player", "create_game", "move", "end_game"]}
  ]
}`

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest_dev.json")
	require.NoError(t, os.WriteFile(path, []byte(manifestJSON), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "0x0525", m.World.Address)

	addr, err := m.ContractAddress("depths_of_dread-actions")
	require.NoError(t, err)
	assert.Equal(t, "0x0abc", addr)

	_, err = m.ContractAddress("depths_of_dread-shop")
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
