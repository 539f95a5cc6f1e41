package dojo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrContractNotFound = errors.New("contract not found in manifest")

// Manifest is the subset of a sozo deployment manifest the client needs.
type Manifest struct {
	World struct {
		Address string `json:"address"`
	} `json:"world"`
	Contracts []ManifestContract `json:"contracts"`
}

// ManifestContract is one deployed system contract.
type ManifestContract struct {
	Address string   `json:"address"`
	Tag     string   `json:"tag"`
	Systems []string `json:"systems"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(b)
}

// ParseManifest parses manifest JSON.
func ParseManifest(b []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// ContractAddress returns the address of the contract with the given tag.
func (m *Manifest) ContractAddress(tag string) (string, error) {
	for _, c := range m.Contracts {
		if c.Tag == tag {
			return c.Address, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrContractNotFound, tag)
}
