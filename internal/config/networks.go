package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"time-release-helper/internal/extrinsic"
	"time-release-helper/internal/models"
)

//go:embed networks.yml
var defaultNetworks []byte

// NetworkConfig describes one supported chain
type NetworkConfig struct {
	Name      models.NetworkName `yaml:"name"`
	Prefix    uint16             `yaml:"prefix"`
	Endpoint  string             `yaml:"endpoint"`
	Reference ReferenceConfig    `yaml:"reference"`
	Calls     CallsConfig        `yaml:"calls"`
	MaxWeight models.Weight      `yaml:"max_weight"`
}

// ReferenceConfig is the pinned block used for date estimates
type ReferenceConfig struct {
	Block     uint64        `yaml:"block"`
	Timestamp time.Time     `yaml:"timestamp"`
	Interval  time.Duration `yaml:"interval"`
}

// CallsConfig holds the runtime call indices
type CallsConfig struct {
	TimeReleaseTransfer extrinsic.CallIndex `yaml:"time_release_transfer"`
	MultisigAsMulti     extrinsic.CallIndex `yaml:"multisig_as_multi"`
}

type networksFile struct {
	Networks []NetworkConfig `yaml:"networks"`
}

// LoadNetworks reads the network registry from path, or the built-in one when path is empty
func LoadNetworks(path string) ([]NetworkConfig, error) {
	data := defaultNetworks
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read networks file: %w", err)
		}
		data = b
	}
	return ParseNetworks(data)
}

// ParseNetworks decodes and validates a network registry
func ParseNetworks(data []byte) ([]NetworkConfig, error) {
	var file networksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse networks: %w", err)
	}
	if len(file.Networks) == 0 {
		return nil, fmt.Errorf("no networks configured")
	}

	seen := make(map[uint16]bool)
	for _, n := range file.Networks {
		if n.Name == "" {
			return nil, fmt.Errorf("network with prefix %d has no name", n.Prefix)
		}
		if seen[n.Prefix] {
			return nil, fmt.Errorf("prefix %d is configured twice", n.Prefix)
		}
		seen[n.Prefix] = true
		if err := n.ChainReference().Validate(); err != nil {
			return nil, fmt.Errorf("network %s: %w", n.Name, err)
		}
	}
	return file.Networks, nil
}

// ChainReference converts the pinned reference
func (n NetworkConfig) ChainReference() models.ChainReference {
	return models.ChainReference{
		BlockHeight:   n.Reference.Block,
		Timestamp:     n.Reference.Timestamp.UTC(),
		BlockInterval: n.Reference.Interval,
	}
}

// Builder returns the call builder for this network
func (n NetworkConfig) Builder(maxWeight *models.Weight) *extrinsic.Builder {
	weight := n.MaxWeight
	if maxWeight != nil {
		weight = *maxWeight
	}
	return &extrinsic.Builder{
		Prefix:      n.Prefix,
		TimeRelease: n.Calls.TimeReleaseTransfer,
		AsMulti:     n.Calls.MultisigAsMulti,
		MaxWeight:   weight,
	}
}

// References maps every configured prefix to its chain reference
func (c *Config) References() map[uint16]models.ChainReference {
	refs := make(map[uint16]models.ChainReference, len(c.Networks))
	for _, n := range c.Networks {
		refs[n.Prefix] = n.ChainReference()
	}
	return refs
}

// NetworkByPrefix finds a network by its SS58 prefix
func (c *Config) NetworkByPrefix(prefix uint16) (NetworkConfig, error) {
	for _, n := range c.Networks {
		if n.Prefix == prefix {
			return n, nil
		}
	}
	return NetworkConfig{}, fmt.Errorf("%w: prefix %d", models.ErrUnsupportedChain, prefix)
}

// NetworkByName finds a network by name, case-insensitively
func (c *Config) NetworkByName(name string) (NetworkConfig, error) {
	for _, n := range c.Networks {
		if strings.EqualFold(n.Name.String(), name) {
			return n, nil
		}
	}
	return NetworkConfig{}, fmt.Errorf("%w: %s", models.ErrUnsupportedChain, name)
}
