package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Network describes one chain deployment the bridge can front. The system
// address owns the coin framework module; the native coin never requires a
// descriptor lookup.
type Network struct {
	Name          string     `yaml:"name"`
	Blockchain    string     `yaml:"blockchain"`
	ChainID       uint64     `yaml:"chain_id"`
	SystemAddress string     `yaml:"system_address"`
	Native        NativeCoin `yaml:"native"`
}

type NativeCoin struct {
	CoinType string `yaml:"coin_type"`
	Symbol   string `yaml:"symbol"`
	Decimals uint64 `yaml:"decimals"`
}

type networksFile struct {
	Networks []Network `yaml:"networks"`
}

func defaultNetworks() []Network {
	return []Network{
		{
			Name:          "mainnet",
			Blockchain:    "aptos",
			ChainID:       1,
			SystemAddress: "0x1",
			Native: NativeCoin{
				CoinType: "0x1::aptos_coin::AptosCoin",
				Symbol:   "APT",
				Decimals: 8,
			},
		},
		{
			Name:          "testnet",
			Blockchain:    "aptos",
			ChainID:       2,
			SystemAddress: "0x1",
			Native: NativeCoin{
				CoinType: "0x1::aptos_coin::AptosCoin",
				Symbol:   "APT",
				Decimals: 8,
			},
		},
	}
}

// ResolveNetwork returns the network entry selected by cfg.Network, reading
// cfg.NetworksFile when set and falling back to the built-in registry.
func ResolveNetwork(cfg Config) (Network, error) {
	networks := defaultNetworks()
	if cfg.NetworksFile != "" {
		loaded, err := loadNetworksFile(cfg.NetworksFile)
		if err != nil {
			return Network{}, err
		}
		networks = loaded
	}
	for _, network := range networks {
		if network.Name == cfg.Network {
			if err := validateNetwork(network); err != nil {
				return Network{}, err
			}
			return network, nil
		}
	}
	return Network{}, fmt.Errorf("unknown network %q", cfg.Network)
}

func loadNetworksFile(path string) ([]Network, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read networks file: %w", err)
	}
	var file networksFile
	if err := yaml.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("parse networks file: %w", err)
	}
	if len(file.Networks) == 0 {
		return nil, fmt.Errorf("networks file %s declares no networks", path)
	}
	return file.Networks, nil
}

func validateNetwork(network Network) error {
	if network.Blockchain == "" || network.SystemAddress == "" {
		return fmt.Errorf("network %q is missing blockchain or system_address", network.Name)
	}
	if network.Native.CoinType == "" || network.Native.Symbol == "" {
		return fmt.Errorf("network %q is missing its native coin", network.Name)
	}
	return nil
}
