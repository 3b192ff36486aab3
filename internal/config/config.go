// Package config loads the YAML file describing the monitor roster and
// client behavior for the command line tool.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/gander/internal/monitor"
)

// DefaultPort is the conventional livestatus TCP port, used when a monitor
// entry does not set one.
const DefaultPort = 6557

// Monitor is one roster entry. Name falls back to the address when empty.
type Monitor struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
}

// Config is the full file layout.
type Config struct {
	Monitors []Monitor `yaml:"monitors"`
	Parallel bool      `yaml:"parallel"`
	Workers  int       `yaml:"workers"`
	Log      Log       `yaml:"log"`
}

// Log holds logging preferences for the process.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if len(cfg.Monitors) == 0 {
		return nil, fmt.Errorf("config %s lists no monitors", path)
	}
	for i := range cfg.Monitors {
		m := &cfg.Monitors[i]
		if m.Address == "" {
			return nil, fmt.Errorf("config %s: monitor %d has no address", path, i)
		}
		if m.Port == 0 {
			m.Port = DefaultPort
		}
		if m.Port < 1 || m.Port > 65535 {
			return nil, fmt.Errorf("config %s: monitor %q has invalid port %d", path, m.Address, m.Port)
		}
	}
	return &cfg, nil
}

// Nodes converts the roster entries into client-ready nodes.
func (c *Config) Nodes() []monitor.Node {
	nodes := make([]monitor.Node, 0, len(c.Monitors))
	for _, m := range c.Monitors {
		nodes = append(nodes, monitor.New(m.Address, m.Port, m.Name))
	}
	return nodes
}
