package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RateEntry requests that a named MAVLink message be scheduled at a
// given frequency at startup, in addition to the mandatory 1 Hz
// heartbeat (which is always inserted regardless of what this file
// contains).
type RateEntry struct {
	Message string  `yaml:"message"`
	Hz      float64 `yaml:"hz"`
}

// RateTable is the parsed contents of the optional rates file.
type RateTable struct {
	Rates []RateEntry `yaml:"rates"`
}

// LoadRateTable loads a startup message-rate table from a YAML file.
func LoadRateTable(path string) (*RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read rate table: %w", err)
	}

	var table RateTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("config: parse rate table: %w", err)
	}
	return &table, nil
}
