// Package config holds the bridge's runtime configuration: the MSP
// serial link, the MAVLink transport endpoint, logging, and metrics.
package config

import (
	"fmt"
)

// Config holds all application configuration.
type Config struct {
	MSP       MSPConfig
	MAVLink   MAVLinkConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
	RatesFile string // optional path to a YAML file of startup message rates
}

// MSPConfig describes the serial link to the flight controller.
type MSPConfig struct {
	SerialPort string
	BaudRate   int
}

// MAVLinkConfig describes the bridge's MAVLink-side identity and
// transport endpoint.
type MAVLinkConfig struct {
	Listen   string // connection endpoint, e.g. "udpbcast:0.0.0.0:14550"
	SystemID uint8
}

type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "text"
}

// MetricsConfig controls the debug/metrics HTTP server.
type MetricsConfig struct {
	Addr    string // empty disables the server
	Enabled bool
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		MSP: MSPConfig{
			SerialPort: "/dev/ttyUSB0",
			BaudRate:   115200,
		},
		MAVLink: MAVLinkConfig{
			Listen:   "udpbcast:0.0.0.0:14550",
			SystemID: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr:    ":9091",
			Enabled: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MSP.BaudRate <= 0 {
		return fmt.Errorf("invalid msp baud rate: %d", c.MSP.BaudRate)
	}
	if c.MSP.SerialPort == "" {
		return fmt.Errorf("msp serial port must be set")
	}
	if c.MAVLink.Listen == "" {
		return fmt.Errorf("mavlink listen endpoint must be set")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
