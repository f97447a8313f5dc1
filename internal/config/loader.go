package config

import (
	"fmt"
	"os"
	"strconv"
)

// Load loads configuration from environment variables, falling back to
// defaults for any missing values. CLI flags are applied by the caller
// on top of the result (flags win over environment, per cmd/mspmavbridge).
func Load() (*Config, error) {
	cfg := Default()

	if port := os.Getenv("MSPMAV_SERIAL_PORT"); port != "" {
		cfg.MSP.SerialPort = port
	}

	if baud := os.Getenv("MSPMAV_BAUD"); baud != "" {
		b, err := strconv.Atoi(baud)
		if err != nil {
			return nil, fmt.Errorf("config: MSPMAV_BAUD: %w", err)
		}
		cfg.MSP.BaudRate = b
	}

	if listen := os.Getenv("MSPMAV_LISTEN"); listen != "" {
		cfg.MAVLink.Listen = listen
	}

	if sysID := os.Getenv("MSPMAV_SYSTEM_ID"); sysID != "" {
		id, err := strconv.Atoi(sysID)
		if err != nil {
			return nil, fmt.Errorf("config: MSPMAV_SYSTEM_ID: %w", err)
		}
		cfg.MAVLink.SystemID = uint8(id)
	}

	if logLevel := os.Getenv("MSPMAV_LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if metricsAddr := os.Getenv("MSPMAV_METRICS_ADDR"); metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	if ratesFile := os.Getenv("MSPMAV_RATES_FILE"); ratesFile != "" {
		cfg.RatesFile = ratesFile
	}

	return cfg, nil
}
