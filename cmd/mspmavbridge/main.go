package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	log "github.com/sirupsen/logrus"

	"github.com/flightpath-dev/mspmav-bridge/internal/config"
	"github.com/flightpath-dev/mspmav-bridge/internal/dispatch"
	"github.com/flightpath-dev/mspmav-bridge/internal/mavtransport"
	"github.com/flightpath-dev/mspmav-bridge/internal/metrics"
	"github.com/flightpath-dev/mspmav-bridge/internal/msp"
	"github.com/flightpath-dev/mspmav-bridge/internal/scheduler"
	"github.com/flightpath-dev/mspmav-bridge/internal/translator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		listSerial bool
		systemID   int
	)

	flag.StringVar(&cfg.MSP.SerialPort, "serial-port", cfg.MSP.SerialPort, "Serial device the flight controller is attached to")
	flag.IntVar(&cfg.MSP.BaudRate, "baud", cfg.MSP.BaudRate, "Serial baud rate")
	flag.StringVar(&cfg.MAVLink.Listen, "mavlink-listen", cfg.MAVLink.Listen, "MAVLink endpoint (udpin:, udpout:, udpbcast:, tcpin:, tcpout: host:port, or serial:device:baud, or file:path)")
	flag.IntVar(&systemID, "mavlink-system-id", int(cfg.MAVLink.SystemID), "MAVLink system id to stamp on outbound frames")
	flag.StringVar(&cfg.Logging.Level, "loglevel", cfg.Logging.Level, "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.Metrics.Addr, "metrics-addr", cfg.Metrics.Addr, "host:port for the metrics/debug HTTP server (empty disables it)")
	flag.StringVar(&cfg.RatesFile, "rates-file", cfg.RatesFile, "Optional YAML file of startup message rates")
	flag.BoolVar(&listSerial, "list-serial", false, "List available serial ports and exit")
	flag.Parse()

	cfg.MAVLink.SystemID = uint8(systemID)
	if flag.NArg() > 0 {
		// Positional <serialport> argument, per spec.md §6's
		// "mspmavbridge [flags] <serialport>" invocation; it overrides
		// --serial-port when both are given.
		cfg.MSP.SerialPort = flag.Arg(0)
	}

	if listSerial {
		ports, err := msp.ListSerialPorts()
		if err != nil {
			log.Fatalf("list-serial: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	switch cfg.Logging.Level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("unrecognized log level: %v", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("mspmavbridge: %v", err)
	}
}

func run(cfg *config.Config) error {
	t0 := time.Now()

	log.WithFields(log.Fields{
		"serial_port": cfg.MSP.SerialPort,
		"baud":        cfg.MSP.BaudRate,
	}).Info("opening MSP serial link")

	port, err := msp.OpenSerial(cfg.MSP.SerialPort, cfg.MSP.BaudRate)
	if err != nil {
		return fmt.Errorf("open serial: %w", err)
	}
	defer port.Close()

	if err := port.ResetInputBuffer(); err != nil {
		log.WithError(err).Warn("could not reset serial input buffer")
	}
	if err := port.ResetOutputBuffer(); err != nil {
		log.WithError(err).Warn("could not reset serial output buffer")
	}

	conn := msp.NewConn(port)
	sched := scheduler.New(200)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	dispatch.WireMetrics(conn, m)

	if err := dispatch.Startup(conn, sched); err != nil {
		return fmt.Errorf("startup preconditions: %w", err)
	}
	log.Info("MSP link verified, heartbeat scheduled")

	endpoint, err := mavtransport.ParseEndpoint(cfg.MAVLink.Listen)
	if err != nil {
		return fmt.Errorf("parse mavlink endpoint: %w", err)
	}

	transport, err := mavtransport.Open(mavtransport.Config{
		Endpoints: []gomavlib.EndpointConf{endpoint},
		SystemID:  cfg.MAVLink.SystemID,
		QueueSize: 16,
	})
	if err != nil {
		return fmt.Errorf("open mavlink transport: %w", err)
	}
	defer transport.Close()

	if err := dispatch.WaitForPeer(transport, 30*time.Second); err != nil {
		log.WithError(err).Warn("no MAVLink peer connected yet, continuing anyway")
	}

	if cfg.RatesFile != "" {
		applyRateTable(cfg.RatesFile, sched)
	}

	registry := translator.NewRegistry()
	tcfg := translator.Config{SystemID: cfg.MAVLink.SystemID, T0: t0}
	loop := dispatch.New(sched, conn, transport, registry, tcfg, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down gracefully")
		cancel()
	}()

	if m != nil && cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("metrics server exited")
			}
		}()
	}

	log.Info("entering dispatch loop")
	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("dispatch loop: %w", err)
	}
	return nil
}

func applyRateTable(path string, sched *scheduler.Schedule) {
	table, err := config.LoadRateTable(path)
	if err != nil {
		log.WithError(err).Warn("could not load rates file, skipping")
		return
	}
	for _, entry := range table.Rates {
		id, ok := translator.NameToID[entry.Message]
		if !ok {
			log.WithField("message", entry.Message).Warn("rates file: unknown message name, skipping")
			continue
		}
		if err := sched.Insert(id, entry.Hz); err != nil {
			log.WithError(err).WithField("message", entry.Message).Warn("rates file: could not schedule message")
		}
	}
}
