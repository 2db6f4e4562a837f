package racesim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/tvemc/raceline/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "race_sim_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the race simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Raceline Race-Day Simulator
===========================

Generates a simulated field of runners, submits their passage scans, and
verifies the derived results against what was submitted.

Usage:
  go run cmd/race-sim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -runners int
        Number of runners to simulate (default 200)
  -workers int
        Number of concurrent submit workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Optional output file for generated passes (JSON)
  -log string
        Log file for simulator output (default: race_sim_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/race-sim/main.go

  # A bigger field against a remote host
  go run cmd/race-sim/main.go -runners 2000 -workers 16 -url http://timing:9080

  # Keep the generated passes for replay
  go run cmd/race-sim/main.go -output passes.json
`)
}
