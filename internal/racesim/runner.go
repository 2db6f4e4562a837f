package racesim

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tvemc/raceline/pkg/logger"
)

// File permission constants.
const (
	outputFilePermission = 0600
)

// Run executes the complete race-day simulation: course setup, pass
// submission, then a results fetch with placement verification.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}
	log := logger.Get()

	log.Info(ctx, "starting race simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("runners", config.NumRunners),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, config, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	if err := setupCourse(ctx, config, client); err != nil {
		return fmt.Errorf("course setup failed: %w", err)
	}

	runners := generateRunners(ctx, config, stats)
	passes := generatePasses(ctx, runners, stats)

	if err := submitPasses(ctx, config, client, passes, stats); err != nil {
		return fmt.Errorf("pass submission failed: %w", err)
	}

	log.Info(ctx, "waiting for passes to be routed and recorded")
	time.Sleep(ProcessingDelay)

	rows, err := fetchResults(ctx, config, client, stats)
	if err != nil {
		return fmt.Errorf("results retrieval failed: %w", err)
	}

	if err := verifyResults(ctx, config, runners, rows, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	if config.OutputFile != "" {
		if err := savePassesToFile(ctx, config, passes); err != nil {
			log.Warn(ctx, "failed to save passes to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	log.Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config, client *HTTPClient) error {
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// setupCourse registers distance miles and wave starts. Starts are backdated
// so every simulated finish lands after its start regardless of when the
// simulation runs.
func setupCourse(ctx context.Context, config *Config, client *HTTPClient) error {
	start := time.Now().Add(-24 * time.Hour).Format("2006-01-02 15:04:05")

	for _, d := range simDistances {
		code, err := client.postJSON(ctx, config.BaseURL+"/distances", map[string]interface{}{
			"distance_code": d.code,
			"miles":         d.miles,
		})
		if err != nil || code != StatusOK {
			return fmt.Errorf("setting miles for %s: status %d, err %w", d.code, code, err)
		}

		code, err = client.postJSON(ctx, config.BaseURL+"/starts/distance", map[string]interface{}{
			"distance_code": d.code,
			"start_ts":      start,
		})
		if err != nil || code != StatusOK {
			return fmt.Errorf("setting start for %s: status %d, err %w", d.code, code, err)
		}
	}

	logger.Get().Info(ctx, "course configured",
		logger.Int("distances", len(simDistances)),
		logger.String("waveStart", start))
	return nil
}

// savePassesToFile saves the generated passes as a JSON array.
func savePassesToFile(ctx context.Context, config *Config, passes []PassSubmission) error {
	data, err := json.MarshalIndent(passes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal passes: %w", err)
	}
	if err := os.WriteFile(config.OutputFile, data, outputFilePermission); err != nil {
		return fmt.Errorf("failed to write passes file: %w", err)
	}
	logger.Get().Info(ctx, "passes saved to file", logger.String("filename", config.OutputFile))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var passesPerSecond float64
	if stats.Duration > 0 {
		passesPerSecond = float64(stats.PassesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("runnersGenerated", stats.RunnersGenerated),
		logger.Int("passesGenerated", stats.PassesGenerated),
		logger.Int("passesSubmitted", stats.PassesSubmitted),
		logger.Int("passesSuccessful", stats.PassesSuccessful),
		logger.Int("passesDuplicate", stats.PassesDuplicate),
		logger.Int("passesFailed", stats.PassesFailed),
		logger.Int("resultRows", stats.ResultRows),
		logger.Int("finishers", stats.Finishers),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("passesPerSecond", passesPerSecond))
}
