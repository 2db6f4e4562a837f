package racesim

import "time"

// Config holds configuration for a simulated race day.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumRunners int           // Number of runners to simulate
	Workers    int           // Number of concurrent submit workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated passes
	LogFile    string        // Log file for simulator output
	Verbose    bool          // Enable verbose logging
}

// PassSubmission mirrors the POST /passes request schema.
type PassSubmission struct {
	ClientRef    string  `json:"client_ref"`
	Bib          int     `json:"bib"`
	DistanceCode string  `json:"distance_code"`
	StationCode  string  `json:"station_code"`
	PassType     string  `json:"pass_type"`
	Operator     string  `json:"operator"`
	Note         string  `json:"note"`
	Age          float64 `json:"age"`
	Gender       string  `json:"gender"`
}

// ResultRow mirrors the fields of GET /results the simulator verifies.
type ResultRow struct {
	Bib          int    `json:"bib"`
	DistanceCode string `json:"distance_code"`
	StationCode  string `json:"station_code"`
	PassType     string `json:"pass_type"`
	FinishTime   string `json:"finish_time"`
	ElapsedTotal string `json:"elapsed_total"`
	AvgPace      string `json:"avg_pace"`
	GenderPlace  string `json:"gender_place"`
	OverallPlace int    `json:"overall_place"`
}

// AckResponse is the response from pass submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds simulation statistics.
type Stats struct {
	RunnersGenerated int
	PassesGenerated  int
	PassesSubmitted  int
	PassesSuccessful int
	PassesDuplicate  int
	PassesFailed     int
	ResultRows       int
	Finishers        int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
