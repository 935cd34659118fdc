package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by LOS_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("LOS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// HubbleH0 returns the default Hubble constant in km/s/Mpc, used when a
// run request does not supply its own. Defaults to the Planck 2018 value.
func HubbleH0() float64 {
	h0, err := strconv.ParseFloat(os.Getenv("HUBBLE_H0"), 64)
	if err != nil || h0 <= 0 {
		return 67.4
	}
	return h0
}

// OmegaM returns the default matter density parameter, used when a run
// request does not supply its own. Defaults to the Planck 2018 value.
func OmegaM() float64 {
	om, err := strconv.ParseFloat(os.Getenv("OMEGA_M"), 64)
	if err != nil || om <= 0 || om > 1 {
		return 0.315
	}
	return om
}

// PipelineWorkers returns the worker count for the per-halo loops.
// Zero means one worker per CPU.
func PipelineWorkers() int {
	w, err := strconv.Atoi(os.Getenv("PIPELINE_WORKERS"))
	if err != nil || w < 0 {
		return 0
	}
	return w
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
