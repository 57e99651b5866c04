package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	c "tsa/service/api"
	"tsa/service/metrics"
	"tsa/service/sources"
)

const (
	DefaultAddr = ":8080"

	PriceSourceAlphaVantage = "alphavantage"
	PriceSourcePostgres     = "postgres"
)

// the buffer must reach back past at least one prior bar
var frequencyDefaults = map[sources.Frequency]struct {
	factor     int
	bufferDays int
}{
	sources.FrequencyDaily:   {metrics.Daily, 7},
	sources.FrequencyWeekly:  {metrics.Weekly, 21},
	sources.FrequencyMonthly: {metrics.Monthly, 62},
}

type Settings struct {
	AlphaVantageApiKey  string
	DatabaseUrl         string
	HttpAddr            string
	LogLevel            zerolog.Level
	PriceSource         string
	PriceFrequency      sources.Frequency
	AnnualizationFactor int
	ReturnsBuffer       time.Duration
	RiskFreeRate        float64
	AvRequestsPerMinute int
	AvWorkers           int
}

// LoadSettings reads the environment after loading any .env files given,
// missing files are ignored.
func LoadSettings(envFiles ...string) (Settings, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	s := Settings{
		AlphaVantageApiKey: os.Getenv("ALPHAVANTAGE_API_KEY"),
		DatabaseUrl:        os.Getenv("DATABASE_URL"),
		HttpAddr:           getEnv("HTTP_ADDR", DefaultAddr),
		PriceSource:        strings.ToLower(getEnv("PRICE_SOURCE", PriceSourceAlphaVantage)),
	}

	var err error
	if s.LogLevel, err = zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info"))); err != nil {
		return s, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if s.PriceFrequency, err = sources.ParseFrequency(os.Getenv("PRICE_FREQUENCY")); err != nil {
		return s, fmt.Errorf("invalid PRICE_FREQUENCY: %w", err)
	}
	defaults := frequencyDefaults[s.PriceFrequency]

	if s.AnnualizationFactor, err = getInt("ANNUALIZATION_FACTOR", defaults.factor); err != nil {
		return s, err
	}

	bufferDays, err := getInt("RETURNS_BUFFER_DAYS", defaults.bufferDays)
	if err != nil {
		return s, err
	}
	s.ReturnsBuffer = time.Duration(bufferDays) * 24 * time.Hour

	if s.RiskFreeRate, err = getFloat("RISK_FREE_RATE", 0); err != nil {
		return s, err
	}
	if s.AvRequestsPerMinute, err = getInt("AV_REQUESTS_PER_MINUTE", c.DefaultRequestsPerMinute); err != nil {
		return s, err
	}
	if s.AvWorkers, err = getInt("AV_WORKERS", sources.DefaultWorkers); err != nil {
		return s, err
	}

	return s, s.validate()
}

func (s Settings) validate() error {
	switch s.PriceSource {
	case PriceSourceAlphaVantage:
		if s.AlphaVantageApiKey == "" {
			return fmt.Errorf("ALPHAVANTAGE_API_KEY is required when PRICE_SOURCE is %s", s.PriceSource)
		}
	case PriceSourcePostgres:
		if s.DatabaseUrl == "" {
			return fmt.Errorf("DATABASE_URL is required when PRICE_SOURCE is %s", s.PriceSource)
		}
	default:
		return fmt.Errorf("unknown PRICE_SOURCE %q", s.PriceSource)
	}
	if s.PriceFrequency != sources.FrequencyDaily && s.PriceSource != PriceSourceAlphaVantage {
		return fmt.Errorf("PRICE_FREQUENCY %s requires PRICE_SOURCE %s", s.PriceFrequency, PriceSourceAlphaVantage)
	}
	if _, err := metrics.FrequencyName(s.AnnualizationFactor); err != nil {
		return fmt.Errorf("invalid ANNUALIZATION_FACTOR: %w", err)
	}
	if s.ReturnsBuffer < 0 {
		return fmt.Errorf("RETURNS_BUFFER_DAYS must not be negative")
	}
	if s.AvWorkers < 1 {
		return fmt.Errorf("AV_WORKERS must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	res, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return res, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	res, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return res, nil
}
