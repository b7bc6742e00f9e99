package config

import (
	"os"
	"strconv"
)

// Config holds the engine tunables. Everything has a sane default so the
// engine runs with an empty environment.
type Config struct {
	// TopKAlternatives is how many substitutes the recommender returns
	// for an unsatisfied line.
	TopKAlternatives int
	// MaxLineWorkers bounds the per-line build parallelism of one order.
	MaxLineWorkers int
	// CurrencyPrecision is the number of decimal places totals are
	// rounded to.
	CurrencyPrecision int32
}

func Load() Config {
	return Config{
		TopKAlternatives:  getint("TOP_K_ALTERNATIVES", 3),
		MaxLineWorkers:    getint("MAX_LINE_WORKERS", 4),
		CurrencyPrecision: int32(getint("CURRENCY_PRECISION", 2)),
	}
}

func Default() Config {
	return Config{TopKAlternatives: 3, MaxLineWorkers: 4, CurrencyPrecision: 2}
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
