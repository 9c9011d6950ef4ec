package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup lê a variável e aplica parse; vazio ou inválido cai no default.
func lookup[T any](name string, parse func(string) (T, error), defaultValue []T) T {
	var zero T
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return zero
	}

	value, err := parse(raw)
	if err != nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return zero
	}
	return value
}

// GetString extracts a String value from the given environment variable
func GetString(name string, defaultValue ...string) string {
	return lookup(name, func(s string) (string, error) { return s, nil }, defaultValue)
}

// MustGetString extracts a String value from the given environment variable
// It panics if the environment variable is not present
func MustGetString(name string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		panic(fmt.Sprintf("%s can't be empty", name))
	}
	return value
}

// GetStrings splits a comma separated variable, dropping empty items
func GetStrings(name string, defaultValue ...[]string) []string {
	return lookup(name, func(s string) ([]string, error) {
		var out []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	}, defaultValue)
}

func GetInt(name string, defaultValue ...int) int {
	return lookup(name, strconv.Atoi, defaultValue)
}

func GetFloat(name string, defaultValue ...float64) float64 {
	return lookup(name, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }, defaultValue)
}

func GetBool(name string, defaultValue ...bool) bool {
	return lookup(name, strconv.ParseBool, defaultValue)
}

// GetDuration accepts Go durations ("5s", "1m") or a bare number of seconds
func GetDuration(name string, defaultValue ...time.Duration) time.Duration {
	return lookup(name, func(s string) (time.Duration, error) {
		if seconds, err := strconv.Atoi(s); err == nil {
			return time.Duration(seconds) * time.Second, nil
		}
		return time.ParseDuration(s)
	}, defaultValue)
}
