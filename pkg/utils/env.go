package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads the .env file for the given environment.
// APP_ENV=production loads .env.production, empty loads plain .env.
func LoadEnv(env string) error {
	if env != "" {
		name := fmt.Sprintf(".env.%s", strings.ToLower(env))
		if _, err := os.Stat(name); err == nil {
			return godotenv.Load(name)
		}
	}
	return godotenv.Load()
}

// GetEnv gets environment variable value
func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// GetIntEnv gets environment variable value as int64, returns 0 if unset or invalid
func GetIntEnv(key string) int64 {
	value := GetEnv(key)
	if value == "" {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// GetBoolEnv gets environment variable value as bool
func GetBoolEnv(key string) bool {
	switch strings.ToLower(GetEnv(key)) {
	case "1", "t", "true", "yes", "on":
		return true
	}
	return false
}
