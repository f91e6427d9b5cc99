// Package env loads configuration from a .env file with OS-environment
// fallback. Keys used across the app: APP_* (host/port/url), DB_*,
// REDIS_*, RAZORPAY_* (key id/secret, webhook secret), AI_* (hint
// provider), CF_API_BASE_URL, SMTP_*, RATE_LIMIT_BACKEND.
package env

import (
	"os"

	"github.com/joho/godotenv"
)

var Env map[string]string

// GetEnv returns the configured value for key, preferring the loaded .env
// map over OS environment variables, or def when neither is set.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	// OS environment covers Docker and test runs without a .env file
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile reads the first .env file found walking up from the working
// directory. Binaries under cmd/ start two levels below the project root.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Project root
		"../../.env",    // From cmd/algorise or cmd/migrate
		"../../../.env", // Fallback for deeper nesting
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	panic("No .env file found in any of the expected locations")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
