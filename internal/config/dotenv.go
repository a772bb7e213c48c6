package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from the given .env file. A
// missing file is not an error so deployments can rely on the real
// environment alone.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads the .env file at envFile (if present) and then reads
// configuration from the environment.
func LoadConfig(envFile string) (AppConfig, error) {
	if err := LoadDotEnv(envFile); err != nil {
		return AppConfig{}, err
	}
	env, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, fmt.Errorf("failed to process environment: %w", err)
	}
	return env.ToAppConfig(), nil
}
