package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that loads wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables from the first readable .env file.
// Existing process environment variables are never overwritten.
func loadEnvFile() (string, error) {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return "", fmt.Errorf("load %s: %w", name, err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no .env file found")
}
