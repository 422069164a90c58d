package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env.local then .env from the working directory.
// godotenv.Load never overrides variables already set in the process
// environment, so the precedence is process env > .env.local > .env.
func loadEnvFiles() {
	for _, envPath := range []string{".env.local", ".env"} {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			_, _ = os.Stderr.WriteString("warning: could not load " + envPath + ": " + err.Error() + "\n")
		}
	}
}
