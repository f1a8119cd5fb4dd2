package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nao1215/salesbot/internal/model"
)

// Environment variables holding the intranet credentials.
const (
	EnvUsername = "BOT_USERNAME"
	EnvPassword = "BOT_PASSWORD"
)

// Fallback credentials used when the environment does not provide them.
// They are the published demo account of the RobotSpareBin intranet.
const (
	FallbackUsername = "maria"
	FallbackPassword = "thoushallnotpass" //nolint:gosec // public demo account
)

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set are left untouched. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadCredentials resolves the login pair from getenv, falling back to the
// built-in defaults for any value that is unset or empty.
func LoadCredentials(getenv func(string) string) model.Credentials {
	creds := model.Credentials{
		Username: getenv(EnvUsername),
		Password: getenv(EnvPassword),
	}
	if creds.Username == "" {
		creds.Username = FallbackUsername
		creds.FromFallback = true
	}
	if creds.Password == "" {
		creds.Password = FallbackPassword
		creds.FromFallback = true
	}
	return creds
}
