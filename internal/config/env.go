package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by the CLI
const (
	EnvGateway  = "MTCAP_GATEWAY"
	EnvUsername = "MTCAP_USERNAME"
	EnvPassword = "MTCAP_PASSWORD"
	EnvLogLevel = "MTCAP_LOG_LEVEL"
	EnvTimeout  = "MTCAP_TIMEOUT"
	EnvInsecure = "MTCAP_INSECURE"
)

// Env holds connection settings taken from the environment
type Env struct {
	Gateway  string
	Username string
	Password string
	LogLevel string
	Timeout  time.Duration
	Insecure *bool
}

// LoadDotEnv loads variables from the given .env files (default ".env") into
// the process environment. Variables already set are not overridden and
// missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// LoadEnv reads the MTCAP_* variables.
func LoadEnv() (*Env, error) {
	env := &Env{
		Gateway:  os.Getenv(EnvGateway),
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
		LogLevel: os.Getenv(EnvLogLevel),
	}

	if value := os.Getenv(EnvTimeout); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid %s %q (want a positive duration such as 30s)", EnvTimeout, value)
		}
		env.Timeout = timeout
	}

	if value := os.Getenv(EnvInsecure); value != "" {
		insecure, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q (want true or false)", EnvInsecure, value)
		}
		env.Insecure = &insecure
	}

	return env, nil
}
