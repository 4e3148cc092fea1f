package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const defaultConfigFile = "config.json"

var validate = validator.New()

// LoadConfig loads configuration from the given path or the default config.json.
// A missing file yields defaults. Values from the environment (and a .env file in
// the working directory) override the file.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValidateConfig reports the first invalid field of cfg.
func ValidateConfig(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}
