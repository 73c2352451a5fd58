package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	dconfig "license-report/domain/config"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "./config.yml"

// Load parses the YAML configuration file at path on top of the built-in defaults.
// Sections absent from the file keep their default values.
func Load(path string) (*dconfig.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := dconfig.Default()
	defaultCatalog := c.Catalog
	c.Catalog = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(c.Catalog) == 0 {
		c.Catalog = defaultCatalog
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return c, nil
}

// Resolve loads .env (if any), then the file named by CONFIG_PATH (default ./config.yml).
// A missing file falls back to the built-in defaults.
func Resolve() (*dconfig.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config.dotenv.error", "error", err)
	}
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config.defaults", "reason", "no config file", "path", path)
		return dconfig.Default(), nil
	}
	return c, err
}

// EnsureFolders creates the upload, output and invalid folders.
func EnsureFolders(c *dconfig.Config) error {
	for _, dir := range []string{c.Folders.Upload, c.Folders.Output, c.Folders.Invalid} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create folder %s: %w", dir, err)
		}
	}
	return nil
}
