package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL    = "https://api.notion.com"
	defaultOutputDir = "export"
	defaultFormat    = "markdown"
	defaultPageSize  = 100
)

// Config holds everything a conversion run needs. Values resolve in order:
// defaults, then the config file, then environment variables.
type Config struct {
	Token     string `yaml:"token"`
	APIURL    string `yaml:"api_url"`
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
	PageSize  int    `yaml:"page_size"`
}

func defaults() Config {
	return Config{
		APIURL:    defaultAPIURL,
		OutputDir: defaultOutputDir,
		Format:    defaultFormat,
		PageSize:  defaultPageSize,
	}
}

// Load reads configuration from an optional YAML file and the environment.
// An empty path skips the file; a named file that does not exist is an
// error. NOTION_TOKEN and NOTION_API_URL override anything from the file.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.merge(file)
	}

	cfg.merge(Config{
		Token:  os.Getenv("NOTION_TOKEN"),
		APIURL: os.Getenv("NOTION_API_URL"),
	})

	return cfg, nil
}

// merge overlays non-zero fields from other onto c.
func (c *Config) merge(other Config) {
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.APIURL != "" {
		c.APIURL = other.APIURL
	}
	if other.OutputDir != "" {
		c.OutputDir = other.OutputDir
	}
	if other.Format != "" {
		c.Format = other.Format
	}
	if other.PageSize > 0 {
		c.PageSize = other.PageSize
	}
}

// ErrMissingToken means no API token was found in the file or environment.
var ErrMissingToken = errors.New("missing Notion API token: set NOTION_TOKEN or the token config field")

// Validate checks the fields no run can proceed without.
func (c Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page_size %d out of range 1-100", c.PageSize)
	}
	return nil
}
