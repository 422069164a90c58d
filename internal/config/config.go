// Package config loads and validates the site configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the source root.
const DefaultFileName = "elyse.yaml"

// ErrorMode selects how the build pipeline reacts to per-document errors.
type ErrorMode string

const (
	// ErrorModeBestEffort collects errors and finishes the pass.
	ErrorModeBestEffort ErrorMode = "best-effort"
	// ErrorModeAbort stops the pass on the first error.
	ErrorModeAbort ErrorMode = "abort"
)

// Config represents the site configuration.
type Config struct {
	Site      SiteConfig     `yaml:"site"`
	Content   ContentConfig  `yaml:"content"`
	Templates TemplateConfig `yaml:"templates"`
	Markdown  MarkdownConfig `yaml:"markdown"`
	Build     BuildConfig    `yaml:"build"`
	Serve     ServeConfig    `yaml:"serve"`
	Store     StoreConfig    `yaml:"store"`
	Notify    NotifyConfig   `yaml:"notify"`
}

// SiteConfig carries site-wide values exposed to templates.
type SiteConfig struct {
	Title    string         `yaml:"title"`
	BaseURL  string         `yaml:"base_url,omitempty"`
	Author   string         `yaml:"author,omitempty"`
	PageSize int            `yaml:"page_size,omitempty"`
	Params   map[string]any `yaml:"params,omitempty"`
}

// ContentConfig describes the content tree.
type ContentConfig struct {
	Dir        string   `yaml:"dir"`
	StaticDir  string   `yaml:"static_dir"`
	Extensions []string `yaml:"extensions,omitempty"`
	Drafts     bool     `yaml:"drafts"`
	// Future publishes documents dated ahead of the build time. When off,
	// such documents appear once a later pass crosses their date.
	Future bool `yaml:"future"`
}

// TemplateConfig describes the template tree and fallback template.
type TemplateConfig struct {
	Dir     string `yaml:"dir"`
	Default string `yaml:"default"`
}

// MarkdownConfig tunes the markdown renderer.
type MarkdownConfig struct {
	HighlightStyle string `yaml:"highlight_style"`
}

// BuildConfig controls a build pass.
type BuildConfig struct {
	OutputDir string    `yaml:"output_dir"`
	ErrorMode ErrorMode `yaml:"error_mode"`
	Workers   int       `yaml:"workers,omitempty"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
	// RepublishInterval is a time.ParseDuration string; future-dated
	// documents are published when a scheduled rebuild passes their date.
	RepublishInterval string `yaml:"republish_interval"`
}

// StoreConfig controls the build history and render cache database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig controls build report publication over NATS.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title:    "My Site",
			PageSize: 10,
		},
		Content: ContentConfig{
			Dir:        "content",
			StaticDir:  "static",
			Extensions: []string{".md", ".markdown"},
		},
		Templates: TemplateConfig{
			Dir:     "templates",
			Default: "page.html",
		},
		Markdown: MarkdownConfig{
			HighlightStyle: "github",
		},
		Build: BuildConfig{
			OutputDir: "public",
			ErrorMode: ErrorModeBestEffort,
		},
		Serve: ServeConfig{
			Addr:              ":8080",
			RepublishInterval: "5m",
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    ".elyse/history.db",
		},
		Notify: NotifyConfig{
			Subject: "elyse.builds",
		},
	}
}

// Load reads the configuration file, expands environment variables in it,
// and fills unset values from Default. A missing file is an error; callers
// that allow running without a file use Default directly.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	// Unmarshal over the defaults so absent keys keep their default value.
	config := Default()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks enum fields and parseable values.
func (c *Config) Validate() error {
	switch c.Build.ErrorMode {
	case ErrorModeBestEffort, ErrorModeAbort:
	case "":
		c.Build.ErrorMode = ErrorModeBestEffort
	default:
		return fmt.Errorf("build.error_mode must be %q or %q, got %q",
			ErrorModeBestEffort, ErrorModeAbort, c.Build.ErrorMode)
	}

	if c.Site.PageSize <= 0 {
		return fmt.Errorf("site.page_size must be positive, got %d", c.Site.PageSize)
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("build.workers must not be negative, got %d", c.Build.Workers)
	}
	if c.Serve.RepublishInterval != "" {
		if _, err := time.ParseDuration(c.Serve.RepublishInterval); err != nil {
			return fmt.Errorf("serve.republish_interval is not a duration: %w", err)
		}
	}
	if c.Notify.Enabled && c.Notify.URL == "" {
		return fmt.Errorf("notify.enabled requires notify.url")
	}
	return nil
}

// RepublishInterval returns the parsed serve.republish_interval, falling
// back to five minutes. Validate has already rejected unparseable values.
func (c *Config) RepublishInterval() time.Duration {
	d, err := time.ParseDuration(c.Serve.RepublishInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

const exampleConfig = `# elyse site configuration

site:
  title: "My Site"
  base_url: "https://example.com"
  # author: "Jane Doe"
  # page_size: 10

content:
  dir: content
  static_dir: static
  # extensions: [".md", ".markdown"]
  # drafts: false

templates:
  dir: templates
  default: page.html

markdown:
  # Any chroma style name, see https://xyproto.github.io/splash/docs/
  highlight_style: github

build:
  output_dir: public
  # error_mode: best-effort | abort
  error_mode: best-effort
  # workers: 0 means one per CPU

serve:
  addr: ":8080"
  republish_interval: 5m

store:
  enabled: true
  path: .elyse/history.db

# notify:
#   enabled: true
#   url: nats://localhost:4222
#   subject: elyse.builds
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
