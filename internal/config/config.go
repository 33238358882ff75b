// Package config provides configuration types, defaults and validation for
// interdiff-go.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/thiagokokada/interdiff-go/internal/tracing"
)

var ErrConfig = errors.New("config error")

const (
	DefaultPageSize     = 25
	DefaultContextLines = 3
	DefaultRemote       = "origin"
)

type Config struct {
	// Repo is the local repository used to resolve revisions.
	Repo string `mapstructure:"repo" yaml:"repo"`
	// Trunk bounds the "to" side of a comparison. Empty means auto
	// detection.
	Trunk  string `mapstructure:"trunk" yaml:"trunk"`
	Remote string `mapstructure:"remote" yaml:"remote"`
	// Fetch selects how missing commits are fetched: "native" or "cli".
	Fetch           string         `mapstructure:"fetch" yaml:"fetch"`
	PageSize        int            `mapstructure:"page_size" yaml:"page_size"`
	Theme           string         `mapstructure:"theme" yaml:"theme"`
	SyntaxHighlight bool           `mapstructure:"syntax_highlight" yaml:"syntax_highlight"`
	Watch           bool           `mapstructure:"watch" yaml:"watch"`
	Diff            DiffConfig     `mapstructure:"diff" yaml:"diff"`
	Tracing         tracing.Config `mapstructure:"tracing" yaml:"tracing"`
	LogFile         string         `mapstructure:"log_file" yaml:"log_file"`
	Verbose         bool           `mapstructure:"verbose" yaml:"verbose"`
	// Tokens come from the environment and are never written back.
	Tokens Tokens `mapstructure:"tokens" yaml:"-"`
}

type DiffConfig struct {
	ContextLines int `mapstructure:"context_lines" yaml:"context_lines"`
	// Exclude holds doublestar patterns, e.g. "**/*.lock".
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`
}

type Tokens struct {
	GitHub    string `mapstructure:"github" yaml:"-"`
	Bitbucket string `mapstructure:"bitbucket" yaml:"-"`
}

func Defaults() Config {
	return Config{
		Remote:          DefaultRemote,
		Fetch:           "native",
		PageSize:        DefaultPageSize,
		Theme:           "auto",
		SyntaxHighlight: true,
		Watch:           true,
		Diff: DiffConfig{
			ContextLines: DefaultContextLines,
		},
		Tracing: tracing.Config{
			Exporter:     tracing.ExporterFile,
			OTLPEndpoint: tracing.DefaultOTLPEndpoint,
		},
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.PageSize < 0 {
		errs = append(errs, fmt.Errorf("page_size must not be negative, got %d", c.PageSize))
	}
	if c.Diff.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("diff.context_lines must not be negative, got %d", c.Diff.ContextLines))
	}
	if !slices.Contains([]string{"", "auto", "light", "dark"}, c.Theme) {
		errs = append(errs, fmt.Errorf("theme must be auto, light or dark, got %q", c.Theme))
	}
	if !slices.Contains([]string{"", "native", "cli"}, c.Fetch) {
		errs = append(errs, fmt.Errorf("fetch must be native or cli, got %q", c.Fetch))
	}
	for _, pattern := range c.Diff.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("diff.exclude: invalid pattern %q", pattern))
		}
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case tracing.ExporterNone, tracing.ExporterStdout, tracing.ExporterOTLP:
		case tracing.ExporterFile:
			if c.Tracing.FilePath == "" {
				errs = append(errs, errors.New("tracing.file_path is required for the file exporter"))
			}
		default:
			errs = append(errs, fmt.Errorf("tracing.exporter: unknown exporter %q", c.Tracing.Exporter))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConfig, errors.Join(errs...))
}

// DefaultPath returns the user config location, honouring XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: locate config directory: %w", ErrConfig, err)
	}
	return filepath.Join(dir, "interdiff-go", "config.yaml"), nil
}
