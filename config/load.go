package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	apperr "github.com/vortex-fintech/supvx2/errors"
	"github.com/vortex-fintech/supvx2/validator"
)

const opLoad = "config.load"

// Options controls where settings are read from.
type Options struct {
	// EnvFile is an optional dotenv file. Empty means DefaultEnvFile.
	// A missing file is not an error.
	EnvFile string
}

// Load reads settings from the environment (and EnvFile), then validates them.
// Every failure is a configuration error.
func Load(opts Options) (*Settings, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, apperr.Configuration(opLoad, err)
	}

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, apperr.Configuration(opLoad, err)
	}

	if fields := validator.Validate(s); fields != nil {
		return nil, apperr.Configuration(opLoad, fmt.Errorf("invalid settings: %s", validator.Summary(fields)))
	}

	return &s, nil
}

// loadEnvFile copies dotenv values into the process environment
// without overriding variables that are already set.
func loadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

// Provider loads settings once and hands out the same instance afterwards.
type Provider struct {
	opts Options

	once     sync.Once
	settings *Settings
	err      error
}

func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts}
}

// Get returns the settings loaded on the first call. The first error is sticky.
func (p *Provider) Get() (*Settings, error) {
	p.once.Do(func() {
		p.settings, p.err = Load(p.opts)
	})
	return p.settings, p.err
}
