package host

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/tetratelabs/wazero"
)

const (
	// DefaultModuleName is the instance name of a loaded evaluator module.
	DefaultModuleName = "evaluator"

	// DefaultMaxRequestSize limits the request written into module memory.
	DefaultMaxRequestSize = 16 * 1024 * 1024 // 16 MiB

	// DefaultMemoryLimitPages caps module memory at 256 MiB, above the
	// module's own 100 MiB allocation ceiling.
	DefaultMemoryLimitPages = 4096
)

// validate is a package-level singleton for better performance.
var validate = validator.New()

// Config holds the resolved executor configuration.
type Config struct {
	Logger           *slog.Logger            `validate:"required"`
	CompilationCache wazero.CompilationCache `validate:"-"`
	ModuleName       string                  `validate:"required,printascii"`
	MaxRequestSize   uint32                  `validate:"gt=0"`
	MemoryLimitPages uint32                  `validate:"gt=0,lte=65536"`
}

// Option configures an Executor.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Logger:           slog.Default(),
		ModuleName:       DefaultModuleName,
		MaxRequestSize:   DefaultMaxRequestSize,
		MemoryLimitPages: DefaultMemoryLimitPages,
	}
}

// WithModuleName sets the name under which evaluator instances are
// registered in the runtime. Each instance gets a numeric suffix.
func WithModuleName(name string) Option {
	return func(c *Config) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the largest request, in bytes, an Instance will
// write into module memory.
func WithMaxRequestSize(size uint32) Option {
	return func(c *Config) {
		c.MaxRequestSize = size
	}
}

// WithMemoryLimitPages caps module memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *Config) {
		c.MemoryLimitPages = pages
	}
}

// WithLogger sets the logger for host-side events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithCompilationCache shares compiled modules across executors.
func WithCompilationCache(cache wazero.CompilationCache) Option {
	return func(c *Config) {
		c.CompilationCache = cache
	}
}

func newConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid executor config: %w", err)
	}
	return cfg, nil
}
