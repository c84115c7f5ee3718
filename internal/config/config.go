package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeHTTP  = "http"
	ModeStdio = "stdio"

	// Default values
	DefaultPort        = 80
	DefaultHost        = "0.0.0.0"
	DefaultEnvironment = "development"
	DefaultLogLevel    = "info"
	DefaultMaxBodySize = 50 * 1024 * 1024 // 50MB, the JSON body limit of the original service

	// DefaultEnvFile is loaded when present
	DefaultEnvFile = ".env"
)

// Config holds all configuration for the PDF form service
type Config struct {
	// Server configuration
	Mode string // "http" or "stdio"
	Host string
	Port int

	// Environment is a display label only, it has no behavioral effect
	Environment string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxBodySize int64 // Maximum request body size in bytes

	// CountUnchecked makes unchecked checkboxes count in fields_processed
	CountUnchecked bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeHTTP,
		Host:        DefaultHost,
		Port:        DefaultPort,
		Environment: DefaultEnvironment,
		Version:     "1.0.0",
		ServerName:  "pdf-form-filler",
		LogLevel:    DefaultLogLevel,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	return Load(pflag.CommandLine, os.Args[1:])
}

// Load builds a configuration from defaults, an optional .env file, the
// environment and the given flag set, in increasing order of precedence
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)
	setupUsageMessage(fs)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvFile loads variables from path without overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	// Set environment variable prefix
	v.SetEnvPrefix("PDF_FORM")
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("environment", cfg.Environment)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxbodysize", cfg.MaxBodySize)
	v.SetDefault("countunchecked", cfg.CountUnchecked)

	// Unprefixed names used by common hosting platforms
	_ = v.BindEnv("port", "PDF_FORM_PORT", "PORT")
	_ = v.BindEnv("environment", "PDF_FORM_ENVIRONMENT", "NODE_ENV", "APP_ENV")
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Front-end: 'http' for the REST service, 'stdio' for MCP standard I/O")
	fs.String("host", cfg.Host, "Listen address (http mode only)")
	fs.Int("port", cfg.Port, "Listen port (http mode only)")
	fs.String("environment", cfg.Environment, "Environment label reported by /health")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxbodysize", cfg.MaxBodySize, "Maximum request body size in bytes")
	fs.Bool("countunchecked", cfg.CountUnchecked, "Count unchecked checkboxes in fields_processed")
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Form Filler - fill, flatten and inspect PDF forms over HTTP or MCP\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # HTTP on 0.0.0.0:80 (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --port=8080              # HTTP on port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio             # MCP tools over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PORT, PDF_FORM_PORT              Listen port\n")
		fmt.Fprintf(os.Stderr, "  NODE_ENV, PDF_FORM_ENVIRONMENT   Environment label\n")
		fmt.Fprintf(os.Stderr, "  PDF_FORM_MODE                    Front-end\n")
		fmt.Fprintf(os.Stderr, "  PDF_FORM_HOST                    Listen address\n")
		fmt.Fprintf(os.Stderr, "  PDF_FORM_LOGLEVEL                Log level\n")
		fmt.Fprintf(os.Stderr, "  PDF_FORM_MAXBODYSIZE             Maximum body size\n")
		fmt.Fprintf(os.Stderr, "  PDF_FORM_COUNTUNCHECKED          Count unchecked checkboxes\n")
		fmt.Fprintf(os.Stderr, "\nVariables may also be set in a %s file.\n", DefaultEnvFile)
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.Environment = v.GetString("environment")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxBodySize = v.GetInt64("maxbodysize")
	cfg.CountUnchecked = v.GetBool("countunchecked")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeHTTP && c.Mode != ModeStdio {
		return errors.New("mode must be either 'http' or 'stdio'")
	}

	// Validate port range (only for http mode)
	if c.Mode == ModeHTTP && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate max body size
	if c.MaxBodySize <= 0 {
		return errors.New("maximum body size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Environment: %s, LogLevel: %s, MaxBodySize: %d, CountUnchecked: %t}",
		c.Mode, c.Host, c.Port, c.Environment, c.LogLevel, c.MaxBodySize, c.CountUnchecked)
}

// IsHTTPMode returns true if the REST service should be started
func (c *Config) IsHTTPMode() bool {
	return c.Mode == ModeHTTP
}

// IsStdioMode returns true if the MCP stdio front-end should be started
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
