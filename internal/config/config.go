package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 16 * 1024 * 1024 // 16MB, the upload limit of the web form
	DefaultReportDir   = "reports"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "MCP_WERS"
)

// EnvFiles are read from the working directory in order, later files
// overriding earlier ones. Real environment variables and flags win over both.
var EnvFiles = []string{".env", ".env.local"}

// Config holds all configuration for the WERS reader
type Config struct {
	// Server configuration
	Mode string // "server" (HTTP upload form) or "stdio" (MCP)
	Host string
	Port int

	// DocumentDirectory confines the paths MCP clients may read
	DocumentDirectory string
	// ReportDirectory receives one report artifact per analysis
	ReportDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum document size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		DocumentDirectory: currentDir,
		ReportDirectory:   filepath.Join(currentDir, DefaultReportDir),
		Version:           "1.0.0",
		ServerName:        "mcp-wers-reader",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	return Load(pflag.CommandLine, viper.GetViper(), os.Args[1:])
}

// Load resolves the configuration from args, the MCP_WERS_* environment, the
// env files and the defaults, in that order of precedence
func Load(flags *pflag.FlagSet, v *viper.Viper, args []string) (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(v, cfg)
	if err := loadEnvFiles(v, EnvFiles...); err != nil {
		return nil, err
	}
	defineCommandLineFlags(flags, cfg)
	bindFlagsToViper(v, flags)
	setupUsageMessage(flags)

	if err := checkVersionFlag(args); err != nil {
		return nil, err
	}

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	for _, dir := range []*string{&cfg.DocumentDirectory, &cfg.ReportDirectory} {
		if *dir == "" {
			continue
		}
		if expanded, err := filepath.Abs(*dir); err == nil {
			*dir = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.DocumentDirectory)
	v.SetDefault("reportdir", cfg.ReportDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// loadEnvFiles turns the MCP_WERS_* keys of each existing file into viper
// defaults, so the process environment is left untouched
func loadEnvFiles(v *viper.Viper, files ...string) error {
	for _, name := range files {
		values, err := godotenv.Read(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		for key, value := range values {
			if setting, ok := strings.CutPrefix(key, envPrefix+"_"); ok {
				v.SetDefault(strings.ToLower(setting), value)
			}
		}
	}
	return nil
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for the HTTP upload form")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.String("dir", cfg.DocumentDirectory, "Directory containing WERS documents")
	flags.String("reportdir", cfg.ReportDirectory, "Directory receiving analysis reports")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	for _, name := range []string{"mode", "host", "port", "dir", "reportdir", "loglevel", "maxfilesize"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet) {
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP WERS Reader - reconciles WERS option codes against DOCX and PDF documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/wers                      "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --reportdir=/var/reports   # upload form\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081  # form on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MCP_WERS_MODE        Server mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_WERS_HOST        Server host\n")
		fmt.Fprintf(os.Stderr, "  MCP_WERS_PORT        Server port\n")
		fmt.Fprintf(os.Stderr, "  MCP_WERS_DIR         Document directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_WERS_REPORTDIR   Report directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_WERS_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  MCP_WERS_MAXFILESIZE Maximum file size\n")
		fmt.Fprintf(os.Stderr, "\nThe same variables may be set in .env or .env.local.\n")
	}
}

// ErrVersionRequested is returned by Load when a version flag is present
var ErrVersionRequested = errors.New("version requested")

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) error {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.DocumentDirectory = v.GetString("dir")
	cfg.ReportDirectory = v.GetString("reportdir")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}
	if c.ReportDirectory == "" {
		return errors.New("report directory cannot be empty")
	}

	if err := ensureDirectory("document", c.DocumentDirectory); err != nil {
		return err
	}
	if err := ensureDirectory("report", c.ReportDirectory); err != nil {
		return err
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

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

func ensureDirectory(kind, dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create %s directory %s: %w", kind, dir, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access %s directory %s: %w", kind, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s directory %s is not a directory", kind, dir)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DocumentDirectory: %s, ReportDirectory: %s, "+
		"LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.DocumentDirectory, c.ReportDirectory, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the HTTP upload server should run
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the MCP stdio server should run
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
