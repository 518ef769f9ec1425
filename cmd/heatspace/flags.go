package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Debug       bool
	MetricsPort int
	Limit       int
	Message     string
	ShowVersion bool
	ShowHelp    bool
	Command     string
	Args        []string
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("HEATSPACE_CONFIG", "configs/heatspace.json"),
		"Path to configuration file (env: HEATSPACE_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("HEATSPACE_CONFIG", "configs/heatspace.json"),
		"Path to configuration file (env: HEATSPACE_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("HEATSPACE_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: HEATSPACE_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("HEATSPACE_LOG_FORMAT", "json"),
		"Log format: json, text (env: HEATSPACE_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("HEATSPACE_DEBUG", false),
		"Enable debug mode (env: HEATSPACE_DEBUG)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("HEATSPACE_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: HEATSPACE_METRICS_PORT)")

	flag.IntVar(&cfg.Limit, "limit", 100,
		"Maximum readings to load (readings command)")

	flag.StringVar(&cfg.Message, "message", "",
		"Message to include in the access request (request command)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	// Custom usage
	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	// Override log level if debug is set
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	cfg.Command = flag.Arg(0)
	if flag.NArg() > 1 {
		cfg.Args = flag.Args()[1:]
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	// Validate config file exists
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	// Validate log format
	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	// Validate metrics port
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	validCommands := []string{"discover", "readings", "latest", "request", "decisions", "watch"}
	if cfg.Command == "" || !contains(validCommands, cfg.Command) {
		return fmt.Errorf("unknown command: %q (want one of %v)", cfg.Command, validCommands)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Federated Temperature Source Explorer

Usage: %s [options] <command> [args]

Commands:
  discover              Walk the registries and list temperature sources
  readings <accessURL>  Load readings from a source (see --limit)
  latest <accessURL>    Load the most recent reading from a source
  request <key>         Send an access request for a discovered source
  decisions             Poll access decisions once and print per-source state
  watch                 Poll access decisions on an interval until interrupted

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Discover sources with a custom config
  %s --config=/path/to/config.json discover

  # Load the 50 most recent readings
  %s --limit=50 readings https://pod.example/owner/files/temp-1.json

  # Request access with a message
  %s --message="research project" request temp-1

  # Watch decisions with debug logging
  %s --log-level=debug --log-format=text watch

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
