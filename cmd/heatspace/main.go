// Package main implements the entry point for the heatspace client.
// Heatspace discovers temperature sources across a federated Solid data
// space, loads their readings, and manages access requests and decisions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hoelk-f/heatspace/access"
	"github.com/hoelk-f/heatspace/config"
	"github.com/hoelk-f/heatspace/discovery"
	"github.com/hoelk-f/heatspace/metric"
	"github.com/hoelk-f/heatspace/pkg/fetch"
	"github.com/hoelk-f/heatspace/readings"
	"github.com/hoelk-f/heatspace/statestore"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "heatspace"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Run application with proper error handling
	if err := run(); err != nil {
		slog.Error("Command failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; environment variables win over file values.
	_ = godotenv.Load()

	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}

	app, err := buildApp(cfg, cliCfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return app.dispatch(ctx, cliCfg)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Debug("Starting heatspace",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath,
		"command", cliCfg.Command)

	return cliCfg, false, nil
}

// app bundles the wired dependencies behind the subcommands.
type app struct {
	cfg      *config.Config
	resolver *discovery.Resolver
	loader   *readings.Loader
	writer   *access.RequestWriter
	reader   *access.DecisionReader
	store    access.Store
	metrics  *metric.Metrics
}

// buildApp wires the fetch client, state store, metrics, and the
// discovery/readings/access surfaces from configuration.
func buildApp(cfg *config.Config, cliCfg *CLIConfig) (*app, error) {
	logger := slog.Default()

	fetchOpts := []fetch.Option{fetch.WithTimeout(cfg.FetchTimeout())}
	if token := os.Getenv("HEATSPACE_TOKEN"); token != "" {
		fetchOpts = append(fetchOpts, fetch.WithTokenSource(fetch.StaticToken(token)))
	}
	client := fetch.New(fetchOpts...)

	store, err := statestore.OpenFileStore(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	metrics := metric.New()
	if err := serveMetrics(metrics, cliCfg.MetricsPort); err != nil {
		return nil, err
	}

	requester := access.Requester{
		WebID:   cfg.RequesterWebID,
		Name:    cfg.RequesterName,
		Contact: cfg.RequesterContact,
	}

	return &app{
		cfg: cfg,
		resolver: discovery.NewResolver(client,
			discovery.WithPresets(cfg.RegistryPresets),
			discovery.WithLogger(logger),
			discovery.WithMetrics(metrics)),
		loader:  readings.NewLoader(client, metrics),
		writer:  access.NewRequestWriter(client, requester, store, logger, metrics),
		reader:  access.NewDecisionReader(client, logger, metrics),
		store:   store,
		metrics: metrics,
	}, nil
}

// newPoller builds a decision poller over the app's reader and store.
func (a *app) newPoller(onUpdate access.UpdateFunc) *access.Poller {
	return access.NewPoller(a.reader, a.store, a.cfg.RequesterWebID, onUpdate,
		access.WithPollInterval(a.cfg.PollInterval()),
		access.WithPollerLogger(slog.Default()),
		access.WithPollerMetrics(a.metrics))
}

// serveMetrics exposes the Prometheus registry when a port is configured.
func serveMetrics(metrics *metric.Metrics, port int) error {
	if port == 0 {
		return nil
	}

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		addr := fmt.Sprintf(":%d", port)
		slog.Info("Serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return nil
}

func (a *app) dispatch(ctx context.Context, cliCfg *CLIConfig) error {
	switch cliCfg.Command {
	case "discover":
		return a.runDiscover(ctx)
	case "readings":
		return a.runReadings(ctx, cliCfg.Args, cliCfg.Limit)
	case "latest":
		return a.runLatest(ctx, cliCfg.Args)
	case "request":
		return a.runRequest(ctx, cliCfg.Args, cliCfg.Message)
	case "decisions":
		return a.runDecisions(ctx)
	case "watch":
		return a.runWatch(ctx)
	default:
		return fmt.Errorf("unknown command: %q", cliCfg.Command)
	}
}

func (a *app) runDiscover(ctx context.Context) error {
	sources := a.resolver.DiscoverSources(ctx, a.cfg.RequesterWebID)
	slog.Info("Discovery complete", "sources", len(sources))
	return printJSON(sources)
}

func (a *app) runReadings(ctx context.Context, args []string, limit int) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s readings <accessURL>", appName)
	}
	rows, err := a.loader.Load(ctx, args[0], limit)
	if err != nil {
		return err
	}
	return printJSON(rows)
}

func (a *app) runLatest(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s latest <accessURL>", appName)
	}
	row, err := a.loader.Latest(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(row)
}

func (a *app) runRequest(ctx context.Context, args []string, message string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s request <key>", appName)
	}
	key := args[0]

	source, err := a.findSource(ctx, key)
	if err != nil {
		return err
	}

	if err := a.writer.RequestAccess(ctx, source, message); err != nil {
		return err
	}
	slog.Info("Access request sent", "key", key, "owner", source.OwnerWebID)
	return nil
}

// findSource re-runs discovery and picks the source with the given key.
func (a *app) findSource(ctx context.Context, key string) (discovery.Source, error) {
	for _, source := range a.resolver.DiscoverSources(ctx, a.cfg.RequesterWebID) {
		if source.Key == key {
			return source, nil
		}
	}
	return discovery.Source{}, fmt.Errorf("no discovered source with key %q", key)
}

func (a *app) runDecisions(ctx context.Context) error {
	states, err := a.newPoller(nil).PollOnce(ctx)
	if err != nil {
		return err
	}
	return printJSON(states)
}

// runWatch polls on the configured interval and prints each state map
// until the context is cancelled by SIGINT or SIGTERM.
func (a *app) runWatch(ctx context.Context) error {
	onUpdate := func(states map[string]access.DecisionState) {
		if err := printJSON(states); err != nil {
			slog.Error("Failed to print decision states", "error", err)
		}
	}

	watcher := a.newPoller(onUpdate)
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	slog.Info("Watching decisions", "interval", a.cfg.PollInterval())

	<-ctx.Done()
	watcher.Stop()
	slog.Info("Watch stopped")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
