// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/playqueue/internal/api/httpapi"
	"github.com/osa030/playqueue/internal/app/executor"
	"github.com/osa030/playqueue/internal/app/metrics"
	"github.com/osa030/playqueue/internal/app/playback"
	"github.com/osa030/playqueue/internal/app/remote"
	"github.com/osa030/playqueue/internal/app/resolver"
	"github.com/osa030/playqueue/internal/domain/item"
	"github.com/osa030/playqueue/internal/infra/config"
	"github.com/osa030/playqueue/internal/infra/logger"
	"github.com/osa030/playqueue/internal/infra/simengine"
)

var (
	app        = kingpin.New("playqueue-server", "playqueue reference host")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-commands command
	listCommandsCmd = app.Command("list-commands", "List remote commands and resolver kinds and exit")
)

func init() {
	// start command (default)
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listCommandsCmd.FullCommand() {
		printCommands()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = closeLog() }()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	registry, err := resolver.NewRegistryFromConfig(cfg.Resolvers)
	if err != nil {
		return errors.Wrap(err, "failed to create resolvers")
	}

	playerConfig, err := playback.ConfigFrom(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid playback config")
	}

	engine := simengine.New(simengine.Config{
		TickInterval: cfg.Engine.TickInterval(),
		LoadLatency:  cfg.Engine.LoadLatency(),
	})
	loop := executor.NewLoop()
	exporter := metrics.NewExporter()

	// The loop is not running yet, so the player and bridge can be built here.
	player, err := playback.New(playback.Deps{
		Engine:   engine,
		Executor: loop,
		Resolver: registry,
		Sink:     exporter,
	}, playerConfig)
	if err != nil {
		return errors.Wrap(err, "failed to create player")
	}
	defer player.Close()

	if err := seedItems(player, cfg.Items); err != nil {
		return err
	}

	bridge := remote.ForPlayer(player)
	defer bridge.Close()

	api := httpapi.New(httpapi.Deps{
		Caller:   loop,
		Player:   player,
		Bridge:   bridge,
		Exporter: exporter,
		Token:    cfg.Server.Token,
	})
	if cfg.Server.Token == "" {
		zlog.Warn().Msg("No API token configured, remote control is unauthenticated")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error().Msgf("Executor stopped: %v", err)
		}
	}()
	go func() {
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error().Msgf("Engine stopped: %v", err)
		}
	}()

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(api.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-loop.Done():
		zlog.Warn().Msg("Executor stopped, shutting down...")
	case err := <-serverErrCh:
		cancel()
		<-loop.Done()
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop serving before the executor goes away so in-flight calls complete.
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	cancel()
	<-loop.Done()

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// seedItems appends the configured startup items to the queue.
func seedItems(player *playback.Player, items []config.ItemConfig) error {
	if len(items) == 0 {
		return nil
	}
	seeded := make([]*item.Item, 0, len(items))
	for _, ic := range items {
		seeded = append(seeded, item.New(item.Descriptor{
			Kind:     ic.Kind,
			Locator:  ic.Locator,
			Title:    ic.Title,
			Settings: ic.Settings,
		}))
	}
	if err := player.Append(seeded...); err != nil {
		return errors.Wrap(err, "failed to seed items")
	}
	zlog.Info().Msgf("Seeded queue: items=%d", len(seeded))
	return nil
}

// printCommands prints the remote commands and the built-in resolver kinds.
func printCommands() {
	fmt.Println("Remote Commands:")
	for _, c := range remote.GetRegistered() {
		fmt.Printf("  %-15s - %s\n", c.Name(), c.Description())
	}

	registry, err := resolver.NewRegistryFromConfig(config.DefaultResolvers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create resolvers: %v\n", err)
		return
	}
	kinds := registry.Kinds()
	slices.Sort(kinds)
	fmt.Println("Resolver Kinds:")
	for _, k := range kinds {
		fmt.Printf("  %s\n", k)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// sh -c allows redirection and pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
