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
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/urlshow/internal/api/connect"
	"github.com/osa030/urlshow/internal/app/filter"
	"github.com/osa030/urlshow/internal/app/session"
	"github.com/osa030/urlshow/internal/domain/show"
	"github.com/osa030/urlshow/internal/infra/config"
	"github.com/osa030/urlshow/internal/infra/kvstore"
	"github.com/osa030/urlshow/internal/infra/logger"
)

var (
	app        = kingpin.New("urlshow-server", "URL slideshow server")
	configPath = app.Flag("config", "Path to config file (YAML or TOML)").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	shareQuery = app.Flag("share", "Share link or query string applied at startup").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	// Load config
	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

// loadConfig loads path, falling back to the defaults when it does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		zlog.Warn().Msgf("Config file not found, using defaults: path=%s", path)
		return config.Default()
	}
	zlog.Info().Msgf("Loading config from %s", path)
	return config.Load(path)
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Open settings store
	store, err := kvstore.NewFromConfig(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Error().Msgf("Failed to close settings store: %v", err)
		}
	}()

	// Destructive RPCs must carry a confirmation unless disabled
	confirmer := session.AlwaysConfirm
	if cfg.RequireConfirm() {
		confirmer = session.ContextConfirmer
	}

	// Create session manager
	sessionMgr, err := session.NewManager(cfg, session.Deps{
		Store:     store,
		Confirmer: confirmer,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	sessionMgr.AddRenderer(statusLogger{})

	if err := sessionMgr.Bootstrap(ctx, *shareQuery); err != nil {
		sessionMgr.Close()
		return fmt.Errorf("failed to bootstrap session: %w", err)
	}

	// Create RPC service
	slideshowService := apiconnect.NewSlideshowService(sessionMgr, cfg)

	// Create HTTP mux
	mux := http.NewServeMux()

	// Register service with control auth interceptor
	authInterceptor := apiconnect.NewControlAuthInterceptor(cfg)
	path, handler := apiconnect.NewSlideshowServiceHandler(
		slideshowService,
		connect.WithInterceptors(authInterceptor),
	)
	mux.Handle(path, handler)

	if cfg.Control.Token == "" {
		zlog.Warn().Msg("Control token not configured, every client may control the slideshow")
	}

	// Create server with h2c (HTTP/2 cleartext) support
	serverAddr := cfg.Server.Addr
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	// Start server
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		// Signal that we're about to start listening
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for server to start listening
	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	// Execute startup hook if configured (after server is running)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")
	defer executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		sessionMgr.Close()
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close session manager first to terminate active streams
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// statusLogger logs every rendered status at debug level.
type statusLogger struct{}

func (statusLogger) StateChanged(s show.Status) {
	zlog.Debug().Msgf("status: state=%s position=%d/%d url=%s fullscreen=%v controls=%v",
		s.State, s.Position(), len(s.URLs), s.CurrentURL, s.Fullscreen, s.ControlsVisible)
}

// printFilters prints available filters.
func printFilters() {
	registry := filter.GetRegistered()
	filters := make([]filter.Filter, 0, len(registry)+1)
	for _, factory := range registry {
		filters = append(filters, factory())
	}
	// Created with the playlist at runtime, so not in the registry.
	filters = append(filters, filter.NewDuplicateURLFilter(nil))
	slices.SortFunc(filters, func(a, b filter.Filter) int {
		return strings.Compare(a.Name(), b.Name())
	})

	fmt.Println("Available Filters:")
	for _, f := range filters {
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
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
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
