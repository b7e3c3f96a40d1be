package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/stream-master-go/api"
	"github.com/yourusername/stream-master-go/internal/app"
	"github.com/yourusername/stream-master-go/internal/domain"
	"github.com/yourusername/stream-master-go/internal/hls"
	"github.com/yourusername/stream-master-go/internal/infrastructure"
	"github.com/yourusername/stream-master-go/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	configPath = flag.String("config", "", "Path to configuration file")
)

func main() {
	flag.Parse()

	// If not in server mode, run as daemon
	if !*serverMode {
		startAsDaemon()
		return
	}

	// Run as server (called by daemon)
	runServer()
}

// startAsDaemon forks the current process and runs the server in background
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize pipeline logger: %v\n", err)
		os.Exit(1)
	}
	defer multiLog.Close()

	log.Info("Starting Stream Master server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("completed_dir", config.Download.CompletedDir))

	// Initialize history repository
	var history domain.HistoryRepository
	var sqliteRepo *infrastructure.SQLiteHistoryRepository
	if config.History.DatabasePath != "" {
		sqliteRepo, err = infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
		if err != nil {
			log.Fatal("Failed to initialize history repository", zap.Error(err))
		}
		defer sqliteRepo.Close()
		history = sqliteRepo
	}

	// Initialize remux engine
	engine, err := infrastructure.NewFFmpegEngine(&config.Engine, log)
	if err != nil {
		log.Fatal("Failed to initialize remux engine", zap.Error(err))
	}
	defer engine.Close()

	// Initialize delivery
	delivery, err := infrastructure.NewFileDelivery(config.Download.CompletedDir, log)
	if err != nil {
		log.Fatal("Failed to initialize delivery", zap.Error(err))
	}

	// Initialize notification service
	var notifier *infrastructure.NotificationService
	if config.Notification.Enabled {
		notifier = infrastructure.NewNotificationService(&config.Notification, log)
	}

	// Initialize playback resolver when credentials are configured
	var resolver domain.StreamResolver
	if config.Resolver.AccountID != "" && config.Resolver.PolicyKey != "" {
		resolver = infrastructure.NewPlaybackResolver(&config.Resolver, log)
	}

	// Wire the pipeline
	tracker := app.NewTracker()
	fetcher := hlsFetcher(config, log)
	pipeline := app.NewPipeline(tracker, fetcher, engine, delivery, history, notifier, multiLog, log)

	// Setup HTTP router
	router := api.SetupRouter(tracker, pipeline, resolver, history, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal")

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop accepting requests, then abort in-flight jobs
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	pipeline.Shutdown()

	log.Info("Server exited")
}

func hlsFetcher(config *domain.Config, log *zap.Logger) *hls.Fetcher {
	return hls.NewFetcher(
		config.Download.FetchTimeout,
		config.Download.SegmentRetries,
		config.Download.RetryDelay,
		log,
	)
}
