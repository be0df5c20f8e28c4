package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aydinmyilmaz/genai-newsflash/internal/cli"
	"github.com/aydinmyilmaz/genai-newsflash/internal/config"
	"github.com/aydinmyilmaz/genai-newsflash/internal/db"
	"github.com/aydinmyilmaz/genai-newsflash/internal/httpapi"
	"github.com/aydinmyilmaz/genai-newsflash/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	addr := fs.String("addr", "", "Listen address (overrides HTTP_ADDR)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 5*time.Minute, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	orchestrator, processor, err := buildPipeline(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = cfg.HTTPAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(db.NewStore(pool), orchestrator, processor, logger, httpapi.Options{
		Addr:               listenAddr,
		ReadTimeout:        *readTimeout,
		WriteTimeout:       *writeTimeout,
		ShutdownTimeout:    *shutdownTimeout,
		CORSAllowedOrigins: cfg.CORSAllowedOriginsList(),
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("addr", listenAddr).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
