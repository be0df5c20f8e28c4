package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aydinmyilmaz/genai-newsflash/internal/cli"
	"github.com/aydinmyilmaz/genai-newsflash/internal/config"
	"github.com/aydinmyilmaz/genai-newsflash/internal/db"
	"github.com/aydinmyilmaz/genai-newsflash/internal/links"
	"github.com/aydinmyilmaz/genai-newsflash/internal/logging"
)

func runDiscover(args []string) int {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	feedURL := fs.String("feed", "", "RSS or Atom feed URL")
	maxCount := fs.Int("max", 20, "Maximum number of links to return")
	ingest := fs.Bool("ingest", false, "Fetch, summarize, and save the discovered links")
	userEmail := fs.String("user", "", "Email to associate saved articles with")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if strings.TrimSpace(*feedURL) == "" {
		fmt.Fprintln(os.Stderr, "--feed is required")
		return 2
	}
	if *maxCount < 1 {
		fmt.Fprintln(os.Stderr, "--max must be >= 1")
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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	discoverer := links.NewDiscoverer(nil, logger)
	candidates, err := discoverer.Discover(ctx, strings.TrimSpace(*feedURL), *maxCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Discover failed: %v\n", err)
		return 1
	}

	if !*ingest {
		for _, candidate := range candidates {
			fmt.Printf("%s\t%s\t%s\n", candidate.URL, candidate.Published, candidate.Title)
		}
		return 0
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	_, processor, err := buildPipeline(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	urls := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		urls = append(urls, candidate.URL)
	}

	result := processor.Process(ctx, urls, strings.TrimSpace(*userEmail))
	return printBatchResult(result)
}
