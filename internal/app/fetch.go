package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aydinmyilmaz/genai-newsflash/internal/cli"
	"github.com/aydinmyilmaz/genai-newsflash/internal/config"
	"github.com/aydinmyilmaz/genai-newsflash/internal/logging"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	pageURL := fs.String("url", "", "Page URL to fetch and extract")
	summarize := fs.Bool("summarize", false, "Also produce a model summary of the extracted content")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if strings.TrimSpace(*pageURL) == "" {
		fmt.Fprintln(os.Stderr, "--url is required")
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

	pageFetcher, summaryClient := buildExtraction(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	raw, err := pageFetcher.Fetch(ctx, strings.TrimSpace(*pageURL))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		return 1
	}

	if *summarize {
		content, _ := raw["content"].(string)
		summary, err := summaryClient.Summarize(ctx, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Summarize failed: %v\n", err)
			return 1
		}
		raw["summary"] = summary
	}

	encoded, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		return 1
	}
	fmt.Println(string(encoded))
	return 0
}
