package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aydinmyilmaz/genai-newsflash/internal/cli"
	"github.com/aydinmyilmaz/genai-newsflash/internal/config"
	"github.com/aydinmyilmaz/genai-newsflash/internal/db"
	"github.com/aydinmyilmaz/genai-newsflash/internal/logging"
	"github.com/aydinmyilmaz/genai-newsflash/internal/pipeline"
	payloadschema "github.com/aydinmyilmaz/genai-newsflash/schema"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	payloadFile := fs.String("file", "-", "Path to batch JSON file, or - for stdin")
	userEmail := fs.String("user", "", "Email to associate saved articles with (overrides user_email in the payload)")

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

	payload, err := readPayload(*payloadFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	req, err := payloadschema.ValidateBatchRequest(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	email := strings.TrimSpace(*userEmail)
	if email == "" {
		email = strings.TrimSpace(req.UserEmail)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	orchestrator, processor, err := buildPipeline(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	exitCode := 0
	if len(req.Articles) > 0 {
		result := orchestrator.Run(ctx, req.Articles, email)
		if code := printBatchResult(result); code != 0 {
			exitCode = code
		}
	}
	if len(req.URLs) > 0 {
		result := processor.Process(ctx, req.URLs, email)
		if code := printBatchResult(result); code != 0 {
			exitCode = code
		}
	}

	return exitCode
}

func readPayload(path string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("payload file path is empty")
	}

	var raw []byte
	var err error
	if trimmed == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload %q: %w", trimmed, err)
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("payload %q is empty", trimmed)
	}
	return json.RawMessage(raw), nil
}

func printBatchResult(result *pipeline.BatchResult) int {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		return 1
	}
	fmt.Println(string(encoded))

	if result == nil || !result.Success {
		return 1
	}
	return 0
}
