package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/receipt-ocr/internal/config"
	"github.com/zombor/receipt-ocr/internal/logger"
	"github.com/zombor/receipt-ocr/internal/receipt"
	"github.com/zombor/receipt-ocr/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Error().Err(err).Msg("Exiting")
		os.Exit(1)
	}
}

// run parses the configuration and either serves HTTP or, with a "scan"
// argument, processes local files and prints the results
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	cfg, err := config.Parse(args)
	if err != nil {
		flags, _ := config.NewFlagSet()
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(flags, "receipt-ocr [FLAGS] [scan FILE...]"))
		if errors.Is(err, ff.ErrHelp) {
			return nil
		}
		return err
	}

	if cfg.ShowVersion {
		fmt.Fprintln(stdout, version)
		return nil
	}

	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}

	scanner, err := newScanner(ctx, cfg)
	if err != nil {
		return err
	}
	defer scanner.Close()

	service := receipt.NewService(scanner, cfg.MaxUploadBytes)

	if len(cfg.Args) > 0 {
		if cfg.Args[0] != "scan" || len(cfg.Args) < 2 {
			return fmt.Errorf("usage: receipt-ocr [FLAGS] scan FILE...")
		}
		return scanFiles(ctx, service, cfg.Args[1:], stdout)
	}

	return serve(ctx, cfg, service)
}

// newScanner builds the OCR backend selected in the configuration
func newScanner(ctx context.Context, cfg *config.Config) (scanning.Scanner, error) {
	l := logger.WithComponent("scanner")

	var (
		scanner scanning.Scanner
		err     error
	)
	switch cfg.Scanner {
	case config.ScannerMistral:
		l.Info().Str("url", cfg.MistralURL).Str("model", cfg.MistralModel).Msg("Initializing Mistral scanner...")
		scanner, err = scanning.NewMistral(cfg.MistralURL, cfg.MistralKey, cfg.MistralModel)
	case config.ScannerGemini:
		l.Info().Str("model", cfg.GeminiModel).Msg("Initializing Gemini scanner...")
		scanner, err = scanning.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	case config.ScannerOllama:
		l.Info().Str("url", cfg.OllamaURL).Str("model", cfg.OllamaModel).Msg("Initializing Ollama scanner...")
		scanner, err = scanning.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	case config.ScannerTesseract:
		l.Info().Strs("languages", cfg.TesseractLanguages).Msg("Initializing Tesseract scanner...")
		scanner, err = scanning.NewTesseract(cfg.TesseractLanguages...)
	case config.ScannerVision:
		l.Info().Msg("Initializing Google Vision scanner...")
		scanner, err = scanning.NewVision(ctx, cfg.VisionCredentials)
	default:
		return nil, fmt.Errorf("invalid scanner type %q", cfg.Scanner)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s scanner: %w", cfg.Scanner, err)
	}
	return scanner, nil
}

// serve runs the HTTP server until ctx is canceled, then shuts it down
func serve(ctx context.Context, cfg *config.Config, service *receipt.Service) error {
	server := receipt.NewServer(service, receipt.ServerConfig{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: cfg.CORSCredentials,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Info().Str("address", fmt.Sprintf("http://localhost%s", addr)).Str("version", version).Msg("Server started")
	return g.Wait()
}

// scanFiles runs each file through the service and writes one JSON result
// per file
func scanFiles(ctx context.Context, service *receipt.Service, paths []string, stdout io.Writer) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		scan, err := service.Scan(ctx, path, data)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if err := enc.Encode(scan); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	}
	return nil
}
