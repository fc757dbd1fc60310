package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/transfer-tracker/internal/app"
	"github.com/dvloznov/transfer-tracker/internal/config"
	"github.com/dvloznov/transfer-tracker/internal/gcsuploader"
	"github.com/dvloznov/transfer-tracker/internal/logger"
	"github.com/dvloznov/transfer-tracker/internal/pdftext"
	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Transfer Tracker CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  extract   Extract transfers from text or a receipt PDF")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

type extractResult struct {
	Outcome   string              `json:"outcome"`
	Transfers []pipeline.Transfer `json:"transfers"`
	Error     string              `json:"error,omitempty"`
	Written   *int                `json:"written,omitempty"`
	Failed    []int               `json:"failed_records,omitempty"`
}

func runExtract(log zerolog.Logger) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	text := fs.String("text", "", "Message text to extract from")
	filePath := fs.String("file", "", "Path to a local receipt PDF")
	gcsURI := fs.String("gcs-uri", "", "GCS URI of a receipt PDF")
	model := fs.String("model", "", "Gemini model (defaults to GEMINI_MODEL or "+pipeline.DefaultModelName+")")
	write := fs.Bool("write", false, "Write the transfers to the configured ledger")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	source, err := sourceText(ctx, *text, *filePath, *gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	req := pipeline.ExtractionRequest{MessageID: "cli-" + uuid.New().String(), SourceText: source}

	if !*write {
		name := *model
		if name == "" {
			name = os.Getenv("GEMINI_MODEL")
		}
		completer, err := pipeline.NewGeminiCompleter(ctx, os.Getenv("GEMINI_API_KEY"), name)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		out := pipeline.NewEngine(completer).Extract(ctx, req)
		printResult(newResult(out))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *model != "" {
		cfg.GeminiModel = *model
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build processor")
	}
	defer a.Close()

	out := a.Engine.Extract(ctx, req)
	res := newResult(out)
	report, err := a.Router.Route(ctx, out)
	written := report.Written()
	res.Written = &written
	res.Failed = report.FailedIndexes()
	printResult(res)

	if err != nil || report.Failed() > 0 {
		log.Error().Err(err).Int("failed", report.Failed()).Msg("Ledger write incomplete")
		a.Close()
		os.Exit(1)
	}
}

// sourceText returns the text to extract from exactly one of the inputs.
func sourceText(ctx context.Context, text, filePath, gcsURI string) (string, error) {
	set := 0
	for _, v := range []string{text, filePath, gcsURI} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return "", fmt.Errorf("exactly one of -text, -file or -gcs-uri is required")
	}
	if text != "" {
		return text, nil
	}

	var data []byte
	var err error
	if filePath != "" {
		data, err = os.ReadFile(filePath)
	} else {
		data, err = gcsuploader.FetchFromGCS(ctx, gcsURI)
	}
	if err != nil {
		return "", err
	}
	return pdftext.NewExtractor().ExtractText(ctx, data)
}

func newResult(out pipeline.Outcome) extractResult {
	res := extractResult{
		Outcome:   out.Kind().String(),
		Transfers: out.Transfers,
	}
	if res.Transfers == nil {
		res.Transfers = []pipeline.Transfer{}
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
	}
	return res
}

func printResult(res extractResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
}
