// receipt-lens analyzes a single receipt image and prints the mapped record
// as JSON. It talks to the analysis service directly and needs no database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/docufield/receipt-lens/internal/docintel"
	"github.com/docufield/receipt-lens/internal/mapper"
	"github.com/docufield/receipt-lens/internal/receipts"
)

func main() {
	fs := ff.NewFlagSet("receipt-lens")
	var (
		file           = fs.StringLong("file", "", "Receipt image file to analyze (required)")
		endpoint       = fs.StringLong("endpoint", "", "Analysis service endpoint URL")
		apiKey         = fs.StringLong("api-key", "", "Analysis service API key")
		modelID        = fs.StringLong("model", "prebuilt-receipt", "Analysis model id")
		includeContent = fs.BoolLong("include-content", "Include the raw recognized text in the output")
		timeout        = fs.DurationLong("timeout", 2*time.Minute, "Overall analysis timeout")
		verbose        = fs.BoolLong("verbose", "Log analysis progress to stderr")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_LENS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logHandler := slog.NewTextHandler(io.Discard, nil)
	if *verbose {
		logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
	logger := slog.New(logHandler)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "error: --file is required")
		os.Exit(1)
	}

	imageBytes, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading %s: %v\n", *file, err)
		os.Exit(1)
	}

	analyzer, err := docintel.NewClient(docintel.Config{
		Endpoint: *endpoint,
		APIKey:   *apiKey,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	svc := receipts.NewService(analyzer, mapper.New(mapper.Config{}), nil, *modelID, logger)
	record, err := svc.ProcessImage(ctx, imageBytes, *includeContent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
