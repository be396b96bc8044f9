package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/noah-isme/toko-volume-discount/internal/discount"
	"github.com/noah-isme/toko-volume-discount/internal/obs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("function", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "read the run input from this file instead of stdin")
	explain := fs.Bool("explain", false, "print the per-line report instead of the function result")
	logFormat := fs.String("log-format", envOrDefault("OBS_LOG_FORMAT", "json"), "log format (json or console)")
	logLevel := fs.String("log-level", envOrDefault("OBS_LOG_LEVEL", "warn"), "log level")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := obs.NewLoggerTo(stderr, *logFormat, *logLevel)

	in := stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			logger.Error().Err(err).Str("path", *inputPath).Msg("open input")
			return 1
		}
		defer f.Close()
		in = f
	}

	var input discount.RunInput
	if err := json.NewDecoder(in).Decode(&input); err != nil {
		logger.Error().Err(err).Msg("decode run input")
		return 1
	}

	evaluator := discount.Evaluator{Logger: &logger}
	var out any
	if *explain {
		out = evaluator.Explain(input.Cart)
	} else {
		out = evaluator.Evaluate(input.Cart)
	}

	enc := json.NewEncoder(stdout)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
