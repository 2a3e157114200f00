// Command detect runs the plate detection simulator from the command
// line and prints each result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/lpr/internal/catalog"
	"github.com/your-org/lpr/internal/detect"
	"github.com/your-org/lpr/internal/observability"
	"github.com/your-org/lpr/internal/rng"
)

func main() {
	modelID := flag.String("model", "", "model id (default: first catalog entry)")
	image := flag.String("image", "example.jpg", "image handle echoed in the result")
	count := flag.Int("count", 1, "number of runs")
	seed := flag.Uint64("seed", 0, "random seed, 0 for nondeterministic")
	catalogPath := flag.String("catalog", "", "path to a YAML model catalog")
	list := flag.Bool("list", false, "list models and exit")
	noDelay := flag.Bool("no-delay", false, "resolve runs without waiting for the simulated time")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	slog.SetDefault(observability.NewLogger(os.Stderr, *logLevel, "text"))

	if err := run(*catalogPath, *modelID, *image, *count, *seed, *list, *noDelay); err != nil {
		fmt.Fprintf(os.Stderr, "detect: %v\n", err)
		os.Exit(1)
	}
}

func run(catalogPath, modelID, image string, count int, seed uint64, list, noDelay bool) error {
	cat := catalog.Builtin()
	if catalogPath != "" {
		var err error
		if cat, err = catalog.Load(catalogPath); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if list {
		return enc.Encode(cat.Models())
	}
	if modelID == "" {
		modelID = cat.Default()
	}

	src := rng.Default()
	if seed != 0 {
		src = rng.NewSeeded(seed)
	}

	opts := []detect.Option{
		detect.WithSource(src),
		detect.WithCatalog(cat),
		detect.WithNotifier(observability.LogNotifier{Logger: slog.Default()}),
	}
	if noDelay {
		opts = append(opts, detect.WithAfterFunc(func(_ time.Duration, f func()) func() bool {
			f()
			return func() bool { return false }
		}))
	}
	sim := detect.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i := 0; i < count; i++ {
		res, err := sim.Detect(ctx, image, modelID).Wait(ctx)
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	return nil
}
