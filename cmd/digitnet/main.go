// Package main provides the digitnet CLI: train, test and serve a two-layer
// handwritten digit classifier.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/klauspost/cpuid/v2"

	"github.com/born-ml/digitnet/internal/canvas"
	"github.com/born-ml/digitnet/internal/config"
	"github.com/born-ml/digitnet/internal/loader"
	"github.com/born-ml/digitnet/internal/nn"
	"github.com/born-ml/digitnet/internal/parallel"
	"github.com/born-ml/digitnet/internal/report"
	"github.com/born-ml/digitnet/internal/serialization"
	"github.com/born-ml/digitnet/internal/server"
)

const version = "v0.1.0"

const usage = `usage: digitnet <command> [flags]

Commands:
  train      Train on the training corpus and save parameters
  test       Report accuracy of saved parameters on the test corpus
  serve      Serve the drawing page and prediction endpoint
  version    Show version

Run "digitnet <command> -h" for command flags.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "digitnet: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "digitnet %s\n", version)
		fmt.Fprintf(stdout, "cpu: %s (%d physical cores, %d workers)\n",
			cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, parallel.Workers())
		return nil
	case "train", "test", "serve":
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg, err := parseFlags(cmd, args, stderr)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	switch cmd {
	case "train":
		return train(cfg, logger)
	case "test":
		return test(cfg, stdout, logger)
	default:
		return serve(ctx, cfg, logger)
	}
}

func parseFlags(cmd string, args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfgPath := fs.String("config", "", "Path to YAML config (defaults are used when empty)")
	var o config.Overrides
	fs.StringVar(&o.DataDir, "data", "", "Directory holding the IDX corpus files")
	fs.StringVar(&o.Model, "model", "", "Parameter file to write (train) or read (test, serve)")
	fs.IntVar(&o.Hidden, "hidden", 0, "Hidden layer size")
	fs.IntVar(&o.Epochs, "epochs", 0, "Number of training epochs")
	fs.Float64Var(&o.LearningRate, "lr", 0, "Learning rate")
	fs.Uint64Var(&o.Seed, "seed", 0, "Weight initialization seed (0 seeds from the clock)")
	fs.IntVar(&o.MaxSamples, "max-samples", 0, "Load at most this many samples (0 loads all)")
	fs.StringVar(&o.Plot, "plot", "", "Write an SVG chart of the training history")
	fs.StringVar(&o.Addr, "addr", "", "Listen address for serve")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%s: unexpected arguments %v", cmd, fs.Args())
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func train(cfg *config.Config, logger *slog.Logger) error {
	images, labels := cfg.TrainFiles()
	ds, err := loader.Load(images, labels, cfg.Network.OutputSize, loader.Options{MaxSamples: cfg.MaxSamples})
	if err != nil {
		return fmt.Errorf("failed to load training data: %w", err)
	}
	logger.Info("training data loaded", "samples", ds.Len(), "rows", ds.Rows, "cols", ds.Cols)

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}
	net, err := nn.New(cfg.Network, rng)
	if err != nil {
		return err
	}
	net.SetLogger(logger)

	logger.Info("training", "network", cfg.Network.String(), "epochs", cfg.Epochs, "lr", cfg.LearningRate)
	history, err := net.Train(ds.Samples, nn.TrainConfig{Epochs: cfg.Epochs, LearningRate: cfg.LearningRate})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if dir := filepath.Dir(cfg.Model); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	if err := net.Save(cfg.Model); err != nil {
		return err
	}
	sum, err := serialization.FileFingerprint(cfg.Model)
	if err != nil {
		return err
	}
	logger.Info("model saved", "path", cfg.Model, "sha256", sum)

	if cfg.Plot != "" {
		if err := report.WriteHistorySVG(cfg.Plot, history); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
		logger.Info("history plot written", "path", cfg.Plot)
	}
	return nil
}

func test(cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	net, err := nn.New(cfg.Network, nil)
	if err != nil {
		return err
	}
	net.SetLogger(logger)
	if err := net.Load(cfg.Model); err != nil {
		return err
	}

	images, labels := cfg.TestFiles()
	ds, err := loader.Load(images, labels, cfg.Network.OutputSize, loader.Options{MaxSamples: cfg.MaxSamples})
	if err != nil {
		return fmt.Errorf("failed to load test data: %w", err)
	}
	if ds.InputSize() != cfg.Network.InputSize {
		return fmt.Errorf("%w: test images have %d pixels, network expects %d",
			nn.ErrConfig, ds.InputSize(), cfg.Network.InputSize)
	}

	res := net.Evaluate(ds.Samples)
	fmt.Fprintf(stdout, "test accuracy: %s\n", res)
	return nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	path, err := cfg.FindModel()
	if err != nil {
		return err
	}
	net, err := nn.LoadFile(path)
	if err != nil {
		return err
	}
	if want := canvas.Size * canvas.Size; net.Config().InputSize != want {
		return fmt.Errorf("%w: %s takes %d inputs, drawings produce %d",
			nn.ErrConfig, path, net.Config().InputSize, want)
	}
	sum, err := serialization.FileFingerprint(path)
	if err != nil {
		return err
	}
	logger.Info("model loaded", "path", path, "network", net.Config().String(), "sha256", sum)

	return server.New(net, logger).Run(ctx, cfg.Addr)
}
