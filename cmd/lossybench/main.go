// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command lossybench measures throughput and loss rate of a lossy queue
// under a producer running flat out.
//
// Usage:
//
//	go run ./cmd/lossybench -size 1024 -duration 10s
//	go run ./cmd/lossybench -consumers 4 -batch 32 -jitter 1us
//	go run ./cmd/lossybench -impl ring
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"code.hybscloud.com/lossy/internal/bench"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "lossybench:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg := bench.DefaultConfig()
	fs := flag.NewFlagSet("lossybench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Impl, "impl", cfg.Impl, `queue implementation: "lossy" or "ring"`)
	fs.IntVar(&cfg.Capacity, "size", cfg.Capacity, "queue capacity (power of 2)")
	fs.IntVar(&cfg.Consumers, "consumers", cfg.Consumers, "number of consumer goroutines")
	fs.IntVar(&cfg.Batch, "batch", cfg.Batch, "items taken per consumer call")
	fs.DurationVar(&cfg.Duration, "duration", cfg.Duration, "how long the producer runs")
	fs.DurationVar(&cfg.Jitter, "jitter", cfg.Jitter, "max random consumer pause per item")
	fs.BoolVar(&cfg.Pin, "pin", cfg.Pin, "pin goroutines to CPUs")
	level := fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(stderr, *level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := bench.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "sent:       %d\n", res.Sent)
	fmt.Fprintf(stdout, "received:   %d\n", res.Received)
	fmt.Fprintf(stdout, "dropped:    %d\n", res.Dropped)
	if res.Stale > 0 {
		fmt.Fprintf(stdout, "stale:      %d\n", res.Stale)
	}
	fmt.Fprintf(stdout, "elapsed:    %v\n", res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(stdout, "throughput: %.2f Mpps\n", res.MPPS())
	fmt.Fprintf(stdout, "loss rate:  %.4f%%\n", res.LossRate()*100)
	return nil
}

// newLogger writes human-readable logs to a terminal and JSON otherwise.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
