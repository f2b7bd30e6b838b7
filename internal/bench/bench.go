// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bench measures throughput and loss of a producer running flat out
// against one or more consumers.
//
// The producer writes 1, 2, 3, ... as fast as it can until the configured
// duration elapses. Consumers check that the values they see are strictly
// increasing. When the run ends the harness drains the queue, closes it and
// checks that every sent value was received or dropped exactly once, by
// count and by sum.
package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
	ring "github.com/randomizedcoder/go-lock-free-ring"
	"github.com/rs/zerolog"
	"github.com/valyala/fastrand"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/lossy"
)

// ErrAccounting is returned when the sent, received and dropped totals
// disagree, or when a consumer observes values out of order.
var ErrAccounting = errors.New("bench: accounting mismatch")

// deadlineStride is how many puts the producer makes between context checks.
const deadlineStride = 8192

// Run executes one benchmark described by cfg. A run cut short by ctx still
// returns its Result; only invalid configs and accounting failures are
// errors.
func Run(ctx context.Context, cfg Config, logger zerolog.Logger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	logger = logger.With().Str("impl", cfg.Impl).Logger()
	logger.Info().
		Int("capacity", cfg.Capacity).
		Int("consumers", cfg.Consumers).
		Int("batch", cfg.Batch).
		Dur("duration", cfg.Duration).
		Dur("jitter", cfg.Jitter).
		Bool("pin", cfg.Pin).
		Msg("run starting")

	var (
		res Result
		err error
	)
	switch cfg.Impl {
	case ImplRing:
		res, err = runRing(ctx, cfg, logger)
	default:
		res, err = runLossy(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error().Err(err).Object("result", res).Msg("run failed")
		return res, err
	}
	logger.Info().Object("result", res).Msg("run complete")
	return res, nil
}

// ledger accumulates released items. The lossy producer calls release on
// overwrite and Close calls it for leftovers.
type ledger struct {
	count atomix.Uint64
	sum   atomix.Uint64
}

func (l *ledger) release(v uint64) {
	l.count.Add(1)
	l.sum.Add(v)
}

// tally is one consumer's view of the run.
type tally struct {
	count uint64
	sum   uint64
	last  uint64
}

func (t *tally) record(consumer int, v uint64) error {
	if v <= t.last {
		return fmt.Errorf("%w: consumer %d got %d after %d", ErrAccounting, consumer, v, t.last)
	}
	t.last = v
	t.count++
	t.sum += v
	return nil
}

func runLossy(ctx context.Context, cfg Config, logger zerolog.Logger) (Result, error) {
	var drops ledger
	b := lossy.New(cfg.Capacity)
	if cfg.Consumers == 1 {
		b = b.SingleConsumer()
	}
	q, err := lossy.Build[uint64](b, drops.release)
	if err != nil {
		return Result{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var (
		producerDone atomix.Bool
		sent         uint64
		elapsed      time.Duration
	)
	g.Go(func() error {
		unpin, err := pin(0, cfg.Pin)
		if err != nil {
			logger.Warn().Err(err).Msg("producer pinning failed")
		}
		defer unpin()

		start := time.Now()
		var i uint64
		for {
			i++
			q.Put(i)
			if i%deadlineStride == 0 && gctx.Err() != nil {
				break
			}
		}
		elapsed = time.Since(start)
		sent = i
		producerDone.StoreRelease(true)
		return nil
	})

	tallies := make([]tally, cfg.Consumers)
	for c := range cfg.Consumers {
		g.Go(func() error {
			unpin, err := pin(c+1, cfg.Pin)
			if err != nil {
				logger.Warn().Err(err).Int("consumer", c).Msg("consumer pinning failed")
			}
			defer unpin()
			return consumeLossy(c, q, cfg, &producerDone, &tallies[c])
		})
	}

	if err := g.Wait(); err != nil {
		q.Close()
		return Result{}, err
	}

	res := Result{Sent: sent, Elapsed: elapsed, Stale: q.Stats().Stale}
	var recvSum uint64
	for _, t := range tallies {
		res.Received += t.count
		recvSum += t.sum
	}
	res.Dropped = drops.count.Load()

	q.Close()
	res.ReleasedAtClose = drops.count.Load() - res.Dropped
	dropSum := drops.sum.Load()

	logger.Debug().
		Uint64("written", q.Stats().Written).
		Uint64("overwritten", q.Stats().Overwritten).
		Msg("queue counters")

	return res, verify(res, recvSum, dropSum)
}

func consumeLossy(c int, q lossy.Queue[uint64], cfg Config, producerDone *atomix.Bool, t *tally) error {
	var rng fastrand.RNG
	rng.Seed(uint32(c + 1))
	buf := make([]uint64, cfg.Batch)
	backoff := iox.Backoff{}

	for {
		n, err := take(q, buf)
		for _, v := range buf[:n] {
			if err := t.record(c, v); err != nil {
				return err
			}
		}
		if n > 0 {
			backoff.Reset()
			pause(&rng, cfg.Jitter)
			continue
		}
		switch {
		case lossy.IsStale(err):
		case !lossy.IsWouldBlock(err):
			return err
		case producerDone.LoadAcquire() && q.Stats().Len() == 0:
			return nil
		default:
			backoff.Wait()
		}
	}
}

// take uses Get for single-item batches so both consumer paths are measured.
func take(q lossy.Consumer[uint64], buf []uint64) (int, error) {
	if len(buf) == 1 {
		v, err := q.Get()
		if err != nil {
			return 0, err
		}
		buf[0] = v
		return 1, nil
	}
	return q.GetBatch(buf)
}

// pause busy-waits for a random duration below limit. Sleeping would round
// up to the scheduler tick and hide the effect being measured.
func pause(rng *fastrand.RNG, limit time.Duration) {
	if limit <= 0 {
		return
	}
	d := time.Duration(rng.Uint32n(uint32(min(limit, time.Second))))
	deadline := time.Now().Add(d)
	sw := spin.Wait{}
	for time.Now().Before(deadline) {
		sw.Once()
	}
}

// runRing drives the lossless sharded ring with a drop-newest producer, the
// usual way to bolt loss onto a bounded queue.
func runRing(ctx context.Context, cfg Config, logger zerolog.Logger) (Result, error) {
	r, err := ring.NewShardedRing(uint64(cfg.Capacity), 1)
	if err != nil {
		return Result{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var (
		producerDone atomix.Bool
		drops        ledger
		sent         uint64
		elapsed      time.Duration
	)
	g.Go(func() error {
		unpin, err := pin(0, cfg.Pin)
		if err != nil {
			logger.Warn().Err(err).Msg("producer pinning failed")
		}
		defer unpin()

		start := time.Now()
		var i uint64
		for {
			i++
			if !r.Write(0, i) {
				drops.release(i)
			}
			if i%deadlineStride == 0 && gctx.Err() != nil {
				break
			}
		}
		elapsed = time.Since(start)
		sent = i
		producerDone.StoreRelease(true)
		return nil
	})

	var t tally
	g.Go(func() error {
		unpin, err := pin(1, cfg.Pin)
		if err != nil {
			logger.Warn().Err(err).Int("consumer", 0).Msg("consumer pinning failed")
		}
		defer unpin()

		var rng fastrand.RNG
		rng.Seed(1)
		backoff := iox.Backoff{}
		for {
			done := producerDone.LoadAcquire()
			v, ok := r.TryRead()
			if !ok {
				if done {
					return nil
				}
				backoff.Wait()
				continue
			}
			val, ok := v.(uint64)
			if !ok {
				return fmt.Errorf("%w: unexpected %T in ring", ErrAccounting, v)
			}
			if err := t.record(0, val); err != nil {
				return err
			}
			backoff.Reset()
			pause(&rng, cfg.Jitter)
		}
	})

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{
		Sent:     sent,
		Received: t.count,
		Dropped:  drops.count.Load(),
		Elapsed:  elapsed,
	}
	return res, verify(res, t.sum, drops.sum.Load())
}

// verify checks that every value 1..Sent was accounted for exactly once.
func verify(res Result, recvSum, dropSum uint64) error {
	if got := res.Received + res.Dropped + res.ReleasedAtClose; got != res.Sent {
		return fmt.Errorf("%w: received %d + dropped %d + released at close %d = %d, sent %d",
			ErrAccounting, res.Received, res.Dropped, res.ReleasedAtClose, got, res.Sent)
	}
	want := res.Sent * (res.Sent + 1) / 2
	if got := recvSum + dropSum; got != want {
		return fmt.Errorf("%w: checksum %d, want %d", ErrAccounting, got, want)
	}
	return nil
}
