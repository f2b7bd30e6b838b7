// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Concurrent tests for the overwrite and claim protocols.
//
// The generic queues synchronize through sync/atomic pointers, which the
// race detector understands. The Indirect queues move ownership through
// 128-bit atomix entries that the detector cannot observe, so their
// concurrent tests are skipped under -race.

package lossy_test

import (
	"runtime"
	"sync"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lossy"
)

// accounting checks that every value 1..n left the queue exactly once.
type accounting struct {
	released    atomix.Uint64
	releasedSum atomix.Uint64
}

func (a *accounting) release(v uint64) {
	a.released.Add(1)
	a.releasedSum.Add(v)
}

func (a *accounting) check(t *testing.T, n uint64, delivered [][]uint64) {
	t.Helper()
	seen := make([]bool, n+1)
	var count, sum uint64
	for c, vals := range delivered {
		var last uint64
		for _, v := range vals {
			if v == 0 || v > n {
				t.Fatalf("consumer %d: value %d out of range", c, v)
			}
			if v <= last {
				t.Fatalf("consumer %d: got %d after %d, want increasing", c, v, last)
			}
			if seen[v] {
				t.Fatalf("value %d delivered twice", v)
			}
			seen[v] = true
			last = v
			count++
			sum += v
		}
	}
	if got := count + a.released.Load(); got != n {
		t.Fatalf("delivered %d + released %d = %d, want %d", count, a.released.Load(), got, n)
	}
	if got := sum + a.releasedSum.Load(); got != n*(n+1)/2 {
		t.Fatalf("checksum: got %d, want %d", got, n*(n+1)/2)
	}
}

// =============================================================================
// SPSC Concurrency
// =============================================================================

func TestSPSCConcurrent(t *testing.T) {
	const n = 200_000
	for _, capacity := range []int{1, 4, 256} {
		var acct accounting
		q, err := lossy.NewSPSC[uint64](capacity, acct.release)
		if err != nil {
			t.Fatalf("NewSPSC: %v", err)
		}

		var done atomix.Bool
		var got []uint64
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for {
				v, err := q.Get()
				if err == nil {
					got = append(got, v)
					backoff.Reset()
					continue
				}
				if !lossy.IsWouldBlock(err) {
					t.Errorf("Get: unexpected %v", err)
					return
				}
				if done.LoadAcquire() {
					if q.Stats().Len() == 0 {
						return
					}
					continue
				}
				backoff.Wait()
			}
		}()

		for i := uint64(1); i <= n; i++ {
			q.Put(i)
			if i%1024 == 0 {
				runtime.Gosched()
			}
		}
		done.StoreRelease(true)
		wg.Wait()
		q.Close()

		acct.check(t, n, [][]uint64{got})
	}
}

// =============================================================================
// SPMC Concurrency
// =============================================================================

func TestSPMCConcurrent(t *testing.T) {
	const n = 200_000
	for _, consumers := range []int{2, 4, 8} {
		var acct accounting
		q, err := lossy.NewSPMC[uint64](16, acct.release)
		if err != nil {
			t.Fatalf("NewSPMC: %v", err)
		}

		var done atomix.Bool
		var stale atomix.Uint64
		delivered := make([][]uint64, consumers)
		var wg sync.WaitGroup
		for c := range consumers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				backoff := iox.Backoff{}
				for {
					v, err := q.Get()
					switch {
					case err == nil:
						delivered[c] = append(delivered[c], v)
						backoff.Reset()
					case lossy.IsStale(err):
						stale.Add(1)
					case lossy.IsWouldBlock(err):
						if done.LoadAcquire() && q.Stats().Len() == 0 {
							return
						}
						backoff.Wait()
					default:
						t.Errorf("Get: unexpected %v", err)
						return
					}
				}
			}()
		}

		for i := uint64(1); i <= n; i++ {
			q.Put(i)
		}
		done.StoreRelease(true)
		wg.Wait()
		q.Close()

		acct.check(t, n, delivered)
		if s := q.Stats(); s.Stale != stale.Load() {
			t.Fatalf("Stats.Stale: got %d, want %d", s.Stale, stale.Load())
		}
	}
}

func TestSPMCConcurrentBatch(t *testing.T) {
	const n = 100_000
	const consumers = 4
	var acct accounting
	q, err := lossy.NewSPMC[uint64](64, acct.release)
	if err != nil {
		t.Fatalf("NewSPMC: %v", err)
	}

	var done atomix.Bool
	delivered := make([][]uint64, consumers)
	var wg sync.WaitGroup
	for c := range consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]uint64, 8)
			backoff := iox.Backoff{}
			for {
				k, err := q.GetBatch(buf)
				if k > 0 {
					delivered[c] = append(delivered[c], buf[:k]...)
					backoff.Reset()
					continue
				}
				if lossy.IsStale(err) {
					continue
				}
				if done.LoadAcquire() && q.Stats().Len() == 0 {
					return
				}
				backoff.Wait()
			}
		}()
	}

	for i := uint64(1); i <= n; i++ {
		q.Put(i)
	}
	done.StoreRelease(true)
	wg.Wait()
	q.Close()

	acct.check(t, n, delivered)
}

// =============================================================================
// Indirect Concurrency
// =============================================================================

func TestIndirectConcurrent(t *testing.T) {
	if lossy.RaceEnabled {
		t.Skip("skip: 128-bit entries are invisible to the race detector")
	}
	const n = 200_000

	build := map[string]func(release func(uintptr)) (lossy.QueueIndirect, error){
		"SPSCIndirect": func(r func(uintptr)) (lossy.QueueIndirect, error) { return lossy.NewSPSCIndirect(8, r) },
		"SPMCIndirect": func(r func(uintptr)) (lossy.QueueIndirect, error) { return lossy.NewSPMCIndirect(8, r) },
	}
	for name, newQueue := range build {
		t.Run(name, func(t *testing.T) {
			consumers := 4
			if name == "SPSCIndirect" {
				consumers = 1
			}
			var acct accounting
			q, err := newQueue(func(h uintptr) { acct.release(uint64(h)) })
			if err != nil {
				t.Fatalf("new: %v", err)
			}

			var done atomix.Bool
			delivered := make([][]uint64, consumers)
			var wg sync.WaitGroup
			for c := range consumers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					backoff := iox.Backoff{}
					for {
						h, err := q.Get()
						switch {
						case err == nil:
							delivered[c] = append(delivered[c], uint64(h))
							backoff.Reset()
						case lossy.IsStale(err):
						case done.LoadAcquire() && q.Stats().Len() == 0:
							return
						default:
							backoff.Wait()
						}
					}
				}()
			}

			for i := uintptr(1); i <= n; i++ {
				q.Put(i)
			}
			done.StoreRelease(true)
			wg.Wait()
			q.Close()

			acct.check(t, n, delivered)
		})
	}
}

// TestStatsIdentity checks written = read + unread and that every
// overwrite is matched by a release while the queue runs.
func TestStatsIdentity(t *testing.T) {
	var acct accounting
	q, err := lossy.NewSPMC[uint64](8, acct.release)
	if err != nil {
		t.Fatalf("NewSPMC: %v", err)
	}

	var wg sync.WaitGroup
	var done atomix.Bool
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !done.LoadAcquire() {
				_, _ = q.Get()
			}
		}()
	}
	for i := uint64(1); i <= 50_000; i++ {
		q.Put(i)
	}
	done.StoreRelease(true)
	wg.Wait()

	s := q.Stats()
	if s.Written != 50_000 {
		t.Fatalf("Written: got %d, want 50000", s.Written)
	}
	if s.Overwritten != acct.released.Load() {
		t.Fatalf("Overwritten %d != released %d", s.Overwritten, acct.released.Load())
	}
	if s.Read+uint64(s.Len()) != s.Written {
		t.Fatalf("Read %d + Len %d != Written %d", s.Read, s.Len(), s.Written)
	}
}
