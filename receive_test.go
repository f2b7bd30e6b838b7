// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/lossy"
)

func TestReceiveImmediate(t *testing.T) {
	q, err := lossy.NewSPSC[int](4, nil)
	if err != nil {
		t.Fatalf("NewSPSC: %v", err)
	}
	q.Put(5)
	v, err := lossy.Receive[int](context.Background(), q)
	if err != nil || v != 5 {
		t.Fatalf("Receive: got (%d, %v), want (5, nil)", v, err)
	}
}

func TestReceiveDeadline(t *testing.T) {
	q, err := lossy.NewSPMC[int](4, nil)
	if err != nil {
		t.Fatalf("NewSPMC: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	v, err := lossy.Receive[int](ctx, q)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Receive: got (%d, %v), want DeadlineExceeded", v, err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("Receive returned after %v, before the deadline", elapsed)
	}
}

func TestReceiveCanceled(t *testing.T) {
	q, err := lossy.NewSPSCIndirect(4, nil)
	if err != nil {
		t.Fatalf("NewSPSCIndirect: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := lossy.ReceiveIndirect(ctx, q); !errors.Is(err, context.Canceled) {
		t.Fatalf("ReceiveIndirect: got %v, want Canceled", err)
	}
}

// TestReceiveWakes verifies a waiting receiver picks up a later Put.
func TestReceiveWakes(t *testing.T) {
	q, err := lossy.NewSPMC[string](2, nil)
	if err != nil {
		t.Fatalf("NewSPMC: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		v   string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := lossy.Receive[string](ctx, q)
		ch <- result{v, err}
	}()

	time.Sleep(5 * time.Millisecond)
	q.Put("hello")

	r := <-ch
	if r.err != nil || r.v != "hello" {
		t.Fatalf("Receive: got (%q, %v), want (\"hello\", nil)", r.v, r.err)
	}
}

func TestReceiveIndirectWakes(t *testing.T) {
	if lossy.RaceEnabled {
		t.Skip("skip: 128-bit entries are invisible to the race detector")
	}
	q, err := lossy.NewSPMCIndirect(2, nil)
	if err != nil {
		t.Fatalf("NewSPMCIndirect: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch := make(chan uintptr, 1)
	go func() {
		h, err := lossy.ReceiveIndirect(ctx, q)
		if err != nil {
			t.Errorf("ReceiveIndirect: %v", err)
		}
		ch <- h
	}()

	time.Sleep(5 * time.Millisecond)
	q.Put(0xBEEF)
	if h := <-ch; h != 0xBEEF {
		t.Fatalf("ReceiveIndirect: got %#x, want 0xbeef", h)
	}
}

// failingConsumer returns a non-semantic error from Get.
type failingConsumer struct{ err error }

func (c failingConsumer) Get() (int, error)              { return 0, c.err }
func (c failingConsumer) GetBatch(buf []int) (int, error) { return 0, c.err }

func TestReceiveHardError(t *testing.T) {
	want := errors.New("broken")
	if _, err := lossy.Receive[int](context.Background(), failingConsumer{want}); !errors.Is(err, want) {
		t.Fatalf("Receive: got %v, want %v", err, want)
	}
}

// staleOnce reports one stale claim before delivering.
type staleOnce struct{ calls int }

func (c *staleOnce) Get() (int, error) {
	c.calls++
	if c.calls == 1 {
		return 0, lossy.ErrStale
	}
	return 9, nil
}

func (c *staleOnce) GetBatch(buf []int) (int, error) { return 0, lossy.ErrWouldBlock }

func TestReceiveRetriesStale(t *testing.T) {
	c := &staleOnce{}
	v, err := lossy.Receive[int](context.Background(), c)
	if err != nil || v != 9 {
		t.Fatalf("Receive: got (%d, %v), want (9, nil)", v, err)
	}
	if c.calls != 2 {
		t.Fatalf("Get calls: got %d, want 2", c.calls)
	}
}
