// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import (
	"context"

	"code.hybscloud.com/iox"
)

// Receive is the blocking counterpart of Get. It waits with [iox.Backoff]
// until an element is delivered or ctx is done, in which case it returns
// ctx.Err(). [ErrStale] outcomes are retried; any other error is returned
// unchanged.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
//	defer cancel()
//	sample, err := lossy.Receive(ctx, q)
func Receive[T any](ctx context.Context, c Consumer[T]) (T, error) {
	backoff := iox.Backoff{}
	for {
		elem, err := c.Get()
		if err == nil {
			return elem, nil
		}
		if !IsSemantic(err) {
			return elem, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			var zero T
			return zero, ctxErr
		}
		backoff.Wait()
	}
}

// ReceiveIndirect is [Receive] for handle queues.
func ReceiveIndirect(ctx context.Context, c ConsumerIndirect) (uintptr, error) {
	backoff := iox.Backoff{}
	for {
		elem, err := c.Get()
		if err == nil {
			return elem, nil
		}
		if !IsSemantic(err) {
			return 0, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		backoff.Wait()
	}
}
