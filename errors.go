// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates that Get found no unread item.
//
// Put never returns an error: a full queue drops its oldest unread item
// instead of pushing back on the producer. ErrWouldBlock is therefore only
// ever reported by the consumer side and means "empty, try again later".
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := q.Get()
//	    if err == nil {
//	        backoff.Reset()
//	        process(v)
//	        continue
//	    }
//	    if lossy.IsNonFailure(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    return err
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// ErrStale indicates that an SPMC consumer claimed a position whose item was
// overwritten by the producer before the consumer could take it.
//
// Nothing was delivered by that call. The overwritten item has already been
// handed to the release callback by the producer, so the caller must not
// try to release anything. Like [ErrWouldBlock] this is a control flow
// signal: retry the Get.
var ErrStale = errors.New("lossy: item overwritten before delivery")

// ErrInvalidCapacity is returned by constructors when the capacity is not
// a power of two >= 1. The returned error wraps ErrInvalidCapacity together
// with the rejected value.
var ErrInvalidCapacity = errors.New("lossy: capacity must be a power of two >= 1")

// IsWouldBlock reports whether err indicates the queue was empty.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsStale reports whether err indicates a claim lost to an overwrite.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Returns true for ErrStale and for anything [iox.IsSemantic] accepts.
func IsSemantic(err error) bool {
	return IsStale(err) || iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, ErrStale, or ErrMore.
func IsNonFailure(err error) bool {
	return IsStale(err) || iox.IsNonFailure(err)
}
