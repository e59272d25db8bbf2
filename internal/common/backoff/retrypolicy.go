// The MIT License
//
// Copyright (c) 2020 Temporal Technologies Inc.  All rights reserved.
//
// Copyright (c) 2020 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package backoff

import (
	"time"

	"github.com/facebookgo/clock"
)

// done is returned by Retrier.NextBackOff to signal no further retry should
// be attempted.
const done time.Duration = -1

type (
	// Clock is the dependency retry.go's SystemClock satisfies, broken out so
	// tests can substitute a fake one. clock.Clock (and clock.Mock) already
	// implement it.
	Clock interface {
		Now() time.Time
	}

	// RetryPolicy is the retry.go Retry/ConcurrentRetrier dependency: given
	// how many attempts have elapsed and how long since the first attempt,
	// it reports the next backoff or done.
	RetryPolicy interface {
		ComputeNextDelay(elapsedTime time.Duration, numAttempts int) time.Duration
	}

	// Retrier tracks one in-progress retry sequence against a RetryPolicy.
	Retrier interface {
		NextBackOff() time.Duration
		Reset()
	}

	// ExponentialRetryPolicy is the standard exponential-backoff-with-cap
	// policy every poll loop and RPC retry in this package is configured
	// with.
	ExponentialRetryPolicy struct {
		initialInterval    time.Duration
		backoffCoefficient float64
		maximumInterval    time.Duration
		expirationInterval time.Duration
		maximumAttempts    int
	}

	retrierImpl struct {
		policy       RetryPolicy
		clock        Clock
		currentAttempt int
		startTime    time.Time
	}

)

// SystemClock is the real wall-clock Clock, the default used wherever a
// caller doesn't need a fake one for tests. clock.New() rather than a
// bare time.Now() wrapper, so the elapsed time a Retrier hands its
// RetryPolicy can come from a clock.Mock in tests. The clock does not
// affect ConcurrentRetrier's throttling, which always sleeps with
// time.Sleep.
var SystemClock Clock = clock.New()

// NewExponentialRetryPolicy builds an ExponentialRetryPolicy starting at
// initialInterval and doubling (by default) up to maximumInterval.
func NewExponentialRetryPolicy(initialInterval time.Duration) *ExponentialRetryPolicy {
	return &ExponentialRetryPolicy{
		initialInterval:    initialInterval,
		backoffCoefficient: 2.0,
		maximumInterval:    100 * initialInterval,
		maximumAttempts:    0,
	}
}

func (p *ExponentialRetryPolicy) WithBackoffCoefficient(c float64) *ExponentialRetryPolicy {
	p.backoffCoefficient = c
	return p
}

func (p *ExponentialRetryPolicy) WithMaximumInterval(d time.Duration) *ExponentialRetryPolicy {
	p.maximumInterval = d
	return p
}

func (p *ExponentialRetryPolicy) WithExpirationInterval(d time.Duration) *ExponentialRetryPolicy {
	p.expirationInterval = d
	return p
}

func (p *ExponentialRetryPolicy) WithMaximumAttempts(n int) *ExponentialRetryPolicy {
	p.maximumAttempts = n
	return p
}

// ComputeNextDelay implements RetryPolicy.
func (p *ExponentialRetryPolicy) ComputeNextDelay(elapsedTime time.Duration, numAttempts int) time.Duration {
	if p.maximumAttempts > 0 && numAttempts >= p.maximumAttempts {
		return done
	}
	if p.expirationInterval > 0 && elapsedTime > p.expirationInterval {
		return done
	}

	interval := float64(p.initialInterval)
	for i := 1; i < numAttempts; i++ {
		interval *= p.backoffCoefficient
		if interval > float64(p.maximumInterval) {
			interval = float64(p.maximumInterval)
			break
		}
	}
	next := time.Duration(interval)
	if next > p.maximumInterval {
		next = p.maximumInterval
	}
	return next
}

// NewRetrier creates a Retrier tracking one retry sequence against policy.
func NewRetrier(policy RetryPolicy, clock Clock) Retrier {
	return &retrierImpl{policy: policy, clock: clock, startTime: clock.Now()}
}

func (r *retrierImpl) NextBackOff() time.Duration {
	r.currentAttempt++
	return r.policy.ComputeNextDelay(r.clock.Now().Sub(r.startTime), r.currentAttempt)
}

func (r *retrierImpl) Reset() {
	r.currentAttempt = 0
	r.startTime = r.clock.Now()
}
