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

package internal

import (
	"errors"
	"time"
)

// Context carries deadline, cancellation signal and request-scoped values
// across the boundary of workflow coroutines. It mirrors the standard
// library's context.Context shape, but its Done channel and Deadline are
// driven by the coordinator's deterministic clock (WorkflowStateMachines.
// CurrentTimeMillis), never by wall-clock time, since replay must reproduce
// the exact same decisions from the exact same history on every pass
// (spec.md section 4.G).
type Context interface {
	Deadline() (deadline time.Time, ok bool)
	Done() Channel
	Err() error
	Value(key interface{}) interface{}
}

// CancelFunc cancels a derived Context. Calling it more than once is a no-op.
type CancelFunc func()

// ErrCanceled is returned by Context.Err when the context was canceled.
var ErrCanceled = errors.New("context canceled")

// ErrDeadlineExceeded is returned by Context.Err when the context's deadline
// has passed.
var ErrDeadlineExceeded = errors.New("context deadline exceeded")

type contextKey string

type emptyCtx int

func (emptyCtx) Deadline() (time.Time, bool)       { return time.Time{}, false }
func (emptyCtx) Done() Channel                     { return nil }
func (emptyCtx) Err() error                        { return nil }
func (emptyCtx) Value(key interface{}) interface{} { return nil }

var background = new(emptyCtx)

// Background returns a non-nil, empty Context with no deadline, no values
// and a nil Done channel. It is the root of every workflow's Context tree.
func Background() Context {
	return background
}

type valueCtx struct {
	Context
	key, val interface{}
}

func (c *valueCtx) Value(key interface{}) interface{} {
	if c.key == key {
		return c.val
	}
	return c.Context.Value(key)
}

// WithValue returns a copy of parent with key bound to val.
func WithValue(parent Context, key, val interface{}) Context {
	if parent == nil {
		panic("WithValue: nil parent")
	}
	return &valueCtx{Context: parent, key: key, val: val}
}

type cancelCtx struct {
	Context
	done Channel
	err  error
}

func (c *cancelCtx) Done() Channel { return c.done }
func (c *cancelCtx) Err() error    { return c.err }

func (c *cancelCtx) cancel(err error) {
	if c.err != nil {
		return
	}
	c.err = err
	c.done.Close()
}

// WithCancel returns a copy of parent with a new Done channel, closed when
// the returned CancelFunc is called.
func WithCancel(parent Context) (Context, CancelFunc) {
	ctx := &cancelCtx{Context: parent, done: newChannel(0)}
	return ctx, func() { ctx.cancel(ErrCanceled) }
}

type deadlineCtx struct {
	*cancelCtx
	deadline time.Time
}

func (c *deadlineCtx) Deadline() (time.Time, bool) { return c.deadline, true }

// WithDeadline behaves like WithCancel but additionally arms the returned
// Context's Done channel to fire once nowFn() reaches deadline. newTimerFn
// supplies the deterministic timer (TimerMachine-backed) that fires the
// deadline; nowFn is fed by the coordinator's replay clock, never
// time.Now, so the decision to fire is reproduced identically on replay.
func WithDeadline(parent Context, deadline time.Time, nowFn func() time.Time, newTimerFn func(Context, time.Duration) Future) (Context, CancelFunc) {
	base, cancel := WithCancel(parent)
	ctx := &deadlineCtx{cancelCtx: base.(*cancelCtx), deadline: deadline}

	if d := deadline.Sub(nowFn()); d > 0 {
		timer := newTimerFn(ctx, d)
		Go(ctx, func(gctx Context) {
			if err := timer.Get(gctx, nil); err == nil {
				ctx.cancel(ErrDeadlineExceeded)
			}
		})
	} else {
		ctx.cancel(ErrDeadlineExceeded)
	}
	return ctx, cancel
}

// WithTimeout is shorthand for WithDeadline(parent, nowFn().Add(timeout), ...).
func WithTimeout(parent Context, timeout time.Duration, nowFn func() time.Time, newTimerFn func(Context, time.Duration) Future) (Context, CancelFunc) {
	return WithDeadline(parent, nowFn().Add(timeout), nowFn, newTimerFn)
}
