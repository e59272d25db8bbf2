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

// Future represents the eventual result of an asynchronous invocation
// (activity, timer, child workflow, signal, ...). Get suspends the calling
// coroutine until the value is available, exactly like the entity state
// machines' completion callbacks feeding into it (spec.md section 4.E/4.F);
// it never blocks a real OS thread, since replay only ever advances by
// feeding buffered history events, not by waiting on wall-clock I/O.
type Future interface {
	// Get blocks until the future is ready, then copies its value into
	// valuePtr (if non-nil) and returns its error. Calling Get more than
	// once is legal and returns the same result every time.
	Get(ctx Context, valuePtr interface{}) error
	// IsReady reports whether Get would return immediately.
	IsReady() bool
}

// Settable is the write side of a Future, held by whichever code is
// responsible for producing its result — typically the completion
// callback an async shim registers with an entity state machine.
type Settable interface {
	Set(value interface{}, err error)
	SetValue(value interface{})
	SetError(err error)
	// Chain arms future's result to also resolve this Settable's Future
	// once future itself becomes ready.
	Chain(future Future)
}

type futureWaiter struct {
	state     *coroutineState
	cancelled *bool
	delivered *bool
}

type futureImpl struct {
	value   interface{}
	err     error
	ready   bool
	waiters []*futureWaiter
	chained []*futureImpl
}

// NewFuture creates an unresolved Future and its Settable counterpart.
func NewFuture() (Future, Settable) {
	f := &futureImpl{}
	return f, f
}

func (f *futureImpl) IsReady() bool { return f.ready }

func (f *futureImpl) Get(ctx Context, valuePtr interface{}) error {
	if !f.ready {
		state := getState(ctx)
		f.waiters = append(f.waiters, &futureWaiter{state: state})
		state.yield("blocked on future.Get")
	}
	if f.err != nil {
		return f.err
	}
	if valuePtr != nil && f.value != nil {
		assignValue(valuePtr, f.value)
	}
	return nil
}

func (f *futureImpl) Set(value interface{}, err error) {
	if f.ready {
		return
	}
	f.value = value
	f.err = err
	f.ready = true
	chained := f.chained
	f.chained = nil
	for _, c := range chained {
		c.Set(value, err)
	}
	waiters := f.waiters
	f.waiters = nil
	for _, w := range waiters {
		if w.cancelled != nil && *w.cancelled {
			continue
		}
		if w.delivered != nil {
			*w.delivered = true
		}
		w.state.call()
	}
}

// registerWaiter is used by Selector to wait on this future alongside
// other cases without committing to it.
func (f *futureImpl) registerWaiter(state *coroutineState, cancelled, delivered *bool) {
	f.waiters = append(f.waiters, &futureWaiter{state: state, cancelled: cancelled, delivered: delivered})
}

func (f *futureImpl) SetValue(value interface{}) { f.Set(value, nil) }
func (f *futureImpl) SetError(err error)         { f.Set(nil, err) }

func (f *futureImpl) Chain(future Future) {
	impl, ok := future.(*futureImpl)
	if !ok {
		panic("Chain: future was not created by NewFuture")
	}
	if impl.ready {
		f.Set(impl.value, impl.err)
		return
	}
	impl.chained = append(impl.chained, f)
}

// newReadyFuture returns a Future that is already resolved, useful for
// synchronous code paths (e.g. getVersion returning a previously recorded
// version without emitting a new marker).
func newReadyFuture(value interface{}, err error) Future {
	return &futureImpl{value: value, err: err, ready: true}
}
