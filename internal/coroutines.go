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
	"fmt"
	"runtime/debug"
	"strings"
)

// Dispatcher runs a tree of coroutines cooperatively, one at a time, so
// that workflow code can suspend on Channel/Future/Selector operations
// without a real OS thread ever blocking on wall-clock I/O (spec.md
// section 4.E). A single call to ExecuteUntilAllBlocked advances every
// runnable coroutine exactly as far as the currently buffered history
// lets it go, then returns control to the coordinator.
type Dispatcher interface {
	// ExecuteUntilAllBlocked resumes every non-finished coroutine in turn
	// until none of them can make further progress without additional
	// external input (a Future being Set, a Channel being Sent to).
	ExecuteUntilAllBlocked() (err error)
	// IsDone reports whether every coroutine under this dispatcher has
	// returned.
	IsDone() bool
	// Close abandons any coroutines still blocked; used when a workflow
	// is done (completed/failed/continued-as-new) with outstanding
	// cancellation scopes that will never resolve.
	Close()
	// StackTrace renders the blocked status of every live coroutine, for
	// deadlock diagnostics.
	StackTrace() string
}

type unblockFunc func(status string) (keepBlocked bool, err error)

type coroutineState struct {
	name         string
	id           int64
	status       string
	dispatcher   *dispatcherImpl
	aboutToBlock chan bool
	unblock      chan unblockFunc
	closed       bool
	panicError   *workflowPanicError
}

// yield parks the calling coroutine until the dispatcher resumes it via
// call(). status is surfaced by Dispatcher.StackTrace.
func (s *coroutineState) yield(status string) {
	for {
		s.status = status
		s.aboutToBlock <- true
		f := <-s.unblock
		keepBlocked, err := f(status)
		if err != nil {
			panic(err)
		}
		if !keepBlocked {
			s.status = "running"
			return
		}
	}
}

// call resumes the coroutine and waits for it to either block again or
// finish. It may be invoked either by the dispatcher's own scheduling loop
// or inline by a Channel/Future operation handing off to a specific
// coroutine (e.g. Send waking a blocked Receive).
func (s *coroutineState) call() {
	if s.closed {
		return
	}
	s.unblock <- func(status string) (bool, error) { return false, nil }
	<-s.aboutToBlock
}

type dispatcherImpl struct {
	sequence   int64
	coroutines []*coroutineState
	executing  bool
}

const coroutineStateContextKey contextKey = "coroutineState"
const dispatcherContextKey contextKey = "dispatcher"

func getState(ctx Context) *coroutineState {
	s, ok := ctx.Value(coroutineStateContextKey).(*coroutineState)
	if !ok {
		panic("operation must be called from a workflow coroutine started via Go")
	}
	return s
}

func getDispatcher(ctx Context) *dispatcherImpl {
	d, ok := ctx.Value(dispatcherContextKey).(*dispatcherImpl)
	if !ok {
		panic("ctx was not produced by newDispatcher")
	}
	return d
}

// newDispatcher creates a Dispatcher and spawns f as its root coroutine.
// f does not run until the first call to ExecuteUntilAllBlocked.
func newDispatcher(ctx Context, f func(ctx Context)) (*dispatcherImpl, Context) {
	d := &dispatcherImpl{}
	rootCtx := WithValue(ctx, dispatcherContextKey, d)
	spawnedCtx := d.newCoroutine(rootCtx, "root", f)
	return d, spawnedCtx
}

// Go spawns a new coroutine as a sibling under ctx's dispatcher. It returns
// immediately; the new coroutine is interleaved cooperatively with every
// other coroutine by the dispatcher, never run concurrently with it.
func Go(ctx Context, f func(ctx Context)) {
	d := getDispatcher(ctx)
	d.newCoroutine(ctx, "", f)
}

// GoNamed is like Go but names the coroutine, as shown by
// Dispatcher.StackTrace.
func GoNamed(ctx Context, name string, f func(ctx Context)) {
	d := getDispatcher(ctx)
	d.newCoroutine(ctx, name, f)
}

func (d *dispatcherImpl) newCoroutine(ctx Context, name string, f func(ctx Context)) Context {
	d.sequence++
	if name == "" {
		name = fmt.Sprintf("coroutine-%v", d.sequence)
	}
	state := &coroutineState{
		name:         name,
		id:           d.sequence,
		status:       "created",
		dispatcher:   d,
		aboutToBlock: make(chan bool, 1),
		unblock:      make(chan unblockFunc),
	}
	d.coroutines = append(d.coroutines, state)
	spawnedCtx := WithValue(ctx, coroutineStateContextKey, state)

	go func() {
		defer func() {
			state.closed = true
			state.status = "done"
			state.aboutToBlock <- true
		}()
		defer func() {
			if r := recover(); r != nil {
				state.panicError = &workflowPanicError{value: r, stackTrace: string(debug.Stack())}
			}
		}()
		<-state.unblock
		f(spawnedCtx)
	}()
	return spawnedCtx
}

// ExecuteUntilAllBlocked resumes every coroutine exactly once, in spawn
// order. Any coroutine spawned during this pass (even transitively, via
// Go called from within another coroutine's step) is picked up within the
// same pass, since new coroutines are appended to the slice this loop
// ranges over by index. Handoffs between coroutines that rendezvous on a
// Channel or Future happen inline, inside Send/Set, so a single pass fully
// drains any chain of mutual wakeups reachable from the coroutines that
// were runnable when the pass began.
func (d *dispatcherImpl) ExecuteUntilAllBlocked() (err error) {
	if d.executing {
		return nil
	}
	d.executing = true
	defer func() { d.executing = false }()

	for i := 0; i < len(d.coroutines); i++ {
		c := d.coroutines[i]
		if c.closed {
			continue
		}
		c.call()
		if c.panicError != nil {
			return c.panicError
		}
	}
	return nil
}

func (d *dispatcherImpl) IsDone() bool {
	for _, c := range d.coroutines {
		if !c.closed {
			return false
		}
	}
	return true
}

func (d *dispatcherImpl) Close() {
	for _, c := range d.coroutines {
		c.closed = true
	}
}

func (d *dispatcherImpl) StackTrace() string {
	var b strings.Builder
	for _, c := range d.coroutines {
		state := "blocked"
		if c.closed {
			state = "done"
		}
		fmt.Fprintf(&b, "coroutine %s [%s]: %s\n", c.name, state, c.status)
	}
	return b.String()
}
