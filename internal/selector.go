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

// Selector waits on the first of several Channel/Future operations to
// become ready, the building block async helpers use to implement
// Workflow.Await-style multi-wait (e.g. racing an activity Future against
// a cancellation Channel, or merging several signal channels).
type Selector interface {
	AddReceive(c Channel, f func(c Channel, more bool)) Selector
	AddSend(c Channel, v interface{}, f func()) Selector
	AddFuture(future Future, f func(future Future)) Selector
	AddDefault(f func())
	Select(ctx Context)
}

type selectorCase struct {
	receiveChan *channelImpl
	receiveFn   func(c Channel, more bool)

	sendChan  *channelImpl
	sendValue interface{}
	sendFn    func()

	future   *futureImpl
	futureFn func(f Future)
}

type selectorImpl struct {
	name        string
	cases       []selectorCase
	defaultFunc func()
}

// NewSelector creates a Selector. ctx is accepted for API symmetry with the
// rest of the coroutine primitives; a Selector is stateless until Select
// is called.
func NewSelector(ctx Context) Selector {
	return &selectorImpl{}
}

// NewNamedSelector is like NewSelector but tags the selector with a name
// for diagnostics.
func NewNamedSelector(ctx Context, name string) Selector {
	return &selectorImpl{name: name}
}

func (s *selectorImpl) AddReceive(c Channel, f func(c Channel, more bool)) Selector {
	impl, ok := c.(*channelImpl)
	if !ok {
		panic("Selector.AddReceive: channel not created by NewChannel")
	}
	s.cases = append(s.cases, selectorCase{receiveChan: impl, receiveFn: f})
	return s
}

func (s *selectorImpl) AddSend(c Channel, v interface{}, f func()) Selector {
	impl, ok := c.(*channelImpl)
	if !ok {
		panic("Selector.AddSend: channel not created by NewChannel")
	}
	s.cases = append(s.cases, selectorCase{sendChan: impl, sendValue: v, sendFn: f})
	return s
}

func (s *selectorImpl) AddFuture(future Future, f func(future Future)) Selector {
	impl, ok := future.(*futureImpl)
	if !ok {
		panic("Selector.AddFuture: future not created by NewFuture")
	}
	s.cases = append(s.cases, selectorCase{future: impl, futureFn: f})
	return s
}

func (s *selectorImpl) AddDefault(f func()) {
	s.defaultFunc = f
}

// Select blocks until one registered case is ready, then invokes its
// callback and returns. A registered default fires immediately instead of
// blocking when no case is ready yet.
func (s *selectorImpl) Select(ctx Context) {
	if s.tryFireReady() {
		return
	}
	if s.defaultFunc != nil {
		s.defaultFunc()
		return
	}

	state := getState(ctx)
	cancelled := false
	delivered := make([]bool, len(s.cases))
	scratch := make([]interface{}, len(s.cases))
	more := make([]bool, len(s.cases))

	for i, c := range s.cases {
		switch {
		case c.receiveChan != nil:
			c.receiveChan.registerReceive(state, &scratch[i], &more[i], &cancelled, &delivered[i])
		case c.sendChan != nil:
			c.sendChan.registerSend(state, c.sendValue, &cancelled, &delivered[i])
		case c.future != nil:
			c.future.registerWaiter(state, &cancelled, &delivered[i])
		}
	}

	state.yield("blocked on select")
	cancelled = true

	for i, c := range s.cases {
		if !delivered[i] {
			continue
		}
		switch {
		case c.receiveChan != nil:
			c.receiveFn(c.receiveChan, more[i])
		case c.sendChan != nil:
			c.sendFn()
		case c.future != nil:
			c.futureFn(c.future)
		}
		return
	}
}

// tryFireReady scans every case once for an immediately-available result,
// without blocking. Used both as Select's fast path and to implement
// AddDefault.
func (s *selectorImpl) tryFireReady() bool {
	for _, c := range s.cases {
		switch {
		case c.receiveChan != nil:
			var v interface{}
			if ok, more := c.receiveChan.ReceiveAsyncWithMoreFlag(&v); ok || !more {
				c.receiveFn(c.receiveChan, more)
				return true
			}
		case c.sendChan != nil:
			if c.sendChan.SendAsync(c.sendValue) {
				c.sendFn()
				return true
			}
		case c.future != nil:
			if c.future.IsReady() {
				c.futureFn(c.future)
				return true
			}
		}
	}
	return false
}
