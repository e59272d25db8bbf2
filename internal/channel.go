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
	"reflect"
)

// Channel provides a CSP-style handoff between coroutines scheduled by the
// same Dispatcher. It is the one synchronization primitive workflow code
// needs, since everything else (activity/timer/child-workflow completion)
// is delivered as a Future.
type Channel interface {
	// Receive blocks until a value is sent or the channel is closed. more
	// is false only when the channel is closed and drained.
	Receive(ctx Context, valuePtr interface{}) (more bool)
	// ReceiveAsync is the non-blocking form of Receive.
	ReceiveAsync(valuePtr interface{}) (ok bool)
	// ReceiveAsyncWithMoreFlag additionally distinguishes "nothing
	// buffered" from "closed with nothing left."
	ReceiveAsyncWithMoreFlag(valuePtr interface{}) (ok bool, more bool)
	// Send blocks until the value is delivered to a receiver or buffered.
	Send(ctx Context, v interface{})
	// SendAsync buffers v without blocking if capacity allows, reporting
	// whether it could.
	SendAsync(v interface{}) (ok bool)
	Close()
}

type blockedReceive struct {
	valuePtr  interface{}
	more      *bool
	state     *coroutineState
	cancelled *bool
	delivered *bool
}

type blockedSend struct {
	value     interface{}
	state     *coroutineState
	cancelled *bool
	delivered *bool
}

type channelImpl struct {
	name             string
	size             int
	buffer           []interface{}
	blockedSenders   []*blockedSend
	blockedReceivers []*blockedReceive
	closed           bool
}

func newChannel(size int) *channelImpl {
	return &channelImpl{size: size}
}

func newNamedChannel(name string, size int) *channelImpl {
	return &channelImpl{name: name, size: size}
}

// NewChannel creates an unbuffered Channel. ctx is accepted for parity with
// the rest of the coroutine API but a Channel is not bound to any one
// coroutine or dispatcher.
func NewChannel(ctx Context) Channel {
	return newChannel(0)
}

// NewNamedChannel is like NewChannel but tags the channel with a name that
// shows up in Dispatcher.StackTrace diagnostics.
func NewNamedChannel(ctx Context, name string) Channel {
	return newNamedChannel(name, 0)
}

// NewBufferedChannel creates a Channel that accepts up to size sends
// without a matching receiver before Send blocks.
func NewBufferedChannel(ctx Context, size int) Channel {
	return newChannel(size)
}

func assignValue(valuePtr interface{}, value interface{}) {
	if valuePtr == nil || value == nil {
		return
	}
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("assignValue: %T is not a pointer", valuePtr))
	}
	rv.Elem().Set(reflect.ValueOf(value))
}

func zeroValue(valuePtr interface{}) {
	if valuePtr == nil {
		return
	}
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr {
		return
	}
	rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
}

// nextLiveSender pops the oldest blocked sender not cancelled by a
// Selector, or returns nil if there is none.
func (c *channelImpl) nextLiveSender() *blockedSend {
	for len(c.blockedSenders) > 0 {
		bs := c.blockedSenders[0]
		c.blockedSenders = c.blockedSenders[1:]
		if bs.cancelled != nil && *bs.cancelled {
			continue
		}
		return bs
	}
	return nil
}

// tryReceive attempts a non-blocking receive, pairing with a blocked sender
// or buffered value if one is present. When it hands off to a blocked
// sender, it resumes that sender's coroutine inline so the two sides of a
// rendezvous observe each other's side effects in a single dispatcher step,
// matching how a real channel handoff interleaves two goroutines.
func (c *channelImpl) tryReceive(valuePtr interface{}) bool {
	if len(c.buffer) > 0 {
		v := c.buffer[0]
		c.buffer = c.buffer[1:]
		assignValue(valuePtr, v)
		if bs := c.nextLiveSender(); bs != nil {
			c.buffer = append(c.buffer, bs.value)
			if bs.delivered != nil {
				*bs.delivered = true
			}
			bs.state.call()
		}
		return true
	}
	if bs := c.nextLiveSender(); bs != nil {
		assignValue(valuePtr, bs.value)
		if bs.delivered != nil {
			*bs.delivered = true
		}
		bs.state.call()
		return true
	}
	return false
}

func (c *channelImpl) Receive(ctx Context, valuePtr interface{}) bool {
	if c.tryReceive(valuePtr) {
		return true
	}
	if c.closed {
		zeroValue(valuePtr)
		return false
	}
	state := getState(ctx)
	more := true
	c.blockedReceivers = append(c.blockedReceivers, &blockedReceive{valuePtr: valuePtr, more: &more, state: state})
	state.yield(fmt.Sprintf("blocked on %s.Receive", c.debugName()))
	return more
}

// registerReceive is used by Selector to wait on this channel alongside
// others without committing to it: the delivery (if this channel fires
// first) writes directly into valuePtr/more/delivered; cancelled lets the
// selector tell every other registered channel to ignore a stale entry
// once a different case has already fired.
func (c *channelImpl) registerReceive(state *coroutineState, valuePtr interface{}, more, cancelled, delivered *bool) {
	c.blockedReceivers = append(c.blockedReceivers, &blockedReceive{
		valuePtr: valuePtr, more: more, state: state, cancelled: cancelled, delivered: delivered,
	})
}

// registerSend is the Send-side counterpart of registerReceive.
func (c *channelImpl) registerSend(state *coroutineState, value interface{}, cancelled, delivered *bool) {
	c.blockedSenders = append(c.blockedSenders, &blockedSend{
		value: value, state: state, cancelled: cancelled, delivered: delivered,
	})
}

func (c *channelImpl) ReceiveAsync(valuePtr interface{}) bool {
	ok, _ := c.ReceiveAsyncWithMoreFlag(valuePtr)
	return ok
}

func (c *channelImpl) ReceiveAsyncWithMoreFlag(valuePtr interface{}) (ok bool, more bool) {
	if c.tryReceive(valuePtr) {
		return true, true
	}
	if c.closed {
		return false, false
	}
	return false, true
}

func (c *channelImpl) Send(ctx Context, v interface{}) {
	if c.trySend(v) {
		return
	}
	state := getState(ctx)
	c.blockedSenders = append(c.blockedSenders, &blockedSend{value: v, state: state})
	state.yield(fmt.Sprintf("blocked on %s.Send", c.debugName()))
}

// trySend attempts to either hand v directly to an already-blocked receiver
// (resuming it inline) or buffer it, reporting whether it managed to avoid
// blocking the sender. Sending on a closed channel panics.
func (c *channelImpl) trySend(v interface{}) bool {
	if c.closed {
		panic("Closed channel")
	}
	for len(c.blockedReceivers) > 0 {
		br := c.blockedReceivers[0]
		c.blockedReceivers = c.blockedReceivers[1:]
		if br.cancelled != nil && *br.cancelled {
			continue
		}
		assignValue(br.valuePtr, v)
		*br.more = true
		if br.delivered != nil {
			*br.delivered = true
		}
		br.state.call()
		return true
	}
	if len(c.buffer) < c.size {
		c.buffer = append(c.buffer, v)
		return true
	}
	return false
}

func (c *channelImpl) SendAsync(v interface{}) bool {
	return c.trySend(v)
}

func (c *channelImpl) Close() {
	if c.closed {
		return
	}
	c.closed = true
	receivers := c.blockedReceivers
	c.blockedReceivers = nil
	for _, br := range receivers {
		if br.cancelled != nil && *br.cancelled {
			continue
		}
		zeroValue(br.valuePtr)
		*br.more = false
		if br.delivered != nil {
			*br.delivered = true
		}
		br.state.call()
	}
}

func (c *channelImpl) debugName() string {
	if c.name != "" {
		return c.name
	}
	return "Channel"
}
