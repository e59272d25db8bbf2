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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// These exercise each entity machine directly against its constructor and
// handle* methods, bypassing WorkflowStateMachines/WFTBuffer entirely —
// complementary to workflow_state_machines_test.go's coordinator-level
// round trips.

func TestActivityMachineTryCancelResolvesBeforeCancelRequested(t *testing.T) {
	var sent []*CancellableCommand
	var result []byte
	var completionErr error
	a := NewActivityMachine("1", "Foo", []byte("in"), ActivityCancellationTryCancel,
		func(c *CancellableCommand) { sent = append(sent, c) }, nil,
		func(r []byte, err error) { result = r; completionErr = err })

	a.handleScheduledEventID(5)
	a.handleStarted()
	a.cancel()

	require.Error(t, completionErr)
	require.Nil(t, result)
	require.Len(t, sent, 2) // ScheduleActivityTask, RequestCancelActivityTask
	require.Equal(t, CommandTypeRequestCancelActivityTask, sent[1].Type)

	// A late completion after TRY_CANCEL already resolved must not
	// invoke the callback a second time (completionOnce).
	completionErr = nil
	a.handleCanceled()
	require.Nil(t, completionErr)
}

func TestActivityMachineWaitCancellationCompletedDefersResolution(t *testing.T) {
	var completed bool
	var completionErr error
	a := NewActivityMachine("1", "Foo", nil, ActivityCancellationWaitCancellationCompleted,
		func(*CancellableCommand) {}, nil,
		func(r []byte, err error) { completed = true; completionErr = err })

	a.handleScheduledEventID(5)
	a.handleStarted()
	a.cancel()
	require.False(t, completed, "WaitCancellationCompleted must not resolve on cancel request alone")

	a.handleCancelRequested()
	require.False(t, completed, "nor on CancelRequested")

	a.handleCanceled()
	require.True(t, completed)
	require.Error(t, completionErr)
}

func TestActivityMachineAbandonCancelResolvesImmediately(t *testing.T) {
	var completed bool
	a := NewActivityMachine("1", "Foo", nil, ActivityCancellationAbandon,
		func(*CancellableCommand) {}, nil,
		func(r []byte, err error) { completed = true })

	a.handleScheduledEventID(5)
	a.cancel()
	require.True(t, completed)
	require.True(t, a.isFinalState())

	// cancel() on an already-final machine is a documented no-op, not a
	// second fire (which would panic with no registered transition).
	require.NotPanics(t, func() { a.cancel() })
}

func TestActivityMachineCompletionCarriesResult(t *testing.T) {
	var result []byte
	var completionErr error
	a := NewActivityMachine("1", "Foo", nil, ActivityCancellationTryCancel,
		func(*CancellableCommand) {}, nil,
		func(r []byte, err error) { result = r; completionErr = err })

	a.handleScheduledEventID(5)
	a.handleStarted()
	a.handleCompleted([]byte("done"))

	require.NoError(t, completionErr)
	require.Equal(t, []byte("done"), result)
	require.True(t, a.isFinalState())
}

func TestTimerMachineFireAndCancel(t *testing.T) {
	var sent []*CancellableCommand
	var completionErr error
	var fired bool
	tm := NewTimerMachine("1", time.Second, func(c *CancellableCommand) { sent = append(sent, c) }, nil,
		func(err error) { fired = true; completionErr = err })

	require.Len(t, sent, 1)
	require.Equal(t, CommandTypeStartTimer, sent[0].Type)

	tm.handleStarted()
	tm.handleFired()
	require.True(t, fired)
	require.NoError(t, completionErr)
}

func TestTimerMachineCancelBeforeStartedResolvesSynchronously(t *testing.T) {
	var completionErr error
	tm := NewTimerMachine("1", time.Second, func(*CancellableCommand) {}, nil,
		func(err error) { completionErr = err })

	tm.cancel()
	require.Error(t, completionErr)
	require.True(t, tm.isFinalState())
}

func TestTimerMachineCancelAfterStartedRequiresCancelEvent(t *testing.T) {
	var completionErr error
	var resolved bool
	tm := NewTimerMachine("1", time.Second, func(*CancellableCommand) {}, nil,
		func(err error) { resolved = true; completionErr = err })

	tm.handleStarted()
	tm.cancel()
	require.False(t, resolved, "cancel after STARTED only emits CancelTimer; resolution waits for TimerCanceled")

	tm.handleCanceled()
	require.True(t, resolved)
	require.Error(t, completionErr)
}

func TestChildWorkflowMachineStartedThenCompleted(t *testing.T) {
	var startErr error
	var runID string
	var result []byte
	var completionErr error
	c := NewChildWorkflowMachine("child-1", "ChildWF", nil, ChildWorkflowCancellationWaitCancellationCompleted,
		func(*CancellableCommand) {}, nil,
		func(r string, err error) { runID = r; startErr = err },
		func(r []byte, err error) { result = r; completionErr = err })

	c.handleInitiated()
	c.handleStarted("run-xyz")
	require.NoError(t, startErr)
	require.Equal(t, "run-xyz", runID)

	c.handleCompleted([]byte("child-result"))
	require.NoError(t, completionErr)
	require.Equal(t, []byte("child-result"), result)
}

func TestChildWorkflowMachineStartFailedInvokesBothCallbacks(t *testing.T) {
	var startErr, completionErr error
	var startedCalled, completedCalled bool
	c := NewChildWorkflowMachine("child-1", "ChildWF", nil, ChildWorkflowCancellationTryCancel,
		func(*CancellableCommand) {}, nil,
		func(r string, err error) { startedCalled = true; startErr = err },
		func(r []byte, err error) { completedCalled = true; completionErr = err })

	c.handleStartFailed()
	require.True(t, startedCalled)
	require.True(t, completedCalled)
	require.Error(t, startErr)
	require.Error(t, completionErr)
}

func TestChildWorkflowMachineTryCancelAfterStartResolvesOnRequest(t *testing.T) {
	var completed bool
	var completionErr error
	c := NewChildWorkflowMachine("child-1", "ChildWF", nil, ChildWorkflowCancellationTryCancel,
		func(*CancellableCommand) {}, nil,
		func(string, error) {},
		func(r []byte, err error) { completed = true; completionErr = err })

	c.handleInitiated()
	c.handleStarted("run-1")
	c.cancel()

	require.True(t, completed)
	require.Error(t, completionErr)
}

func TestChildWorkflowMachineWaitCancellationRequestedWaitsForEvent(t *testing.T) {
	var completed bool
	c := NewChildWorkflowMachine("child-1", "ChildWF", nil, ChildWorkflowCancellationWaitCancellationRequested,
		func(*CancellableCommand) {}, nil,
		func(string, error) {},
		func([]byte, error) { completed = true })

	c.handleInitiated()
	c.handleStarted("run-1")
	c.cancel()
	require.False(t, completed, "WaitCancellationRequested must wait for the CancelRequested event")

	c.handleCancelRequested()
	require.True(t, completed)
}

func TestSignalExternalMachineSucceedsAndFails(t *testing.T) {
	var err error
	s := NewSignalExternalMachine("sig-1", "wf-1", "my-signal", nil, func(*CancellableCommand) {}, nil,
		func(e error) { err = e })

	s.handleInitiated()
	s.handleSignaled()
	require.NoError(t, err)

	f := NewSignalExternalMachine("sig-2", "wf-1", "my-signal", nil, func(*CancellableCommand) {}, nil,
		func(e error) { err = e })
	f.handleInitiated()
	f.handleFailed()
	require.Error(t, err)
}

func TestCancelExternalMachineSucceedsAndFails(t *testing.T) {
	var err error
	c := NewCancelExternalMachine("cancel-1", "wf-1", "run-1", func(*CancellableCommand) {}, nil,
		func(e error) { err = e })

	c.handleInitiated()
	c.handleCancelRequested()
	require.NoError(t, err)

	f := NewCancelExternalMachine("cancel-2", "wf-1", "run-1", func(*CancellableCommand) {}, nil,
		func(e error) { err = e })
	f.handleInitiated()
	f.handleFailed()
	require.Error(t, err)
}
