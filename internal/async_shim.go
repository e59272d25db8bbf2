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
	"math/rand"
	"time"

	"github.com/pborman/uuid"
)

// workflowEnvironmentContextKey carries the owning WorkflowStateMachines
// into every coroutine's Context, the one piece of "ambient" state
// workflow code is allowed to reach into (spec.md section 9, "global
// state ... is per workflow thread, not process-global"). It is set once
// on the dispatcher's root Context and inherited by every coroutine
// spawned under it through the ordinary WithValue chain.
const workflowEnvironmentContextKey contextKey = "workflowEnvironment"

// WithWorkflowEnvironment binds a coordinator to ctx. Called once, when a
// workflow execution's dispatcher is constructed.
func WithWorkflowEnvironment(ctx Context, wsm *WorkflowStateMachines) Context {
	return WithValue(ctx, workflowEnvironmentContextKey, wsm)
}

func workflowEnvironment(ctx Context) *WorkflowStateMachines {
	wsm, ok := ctx.Value(workflowEnvironmentContextKey).(*WorkflowStateMachines)
	if !ok {
		panic("operation requires a Context produced by WithWorkflowEnvironment")
	}
	return wsm
}

// Every entry point below is the Go-idiomatic rendering of spec.md section
// 4.F's "async invocation shim": in the original Java sample, workflow code
// calling a generated stub directly blocks, and a separate detection step
// (isAsync, matching a marker interface implemented by stub/wrapper types)
// is needed to recognise when a method-reference call should instead
// return a promise. Go has no equivalent of a method reference passed to a
// generic "Async.function(stub::method, ...)" wrapper, and no ambiguity
// between a stub and a plain closure to resolve — every one of these
// functions simply returns a Future unconditionally, and blocking is
// opt-in via Future.Get. This subsumes the marker-interface mechanism
// entirely: there is no "plain lambda" call shape left to misidentify, so
// the one behavior isAsync existed to select is now the only behavior.

// ExecuteActivity schedules an activity and returns a Future for its
// result, spec.md section 4.B "Activity".
func ExecuteActivity(ctx Context, activityType string, input []byte, cancellationType ActivityCancellationType) Future {
	wsm := workflowEnvironment(ctx)
	future, settable := NewFuture()
	activityID := wsm.nextEntityID()
	NewActivityMachine(activityID, activityType, input, cancellationType, wsm.sinkCommand, wsm.observer, func(result []byte, err error) {
		settable.Set(result, err)
	})
	return future
}

// NewTimer starts a durable timer and returns a Future that resolves when
// it fires (or is cancelled), spec.md section 4.B "Timer".
func NewTimer(ctx Context, d time.Duration) Future {
	wsm := workflowEnvironment(ctx)
	future, settable := NewFuture()
	timerID := wsm.nextEntityID()
	NewTimerMachine(timerID, d, wsm.sinkCommand, wsm.observer, func(err error) {
		settable.Set(nil, err)
	})
	return future
}

// ExecuteChildWorkflow starts a child workflow execution. The returned
// startFuture resolves once the child has started (or failed to start);
// the returned resultFuture resolves with its final result, spec.md
// section 4.B "ChildWorkflow".
func ExecuteChildWorkflow(ctx Context, workflowID, workflowType string, input []byte, cancellationType ChildWorkflowCancellationType) (startFuture, resultFuture Future) {
	wsm := workflowEnvironment(ctx)
	sf, ss := NewFuture()
	rf, rs := NewFuture()
	NewChildWorkflowMachine(workflowID, workflowType, input, cancellationType, wsm.sinkCommand, wsm.observer,
		func(runID string, err error) { ss.Set(runID, err) },
		func(result []byte, err error) { rs.Set(result, err) },
	)
	return sf, rf
}

// SignalExternalWorkflow sends a signal to another workflow execution and
// returns a Future that resolves once the signal is acknowledged or
// rejected, spec.md section 4.B "SignalExternal".
func SignalExternalWorkflow(ctx Context, workflowID, signalName string, input []byte) Future {
	wsm := workflowEnvironment(ctx)
	future, settable := NewFuture()
	signalID := wsm.nextEntityID()
	NewSignalExternalMachine(signalID, workflowID, signalName, input, wsm.sinkCommand, wsm.observer, func(err error) {
		settable.Set(nil, err)
	})
	return future
}

// RequestCancelExternalWorkflow requests cancellation of another workflow
// execution, spec.md section 4.B "CancelExternal".
func RequestCancelExternalWorkflow(ctx Context, workflowID, runID string) Future {
	wsm := workflowEnvironment(ctx)
	future, settable := NewFuture()
	cancellationID := wsm.nextEntityID()
	NewCancelExternalMachine(cancellationID, workflowID, runID, wsm.sinkCommand, wsm.observer, func(err error) {
		settable.Set(nil, err)
	})
	return future
}

// SideEffect and MutableSideEffect (and GetVersion, below) never require a
// round trip: the marker they record is chosen by the caller, not an
// external system, so there is nothing to wait for except the echo of a
// command that was never in doubt. On fresh execution the machine is
// resolved immediately, inline, the instant its command is queued; on
// replay the already-recorded value must win instead (it may differ from
// whatever the current code would pick), so resolution is left to the
// ordinary event-driven dispatch path in WorkflowStateMachines.dispatch.

// SideEffect records details as a marker exactly once and returns a
// Future for it, spec.md section 4.B "SideEffect".
func SideEffect(ctx Context, details map[string][]byte) Future {
	wsm := workflowEnvironment(ctx)
	future, settable := NewFuture()
	sideEffectID := wsm.nextSideEffectID()
	m := NewSideEffectMachine(sideEffectID, details, wsm.sinkCommand, wsm.observer, func(recorded map[string][]byte) {
		settable.SetValue(recorded)
	})
	if !wsm.IsReplaying() {
		m.handleMarkerRecorded(details)
	}
	return future
}

// MutableSideEffect is like SideEffect but keyed by id and may legitimately
// fire its completion more than once as the value changes across
// invocations, spec.md section 4.B "MutableSideEffect" and section 8
// scenario 5. One machine is kept per id for the life of the execution
// (WorkflowStateMachines.mutableSideEffectMachines): a call whose details
// match the last recorded value never touches the commands queue, so
// calling this three times with the same value records exactly one
// marker.
func MutableSideEffect(ctx Context, id string, details map[string][]byte) Future {
	wsm := workflowEnvironment(ctx)
	future, settable := NewFuture()

	m, exists := wsm.mutableSideEffectMachines[id]
	if !exists {
		m = NewMutableSideEffectMachine(id, wsm.sinkCommand, wsm.observer)
		wsm.mutableSideEffectMachines[id] = m
		wsm.machines[m.getID()] = m
	}

	if !m.recordIfChanged(details) {
		// Unchanged from the last recorded value: resolve straight from
		// cache, nothing queued, nothing to wait for.
		settable.SetValue(m.recordedDetails)
		return future
	}

	m.addCompletion(func(recorded map[string][]byte) {
		settable.SetValue(recorded)
	})
	if !wsm.IsReplaying() {
		m.handleMarkerRecorded(details)
	}
	return future
}

// GetVersion records (on the first call for changeID) or recovers (every
// later call for the same changeID, and every call on replay) the chosen
// version for a changed code path, spec.md section 4.B "Version" and
// section 8 scenario 4 ("getVersion removed from code"). minSupported and
// maxSupported bound what the caller can deal with; if the recorded
// version falls outside that range the call fails with a deterministic,
// non-retryable ApplicationError rather than running the wrong branch.
func GetVersion(ctx Context, changeID string, minSupported, maxSupported int) Future {
	wsm := workflowEnvironment(ctx)
	future, settable := NewFuture()

	resolve := func(recorded int) {
		if recorded < minSupported || recorded > maxSupported {
			settable.SetError(NewApplicationError(
				fmt.Sprintf("version %d for changeID %q is outside supported range [%d, %d]", recorded, changeID, minSupported, maxSupported),
				true, nil))
			return
		}
		settable.SetValue(recorded)
	}

	if m, exists := wsm.versionMachines[changeID]; exists {
		m.addCompletion(resolve)
		return future
	}

	m := NewVersionMachine(changeID, maxSupported, wsm.sinkCommand, wsm.observer, resolve)
	wsm.versionMachines[changeID] = m
	wsm.machines[m.getID()] = m
	if !wsm.IsReplaying() {
		m.handleMarkerRecorded(maxSupported)
	}
	return future
}

// ExecuteLocalActivity runs fn inline exactly once on fresh execution and
// records its outcome as a marker; on replay fn is never re-invoked (it
// may not be safe to run twice), and the recorded outcome is recovered
// from history instead, spec.md section 4.B "LocalActivity".
func ExecuteLocalActivity(ctx Context, fn func() ([]byte, error)) Future {
	wsm := workflowEnvironment(ctx)
	future, settable := NewFuture()
	activityID := wsm.nextEntityID()

	if wsm.IsReplaying() {
		NewLocalActivityMachine(activityID, nil, nil, wsm.sinkCommand, wsm.observer, func(result []byte, err error) {
			settable.Set(result, err)
		})
		return future
	}

	result, err := fn()
	m := NewLocalActivityMachine(activityID, result, err, wsm.sinkCommand, wsm.observer, func(result []byte, err error) {
		settable.Set(result, err)
	})
	details := map[string][]byte{"result": result}
	if err != nil {
		details["error"] = []byte(err.Error())
	}
	m.handleMarkerRecorded(details["result"], err)
	return future
}

// UpsertSearchAttributes records a change to the workflow's indexed search
// attributes, spec.md section 4.B "UpsertSearchAttributes" and section 9
// ("completeWorkflow ... upsertSearchAttributes" public operations).
func UpsertSearchAttributes(ctx Context, attrs map[string]interface{}) {
	wsm := workflowEnvironment(ctx)
	NewUpsertSearchAttributesMachine(wsm.nextEntityID(), attrs, wsm.sinkCommand, wsm.observer)
}

// CompleteWorkflow ends the current workflow execution successfully with
// result, spec.md section 4.B "CompleteWorkflow". The machine is
// registered with the coordinator under its fixed id ("complete"). Each
// call builds a new machine and queues its own command; a second terminal
// call is not rejected here.
func CompleteWorkflow(ctx Context, result []byte) {
	wsm := workflowEnvironment(ctx)
	m := NewCompleteWorkflowMachine(result, wsm.sinkCommand, wsm.observer)
	wsm.machines[m.getID()] = m
}

// FailWorkflow ends the current workflow execution in failure, spec.md
// section 4.B "FailWorkflow".
func FailWorkflow(ctx Context, err *ApplicationError) {
	wsm := workflowEnvironment(ctx)
	NewFailWorkflowMachine(err, wsm.sinkCommand, wsm.observer)
}

// CancelWorkflow accepts an in-flight cancellation request and ends the
// workflow execution as cancelled, spec.md section 4.B "CancelWorkflow".
func CancelWorkflow(ctx Context, details []byte) {
	wsm := workflowEnvironment(ctx)
	NewCancelWorkflowMachine(details, wsm.sinkCommand, wsm.observer)
}

// ContinueAsNewWorkflow ends the current run and atomically starts a fresh
// one with the given workflow type and input, spec.md section 4.B
// "ContinueAsNew".
func ContinueAsNewWorkflow(ctx Context, workflowType string, input []byte) {
	wsm := workflowEnvironment(ctx)
	NewContinueAsNewMachine(workflowType, input, wsm.sinkCommand, wsm.observer)
}

// RandomUUID returns a deterministic, replay-stable UUID, spec.md section
// 9 "randomUUID" and section 8 "Randomness reproducibility".
func RandomUUID(ctx Context) uuid.UUID {
	return workflowEnvironment(ctx).RandomUUID()
}

// NewRandom returns a *rand.Rand seeded deterministically off RandomUUID,
// spec.md section 9 "newRandom".
func NewRandom(ctx Context) *rand.Rand {
	return workflowEnvironment(ctx).NewRandom()
}

// CurrentTimeMillis returns the latest WORKFLOW_TASK_STARTED timestamp
// observed by the coordinator, spec.md section 9 "currentTimeMillis" —
// the only source of "now" workflow code may consult.
func CurrentTimeMillis(ctx Context) int64 {
	return workflowEnvironment(ctx).CurrentTimeMillis()
}

// IsReplaying reports whether the enclosing workflow execution is
// currently replaying history, spec.md section 9 "isReplaying".
func IsReplaying(ctx Context) bool {
	return workflowEnvironment(ctx).IsReplaying()
}
