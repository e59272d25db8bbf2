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

	"github.com/stretchr/testify/require"
)

func feedBatch(t *testing.T, w *WorkflowStateMachines, events []*HistoryEvent) {
	t.Helper()
	for _, e := range events {
		require.NoError(t, w.HandleEvent(e))
	}
}

// TestActivityRoundTrip drives a full schedule -> start -> complete cycle
// across two workflow tasks and checks the activity's completion callback
// observes the recorded result (spec.md section 4.D.3-4.D.5).
func TestActivityRoundTrip(t *testing.T) {
	w := NewWorkflowStateMachines("run-1", nil, nil)

	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 100}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})
	require.Equal(t, int64(100), w.CurrentTimeMillis())

	var result []byte
	var completionErr error
	completed := false
	NewActivityMachine("1", "Foo", []byte("input"), ActivityCancellationTryCancel, w.sinkCommand, w.observer,
		func(r []byte, err error) {
			completed = true
			result = r
			completionErr = err
		})

	cmds := w.PrepareCommands()
	require.Len(t, cmds, 1)
	require.Equal(t, CommandTypeScheduleActivityTask, cmds[0].Type)
	attrs := cmds[0].Attributes.(ScheduleActivityTaskCommandAttributes)
	require.Equal(t, "1", attrs.ActivityID)
	require.Equal(t, "Foo", attrs.ActivityType)

	feedBatch(t, w, []*HistoryEvent{
		{EventID: 5, Type: EventTypeActivityTaskScheduled, Attributes: ActivityTaskScheduledAttributes{ActivityID: "1", ActivityType: "Foo"}},
		{EventID: 6, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 7, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 200}},
		{EventID: 8, Type: EventTypeActivityTaskStarted, Attributes: ActivityTaskStartedAttributes{ScheduledEventID: 5}},
		{EventID: 9, Type: EventTypeActivityTaskCompleted, Attributes: ActivityTaskCompletedAttributes{ScheduledEventID: 5, Result: []byte("done")}},
		{EventID: 10, Type: EventTypeWorkflowTaskCompleted},
	})

	require.True(t, completed)
	require.NoError(t, completionErr)
	require.Equal(t, []byte("done"), result)
	require.False(t, w.IsReplaying())
}

// TestActivityHeartbeatDetailsSurfacedOnRetry checks that a heartbeat
// detail payload carried on a retried attempt's ActivityTaskStarted event
// is readable back off the coordinator before the activity completes.
func TestActivityHeartbeatDetailsSurfacedOnRetry(t *testing.T) {
	w := NewWorkflowStateMachines("run-1", nil, nil)

	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
	})

	NewActivityMachine("1", "Foo", []byte("input"), ActivityCancellationTryCancel, w.sinkCommand, w.observer,
		func(r []byte, err error) {})
	w.PrepareCommands()

	_, ok := w.ActivityHeartbeatDetails("1")
	require.False(t, ok)

	feedBatch(t, w, []*HistoryEvent{
		{EventID: 2, Type: EventTypeActivityTaskScheduled, Attributes: ActivityTaskScheduledAttributes{ActivityID: "1", ActivityType: "Foo"}},
		{EventID: 3, Type: EventTypeActivityTaskStarted, Attributes: ActivityTaskStartedAttributes{ScheduledEventID: 2, Attempt: 2, LastHeartbeatDetails: []byte("progress:50%")}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})

	details, ok := w.ActivityHeartbeatDetails("1")
	require.True(t, ok)
	require.Equal(t, []byte("progress:50%"), details)
}

// TestCommandEventMismatchIsNonDeterministic checks that an event which
// doesn't match the head of the commands queue is reported as a
// NonDeterministicError rather than silently accepted (spec.md section
// 4.D.5).
func TestCommandEventMismatchIsNonDeterministic(t *testing.T) {
	w := NewWorkflowStateMachines("run-2", nil, nil)
	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})

	NewActivityMachine("1", "Foo", nil, ActivityCancellationTryCancel, w.sinkCommand, w.observer, func([]byte, error) {})
	w.PrepareCommands()

	// TimerStarted can never match a pending ScheduleActivityTask command.
	err := w.HandleEvent(&HistoryEvent{EventID: 5, Type: EventTypeTimerStarted, Attributes: TimerStartedAttributes{TimerID: "1"}})
	require.NoError(t, err) // buffered, batch not yet closed
	err = w.HandleEvent(&HistoryEvent{EventID: 6, Type: EventTypeWorkflowTaskCompleted})
	require.Error(t, err)
	require.IsType(t, (*NonDeterministicError)(nil), err)
}

// TestOrphanedVersionMarkerAbsorbed checks that a Version marker with no
// pending RecordMarker command (the getVersion call it came from having
// since been removed from workflow code) is absorbed rather than treated
// as a mismatch (spec.md section 4.B "Version").
func TestOrphanedVersionMarkerAbsorbed(t *testing.T) {
	w := NewWorkflowStateMachines("run-3", nil, nil)
	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})

	feedBatch(t, w, []*HistoryEvent{
		{EventID: 5, Type: EventTypeMarkerRecorded, Attributes: MarkerRecordedAttributes{
			MarkerName: string(MarkerNameVersion),
			Details:    map[string][]byte{"changeId": []byte("my-change"), "version": encodeIntDetail(3)},
		}},
		{EventID: 6, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 7, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 2}},
		{EventID: 8, Type: EventTypeWorkflowTaskCompleted},
	})

	vm, ok := w.versionMachines["my-change"]
	require.True(t, ok)
	require.Equal(t, 3, vm.recordedVersion)
}

// TestTerminalEventsAreNotDropped checks that WorkflowExecutionTimedOut and
// WorkflowExecutionTerminated are recorded as the execution's terminal
// event instead of silently falling through dispatchByInitiatingID's
// catch-all (spec.md section 9 flags exactly this failure mode).
func TestTerminalEventsAreNotDropped(t *testing.T) {
	for _, tc := range []struct {
		name string
		typ  EventType
	}{
		{"TimedOut", EventTypeWorkflowExecutionTimedOut},
		{"Terminated", EventTypeWorkflowExecutionTerminated},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWorkflowStateMachines("run-4", nil, nil)
			feedBatch(t, w, []*HistoryEvent{
				{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
				{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
				{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
				{EventID: 4, Type: tc.typ},
				{EventID: 5, Type: EventTypeWorkflowTaskCompleted},
			})
			require.NotNil(t, w.TerminalEvent())
			require.Equal(t, tc.typ, w.TerminalEvent().Type)
		})
	}
}

// TestDuplicateEventDropped checks spec.md section 4.D.1's strict
// monotonicity rule: an event at or below the last handled id is dropped
// rather than reprocessed.
func TestDuplicateEventDropped(t *testing.T) {
	w := NewWorkflowStateMachines("run-5", nil, nil)
	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})
	require.NoError(t, w.HandleEvent(&HistoryEvent{EventID: 4, Type: EventTypeWorkflowTaskCompleted}))
	require.Equal(t, int64(4), w.lastHandledEventID)
}

// TestCompleteWorkflowTerminatesExecution drives CompleteWorkflow through a
// full command/event round trip and checks the owning machine reaches its
// final state, spec.md section 4.B "CompleteWorkflow" and section 4.D.6's
// requirement that workflow code have a real way to end an execution.
func TestCompleteWorkflowTerminatesExecution(t *testing.T) {
	w := NewWorkflowStateMachines("run-6", nil, nil)
	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})

	ctx := WithWorkflowEnvironment(Background(), w)
	CompleteWorkflow(ctx, []byte("result"))

	cmds := w.PrepareCommands()
	require.Len(t, cmds, 1)
	require.Equal(t, CommandTypeCompleteWorkflowExecution, cmds[0].Type)
	attrs := cmds[0].Attributes.(CompleteWorkflowExecutionCommandAttributes)
	require.Equal(t, []byte("result"), attrs.Result)

	feedBatch(t, w, []*HistoryEvent{
		{EventID: 5, Type: EventTypeWorkflowExecutionCompleted},
		{EventID: 6, Type: EventTypeWorkflowTaskCompleted},
	})

	m, ok := w.machines[machineID{kind: entityKindCompleteWorkflow, id: "complete"}]
	require.True(t, ok)
	require.True(t, m.isFinalState())
}

// TestGetVersionRejectsOutOfRangeRecordedVersion checks spec.md section
// 4.B "Version": a recorded value outside [minSupported, maxSupported]
// must fail deterministically rather than silently running whatever
// branch the out-of-range number happens to select.
func TestGetVersionRejectsOutOfRangeRecordedVersion(t *testing.T) {
	w := NewWorkflowStateMachines("run-7", nil, nil)
	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})

	ctx := WithWorkflowEnvironment(Background(), w)
	GetVersion(ctx, "my-change", 1, 3) // records 3
	future := GetVersion(ctx, "my-change", 5, 10)
	err := future.Get(ctx, nil)
	require.Error(t, err)
	require.IsType(t, (*ApplicationError)(nil), err)
}

// TestGetVersionReusesRecordedValueWithoutReRecording checks spec.md
// section 4.B "subsequent calls return the recorded value": a second call
// for the same changeID must not emit a second RecordMarker command.
func TestGetVersionReusesRecordedValueWithoutReRecording(t *testing.T) {
	w := NewWorkflowStateMachines("run-8", nil, nil)
	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})

	ctx := WithWorkflowEnvironment(Background(), w)
	first := GetVersion(ctx, "my-change", 1, 3)
	require.NoError(t, first.Get(ctx, nil))

	cmdsAfterFirst := w.PrepareCommands()
	require.Len(t, cmdsAfterFirst, 1)

	second := GetVersion(ctx, "my-change", 1, 3)
	var version int
	require.NoError(t, second.Get(ctx, &version))
	require.Equal(t, 3, version)

	require.Len(t, w.PrepareCommands(), 1, "a second call for the same changeID must not queue a second marker")
}

// TestMutableSideEffectRecordsOnlyOnChange drives spec.md section 8
// scenario 5 literally: three calls with the same value record exactly
// one marker, and a later call with a changed value records a second.
func TestMutableSideEffectRecordsOnlyOnChange(t *testing.T) {
	w := NewWorkflowStateMachines("run-9", nil, nil)
	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})
	ctx := WithWorkflowEnvironment(Background(), w)

	value42 := map[string][]byte{"value": encodeIntDetail(42)}
	for i := 0; i < 3; i++ {
		f := MutableSideEffect(ctx, "x", value42)
		var got map[string][]byte
		require.NoError(t, f.Get(ctx, &got))
		require.Equal(t, value42, got)
	}
	require.Len(t, w.PrepareCommands(), 1, "three calls with an unchanged value must record exactly one marker")

	value43 := map[string][]byte{"value": encodeIntDetail(43)}
	f := MutableSideEffect(ctx, "x", value43)
	var got map[string][]byte
	require.NoError(t, f.Get(ctx, &got))
	require.Equal(t, value43, got)
	require.Len(t, w.PrepareCommands(), 2, "a changed value must record a new marker")
}

// TestNewRandomIsDeterministicAcrossReplay checks spec.md section 8
// "Randomness reproducibility": two coordinators seeded with the same
// runID produce bit-identical *rand.Rand sequences.
func TestNewRandomIsDeterministicAcrossReplay(t *testing.T) {
	w1 := NewWorkflowStateMachines("run-10", nil, nil)
	w2 := NewWorkflowStateMachines("run-10", nil, nil)

	r1 := w1.NewRandom()
	r2 := w2.NewRandom()
	require.Equal(t, r1.Int63(), r2.Int63())
	require.Equal(t, r1.Int63(), r2.Int63())
}

// TestNonDeterministicWorkflowPolicyFailWorkflowQueuesFailCommand checks
// SPEC_FULL.md section 4 "Non-determinism workflow policies":
// NonDeterministicWorkflowPolicyFailWorkflow must queue a
// FailWorkflowExecution command in addition to returning the detected
// mismatch, unlike the default Block policy which only returns it.
func TestNonDeterministicWorkflowPolicyFailWorkflowQueuesFailCommand(t *testing.T) {
	w := NewWorkflowStateMachines("run-11", nil, nil)
	w.SetNonDeterministicWorkflowPolicy(NonDeterministicWorkflowPolicyFailWorkflow)
	feedBatch(t, w, []*HistoryEvent{
		{EventID: 1, Type: EventTypeWorkflowExecutionStarted},
		{EventID: 2, Type: EventTypeWorkflowTaskScheduled},
		{EventID: 3, Type: EventTypeWorkflowTaskStarted, Attributes: WorkflowTaskStartedAttributes{CurrentTimeMillis: 1}},
		{EventID: 4, Type: EventTypeWorkflowTaskCompleted},
	})

	NewActivityMachine("1", "Foo", nil, ActivityCancellationTryCancel, w.sinkCommand, w.observer, func([]byte, error) {})
	w.PrepareCommands()

	err := w.HandleEvent(&HistoryEvent{EventID: 5, Type: EventTypeTimerStarted, Attributes: TimerStartedAttributes{TimerID: "1"}})
	require.NoError(t, err)
	err = w.HandleEvent(&HistoryEvent{EventID: 6, Type: EventTypeWorkflowTaskCompleted})
	require.Error(t, err)
	require.IsType(t, (*NonDeterministicError)(nil), err)

	cmds := w.PrepareCommands()
	var sawFailWorkflow bool
	for _, c := range cmds {
		if c.Type == CommandTypeFailWorkflowExecution {
			sawFailWorkflow = true
		}
	}
	require.True(t, sawFailWorkflow, "FailWorkflow policy must queue a FailWorkflowExecution command")
}
