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

import "sync"

// ActivityCancellationType governs whether and when a cancelled activity's
// completion callback fires, per spec.md section 4.B.
type ActivityCancellationType int32

const (
	ActivityCancellationTryCancel ActivityCancellationType = iota
	ActivityCancellationWaitCancellationCompleted
	ActivityCancellationWaitCancellationRequested
	ActivityCancellationAbandon
)

const (
	activityStateCreated                  machineState = "CREATED"
	activityStateScheduleCommandCreated    machineState = "SCHEDULE_COMMAND_CREATED"
	activityStateScheduledEventRecorded    machineState = "SCHEDULED_EVENT_RECORDED"
	activityStateStarted                  machineState = "STARTED"
	activityStateCancelCommandCreated      machineState = "SCHEDULED_ACTIVITY_CANCEL_COMMAND_CREATED"
	activityStateCompleted                machineState = "COMPLETED"
	activityStateFailed                   machineState = "FAILED"
	activityStateTimedOut                 machineState = "TIMED_OUT"
	activityStateCanceled                 machineState = "CANCELED"
)

const (
	explicitEventCancelAbandon explicitEvent = "CANCEL_ABANDON"
	explicitEventCancelRequest explicitEvent = "CANCEL_REQUEST"
)

var activityMachineDefinition *StateMachineDefinition
var activityMachineDefinitionOnce sync.Once

func getActivityMachineDefinition() *StateMachineDefinition {
	activityMachineDefinitionOnce.Do(func() {
		d := NewStateMachineDefinition("Activity", activityStateCreated,
			activityStateCompleted, activityStateFailed, activityStateTimedOut, activityStateCanceled)

		d.AddTransition(activityStateCreated, explicitEventSchedule, activityStateScheduleCommandCreated, nil)

		d.AddTransition(activityStateScheduleCommandCreated, EventTypeActivityTaskScheduled, activityStateScheduledEventRecorded, nil)
		d.AddTransition(activityStateScheduleCommandCreated, explicitEventCancelAbandon, activityStateCanceled, func(m machineInstance) {
			m.(*ActivityMachine).cancelCommand.cancel()
			m.(*ActivityMachine).invokeCompletion(nil, NewCanceledError())
		})

		d.AddTransition(activityStateScheduledEventRecorded, EventTypeActivityTaskStarted, activityStateStarted, nil)
		d.AddTransition(activityStateScheduledEventRecorded, EventTypeActivityTaskCompleted, activityStateCompleted, func(m machineInstance) {
			m.(*ActivityMachine).onCompleted()
		})
		d.AddTransition(activityStateScheduledEventRecorded, EventTypeActivityTaskFailed, activityStateFailed, func(m machineInstance) {
			m.(*ActivityMachine).onFailed()
		})
		d.AddTransition(activityStateScheduledEventRecorded, EventTypeActivityTaskTimedOut, activityStateTimedOut, func(m machineInstance) {
			m.(*ActivityMachine).onTimedOut()
		})
		d.AddTransition(activityStateScheduledEventRecorded, explicitEventCancelAbandon, activityStateCanceled, func(m machineInstance) {
			m.(*ActivityMachine).invokeCompletion(nil, NewCanceledError())
		})
		d.AddTransition(activityStateScheduledEventRecorded, explicitEventCancelRequest, activityStateCancelCommandCreated, func(m machineInstance) {
			a := m.(*ActivityMachine)
			a.cancelCommand = &CancellableCommand{Command: &Command{
				Type:       CommandTypeRequestCancelActivityTask,
				Attributes: RequestCancelActivityTaskCommandAttributes{ScheduledEventID: a.scheduledEventID},
			}, owner: a}
			a.commandSink(a.cancelCommand)
			if a.cancellationType == ActivityCancellationTryCancel {
				a.invokeCompletion(nil, NewCanceledError())
			}
		})

		d.AddTransition(activityStateStarted, EventTypeActivityTaskCompleted, activityStateCompleted, func(m machineInstance) {
			m.(*ActivityMachine).onCompleted()
		})
		d.AddTransition(activityStateStarted, EventTypeActivityTaskFailed, activityStateFailed, func(m machineInstance) {
			m.(*ActivityMachine).onFailed()
		})
		d.AddTransition(activityStateStarted, EventTypeActivityTaskTimedOut, activityStateTimedOut, func(m machineInstance) {
			m.(*ActivityMachine).onTimedOut()
		})
		d.AddTransition(activityStateStarted, explicitEventCancelAbandon, activityStateCanceled, func(m machineInstance) {
			m.(*ActivityMachine).invokeCompletion(nil, NewCanceledError())
		})
		d.AddTransition(activityStateStarted, explicitEventCancelRequest, activityStateCancelCommandCreated, func(m machineInstance) {
			a := m.(*ActivityMachine)
			a.cancelCommand = &CancellableCommand{Command: &Command{
				Type:       CommandTypeRequestCancelActivityTask,
				Attributes: RequestCancelActivityTaskCommandAttributes{ScheduledEventID: a.scheduledEventID},
			}, owner: a}
			a.commandSink(a.cancelCommand)
			if a.cancellationType == ActivityCancellationTryCancel {
				a.invokeCompletion(nil, NewCanceledError())
			}
		})

		d.AddTransition(activityStateCancelCommandCreated, EventTypeActivityTaskCancelRequested, activityStateCancelCommandCreated, func(m machineInstance) {
			a := m.(*ActivityMachine)
			if a.cancellationType == ActivityCancellationWaitCancellationRequested {
				a.invokeCompletion(nil, NewCanceledError())
			}
		})
		d.AddTransition(activityStateCancelCommandCreated, EventTypeActivityTaskCompleted, activityStateCompleted, func(m machineInstance) {
			m.(*ActivityMachine).onCompleted()
		})
		d.AddTransition(activityStateCancelCommandCreated, EventTypeActivityTaskFailed, activityStateFailed, func(m machineInstance) {
			m.(*ActivityMachine).onFailed()
		})
		d.AddTransition(activityStateCancelCommandCreated, EventTypeActivityTaskTimedOut, activityStateTimedOut, func(m machineInstance) {
			m.(*ActivityMachine).onTimedOut()
		})
		d.AddTransition(activityStateCancelCommandCreated, EventTypeActivityTaskCanceled, activityStateCanceled, func(m machineInstance) {
			a := m.(*ActivityMachine)
			a.invokeCompletion(nil, NewCanceledError())
		})

		activityMachineDefinition = d
	})
	return activityMachineDefinition
}

// ActivityMachine is the entity state machine for a scheduled activity
// task, spec.md section 4.B.
type ActivityMachine struct {
	*machineBase
	scheduledEventID int64
	activityID       string
	activityType     string
	cancellationType ActivityCancellationType
	cancelCommand    *CancellableCommand

	completionOnce sync.Once
	completion     func(result []byte, err error)

	pendingResult []byte
	pendingErr    error

	// lastHeartbeatDetails is the most recent RecordActivityHeartbeat
	// payload the service observed for this activity, carried on its
	// ActivityTaskStarted event for every attempt after the first
	// (spec.md section 4.B's retry semantics) so retried activity code can
	// resume from where it left off instead of redoing completed work.
	lastHeartbeatDetails []byte
}

// NewActivityMachine constructs the machine and immediately fires the
// internal SCHEDULE trigger, emitting the ScheduleActivityTask command
// (spec.md section 4.B.2).
func NewActivityMachine(
	activityID, activityType string,
	input []byte,
	cancellationType ActivityCancellationType,
	commandSink func(*CancellableCommand),
	observer StateMachineObserver,
	completion func(result []byte, err error),
) *ActivityMachine {
	base := newMachineBase(machineID{kind: entityKindActivity, id: activityID}, getActivityMachineDefinition(), commandSink, observer)
	a := &ActivityMachine{
		machineBase:      base,
		activityID:       activityID,
		activityType:     activityType,
		cancellationType: cancellationType,
		completion:       completion,
	}
	a.setSelf(a)
	a.fire(explicitEventSchedule)
	cmd := &CancellableCommand{Command: &Command{
		Type: CommandTypeScheduleActivityTask,
		Attributes: ScheduleActivityTaskCommandAttributes{
			ActivityID:   activityID,
			ActivityType: activityType,
			Input:        input,
		},
	}, owner: a}
	commandSink(cmd)
	return a
}

func (a *ActivityMachine) commandToEmit() *Command { return nil }

func (a *ActivityMachine) handleCommandSent() {}

// cancel implements the cancellation policy dispatch of spec.md section
// 4.B: a no-op if the machine is already terminal, otherwise fires the
// trigger matching a.cancellationType.
func (a *ActivityMachine) cancel() {
	if a.isFinalState() {
		return
	}
	if a.cancellationType == ActivityCancellationAbandon {
		a.fire(explicitEventCancelAbandon)
		return
	}
	a.fire(explicitEventCancelRequest)
}

// handleScheduledEventID records the scheduled event id once the
// ScheduleActivityTask command has produced its matching history event;
// later cancel/completion events reference the activity by this id.
func (a *ActivityMachine) handleScheduledEventID(id int64) {
	a.scheduledEventID = id
	a.fire(EventTypeActivityTaskScheduled)
}

func (a *ActivityMachine) handleStarted(lastHeartbeatDetails []byte) {
	a.lastHeartbeatDetails = lastHeartbeatDetails
	a.fire(EventTypeActivityTaskStarted)
}

// LastHeartbeatDetails returns the most recent heartbeat payload recorded
// for this activity before its current attempt started, or nil if none
// was recorded (first attempt, or the activity never heartbeats).
func (a *ActivityMachine) LastHeartbeatDetails() []byte { return a.lastHeartbeatDetails }

func (a *ActivityMachine) handleCompleted(result []byte) {
	a.pendingResult = result
	a.fire(EventTypeActivityTaskCompleted)
}

func (a *ActivityMachine) handleFailed(err error) {
	a.pendingErr = err
	a.fire(EventTypeActivityTaskFailed)
}

func (a *ActivityMachine) handleTimedOut(err error) {
	a.pendingErr = err
	a.fire(EventTypeActivityTaskTimedOut)
}

func (a *ActivityMachine) handleCancelRequested() { a.fire(EventTypeActivityTaskCancelRequested) }

func (a *ActivityMachine) handleCanceled() { a.fire(EventTypeActivityTaskCanceled) }

// pendingResult/pendingErr stash the most recent event payload between
// fire() (which only knows the trigger) and the transition action (which
// needs the payload).
func (a *ActivityMachine) onCompleted() { a.invokeCompletion(a.pendingResult, nil) }
func (a *ActivityMachine) onFailed()    { a.invokeCompletion(nil, a.pendingErr) }
func (a *ActivityMachine) onTimedOut()  { a.invokeCompletion(nil, a.pendingErr) }

// invokeCompletion fires the completion callback exactly once (spec.md
// section 8, "At-most-once completion"), regardless of how many terminal
// paths lead here (normal completion, early TRY_CANCEL resolution, ABANDON).
func (a *ActivityMachine) invokeCompletion(result []byte, err error) {
	a.completionOnce.Do(func() {
		if a.completion != nil {
			a.completion(result, err)
		}
	})
}
